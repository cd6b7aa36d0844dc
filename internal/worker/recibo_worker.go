package worker

// recibo_worker.go
// Processes receipt jobs from QueueRecibo: loads the pago with its plan and
// venta, renders the PDF recibo, and — when the cliente has an email —
// enqueues an email job with the PDF attached.

import (
	"context"
	"encoding/json"
	"fmt"

	"sinai/internal/infra"
	"sinai/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReciboJobPayload is the job envelope sent to QueueRecibo.
type ReciboJobPayload struct {
	PagoID string `json:"pago_id"`
}

type ReciboWorker struct {
	planRepo    repository.PlanPagoRepository
	ventaRepo   repository.VentaRepository
	dispatcher  *Dispatcher
	storagePath string
}

func NewReciboWorker(
	planRepo repository.PlanPagoRepository,
	ventaRepo repository.VentaRepository,
	dispatcher *Dispatcher,
	storagePath string,
) *ReciboWorker {
	return &ReciboWorker{
		planRepo:    planRepo,
		ventaRepo:   ventaRepo,
		dispatcher:  dispatcher,
		storagePath: storagePath,
	}
}

// Process renders the PDF for one pago and optionally enqueues the email.
// A malformed payload or a deleted pago is dropped, not retried: the recibo
// can always be regenerated once the pago exists again.
func (w *ReciboWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReciboJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("recibo_worker: invalid payload")
		return nil
	}
	pagoID, err := uuid.Parse(payload.PagoID)
	if err != nil {
		log.Error().Str("pago_id", payload.PagoID).Msg("recibo_worker: invalid pago_id")
		return nil
	}

	pago, err := w.planRepo.FindPagoByID(ctx, pagoID)
	if err != nil {
		log.Warn().Str("pago_id", payload.PagoID).Msg("recibo_worker: pago no longer exists — skipping")
		return nil
	}
	plan, err := w.planRepo.FindByID(ctx, pago.PlanPagoID)
	if err != nil {
		return fmt.Errorf("recibo_worker: load plan: %w", err)
	}
	venta, err := w.ventaRepo.FindByID(ctx, plan.VentaID)
	if err != nil {
		return fmt.Errorf("recibo_worker: load venta: %w", err)
	}

	pagado := plan.MontoInicial
	for i := range plan.Pagos {
		pagado = pagado.Add(plan.Pagos[i].Monto)
	}
	pendiente := decimal.Max(plan.Total.Sub(pagado), decimal.Zero)

	data := infra.ReciboData{
		PagoID:         pago.ID.String(),
		Monto:          pago.Monto,
		MetodoPago:     pago.MetodoPago,
		FechaPago:      pago.FechaPago,
		TotalPlan:      plan.Total,
		TotalPagado:    pagado,
		SaldoPendiente: pendiente,
		CuotasPlazo:    plan.Plazo,
	}
	var clienteEmail *string
	if venta.Cliente != nil {
		data.ClienteNombre = venta.Cliente.Nombre
		clienteEmail = venta.Cliente.Email
	}
	if venta.Lote != nil {
		data.LoteCodigo = venta.Lote.Codigo
	}

	pdfPath, err := infra.GenerateReciboPDF(data, w.storagePath)
	if err != nil {
		return fmt.Errorf("recibo_worker: generate PDF: %w", err)
	}
	log.Info().Str("pago_id", payload.PagoID).Str("pdf", pdfPath).Msg("recibo_worker: recibo generated")

	if clienteEmail != nil && *clienteEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: *clienteEmail,
			Subject: fmt.Sprintf("Recibo de pago — Lote %s", data.LoteCodigo),
			Body: fmt.Sprintf("Adjunto encontrarás el recibo de tu pago de $%s.\nSaldo pendiente: $%s",
				pago.Monto.StringFixed(2), pendiente.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *clienteEmail).Msg("recibo_worker: failed to enqueue email")
		}
	}
	return nil
}
