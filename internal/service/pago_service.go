package service

import (
	"context"
	"fmt"
	"time"

	"sinai/internal/apierror"
	"sinai/internal/dto"
	"sinai/internal/infra"
	"sinai/internal/model"
	"sinai/internal/repository"
	"sinai/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PagoService is the reconciliation coordinator: every state change to a
// PagoPlanPago commits together with its exactly-matching, signed effect on
// one caja balance. Both rows are locked for the whole sequence; any failure
// rolls the pair back.
type PagoService interface {
	Registrar(ctx context.Context, usuarioID *uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error)
	Actualizar(ctx context.Context, pagoID uuid.UUID, usuarioID *uuid.UUID, req dto.ActualizarPagoRequest) (*dto.PagoResponse, error)
	Eliminar(ctx context.Context, pagoID uuid.UUID, usuarioID *uuid.UUID) error
	ActualizarMontoInicial(ctx context.Context, ventaID uuid.UUID, usuarioID *uuid.UUID, req dto.ActualizarMontoInicialRequest) (*dto.PlanPagoResponse, error)
}

type pagoService struct {
	planRepo   repository.PlanPagoRepository
	cajaRepo   repository.CajaRepository
	cache      *infra.SaldoCache
	dispatcher *worker.Dispatcher
	graciaDias int
}

func NewPagoService(
	planRepo repository.PlanPagoRepository,
	cajaRepo repository.CajaRepository,
	cache *infra.SaldoCache,
	dispatcher *worker.Dispatcher,
	graciaDias int,
) PagoService {
	return &pagoService{
		planRepo:   planRepo,
		cajaRepo:   cajaRepo,
		cache:      cache,
		dispatcher: dispatcher,
		graciaDias: graciaDias,
	}
}

// ── Registrar ─────────────────────────────────────────────────────────────────
// 1. Lock plan, validate it accepts payments.
// 2. Lock caja, validate abierta.
// 3. Overpayment check against the locked outstanding balance.
// 4. Ingreso movement + saldo update + pago row, one transaction.

func (s *pagoService) Registrar(ctx context.Context, usuarioID *uuid.UUID, req dto.RegistrarPagoRequest) (*dto.PagoResponse, error) {
	planID, err := uuid.Parse(req.PlanPagoID)
	if err != nil {
		return nil, apierror.Validation("plan_pago_id inválido")
	}
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, apierror.Validation("caja_id inválido")
	}
	if montoInvalido(req.Monto) {
		return nil, apierror.Validation("el monto mínimo es 0.01, sin fracciones de centavo")
	}
	fechaPago, err := parseFechaOpcional(req.FechaPago)
	if err != nil {
		return nil, err
	}

	pago := &model.PagoPlanPago{
		ID:          uuid.New(),
		PlanPagoID:  planID,
		CajaID:      cajaID,
		UsuarioID:   usuarioID,
		Monto:       req.Monto,
		FechaPago:   fechaPago,
		MetodoPago:  req.MetodoPago,
		Observacion: req.Observacion,
	}

	txErr := runTx(ctx, s.planRepo.DB(), func(tx *gorm.DB) error {
		plan, err := s.planRepo.FindByIDForUpdate(ctx, tx, planID)
		if err != nil {
			return notFoundOr(err, "plan de pago no encontrado")
		}
		if plan.Estado == model.PlanCancelado {
			return apierror.Validation("el plan está cancelado y no acepta pagos")
		}
		pendiente := saldoPendiente(plan)
		if pendiente.IsZero() {
			return apierror.Validation("el plan ya está pagado en su totalidad")
		}
		if req.Monto.GreaterThan(pendiente) {
			return apierror.Overpayment(fmt.Sprintf(
				"el pago de %s excede el saldo pendiente de %s",
				req.Monto.StringFixed(2), pendiente.StringFixed(2)))
		}

		caja, err := s.cajaRepo.FindByIDForUpdate(ctx, tx, cajaID)
		if err != nil {
			return notFoundOr(err, "caja no encontrada")
		}
		if caja.Estado != model.CajaAbierta {
			return apierror.ClosedBox("la caja está cerrada y no acepta movimientos")
		}

		if err := s.postMovimiento(ctx, tx, caja, model.MovimientoIngreso, req.Monto,
			fmt.Sprintf("Pago de cuota — plan %s", plan.ID), req.MetodoPago, &pago.ID, fechaPago, usuarioID); err != nil {
			return err
		}

		if err := s.planRepo.CreatePagoTx(orDB(tx, s.planRepo.DB()), pago); err != nil {
			return err
		}

		plan.Pagos = append(plan.Pagos, *pago)
		return s.refreshEstado(ctx, tx, plan)
	})
	if txErr != nil {
		return nil, translateLockErr(txErr)
	}

	s.cache.Invalidate(ctx, cajaID)
	s.enqueueRecibo(ctx, pago)
	return pagoToResponse(pago), nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// Corrections are compensating entries, never in-place edits of the ledger:
// a monto change posts the signed delta on the pago's caja; a caja change
// reverses the full old monto on the old caja and posts the full new monto
// on the new one. Both cajas must be abiertas for their movements.

func (s *pagoService) Actualizar(ctx context.Context, pagoID uuid.UUID, usuarioID *uuid.UUID, req dto.ActualizarPagoRequest) (*dto.PagoResponse, error) {
	// The pre-lock read only locates the plan; every figure used below comes
	// from a fresh read taken after the plan lock, so a concurrent edit or
	// delete that committed first is observed instead of overwritten.
	ref, err := s.planRepo.FindPagoByID(ctx, pagoID)
	if err != nil {
		return nil, apierror.NotFound("pago no encontrado")
	}

	if req.Monto != nil && montoInvalido(*req.Monto) {
		return nil, apierror.Validation("el monto mínimo es 0.01, sin fracciones de centavo")
	}

	var cajaOverride *uuid.UUID
	if req.CajaID != nil {
		parsed, err := uuid.Parse(*req.CajaID)
		if err != nil {
			return nil, apierror.Validation("caja_id inválido")
		}
		cajaOverride = &parsed
	}

	var nuevaFecha *time.Time
	if req.FechaPago != nil {
		f, err := parseFechaOpcional(req.FechaPago)
		if err != nil {
			return nil, err
		}
		nuevaFecha = &f
	}

	var (
		pago         *model.PagoPlanPago
		cajaViejaID  uuid.UUID
		nuevaCajaID  uuid.UUID
		cambioDeCaja bool
	)
	txErr := runTx(ctx, s.planRepo.DB(), func(tx *gorm.DB) error {
		plan, err := s.planRepo.FindByIDForUpdate(ctx, tx, ref.PlanPagoID)
		if err != nil {
			return notFoundOr(err, "plan de pago no encontrado")
		}
		if plan.Estado == model.PlanCancelado {
			return apierror.Validation("el plan está cancelado")
		}

		pago, err = s.planRepo.FindPagoByID(ctx, pagoID)
		if err != nil {
			return notFoundOr(err, "pago no encontrado")
		}

		nuevoMonto := pago.Monto
		if req.Monto != nil {
			nuevoMonto = *req.Monto
		}
		cajaViejaID = pago.CajaID
		nuevaCajaID = pago.CajaID
		if cajaOverride != nil {
			nuevaCajaID = *cajaOverride
		}
		cambioDeCaja = nuevaCajaID != cajaViejaID

		// Re-validate excluding this pago's own prior contribution.
		disponible := saldoPendienteSin(plan, pago.ID)
		if nuevoMonto.GreaterThan(disponible) {
			return apierror.Overpayment(fmt.Sprintf(
				"el nuevo monto %s excede el saldo pendiente de %s",
				nuevoMonto.StringFixed(2), disponible.StringFixed(2)))
		}

		montoViejo := pago.Monto
		cajaVieja, err := s.cajaRepo.FindByIDForUpdate(ctx, tx, pago.CajaID)
		if err != nil {
			return notFoundOr(err, "caja original no encontrada")
		}

		fechaMov := time.Now()
		if cambioDeCaja {
			cajaNueva, err := s.cajaRepo.FindByIDForUpdate(ctx, tx, nuevaCajaID)
			if err != nil {
				return notFoundOr(err, "caja destino no encontrada")
			}
			if cajaVieja.Estado != model.CajaAbierta {
				return apierror.ClosedBox("la caja original está cerrada, no se puede revertir el pago")
			}
			if cajaNueva.Estado != model.CajaAbierta {
				return apierror.ClosedBox("la caja destino está cerrada")
			}

			if err := s.postMovimiento(ctx, tx, cajaVieja, model.MovimientoEgreso, montoViejo,
				fmt.Sprintf("Reversión pago %s (cambio de caja)", pago.ID), pago.MetodoPago, &pago.ID, fechaMov, usuarioID); err != nil {
				return err
			}
			if err := s.postMovimiento(ctx, tx, cajaNueva, model.MovimientoIngreso, nuevoMonto,
				fmt.Sprintf("Pago %s reubicado", pago.ID), metodoDe(req.MetodoPago, pago.MetodoPago), &pago.ID, fechaMov, usuarioID); err != nil {
				return err
			}
		} else if !nuevoMonto.Equal(montoViejo) {
			if cajaVieja.Estado != model.CajaAbierta {
				return apierror.ClosedBox("la caja está cerrada, no se puede corregir el pago")
			}
			delta := nuevoMonto.Sub(montoViejo)
			tipo := model.MovimientoIngreso
			if delta.IsNegative() {
				tipo = model.MovimientoEgreso
			}
			if err := s.postMovimiento(ctx, tx, cajaVieja, tipo, delta.Abs(),
				fmt.Sprintf("Corrección pago %s", pago.ID), metodoDe(req.MetodoPago, pago.MetodoPago), &pago.ID, fechaMov, usuarioID); err != nil {
				return err
			}
		}

		pago.Monto = nuevoMonto
		pago.CajaID = nuevaCajaID
		if nuevaFecha != nil {
			pago.FechaPago = *nuevaFecha
		}
		if req.MetodoPago != nil {
			pago.MetodoPago = *req.MetodoPago
		}
		if req.Observacion != nil {
			pago.Observacion = req.Observacion
		}
		if err := s.planRepo.UpdatePagoTx(orDB(tx, s.planRepo.DB()), pago); err != nil {
			return err
		}

		replacePago(plan, pago)
		return s.refreshEstado(ctx, tx, plan)
	})
	if txErr != nil {
		return nil, translateLockErr(txErr)
	}

	s.cache.Invalidate(ctx, cajaViejaID)
	if cambioDeCaja {
		s.cache.Invalidate(ctx, nuevaCajaID)
	}
	return pagoToResponse(pago), nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────
// Removing a pago posts a compensating egreso restoring the pre-payment
// saldo; the ledger keeps the full trail.

func (s *pagoService) Eliminar(ctx context.Context, pagoID uuid.UUID, usuarioID *uuid.UUID) error {
	// Only the plan reference may come from before the lock: the pago itself
	// is re-read once the plan is locked, so two concurrent deletes post one
	// reversal between them instead of one each.
	ref, err := s.planRepo.FindPagoByID(ctx, pagoID)
	if err != nil {
		return apierror.NotFound("pago no encontrado")
	}

	var cajaID uuid.UUID
	txErr := runTx(ctx, s.planRepo.DB(), func(tx *gorm.DB) error {
		plan, err := s.planRepo.FindByIDForUpdate(ctx, tx, ref.PlanPagoID)
		if err != nil {
			return notFoundOr(err, "plan de pago no encontrado")
		}

		pago, err := s.planRepo.FindPagoByID(ctx, pagoID)
		if err != nil {
			return notFoundOr(err, "pago no encontrado")
		}
		cajaID = pago.CajaID

		caja, err := s.cajaRepo.FindByIDForUpdate(ctx, tx, pago.CajaID)
		if err != nil {
			return notFoundOr(err, "caja no encontrada")
		}
		if caja.Estado != model.CajaAbierta {
			return apierror.ClosedBox("la caja está cerrada, no se puede revertir el pago")
		}

		if err := s.postMovimiento(ctx, tx, caja, model.MovimientoEgreso, pago.Monto,
			fmt.Sprintf("Reversión pago %s eliminado", pago.ID), pago.MetodoPago, &pago.ID, time.Now(), usuarioID); err != nil {
			return err
		}

		if err := s.planRepo.DeletePagoTx(orDB(tx, s.planRepo.DB()), pago.ID); err != nil {
			return notFoundOr(err, "pago no encontrado")
		}

		removePago(plan, pago.ID)
		return s.refreshEstado(ctx, tx, plan)
	})
	if txErr != nil {
		return translateLockErr(txErr)
	}

	s.cache.Invalidate(ctx, cajaID)
	return nil
}

// ── ActualizarMontoInicial ────────────────────────────────────────────────────
// A retroactive down-payment change reconciles its delta like a payment edit:
// positive delta posts an ingreso, negative an egreso, on the given caja.

func (s *pagoService) ActualizarMontoInicial(ctx context.Context, ventaID uuid.UUID, usuarioID *uuid.UUID, req dto.ActualizarMontoInicialRequest) (*dto.PlanPagoResponse, error) {
	if req.MontoInicial.IsNegative() || !req.MontoInicial.Equal(req.MontoInicial.Round(2)) {
		return nil, apierror.Validation("el monto inicial no puede ser negativo ni llevar fracciones de centavo")
	}
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, apierror.Validation("caja_id inválido")
	}

	planRef, err := s.planRepo.FindByVentaID(ctx, ventaID)
	if err != nil {
		return nil, apierror.NotFound("la venta no tiene plan de pago")
	}

	var plan *model.PlanPago
	txErr := runTx(ctx, s.planRepo.DB(), func(tx *gorm.DB) error {
		var err error
		plan, err = s.planRepo.FindByIDForUpdate(ctx, tx, planRef.ID)
		if err != nil {
			return notFoundOr(err, "plan de pago no encontrado")
		}
		if plan.Estado == model.PlanCancelado {
			return apierror.Validation("el plan está cancelado")
		}
		if req.MontoInicial.GreaterThan(plan.Total) {
			return apierror.Validation("el monto inicial no puede superar el total de la venta")
		}

		viejo := plan.MontoInicial
		delta := req.MontoInicial.Sub(viejo)
		if delta.IsZero() {
			return nil
		}

		// The new down payment plus existing pagos must not exceed the total.
		pagosSum := totalPagado(plan).Sub(viejo)
		if req.MontoInicial.Add(pagosSum).GreaterThan(plan.Total) {
			return apierror.Overpayment("el nuevo monto inicial dejaría el plan sobrepagado")
		}

		caja, err := s.cajaRepo.FindByIDForUpdate(ctx, tx, cajaID)
		if err != nil {
			return notFoundOr(err, "caja no encontrada")
		}
		if caja.Estado != model.CajaAbierta {
			return apierror.ClosedBox("la caja está cerrada y no acepta movimientos")
		}

		tipo := model.MovimientoIngreso
		if delta.IsNegative() {
			tipo = model.MovimientoEgreso
		}
		if err := s.postMovimiento(ctx, tx, caja, tipo, delta.Abs(),
			fmt.Sprintf("Ajuste cuota inicial — plan %s", plan.ID), "efectivo", nil, time.Now(), usuarioID); err != nil {
			return err
		}

		plan.MontoInicial = req.MontoInicial
		return s.refreshEstado(ctx, tx, plan)
	})
	if txErr != nil {
		return nil, translateLockErr(txErr)
	}

	s.cache.Invalidate(ctx, cajaID)
	return planToResponse(plan, s.graciaDias, time.Now()), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// postMovimiento appends a ledger entry on an already-locked caja and moves
// its saldo by the signed amount, inside the caller's transaction.
func (s *pagoService) postMovimiento(
	ctx context.Context,
	tx *gorm.DB,
	caja *model.Caja,
	tipo string,
	monto decimal.Decimal,
	descripcion, metodoPago string,
	pagoID *uuid.UUID,
	fecha time.Time,
	usuarioID *uuid.UUID,
) error {
	mov := &model.MovimientoCaja{
		ID:          uuid.New(),
		CajaID:      caja.ID,
		UsuarioID:   usuarioID,
		Tipo:        tipo,
		Monto:       monto,
		Descripcion: descripcion,
		MetodoPago:  metodoPago,
		PagoID:      pagoID,
		Fecha:       fecha,
	}
	if err := s.cajaRepo.CreateMovimientoTx(orDB(tx, s.cajaRepo.DB()), mov); err != nil {
		return err
	}
	caja.SaldoActual = caja.SaldoActual.Add(mov.Signo())
	if tx == nil {
		return s.cajaRepo.Update(ctx, caja)
	}
	return s.cajaRepo.UpdateTx(tx, caja)
}

// refreshEstado recomputes the stored estado from the in-transaction pago set.
func (s *pagoService) refreshEstado(ctx context.Context, tx *gorm.DB, plan *model.PlanPago) error {
	estado := model.PlanActivo
	if saldoPendiente(plan).IsZero() {
		estado = model.PlanPagado
	}
	if plan.Estado == estado {
		return nil
	}
	plan.Estado = estado
	return s.planRepo.UpdateTx(orDB(tx, s.planRepo.DB()), plan)
}

func (s *pagoService) enqueueRecibo(ctx context.Context, pago *model.PagoPlanPago) {
	if s.dispatcher == nil {
		return
	}
	// Best-effort: a lost receipt job never fails the payment.
	_ = s.dispatcher.EnqueueRecibo(ctx, worker.ReciboJobPayload{
		PagoID: pago.ID.String(),
	})
}

func metodoDe(override *string, fallback string) string {
	if override != nil {
		return *override
	}
	return fallback
}

func replacePago(plan *model.PlanPago, pago *model.PagoPlanPago) {
	for i := range plan.Pagos {
		if plan.Pagos[i].ID == pago.ID {
			plan.Pagos[i] = *pago
			return
		}
	}
	plan.Pagos = append(plan.Pagos, *pago)
}

func removePago(plan *model.PlanPago, id uuid.UUID) {
	for i := range plan.Pagos {
		if plan.Pagos[i].ID == id {
			plan.Pagos = append(plan.Pagos[:i], plan.Pagos[i+1:]...)
			return
		}
	}
}
