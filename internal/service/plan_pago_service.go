package service

import (
	"context"
	"time"

	"sinai/internal/apierror"
	"sinai/internal/dto"
	"sinai/internal/model"
	"sinai/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PlanPagoService interface {
	Obtener(ctx context.Context, id uuid.UUID) (*dto.PlanPagoResponse, error)
	ObtenerPorVenta(ctx context.Context, ventaID uuid.UUID) (*dto.PlanPagoResponse, error)
}

type planPagoService struct {
	repo       repository.PlanPagoRepository
	graciaDias int
}

func NewPlanPagoService(repo repository.PlanPagoRepository, graciaDias int) PlanPagoService {
	return &planPagoService{repo: repo, graciaDias: graciaDias}
}

func (s *planPagoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.PlanPagoResponse, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("plan de pago no encontrado")
	}
	return planToResponse(plan, s.graciaDias, time.Now()), nil
}

func (s *planPagoService) ObtenerPorVenta(ctx context.Context, ventaID uuid.UUID) (*dto.PlanPagoResponse, error) {
	plan, err := s.repo.FindByVentaID(ctx, ventaID)
	if err != nil {
		return nil, apierror.NotFound("la venta no tiene plan de pago")
	}
	return planToResponse(plan, s.graciaDias, time.Now()), nil
}

// ── Derived figures ──────────────────────────────────────────────────────────
// All totals are pure functions of the current payment set, recomputed on
// every read. The down payment counts as paid: total_pagado = monto_inicial +
// Σpagos, saldo_pendiente = total − total_pagado.

func totalPagado(plan *model.PlanPago) decimal.Decimal {
	sum := plan.MontoInicial
	for i := range plan.Pagos {
		sum = sum.Add(plan.Pagos[i].Monto)
	}
	return sum
}

func saldoPendiente(plan *model.PlanPago) decimal.Decimal {
	return plan.Total.Sub(totalPagado(plan)).Round(2)
}

// saldoPendienteSin computes the outstanding balance as if the given pago
// did not exist — the overpayment check for edits excludes the payment's
// own prior contribution.
func saldoPendienteSin(plan *model.PlanPago, pagoID uuid.UUID) decimal.Decimal {
	sum := plan.MontoInicial
	for i := range plan.Pagos {
		if plan.Pagos[i].ID == pagoID {
			continue
		}
		sum = sum.Add(plan.Pagos[i].Monto)
	}
	return plan.Total.Sub(sum).Round(2)
}

func porcentajePagado(plan *model.PlanPago) decimal.Decimal {
	if plan.Total.IsZero() {
		return decimal.Zero
	}
	return totalPagado(plan).Div(plan.Total).Mul(decimal.NewFromInt(100)).Round(2)
}

// estadoCalculado applies the delinquency policy on top of the stored estado.
// cancelado is sticky; pagado follows the balance; otherwise a plan is moroso
// when the amount expected from elapsed installments exceeds what was paid
// and the grace period is exhausted.
func estadoCalculado(plan *model.PlanPago, graciaDias int, now time.Time) string {
	if plan.Estado == model.PlanCancelado {
		return model.PlanCancelado
	}
	if saldoPendiente(plan).IsZero() {
		return model.PlanPagado
	}

	periodo := plan.PeriodoDias()
	diasTranscurridos := int(now.Sub(plan.FechaInicio).Hours() / 24)
	if diasTranscurridos <= graciaDias {
		return model.PlanActivo
	}
	cuotasVencidas := (diasTranscurridos - graciaDias) / periodo
	if cuotasVencidas > plan.Plazo {
		cuotasVencidas = plan.Plazo
	}
	if cuotasVencidas == 0 {
		return model.PlanActivo
	}

	esperado := plan.MontoInicial.Add(plan.MontoCuota().Mul(decimal.NewFromInt(int64(cuotasVencidas))))
	if esperado.GreaterThan(plan.Total) {
		esperado = plan.Total
	}
	if totalPagado(plan).LessThan(esperado) {
		return model.PlanMoroso
	}
	return model.PlanActivo
}

func planToResponse(plan *model.PlanPago, graciaDias int, now time.Time) *dto.PlanPagoResponse {
	pagos := make([]dto.PagoResponse, 0, len(plan.Pagos))
	for i := range plan.Pagos {
		pagos = append(pagos, *pagoToResponse(&plan.Pagos[i]))
	}

	diasRestantes := int(plan.FechaVencimiento.Sub(now).Hours() / 24)
	if diasRestantes < 0 {
		diasRestantes = 0
	}

	return &dto.PlanPagoResponse{
		ID:               plan.ID.String(),
		VentaID:          plan.VentaID.String(),
		Total:            plan.Total,
		MontoInicial:     plan.MontoInicial,
		Plazo:            plan.Plazo,
		Periodicidad:     plan.Periodicidad,
		FechaInicio:      plan.FechaInicio.Format("2006-01-02"),
		FechaVencimiento: plan.FechaVencimiento.Format("2006-01-02"),
		Estado:           estadoCalculado(plan, graciaDias, now),
		TotalPagado:      totalPagado(plan),
		SaldoPendiente:   saldoPendiente(plan),
		PorcentajePagado: porcentajePagado(plan),
		MontoCuota:       plan.MontoCuota(),
		DiasRestantes:    diasRestantes,
		Pagos:            pagos,
	}
}

func pagoToResponse(p *model.PagoPlanPago) *dto.PagoResponse {
	return &dto.PagoResponse{
		ID:          p.ID.String(),
		PlanPagoID:  p.PlanPagoID.String(),
		CajaID:      p.CajaID.String(),
		Monto:       p.Monto,
		FechaPago:   p.FechaPago.Format("2006-01-02"),
		MetodoPago:  p.MetodoPago,
		Observacion: p.Observacion,
		CreadoEn:    p.CreatedAt.Format(time.RFC3339),
	}
}
