package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarPagoRequest struct {
	PlanPagoID  string          `json:"plan_pago_id" validate:"required,uuid"`
	Monto       decimal.Decimal `json:"monto"        validate:"required,gt=0"`
	MetodoPago  string          `json:"metodo_pago"  validate:"required,oneof=efectivo deposito transferencia cheque qr"`
	CajaID      string          `json:"caja_id"      validate:"required,uuid"`
	FechaPago   *string         `json:"fecha_pago"`
	Observacion *string         `json:"observacion"`
}

// ActualizarPagoRequest edits an existing pago. A different caja_id means
// "reverse from the old caja, apply to the new one" — two movements.
type ActualizarPagoRequest struct {
	Monto       *decimal.Decimal `json:"monto"       validate:"omitempty,gt=0"`
	FechaPago   *string          `json:"fecha_pago"`
	MetodoPago  *string          `json:"metodo_pago" validate:"omitempty,oneof=efectivo deposito transferencia cheque qr"`
	Observacion *string          `json:"observacion"`
	CajaID      *string          `json:"caja_id"     validate:"omitempty,uuid"`
}

type ActualizarMontoInicialRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
	CajaID       string          `json:"caja_id"       validate:"required,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PagoResponse struct {
	ID          string          `json:"id"`
	PlanPagoID  string          `json:"plan_pago_id"`
	CajaID      string          `json:"caja_id"`
	Monto       decimal.Decimal `json:"monto"`
	FechaPago   string          `json:"fecha_pago"`
	MetodoPago  string          `json:"metodo_pago"`
	Observacion *string         `json:"observacion"`
	CreadoEn    string          `json:"creado_en"`
}

// PlanPagoResponse carries the stored plan plus all derived figures,
// recomputed from the payment set on every read.
type PlanPagoResponse struct {
	ID               string          `json:"id"`
	VentaID          string          `json:"venta_id"`
	Total            decimal.Decimal `json:"total"`
	MontoInicial     decimal.Decimal `json:"monto_inicial"`
	Plazo            int             `json:"plazo"`
	Periodicidad     string          `json:"periodicidad"`
	FechaInicio      string          `json:"fecha_inicio"`
	FechaVencimiento string          `json:"fecha_vencimiento"`
	Estado           string          `json:"estado"`

	TotalPagado      decimal.Decimal `json:"total_pagado"`
	SaldoPendiente   decimal.Decimal `json:"saldo_pendiente"`
	PorcentajePagado decimal.Decimal `json:"porcentaje_pagado"`
	MontoCuota       decimal.Decimal `json:"monto_cuota"`
	DiasRestantes    int             `json:"dias_restantes"`

	Pagos []PagoResponse `json:"pagos"`
}
