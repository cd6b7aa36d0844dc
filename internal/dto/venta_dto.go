package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearVentaRequest struct {
	ClienteID    string          `json:"cliente_id"    validate:"required,uuid"`
	LoteID       string          `json:"lote_id"       validate:"required,uuid"`
	PrecioTotal  decimal.Decimal `json:"precio_total"  validate:"required,gt=0"`
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
	Plazo        int             `json:"plazo"         validate:"required,min=1"`
	Periodicidad string          `json:"periodicidad"  validate:"required,oneof=semanal quincenal mensual"`
	FechaInicio  *string         `json:"fecha_inicio"`
	// CajaID, when present and monto_inicial > 0, posts the down payment as
	// an ingreso on that caja within the same transaction.
	CajaID     *string `json:"caja_id"     validate:"omitempty,uuid"`
	MetodoPago *string `json:"metodo_pago" validate:"omitempty,oneof=efectivo deposito transferencia cheque qr"`
}

type VentaFilter struct {
	Estado string
	Page   int
	Limit  int
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VentaResponse struct {
	ID          string            `json:"id"`
	ClienteID   string            `json:"cliente_id"`
	LoteID      string            `json:"lote_id"`
	VendedorID  string            `json:"vendedor_id"`
	PrecioTotal decimal.Decimal   `json:"precio_total"`
	Estado      string            `json:"estado"`
	PlanPago    *PlanPagoResponse `json:"plan_pago,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
