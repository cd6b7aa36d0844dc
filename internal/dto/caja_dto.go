package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearCajaRequest struct {
	Nombre string `json:"nombre" validate:"required,min=3"`
}

type AbrirCajaRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
}

type MovimientoRequest struct {
	CajaID      string          `json:"caja_id"     validate:"required,uuid"`
	Tipo        string          `json:"tipo"        validate:"required,oneof=ingreso egreso"`
	Monto       decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Descripcion string          `json:"descripcion" validate:"required,min=3"`
	MetodoPago  string          `json:"metodo_pago" validate:"required,oneof=efectivo deposito transferencia cheque qr"`
	Referencia  *string         `json:"referencia"`
	// Fecha (RFC 3339) defaults to now when omitted; callers may backdate.
	Fecha *string `json:"fecha" validate:"omitempty"`
}

type CerrarCajaRequest struct {
	SaldoReal     decimal.Decimal `json:"saldo_real"    validate:"min=0"`
	Tipo          string          `json:"tipo"          validate:"required,oneof=total parcial"`
	Observaciones *string         `json:"observaciones"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID           string          `json:"id"`
	Nombre       string          `json:"nombre"`
	MontoInicial decimal.Decimal `json:"monto_inicial"`
	SaldoActual  decimal.Decimal `json:"saldo_actual"`
	Estado       string          `json:"estado"`
	CreatedAt    string          `json:"created_at"`
}

type SaldoResponse struct {
	CajaID string          `json:"caja_id"`
	Saldo  decimal.Decimal `json:"saldo"`
	Estado string          `json:"estado"`
}

type MovimientoResponse struct {
	ID          string          `json:"id"`
	CajaID      string          `json:"caja_id"`
	Tipo        string          `json:"tipo"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion string          `json:"descripcion"`
	MetodoPago  string          `json:"metodo_pago"`
	Referencia  *string         `json:"referencia,omitempty"`
	PagoID      *string         `json:"pago_id,omitempty"`
	Fecha       string          `json:"fecha"`
}

// TotalesMovimientos aggregates the FULL movement set of a caja,
// not just the current page.
type TotalesMovimientos struct {
	TotalIngresos decimal.Decimal `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal `json:"total_egresos"`
	Balance       decimal.Decimal `json:"balance"`
}

type MovimientoListResponse struct {
	Data    []MovimientoResponse `json:"data"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	Limit   int                  `json:"limit"`
	Totales TotalesMovimientos   `json:"totales"`
}

type CierreResponse struct {
	ID            string          `json:"id"`
	CajaID        string          `json:"caja_id"`
	Tipo          string          `json:"tipo"`
	SaldoInicial  decimal.Decimal `json:"saldo_inicial"`
	SaldoFinal    decimal.Decimal `json:"saldo_final"`
	SaldoReal     decimal.Decimal `json:"saldo_real"`
	Diferencia    decimal.Decimal `json:"diferencia"`
	DiferenciaPct decimal.Decimal `json:"diferencia_pct"`
	Clasificacion string          `json:"clasificacion"` // normal | advertencia | critico
	Observaciones *string         `json:"observaciones"`
	FechaCierre   string          `json:"fecha_cierre"`
}
