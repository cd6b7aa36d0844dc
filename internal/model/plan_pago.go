package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanPago estados
const (
	PlanActivo    = "activo"
	PlanPagado    = "pagado"
	PlanMoroso    = "moroso"
	PlanCancelado = "cancelado"
)

// Periodicidades
const (
	PeriodicidadSemanal   = "semanal"
	PeriodicidadQuincenal = "quincenal"
	PeriodicidadMensual   = "mensual"
)

// PlanPago is the installment schedule attached one-to-one to a Venta.
// Totals (total_pagado, saldo_pendiente, porcentaje_pagado) are derived
// from the payment set on every read and never stored.
type PlanPago struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	VentaID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"venta_id"`

	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto_inicial"`
	Plazo        int             `gorm:"not null" json:"plazo"`
	Periodicidad string          `gorm:"type:varchar(20);not null" json:"periodicidad"`

	FechaInicio      time.Time `gorm:"not null" json:"fecha_inicio"`
	FechaVencimiento time.Time `gorm:"not null" json:"fecha_vencimiento"`

	Estado    string    `gorm:"type:varchar(20);not null;default:'activo'" json:"estado"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Pagos []PagoPlanPago `gorm:"foreignKey:PlanPagoID" json:"pagos,omitempty"`
}

// PeriodoDias returns the length of one installment period in days.
func (p *PlanPago) PeriodoDias() int {
	switch p.Periodicidad {
	case PeriodicidadSemanal:
		return 7
	case PeriodicidadQuincenal:
		return 15
	default:
		return 30
	}
}

// MontoCuota is the per-installment amount: (total − monto_inicial) / plazo.
func (p *PlanPago) MontoCuota() decimal.Decimal {
	if p.Plazo <= 0 {
		return decimal.Zero
	}
	return p.Total.Sub(p.MontoInicial).Div(decimal.NewFromInt(int64(p.Plazo))).Round(2)
}

// PagoPlanPago is one installment payment applied against a plan.
// Each pago is paired 1:1 with an ingreso MovimientoCaja on CajaID; edits
// and deletions go through the reconciliation coordinator so both sides
// stay consistent.
type PagoPlanPago struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PlanPagoID uuid.UUID  `gorm:"type:uuid;index;not null" json:"plan_pago_id"`
	CajaID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"caja_id"`
	UsuarioID  *uuid.UUID `gorm:"type:uuid" json:"usuario_id"`

	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto"`
	FechaPago   time.Time       `gorm:"not null" json:"fecha_pago"`
	MetodoPago  string          `gorm:"type:varchar(20);not null" json:"metodo_pago"`
	Observacion *string         `json:"observacion"`

	CreatedAt time.Time `json:"creado_en"`
	UpdatedAt time.Time `json:"-"`
}
