package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Caja estados
const (
	CajaAbierta = "abierta"
	CajaCerrada = "cerrada"
)

// Movimiento tipos
const (
	MovimientoIngreso = "ingreso"
	MovimientoEgreso  = "egreso"
)

// Caja is a named money container with a running balance.
// Estado: "abierta" | "cerrada". Only an open caja accepts movements.
// SaldoActual is always MontoInicial + Σingresos − Σegresos over the
// movements of the current open cycle; it is updated in the same
// transaction as every movement append.
type Caja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Nombre       string          `gorm:"not null;index" json:"nombre"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto_inicial"`
	SaldoActual  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"saldo_actual"`
	Estado       string          `gorm:"type:varchar(20);not null;default:'cerrada'" json:"estado"`
	// AbiertaPorID records the user of the last apertura; nil until first open.
	AbiertaPorID *uuid.UUID `gorm:"type:uuid" json:"abierta_por_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Movimientos []MovimientoCaja `gorm:"foreignKey:CajaID" json:"movimientos,omitempty"`
}

// MovimientoCaja is an immutable event in a caja's ledger.
// Tipo: "ingreso" | "egreso". Monto is always positive; the signed
// contribution to the caja balance is +Monto for ingreso, −Monto for egreso.
// Movements are NEVER modified or deleted — payment corrections create
// compensating entries.
type MovimientoCaja struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CajaID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"caja_id"`
	UsuarioID *uuid.UUID      `gorm:"type:uuid" json:"usuario_id"`
	Tipo      string          `gorm:"type:varchar(10);not null" json:"tipo"`
	Monto     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto"`

	Descripcion string  `gorm:"not null" json:"descripcion"`
	MetodoPago  string  `gorm:"type:varchar(20);not null" json:"metodo_pago"`
	Referencia  *string `json:"referencia,omitempty"`
	// PagoID links the movement to the installment payment that produced it.
	// Manual movements carry nil.
	PagoID *uuid.UUID `gorm:"type:uuid;index" json:"pago_id,omitempty"`
	// Fecha defaults to creation time; callers may backdate.
	Fecha     time.Time `gorm:"not null;index" json:"fecha"`
	CreatedAt time.Time `json:"created_at"`
}

// Signo returns the signed contribution of the movement to the caja balance.
func (m *MovimientoCaja) Signo() decimal.Decimal {
	if m.Tipo == MovimientoEgreso {
		return m.Monto.Neg()
	}
	return m.Monto
}
