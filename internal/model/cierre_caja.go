package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cierre tipos
const (
	CierreTotal   = "total"
	CierreParcial = "parcial"
)

// CierreCaja records one closing/reconciliation event of a caja.
// SaldoFinal is the ledger-computed expected balance at close time;
// SaldoReal is the operator-declared physical count. Diferencia is always
// recomputed server-side, never trusted from the caller. Rows are immutable
// and closing does not delete or archive movements.
type CierreCaja struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CajaID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"caja_id"`
	UsuarioID *uuid.UUID `gorm:"type:uuid" json:"usuario_id"`
	Tipo      string     `gorm:"type:varchar(10);not null" json:"tipo"` // total | parcial

	SaldoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"saldo_inicial"`
	SaldoFinal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"saldo_final"`
	SaldoReal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"saldo_real"`
	Diferencia   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"diferencia"`
	// DiferenciaPct and Clasificacion ("normal" | "advertencia" | "critico")
	// qualify the discrepancy relative to the expected balance.
	DiferenciaPct *decimal.Decimal `gorm:"type:decimal(5,2)" json:"diferencia_pct"`
	Clasificacion *string          `gorm:"type:varchar(20)" json:"clasificacion"`

	Observaciones *string   `json:"observaciones"`
	FechaCierre   time.Time `gorm:"not null" json:"fecha_cierre"`
}
