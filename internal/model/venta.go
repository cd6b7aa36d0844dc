package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta estados
const (
	VentaActiva  = "activa"
	VentaAnulada = "anulada"
)

// Venta links a cliente to a lote and owns the installment plan.
// Anulación reverses every pago of the plan with compensating egresos
// before marking the venta anulada.
type Venta struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClienteID  uuid.UUID `gorm:"type:uuid;not null;index" json:"cliente_id"`
	LoteID     uuid.UUID `gorm:"type:uuid;not null;index" json:"lote_id"`
	VendedorID uuid.UUID `gorm:"type:uuid;not null" json:"vendedor_id"`

	PrecioTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"precio_total"`
	Estado      string          `gorm:"type:varchar(20);not null;default:'activa'" json:"estado"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Cliente  *Cliente  `json:"cliente,omitempty"`
	Lote     *Lote     `json:"lote,omitempty"`
	PlanPago *PlanPago `gorm:"foreignKey:VentaID" json:"plan_pago,omitempty"`
}
