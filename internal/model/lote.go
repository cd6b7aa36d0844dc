package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lote estados
const (
	LoteDisponible = "disponible"
	LoteReservado  = "reservado"
	LoteVendido    = "vendido"
)

// Lote is a plot of land offered for sale.
type Lote struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Codigo     string          `gorm:"uniqueIndex;not null" json:"codigo"`
	Manzana    string          `gorm:"not null" json:"manzana"`
	Superficie decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"superficie"`
	Precio     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"precio"`
	Estado     string          `gorm:"type:varchar(20);not null;default:'disponible'" json:"estado"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
