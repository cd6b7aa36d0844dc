package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a buyer referenced by Ventas.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Nombre    string    `gorm:"not null" json:"nombre"`
	Documento string    `gorm:"uniqueIndex;not null" json:"documento"`
	Telefono  *string   `json:"telefono"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
