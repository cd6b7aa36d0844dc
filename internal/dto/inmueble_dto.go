package dto

import "github.com/shopspring/decimal"

// Cliente / Lote CRUD shapes. Thin — no invariants beyond field validation.

type CrearClienteRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=2"`
	Documento string  `json:"documento" validate:"required,min=5"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

type ClienteResponse struct {
	ID        string  `json:"id"`
	Nombre    string  `json:"nombre"`
	Documento string  `json:"documento"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email"`
}

type CrearLoteRequest struct {
	Codigo     string          `json:"codigo"     validate:"required,min=1"`
	Manzana    string          `json:"manzana"    validate:"required,min=1"`
	Superficie decimal.Decimal `json:"superficie" validate:"required,gt=0"`
	Precio     decimal.Decimal `json:"precio"     validate:"required,gt=0"`
}

type LoteResponse struct {
	ID         string          `json:"id"`
	Codigo     string          `json:"codigo"`
	Manzana    string          `json:"manzana"`
	Superficie decimal.Decimal `json:"superficie"`
	Precio     decimal.Decimal `json:"precio"`
	Estado     string          `json:"estado"`
}
