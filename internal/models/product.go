package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType is the closed set of product categories. Each type owns a
// satellite table holding one row per product of that type.
type ProductType string

const (
	TypeRemedio   ProductType = "REMEDIO"
	TypeRacao     ProductType = "RACAO"
	TypeBrinquedo ProductType = "BRINQUEDO"
)

var satelliteTables = map[ProductType]string{
	TypeRemedio:   "remedio",
	TypeRacao:     "racao",
	TypeBrinquedo: "brinquedo",
}

func (t ProductType) Valid() bool {
	_, ok := satelliteTables[t]
	return ok
}

// SatelliteTable returns the subtype table backing this product type.
// Only valid types have one.
func (t ProductType) SatelliteTable() (string, bool) {
	table, ok := satelliteTables[t]
	return table, ok
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nome"`
	Price       decimal.Decimal `json:"preco"`
	Type        ProductType     `json:"tipo"`
	Description string          `json:"descricao,omitempty"`
	CreatedAt   time.Time       `json:"dataCriacao"`
	UpdatedAt   time.Time       `json:"dataUltimaModificacao"`
}

type CreateProductRequest struct {
	Name        string          `json:"nome" validate:"required,min=1,max=200"`
	Price       decimal.Decimal `json:"preco"`
	Type        ProductType     `json:"tipo" validate:"required,oneof=REMEDIO RACAO BRINQUEDO"`
	Description string          `json:"descricao,omitempty" validate:"omitempty,max=2000"`
}

type UpdateProductRequest struct {
	Name        string          `json:"nome" validate:"required,min=1,max=200"`
	Price       decimal.Decimal `json:"preco"`
	Type        ProductType     `json:"tipo" validate:"required,oneof=REMEDIO RACAO BRINQUEDO"`
	Description string          `json:"descricao,omitempty" validate:"omitempty,max=2000"`
}
