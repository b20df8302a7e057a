package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one (cart, product) line. The unit price is not stored with the
// item; snapshots always join the live catalog price.
type CartItem struct {
	ProductID int64           `json:"idProduto"`
	Name      string          `json:"nome"`
	Quantity  int             `json:"quantidade"`
	UnitPrice decimal.Decimal `json:"preco"`
}

// Cart is the snapshot returned by every cart operation: the header row joined
// with its line items. ID and the timestamps are pointers so that the
// "no cart yet" value serializes with explicit nulls, the way clients expect.
type Cart struct {
	ID        *int64          `json:"idCarrinho"`
	UserID    int64           `json:"idUsuario"`
	Items     []CartItem      `json:"itens"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt *time.Time      `json:"dataCriacao"`
	UpdatedAt *time.Time      `json:"dataUltimaModificacao"`
}

// EmptyCart is the read-path value for a user who never added anything.
func EmptyCart(userID int64) *Cart {
	return &Cart{
		UserID: userID,
		Items:  []CartItem{},
		Total:  decimal.Zero,
	}
}

type AddItemRequest struct {
	CustomerID int64 `json:"idCliente" validate:"required,gt=0"`
	ProductID  int64 `json:"idProduto" validate:"required,gt=0"`
	Quantity   int   `json:"quantidade" validate:"required,gt=0"`
}

// CustomerRequest carries the customer id for the remove and clear routes,
// which take it in the request body.
type CustomerRequest struct {
	CustomerID int64 `json:"idCliente" validate:"required,gt=0"`
}
