package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"the-escrow-ledger/internal/domain"
)

const (
	TypeProductCreated    = "product.created"
	TypeQuantityAdded     = "product.quantity_added"
	TypePurchaseCreated   = "purchase.created"
	TypePurchasePaid      = "purchase.paid"
	TypePurchaseCancelled = "purchase.cancelled"
)

type ProductCreated struct {
	Identifier string          `json:"identifier"`
	Quantity   uint64          `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

func (ProductCreated) EventType() string { return TypeProductCreated }

type QuantityAdded struct {
	Identifier string `json:"identifier"`
	Amount     uint64 `json:"amount"`
	Quantity   uint64 `json:"quantity"`
}

func (QuantityAdded) EventType() string { return TypeQuantityAdded }

type PurchaseCreated struct {
	Buyer     domain.Identity `json:"buyer"`
	EscrowRef uuid.UUID       `json:"escrow_ref"`
	ProductID string          `json:"product_id"`
}

func (PurchaseCreated) EventType() string { return TypePurchaseCreated }

type PurchasePaid struct {
	EscrowRef uuid.UUID       `json:"escrow_ref"`
	From      domain.Identity `json:"from"`
	Amount    decimal.Decimal `json:"amount"`
}

func (PurchasePaid) EventType() string { return TypePurchasePaid }

type PurchaseCancelled struct {
	EscrowRef uuid.UUID `json:"escrow_ref"`
}

func (PurchaseCancelled) EventType() string { return TypePurchaseCancelled }
