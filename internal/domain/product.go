package domain

import (
	"github.com/shopspring/decimal"
)

// Identity is the caller's address as supplied by the surrounding runtime.
// The ledger trusts it as already authenticated.
type Identity string

type Product struct {
	Identifier string          `json:"identifier"`
	Quantity   uint64          `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// PurchaseKey addresses one cell of the purchase-count table.
type PurchaseKey struct {
	ProductID string
	Buyer     Identity
}
