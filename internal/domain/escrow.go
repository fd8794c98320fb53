package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentState string

const (
	AwaitingPayment PaymentState = "AWAITING_PAYMENT"
	Paid            PaymentState = "PAID"
	Refunded        PaymentState = "REFUNDED"
)

// Terminal reports whether no further transition is possible from s.
func (s PaymentState) Terminal() bool {
	return s == Refunded
}

// EscrowSnapshot is a read-only copy of an escrow account.
type EscrowSnapshot struct {
	Ref       uuid.UUID       `json:"ref"`
	ProductID string          `json:"product_id"`
	Buyer     Identity        `json:"buyer"`
	Price     decimal.Decimal `json:"price"`
	State     PaymentState    `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
