package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"the-escrow-ledger/internal/domain"
)

// PaymentGateway is the external value-transfer primitive the ledger relies on.
// Transfer is atomic: it either moves the full amount or nothing.
type PaymentGateway interface {
	Transfer(ctx context.Context, amount decimal.Decimal, from, to domain.Identity) error
	Balance(ctx context.Context, account domain.Identity) (decimal.Decimal, error)
}

// Ledger is an in-memory PaymentGateway keyed by account identity.
type Ledger struct {
	mu       sync.RWMutex
	balances map[domain.Identity]decimal.Decimal
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[domain.Identity]decimal.Decimal)}
}

// Fund credits an account from outside the ledger.
func (l *Ledger) Fund(ctx context.Context, account domain.Identity, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if account == "" || amount.IsNegative() {
		return fmt.Errorf("%w: fund %s with %s", domain.ErrInvalidArgument, account, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] = l.balances[account].Add(amount)
	return nil
}

func (l *Ledger) Transfer(ctx context.Context, amount decimal.Decimal, from, to domain.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from == "" || to == "" || amount.IsNegative() {
		return fmt.Errorf("%w: transfer %s from %q to %q", domain.ErrInvalidArgument, amount, from, to)
	}
	if amount.IsZero() {
		return nil
	}
	if from == to {
		return fmt.Errorf("%w: transfer %s from %q to itself", domain.ErrInvalidArgument, amount, from)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	available := l.balances[from]
	if available.LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", domain.ErrInsufficientFunds, from, available, amount)
	}
	l.balances[from] = available.Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)
	return nil
}

func (l *Ledger) Balance(ctx context.Context, account domain.Identity) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account], nil
}
