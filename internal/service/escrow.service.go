package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"the-escrow-ledger/internal/domain"
	"the-escrow-ledger/internal/events"
	"the-escrow-ledger/internal/infrastructure/payment"
)

// EscrowAccount holds one buyer's payment for one unit of one product.
// Accounts are created by Catalog.CreatePurchase only and never share funds:
// each one settles through its own address on the payment gateway.
type EscrowAccount struct {
	ref       uuid.UUID
	productID string
	buyer     domain.Identity
	price     decimal.Decimal
	createdAt time.Time

	gateway payment.PaymentGateway
	emitter events.Emitter
	nowFn   func() time.Time

	mu        sync.Mutex
	state     domain.PaymentState
	updatedAt time.Time
}

const escrowAddressPrefix = "escrow:"

// EscrowAddress is the payment gateway account holding funds for ref.
func EscrowAddress(ref uuid.UUID) domain.Identity {
	return domain.Identity(escrowAddressPrefix + ref.String())
}

// IsReservedAddress reports whether account is owned by the ledger itself:
// the catalog or any escrow. Reserved accounts never pay for a purchase.
func IsReservedAddress(account domain.Identity) bool {
	return account == CatalogAddress || strings.HasPrefix(string(account), escrowAddressPrefix)
}

func (a *EscrowAccount) Ref() uuid.UUID { return a.ref }

func (a *EscrowAccount) Address() domain.Identity { return EscrowAddress(a.ref) }

// Deposit delivers an external payment. Only an exact-price deposit while
// awaiting payment is accepted; it moves the funds into the escrow address.
// The payer must be an outside account, never the catalog or an escrow.
func (a *EscrowAccount) Deposit(ctx context.Context, amount decimal.Decimal, from domain.Identity) (domain.EscrowSnapshot, error) {
	if from == "" || IsReservedAddress(from) {
		return a.QueryState(ctx), fmt.Errorf("%w: deposit to %s from %q", domain.ErrInvalidArgument, a.ref, from)
	}
	a.mu.Lock()
	if a.state != domain.AwaitingPayment {
		snap := a.snapshotLocked()
		a.mu.Unlock()
		return snap, fmt.Errorf("deposit to %s in state %s: %w", a.ref, snap.State, domain.ErrAlreadySettled)
	}
	if !amount.Equal(a.price) {
		snap := a.snapshotLocked()
		a.mu.Unlock()
		return snap, fmt.Errorf("deposit %s to %s priced %s: %w", amount, a.ref, a.price, domain.ErrIncorrectAmount)
	}
	if err := a.gateway.Transfer(ctx, amount, from, a.Address()); err != nil {
		snap := a.snapshotLocked()
		a.mu.Unlock()
		return snap, fmt.Errorf("%w: deposit to %s: %w", domain.ErrPaymentFailed, a.ref, err)
	}
	a.transitionLocked(domain.Paid)
	snap := a.snapshotLocked()
	a.mu.Unlock()

	zap.L().Info("escrow paid",
		zap.String("escrow_ref", a.ref.String()),
		zap.String("from", string(from)),
		zap.String("amount", amount.String()),
	)
	a.emitter.Emit(events.PurchasePaid{EscrowRef: a.ref, From: from, Amount: amount})
	return snap, nil
}

// CancelPurchase refunds the price to the buyer. Only the buyer may cancel,
// and only a paid purchase can be refunded; the refund happens at most once.
// Stock is not returned to the catalog.
func (a *EscrowAccount) CancelPurchase(ctx context.Context, caller domain.Identity) (domain.EscrowSnapshot, error) {
	a.mu.Lock()
	snap := a.snapshotLocked()
	if caller != a.buyer {
		a.mu.Unlock()
		return snap, fmt.Errorf("cancel %s by %q: %w", a.ref, caller, domain.ErrUnauthorized)
	}
	switch a.state {
	case domain.Refunded:
		a.mu.Unlock()
		return snap, fmt.Errorf("cancel %s: %w", a.ref, domain.ErrAlreadySettled)
	case domain.AwaitingPayment:
		a.mu.Unlock()
		return snap, fmt.Errorf("cancel %s: %w", a.ref, domain.ErrNotPaid)
	}
	if err := a.gateway.Transfer(ctx, a.price, a.Address(), a.buyer); err != nil {
		a.mu.Unlock()
		return snap, fmt.Errorf("%w: refund %s: %w", domain.ErrPaymentFailed, a.ref, err)
	}
	a.transitionLocked(domain.Refunded)
	snap = a.snapshotLocked()
	a.mu.Unlock()

	zap.L().Info("escrow refunded",
		zap.String("escrow_ref", a.ref.String()),
		zap.String("buyer", string(a.buyer)),
		zap.String("amount", a.price.String()),
	)
	a.emitter.Emit(events.PurchaseCancelled{EscrowRef: a.ref})
	return snap, nil
}

// QueryState returns the current payment state and price without mutating.
func (a *EscrowAccount) QueryState(_ context.Context) domain.EscrowSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *EscrowAccount) transitionLocked(next domain.PaymentState) {
	a.state = next
	a.updatedAt = a.nowFn().UTC()
}

func (a *EscrowAccount) snapshotLocked() domain.EscrowSnapshot {
	return domain.EscrowSnapshot{
		Ref:       a.ref,
		ProductID: a.productID,
		Buyer:     a.buyer,
		Price:     a.price,
		State:     a.state,
		CreatedAt: a.createdAt,
		UpdatedAt: a.updatedAt,
	}
}
