package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"the-escrow-ledger/internal/config"
	"the-escrow-ledger/internal/domain"
	"the-escrow-ledger/internal/events"
	"the-escrow-ledger/internal/infrastructure/payment"
	"the-escrow-ledger/internal/logger"
	"the-escrow-ledger/internal/service"
)

const (
	owner domain.Identity = "owner"
	buyer domain.Identity = "buyer-a"
)

// emitted buffers events raised while a step runs. Subscribers are
// synchronous, so no locking is needed.
var emitted []events.Record

func main() {
	cfg := config.Load()
	if _, err := logger.Init(cfg.Logger); err != nil {
		panic(err)
	}
	ctx := context.Background()

	eventLog := events.NewLog()
	if err := eventLog.Subscribe(events.TopicAll, func(r events.Record) {
		emitted = append(emitted, r)
	}); err != nil {
		zap.L().Warn("event subscription failed", zap.Error(err))
	}
	ledger := payment.NewLedger()
	catalog := service.NewCatalog(owner, ledger, eventLog)
	price := decimal.NewFromInt(1)

	fmt.Println("--- STARTING SIMULATION ---")

	printBalance(ctx, 1, catalog)

	step(2, "create product 100", func() (string, error) {
		_, err := catalog.CreateProduct(ctx, owner, "100", 33, price)
		return "", err
	})
	step(3, "create product 100 again", func() (string, error) {
		_, err := catalog.CreateProduct(ctx, owner, "100", 33, price)
		return "", err
	})
	step(4, "restock 100 by non-owner", func() (string, error) {
		_, err := catalog.AddQuantity(ctx, buyer, "100", 33)
		return "", err
	})
	step(5, "restock 100 by 100", func() (string, error) {
		p, err := catalog.AddQuantity(ctx, owner, "100", 100)
		return fmt.Sprintf("quantity now %d", p.Quantity), err
	})

	var acct *service.EscrowAccount
	step(6, "purchase 100", func() (string, error) {
		var err error
		acct, err = catalog.CreatePurchase(ctx, buyer, "100")
		if err != nil {
			return "", err
		}
		p, err := catalog.QueryProduct(ctx, "100")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("quantity %d, purchases by %s: %d, escrow %s",
			p.Quantity, buyer, catalog.QueryPurchaseCount(ctx, "100", buyer), acct.QueryState(ctx).State), nil
	})
	if acct == nil {
		return
	}

	step(7, "cancel before paying", func() (string, error) {
		_, err := acct.CancelPurchase(ctx, buyer)
		return "", err
	})

	if err := ledger.Fund(ctx, buyer, price); err != nil {
		zap.L().Fatal("fund buyer", zap.Error(err))
	}
	step(8, "deposit exact price", func() (string, error) {
		st, err := acct.Deposit(ctx, price, buyer)
		return fmt.Sprintf("escrow %s", st.State), err
	})
	step(9, "cancel by owner", func() (string, error) {
		_, err := acct.CancelPurchase(ctx, owner)
		return "", err
	})
	step(10, "cancel by buyer", func() (string, error) {
		st, err := acct.CancelPurchase(ctx, buyer)
		if err != nil {
			return "", err
		}
		refunded, err := ledger.Balance(ctx, buyer)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("escrow %s, buyer balance %s", st.State, refunded), nil
	})
	step(11, "cancel by buyer again", func() (string, error) {
		_, err := acct.CancelPurchase(ctx, buyer)
		return "", err
	})

	printBalance(ctx, 12, catalog)
	fmt.Println("---------------------------------------------------")
}

func printBalance(ctx context.Context, n int, catalog *service.Catalog) {
	bal, err := catalog.BalanceOf(ctx)
	if err != nil {
		zap.L().Error("catalog balance failed", zap.Int("step", n), zap.Error(err))
		return
	}
	fmt.Printf("[%d] catalog balance: %s\n", n, bal)
}

// step runs fn and prints its outcome, followed by any detail fn reports.
func step(n int, name string, fn func() (string, error)) {
	fmt.Printf("[%d] %s ... ", n, name)
	detail, err := fn()
	var target error
	for _, e := range []error{
		domain.ErrUnauthorized, domain.ErrDuplicateProduct, domain.ErrNotPaid, domain.ErrAlreadySettled,
	} {
		if errors.Is(err, e) {
			target = e
		}
	}
	switch {
	case err == nil:
		fmt.Println("SUCCESS")
	case target != nil:
		fmt.Printf("REJECTED (%v)\n", target)
	default:
		fmt.Printf("FAILED: %v\n", err)
		zap.L().Warn("simulation step failed", zap.Int("step", n), zap.String("name", name), zap.Error(err))
	}
	if err == nil && detail != "" {
		fmt.Printf("    %s\n", detail)
	}
	for _, r := range emitted {
		fmt.Printf("    event #%d %s %s\n", r.Sequence, r.Type, r.Payload)
	}
	emitted = emitted[:0]
}
