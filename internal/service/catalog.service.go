package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"the-escrow-ledger/internal/domain"
	"the-escrow-ledger/internal/events"
	"the-escrow-ledger/internal/infrastructure/payment"
)

// CatalogAddress is the catalog's own account on the payment gateway. Funds
// never route through it, so its balance stays zero.
const CatalogAddress domain.Identity = "catalog"

// Catalog owns the product and purchase-count tables and is the only place
// escrow accounts are created.
type Catalog struct {
	owner   domain.Identity
	gateway payment.PaymentGateway
	emitter events.Emitter
	nowFn   func() time.Time
	newRef  func() uuid.UUID

	mu        sync.RWMutex
	products  map[string]*domain.Product
	purchases map[domain.PurchaseKey]uint64
	escrows   map[uuid.UUID]*EscrowAccount
	byBuyer   map[domain.Identity][]uuid.UUID
}

func NewCatalog(owner domain.Identity, gateway payment.PaymentGateway, emitter events.Emitter) *Catalog {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Catalog{
		owner:     owner,
		gateway:   gateway,
		emitter:   emitter,
		nowFn:     time.Now,
		newRef:    uuid.New,
		products:  make(map[string]*domain.Product),
		purchases: make(map[domain.PurchaseKey]uint64),
		escrows:   make(map[uuid.UUID]*EscrowAccount),
		byBuyer:   make(map[domain.Identity][]uuid.UUID),
	}
}

// SetNowFunc overrides the clock. Intended for tests.
func (c *Catalog) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	c.mu.Lock()
	c.nowFn = now
	c.mu.Unlock()
}

func (c *Catalog) Owner() domain.Identity { return c.owner }

func (c *Catalog) CreateProduct(ctx context.Context, caller domain.Identity, identifier string, quantity uint64, unitPrice decimal.Decimal) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	if caller != c.owner {
		return domain.Product{}, fmt.Errorf("create product %q by %q: %w", identifier, caller, domain.ErrUnauthorized)
	}
	if identifier == "" {
		return domain.Product{}, fmt.Errorf("%w: product identifier is required", domain.ErrInvalidArgument)
	}
	if unitPrice.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: unit price must be >= 0", domain.ErrInvalidArgument)
	}

	c.mu.Lock()
	if _, exists := c.products[identifier]; exists {
		c.mu.Unlock()
		return domain.Product{}, fmt.Errorf("create product %q: %w", identifier, domain.ErrDuplicateProduct)
	}
	p := &domain.Product{Identifier: identifier, Quantity: quantity, UnitPrice: unitPrice}
	c.products[identifier] = p
	out := *p
	c.mu.Unlock()

	zap.L().Info("product created",
		zap.String("product_id", identifier),
		zap.Uint64("quantity", quantity),
		zap.String("unit_price", unitPrice.String()),
	)
	c.emitter.Emit(events.ProductCreated{Identifier: identifier, Quantity: quantity, UnitPrice: unitPrice})
	return out, nil
}

func (c *Catalog) AddQuantity(ctx context.Context, caller domain.Identity, identifier string, amount uint64) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	if caller != c.owner {
		return domain.Product{}, fmt.Errorf("add quantity to %q by %q: %w", identifier, caller, domain.ErrUnauthorized)
	}

	c.mu.Lock()
	p, ok := c.products[identifier]
	if !ok {
		c.mu.Unlock()
		return domain.Product{}, fmt.Errorf("add quantity to %q: %w", identifier, domain.ErrProductNotFound)
	}
	if amount > math.MaxUint64-p.Quantity {
		c.mu.Unlock()
		return domain.Product{}, fmt.Errorf("%w: quantity overflow for %q", domain.ErrInvalidArgument, identifier)
	}
	p.Quantity += amount
	out := *p
	c.mu.Unlock()

	zap.L().Info("product restocked",
		zap.String("product_id", identifier),
		zap.Uint64("amount", amount),
		zap.Uint64("quantity", out.Quantity),
	)
	c.emitter.Emit(events.QuantityAdded{Identifier: identifier, Amount: amount, Quantity: out.Quantity})
	return out, nil
}

// CreatePurchase reserves one unit for caller and opens a fresh escrow account
// priced at the product's current unit price. Stock, purchase count and the
// escrow arena change together or not at all.
func (c *Catalog) CreatePurchase(ctx context.Context, caller domain.Identity, identifier string) (*EscrowAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if caller == "" {
		return nil, fmt.Errorf("%w: caller identity is required", domain.ErrInvalidArgument)
	}

	c.mu.Lock()
	p, ok := c.products[identifier]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("purchase %q: %w", identifier, domain.ErrProductNotFound)
	}
	if p.Quantity == 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("purchase %q: %w", identifier, domain.ErrOutOfStock)
	}

	ref := c.newRef()
	for _, taken := c.escrows[ref]; taken; _, taken = c.escrows[ref] {
		ref = c.newRef()
	}
	now := c.nowFn().UTC()
	acct := &EscrowAccount{
		ref:       ref,
		productID: identifier,
		buyer:     caller,
		price:     p.UnitPrice,
		createdAt: now,
		updatedAt: now,
		state:     domain.AwaitingPayment,
		gateway:   c.gateway,
		emitter:   c.emitter,
		nowFn:     c.nowFn,
	}

	p.Quantity--
	c.purchases[domain.PurchaseKey{ProductID: identifier, Buyer: caller}]++
	c.escrows[ref] = acct
	c.byBuyer[caller] = append(c.byBuyer[caller], ref)
	remaining := p.Quantity
	c.mu.Unlock()

	zap.L().Info("purchase created",
		zap.String("product_id", identifier),
		zap.String("buyer", string(caller)),
		zap.String("escrow_ref", ref.String()),
		zap.Uint64("remaining", remaining),
	)
	c.emitter.Emit(events.PurchaseCreated{Buyer: caller, EscrowRef: ref, ProductID: identifier})
	return acct, nil
}

// BalanceOf returns the funds held by the catalog itself. A non-zero value
// means a payment was misrouted.
func (c *Catalog) BalanceOf(ctx context.Context) (decimal.Decimal, error) {
	return c.gateway.Balance(ctx, CatalogAddress)
}

func (c *Catalog) QueryProduct(ctx context.Context, identifier string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[identifier]
	if !ok {
		return domain.Product{}, fmt.Errorf("query %q: %w", identifier, domain.ErrProductNotFound)
	}
	return *p, nil
}

// QueryPurchaseCount returns how many purchases buyer created for identifier,
// zero when none.
func (c *Catalog) QueryPurchaseCount(_ context.Context, identifier string, buyer domain.Identity) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.purchases[domain.PurchaseKey{ProductID: identifier, Buyer: buyer}]
}

func (c *Catalog) Escrow(_ context.Context, ref uuid.UUID) (*EscrowAccount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	acct, ok := c.escrows[ref]
	if !ok {
		return nil, fmt.Errorf("escrow %s: %w", ref, domain.ErrEscrowNotFound)
	}
	return acct, nil
}

// Purchases lists the escrow references opened by buyer, oldest first.
func (c *Catalog) Purchases(_ context.Context, buyer domain.Identity) []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	refs := c.byBuyer[buyer]
	out := make([]uuid.UUID, len(refs))
	copy(out, refs)
	return out
}
