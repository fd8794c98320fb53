package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"the-escrow-ledger/internal/database"
	"the-escrow-ledger/internal/domain"
	"the-escrow-ledger/internal/events"
	"the-escrow-ledger/internal/service"
)

// Funder is the faucet side of the in-memory payment rail.
type Funder interface {
	Fund(ctx context.Context, account domain.Identity, amount decimal.Decimal) error
	Balance(ctx context.Context, account domain.Identity) (decimal.Decimal, error)
}

type App struct {
	Catalog *service.Catalog
	Funds   Funder
	Events  *events.Log
	// DB is nil when the journal is disabled.
	DB database.Service
}

type createProductRequest struct {
	Identifier string          `json:"identifier" binding:"required"`
	Quantity   uint64          `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type addQuantityRequest struct {
	Amount uint64 `json:"amount"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   domain.Identity `json:"from"`
}

type fundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type eventsQuery struct {
	After uint64 `form:"after"`
	Limit int    `form:"limit"`
}

func (a *App) health(c *gin.Context) {
	if a.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "up", "journal": "disabled"})
		return
	}
	stats := a.DB.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

func (a *App) balance(c *gin.Context) {
	bal, err := a.Catalog.BalanceOf(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": bal})
}

func (a *App) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	p, err := a.Catalog.CreateProduct(c.Request.Context(), caller(c), req.Identifier, req.Quantity, req.UnitPrice)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (a *App) getProduct(c *gin.Context) {
	p, err := a.Catalog.QueryProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *App) addQuantity(c *gin.Context) {
	var req addQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	p, err := a.Catalog.AddQuantity(c.Request.Context(), caller(c), c.Param("id"), req.Amount)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *App) createPurchase(c *gin.Context) {
	acct, err := a.Catalog.CreatePurchase(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acct.QueryState(c.Request.Context()))
}

func (a *App) purchaseCount(c *gin.Context) {
	n := a.Catalog.QueryPurchaseCount(c.Request.Context(), c.Param("id"), domain.Identity(c.Param("buyer")))
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (a *App) listPurchases(c *gin.Context) {
	refs := a.Catalog.Purchases(c.Request.Context(), domain.Identity(c.Param("buyer")))
	c.JSON(http.StatusOK, gin.H{"purchases": refs})
}

func (a *App) escrow(c *gin.Context) (*service.EscrowAccount, bool) {
	ref, err := uuid.Parse(c.Param("ref"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_ref", err.Error())
		return nil, false
	}
	acct, err := a.Catalog.Escrow(c.Request.Context(), ref)
	if err != nil {
		writeDomainError(c, err)
		return nil, false
	}
	return acct, true
}

func (a *App) getEscrow(c *gin.Context) {
	acct, ok := a.escrow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, acct.QueryState(c.Request.Context()))
}

func (a *App) deposit(c *gin.Context) {
	acct, ok := a.escrow(c)
	if !ok {
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	from := caller(c)
	if req.From != "" && req.From != from {
		writeError(c, http.StatusForbidden, "unauthorized", "deposits are paid from the caller's own account")
		return
	}
	st, err := acct.Deposit(c.Request.Context(), req.Amount, from)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *App) cancelPurchase(c *gin.Context) {
	acct, ok := a.escrow(c)
	if !ok {
		return
	}
	st, err := acct.CancelPurchase(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *App) listEvents(c *gin.Context) {
	var q eventsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	if q.Limit <= 0 || q.Limit > 1000 {
		q.Limit = 100
	}
	recs := a.Events.Since(q.After, q.Limit)
	if recs == nil {
		recs = []events.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"events": recs})
}

func (a *App) getAccount(c *gin.Context) {
	bal, err := a.Funds.Balance(c.Request.Context(), domain.Identity(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": c.Param("id"), "balance": bal})
}

func (a *App) fundAccount(c *gin.Context) {
	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	id := domain.Identity(c.Param("id"))
	if service.IsReservedAddress(id) {
		writeError(c, http.StatusForbidden, "reserved_account", "ledger accounts cannot be funded externally")
		return
	}
	if err := a.Funds.Fund(c.Request.Context(), id, req.Amount); err != nil {
		writeDomainError(c, err)
		return
	}
	bal, err := a.Funds.Balance(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": id, "balance": bal})
}
