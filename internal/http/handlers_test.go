package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"the-escrow-ledger/internal/domain"
	"the-escrow-ledger/internal/events"
	"the-escrow-ledger/internal/infrastructure/payment"
	"the-escrow-ledger/internal/service"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ledger := payment.NewLedger()
	log := events.NewLog()
	app := &App{
		Catalog: service.NewCatalog("owner", ledger, log),
		Funds:   ledger,
		Events:  log,
	}
	return NewRouter(app)
}

func do(t *testing.T, h http.Handler, method, path, caller, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Buffer
	if body != "" {
		rdr = bytes.NewBufferString(body)
	} else {
		rdr = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(headerCaller, caller)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthWithoutJournal(t *testing.T) {
	h := setupRouter(t)
	rr := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(headerRequestID))
}

func TestProductLifecycle(t *testing.T) {
	h := setupRouter(t)

	rr := do(t, h, http.MethodPost, "/products", "owner", `{"identifier":"100","quantity":33,"unit_price":"1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodPost, "/products", "owner", `{"identifier":"100","quantity":33,"unit_price":"1"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "duplicate_product", decode[jsonError](t, rr).Error)

	rr = do(t, h, http.MethodPost, "/products", "mallory", `{"identifier":"200","quantity":1,"unit_price":"1"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, h, http.MethodPost, "/products/100/quantity", "owner", `{"amount":100}`)
	require.Equal(t, http.StatusOK, rr.Code)
	p := decode[domain.Product](t, rr)
	assert.Equal(t, uint64(133), p.Quantity)

	rr = do(t, h, http.MethodPost, "/products/200/quantity", "owner", `{"amount":1}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/products/100", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "100", decode[domain.Product](t, rr).Identifier)
}

func TestCreateProductRejectsBadJSON(t *testing.T) {
	h := setupRouter(t)
	rr := do(t, h, http.MethodPost, "/products", "owner", `{"quantity":-1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPurchaseDepositCancel(t *testing.T) {
	h := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/products", "owner", `{"identifier":"100","quantity":33,"unit_price":"1"}`).Code)

	rr := do(t, h, http.MethodPost, "/products/100/purchases", "alice", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	esc := decode[domain.EscrowSnapshot](t, rr)
	assert.Equal(t, domain.AwaitingPayment, esc.State)
	escPath := "/escrows/" + esc.Ref.String()

	rr = do(t, h, http.MethodGet, "/products/100/purchases/alice", "", "")
	assert.JSONEq(t, `{"count":1}`, rr.Body.String())

	rr = do(t, h, http.MethodPost, escPath+"/cancel", "alice", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "not_paid", decode[jsonError](t, rr).Error)

	rr = do(t, h, http.MethodPost, escPath+"/deposits", "alice", `{"amount":"1"}`)
	assert.Equal(t, http.StatusPaymentRequired, rr.Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/accounts/alice/fund", "", `{"amount":"1"}`).Code)

	rr = do(t, h, http.MethodPost, escPath+"/deposits", "alice", `{"amount":"2"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, h, http.MethodPost, escPath+"/deposits", "alice", `{"amount":"1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, domain.Paid, decode[domain.EscrowSnapshot](t, rr).State)

	rr = do(t, h, http.MethodPost, escPath+"/cancel", "bob", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, h, http.MethodPost, escPath+"/cancel", "alice", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.Refunded, decode[domain.EscrowSnapshot](t, rr).State)

	rr = do(t, h, http.MethodPost, escPath+"/cancel", "alice", "")
	assert.Equal(t, "already_settled", decode[jsonError](t, rr).Error)

	rr = do(t, h, http.MethodGet, "/accounts/alice", "", "")
	assert.JSONEq(t, `{"account":"alice","balance":"1"}`, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/balance", "", "")
	assert.JSONEq(t, `{"balance":"0"}`, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/buyers/alice/purchases", "", "")
	assert.Contains(t, rr.Body.String(), esc.Ref.String())
}

func TestDepositOnlyFromCaller(t *testing.T) {
	h := setupRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/products", "owner", `{"identifier":"100","quantity":2,"unit_price":"1"}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/accounts/alice/fund", "", `{"amount":"1"}`).Code)

	rr := do(t, h, http.MethodPost, "/products/100/purchases", "mallory", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	escPath := "/escrows/" + decode[domain.EscrowSnapshot](t, rr).Ref.String()

	rr = do(t, h, http.MethodPost, escPath+"/deposits", "mallory", `{"amount":"1","from":"alice"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "unauthorized", decode[jsonError](t, rr).Error)

	rr = do(t, h, http.MethodGet, escPath, "", "")
	assert.Equal(t, domain.AwaitingPayment, decode[domain.EscrowSnapshot](t, rr).State)
	rr = do(t, h, http.MethodGet, "/accounts/alice", "", "")
	assert.JSONEq(t, `{"account":"alice","balance":"1"}`, rr.Body.String())

	rr = do(t, h, http.MethodPost, escPath+"/deposits", "", `{"amount":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFundRejectsLedgerAccounts(t *testing.T) {
	h := setupRouter(t)
	for _, path := range []string{
		"/accounts/" + string(service.CatalogAddress) + "/fund",
		"/accounts/escrow:5b7c1e52-9a0e-4c39-a8f3-0c6f9e9d2a11/fund",
	} {
		rr := do(t, h, http.MethodPost, path, "", `{"amount":"5"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code, path)
		assert.Equal(t, "reserved_account", decode[jsonError](t, rr).Error)
	}

	rr := do(t, h, http.MethodGet, "/balance", "", "")
	assert.JSONEq(t, `{"balance":"0"}`, rr.Body.String())
}

func TestEscrowLookupErrors(t *testing.T) {
	h := setupRouter(t)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/escrows/not-a-uuid", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/escrows/5b7c1e52-9a0e-4c39-a8f3-0c6f9e9d2a11", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/products/nope/purchases", "alice", "").Code)
}

func TestListEvents(t *testing.T) {
	h := setupRouter(t)
	do(t, h, http.MethodPost, "/products", "owner", `{"identifier":"a","quantity":1,"unit_price":"2"}`)
	do(t, h, http.MethodPost, "/products/a/purchases", "alice", "")

	rr := do(t, h, http.MethodGet, "/events?after=1", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[struct {
		Events []events.Record `json:"events"`
	}](t, rr)
	require.Len(t, body.Events, 1)
	assert.Equal(t, events.TypePurchaseCreated, body.Events[0].Type)

	rr = do(t, h, http.MethodGet, "/events?after=9", "", "")
	assert.JSONEq(t, `{"events":[]}`, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/events?after=x", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
