// Package httpapi exposes the ledger over HTTP.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"the-escrow-ledger/internal/domain"
)

type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{domain.ErrEscrowNotFound, http.StatusNotFound, "escrow_not_found"},
	{domain.ErrDuplicateProduct, http.StatusConflict, "duplicate_product"},
	{domain.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
	{domain.ErrNotPaid, http.StatusConflict, "not_paid"},
	{domain.ErrAlreadySettled, http.StatusConflict, "already_settled"},
	{domain.ErrIncorrectAmount, http.StatusUnprocessableEntity, "incorrect_amount"},
	{domain.ErrPaymentFailed, http.StatusPaymentRequired, "payment_failed"},
	{domain.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
	{domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
}

func writeError(c *gin.Context, status int, code, details string) {
	c.AbortWithStatusJSON(status, jsonError{Error: code, Details: details})
}

// writeDomainError maps ledger errors to HTTP statuses.
func writeDomainError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeError(c, e.status, e.code, err.Error())
			return
		}
	}
	writeError(c, http.StatusInternalServerError, "internal", err.Error())
}
