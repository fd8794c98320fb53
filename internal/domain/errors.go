package domain

import "errors"

var (
	ErrUnauthorized     = errors.New("caller is not authorized")
	ErrDuplicateProduct = errors.New("product already exists")
	ErrProductNotFound  = errors.New("product not found")
	ErrOutOfStock       = errors.New("product out of stock")
	ErrIncorrectAmount  = errors.New("deposit amount does not match price")
	ErrNotPaid          = errors.New("purchase is not paid")
	ErrAlreadySettled   = errors.New("purchase already settled")

	ErrEscrowNotFound    = errors.New("escrow not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPaymentFailed     = errors.New("payment transfer failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
