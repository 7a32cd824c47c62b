package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"uniExchange/internal/amm"
	"uniExchange/internal/exchange"
)

// ErrInvalidQueryParameters indicates that the request query string could not
// be parsed into the expected structure.
var ErrInvalidQueryParameters = fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")

// ErrSameTokens is returned when token_in and token_out are identical.
var ErrSameTokens = fiber.NewError(fiber.StatusBadRequest, "token_in and token_out cannot be the same")

// ErrAmountRequired is returned when neither amount_in nor amount_out is given.
var ErrAmountRequired = fiber.NewError(fiber.StatusBadRequest, "amount_in or amount_out is required")

// ErrAmountConflict is returned when both amount_in and amount_out are given.
var ErrAmountConflict = fiber.NewError(fiber.StatusBadRequest, "only one of amount_in and amount_out may be set")

// ErrQuoteFailedInternal signals a server-side pricing failure.
var ErrQuoteFailedInternal = fiber.NewError(fiber.StatusInternalServerError, "quote failed")

// NewInvalidAmount wraps an amount parsing error into a 400 Bad Request.
func NewInvalidAmount(field string, err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field+": "+err.Error())
}

// NewAddressRequired returns a 400 Bad Request for a missing address field.
func NewAddressRequired(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, field+" address is required")
}

// NewInvalidAddress returns a 400 Bad Request for an invalid address format.
func NewInvalidAddress(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field+" address")
}

// statusFor maps exchange failures onto HTTP statuses.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, exchange.ErrPairNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, amm.ErrInsufficientLiquidity),
		errors.Is(err, amm.ErrArithmeticOverflow),
		errors.Is(err, amm.ErrInsufficientInputAmount),
		errors.Is(err, amm.ErrInsufficientOutputAmount):
		return fiber.StatusUnprocessableEntity, true
	case errors.Is(err, amm.ErrIdenticalTokens), errors.Is(err, amm.ErrZeroAddress):
		return fiber.StatusBadRequest, true
	default:
		return 0, false
	}
}

var (
	errInvalidInteger = errors.New("not a base-10 integer")
	errNonPositive    = errors.New("must be greater than zero")
)
