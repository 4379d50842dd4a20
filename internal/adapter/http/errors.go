package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	loanDomain "cryptolend-backend/internal/domain/loan"
	"cryptolend-backend/internal/usecase/metrics"
)

// domainError translates ledger/calculator failures into HTTP responses.
// Anything unrecognized is a persistence or programming failure and stays
// a generic 500; details never leak to the client.
func domainError(c echo.Context, err error) error {
	var over *loanDomain.OverpaymentError
	switch {
	case errors.As(err, &over):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":             fmt.Sprintf("payment exceeds remaining balance (%.2f)", over.Remaining),
			"remaining_balance": over.Remaining,
		})
	case errors.Is(err, loanDomain.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "loan not found"})
	case errors.Is(err, loanDomain.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loanDomain.ErrInvalidInput),
		errors.Is(err, loanDomain.ErrLTVExceeded),
		errors.Is(err, metrics.ErrInvalidInput),
		errors.Is(err, metrics.ErrUnknownCollateral),
		errors.Is(err, metrics.ErrDegenerateCollateral):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
