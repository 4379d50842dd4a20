package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "cryptolend-backend/internal/adapter/middleware"
	loanuc "cryptolend-backend/internal/usecase/loan"
)

// recent-transactions page size, per the account activity view
const userTransactionLimit = 10

type TransactionHandler struct{ uc *loanuc.Usecase }

func NewTransactionHandler(uc *loanuc.Usecase) *TransactionHandler {
	return &TransactionHandler{uc: uc}
}

func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	dtos, err := h.uc.ListUserTransactions(c.Request().Context(), actor.ID, userTransactionLimit)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}
