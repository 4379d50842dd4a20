package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "cryptolend-backend/internal/adapter/middleware"
	loanuc "cryptolend-backend/internal/usecase/loan"
)

type LoanHandler struct{ uc *loanuc.Usecase }

func NewLoanHandler(uc *loanuc.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	Amount           float64 `json:"amount"            validate:"required,gte=100,lte=100000,dec2"`
	Currency         string  `json:"currency"          validate:"omitempty,asset"`
	CollateralType   string  `json:"collateral_type"   validate:"required,asset"`
	CollateralAmount float64 `json:"collateral_amount" validate:"required,gte=0.001,dec8"`
	TermDays         int     `json:"term_days"         validate:"required,gte=30,lte=365"`
	Purpose          string  `json:"purpose"           validate:"required,max=64"`
	InterestRate     float64 `json:"interest_rate"     validate:"gte=0,lte=100,dec2"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}

	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Apply(c.Request().Context(), loanuc.ApplyInput{
		UserID:           actor.ID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		CollateralType:   req.CollateralType,
		CollateralAmount: req.CollateralAmount,
		TermDays:         req.TermDays,
		Purpose:          req.Purpose,
		InterestRate:     req.InterestRate,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"), actor.ID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	dtos, err := h.uc.ListByUser(c.Request().Context(), actor.ID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanHandler) ListLoanTransactions(c echo.Context) error {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	dtos, err := h.uc.ListTransactions(c.Request().Context(), c.Param("loan_id"), actor.ID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dtos)
}

type paymentReq struct {
	Amount float64 `json:"amount" validate:"required,gt=0,lte=100000,dec2"`
}

func (h *LoanHandler) Pay(c echo.Context) error {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}

	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	res, err := h.uc.Pay(c.Request().Context(), c.Param("loan_id"), actor.ID, req.Amount)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
