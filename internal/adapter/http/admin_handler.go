package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	loanuc "cryptolend-backend/internal/usecase/loan"
	statsuc "cryptolend-backend/internal/usecase/stats"
)

// AdminHandler serves the review/management surface. Routes are mounted
// behind the RequireAdmin middleware; the handlers themselves assume the
// capability check already happened.
type AdminHandler struct {
	loans *loanuc.Usecase
	stats *statsuc.Usecase
}

func NewAdminHandler(loans *loanuc.Usecase, stats *statsuc.Usecase) *AdminHandler {
	return &AdminHandler{loans: loans, stats: stats}
}

func (h *AdminHandler) PlatformStats(c echo.Context) error {
	out, err := h.stats.ForPlatform(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) ListLoans(c echo.Context) error {
	out, err := h.stats.AllLoans(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) ApproveLoan(c echo.Context) error {
	dto, err := h.loans.Approve(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) RejectLoan(c echo.Context) error {
	dto, err := h.loans.Reject(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AdminHandler) DefaultLoan(c echo.Context) error {
	dto, err := h.loans.MarkDefaulted(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
