package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cryptolend-backend/internal/pricing"
)

type PriceHandler struct{ oracle pricing.Oracle }

func NewPriceHandler(oracle pricing.Oracle) *PriceHandler { return &PriceHandler{oracle: oracle} }

func (h *PriceHandler) Prices(c echo.Context) error {
	snap, err := h.oracle.Snapshot(c.Request().Context())
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "price feed unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"prices": snap.Prices(),
		"as_of":  snap.AsOf(),
	})
}
