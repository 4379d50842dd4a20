package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "cryptolend-backend/internal/adapter/middleware"
	statsuc "cryptolend-backend/internal/usecase/stats"
)

type StatsHandler struct{ uc *statsuc.Usecase }

func NewStatsHandler(uc *statsuc.Usecase) *StatsHandler { return &StatsHandler{uc: uc} }

func (h *StatsHandler) UserStats(c echo.Context) error {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	out, err := h.uc.ForUser(c.Request().Context(), actor.ID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
