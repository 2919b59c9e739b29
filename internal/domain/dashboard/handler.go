package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hostelcare/hostelcare/internal/domain/complaint"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/stats", h.Stats)
}

func (h *Handler) Stats(c echo.Context) error {
	p, id, err := auth.Caller(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Stats(c.Request().Context(), complaint.Requester{ID: id, Role: p.Role})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
