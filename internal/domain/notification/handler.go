package notification

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/notifications")
	g.GET("", h.List)
	g.GET("/count", h.UnreadCount)
	g.PATCH("/read-all", h.MarkAllRead)
	g.PATCH("/:id/read", h.MarkRead)
}

func (h *Handler) List(c echo.Context) error {
	_, userID, err := auth.Caller(c)
	if err != nil {
		return err
	}
	var isRead *bool
	if v := c.QueryParam("isRead"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperr.Validation("Validation failed", "isRead must be true or false")
		}
		isRead = &b
	}
	items, err := h.svc.List(c.Request().Context(), userID, isRead)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Notification{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UnreadCount(c echo.Context) error {
	_, userID, err := auth.Caller(c)
	if err != nil {
		return err
	}
	n, err := h.svc.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"unreadCount": n})
}

func (h *Handler) MarkRead(c echo.Context) error {
	_, userID, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.MarkRead(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notification marked as read."})
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	_, userID, err := auth.Caller(c)
	if err != nil {
		return err
	}
	n, err := h.svc.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "All notifications marked as read.", "updated": n})
}
