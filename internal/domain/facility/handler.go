package facility

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
	g := api.Group("/facilities")
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	admin := g.Group("", auth.Require(auth.CapManageFacilities))
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	filter := Filter{Type: c.QueryParam("type")}
	if v := c.QueryParam("isActive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperr.Validation("Validation failed", "isActive must be true or false")
		}
		filter.IsActive = &b
	}
	items, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Facility{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	f, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	f, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	f, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Facility deleted successfully"})
}
