package medicine

import (
	"net/http"

	"github.com/labstack/echo/v4"

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
	g := api.Group("/medicine")
	g.GET("", h.List)
	g.POST("", h.Create, auth.Require(auth.CapManageMedicine))
	g.PUT("/:id", h.Update, auth.Require(auth.CapManageMedicine))
	g.DELETE("/:id", h.Delete, auth.Require(auth.CapDeleteMedicine))
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), Filter{
		Search:       c.QueryParam("search"),
		Availability: Availability(c.QueryParam("availability")),
	})
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Medicine{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	m, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
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
	m, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Medicine entry deleted successfully"})
}
