package scheduling

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/scheduling")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.PUT("/:id", h.Update, auth.Require(auth.CapManageAppointments))
}

func (h *Handler) Create(c echo.Context) error {
	var req AppointmentRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusNotImplemented, map[string]string{"error": createNotImplemented})
}

func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, []struct{}{})
}

func (h *Handler) Update(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]string{"error": updateNotImplemented})
}
