package medical

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
	g := api.Group("/medical", auth.Require(auth.CapMedicalRecords))
	g.GET("/:userId/record", h.GetRecord)
	g.PUT("/:userId/record", h.UpdateRecord)
	g.GET("/:userId/logs", h.ListLogs)
	g.POST("/:userId/logs", h.CreateLog)
}

func (h *Handler) GetRecord(c echo.Context) error {
	userID, err := validate.ParamUUID(c, "userId")
	if err != nil {
		return err
	}
	rec, err := h.svc.Record(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	userID, err := validate.ParamUUID(c, "userId")
	if err != nil {
		return err
	}
	var req UpdateRecordRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	rec, err := h.svc.UpdateRecord(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListLogs(c echo.Context) error {
	userID, err := validate.ParamUUID(c, "userId")
	if err != nil {
		return err
	}
	logs, err := h.svc.Logs(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []*Log{}
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) CreateLog(c echo.Context) error {
	_, staffID, err := auth.Caller(c)
	if err != nil {
		return err
	}
	userID, err := validate.ParamUUID(c, "userId")
	if err != nil {
		return err
	}
	var req CreateLogRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	l, err := h.svc.AddLog(c.Request().Context(), userID, staffID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}
