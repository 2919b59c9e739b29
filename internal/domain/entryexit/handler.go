package entryexit

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/reporting"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
	"github.com/hostelcare/hostelcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/entry-exit")
	g.POST("", h.Create)
	g.GET("", h.List, auth.Require(auth.CapViewEntryExit))
	g.GET("/export", h.Export, auth.Require(auth.CapViewEntryExit))
}

func (h *Handler) Create(c echo.Context) error {
	_, userID, err := auth.Caller(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	l, err := h.svc.Record(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

// parseBound reads an RFC 3339 timestamp or a plain date. A plain end date
// covers the whole day.
func parseBound(name, v string, end bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, apperr.Validation("Validation failed", name+" must be a valid date")
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func filterFromQuery(c echo.Context) (Filter, error) {
	f := Filter{Type: Type(c.QueryParam("type"))}
	if v := c.QueryParam("userId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperr.Validation("Validation failed", "userId must be a valid UUID")
		}
		f.UserID = &id
	}
	var err error
	if f.Start, err = parseBound("startDate", c.QueryParam("startDate"), false); err != nil {
		return f, err
	}
	if f.End, err = parseBound("endDate", c.QueryParam("endDate"), true); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) List(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	items, total, err := h.svc.History(c.Request().Context(), f, pagination.FromContext(c))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Log{}
	}
	pagination.SetTotal(c, total)
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Export(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	data, err := h.svc.Export(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return reporting.Attachment(c, "entry-exit", data, time.Now())
}
