package complaint

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/reporting"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
)

// AttachmentField is the multipart field carrying the complaint attachment.
const AttachmentField = "attachment"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/complaints")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/export", h.Export, auth.Require(auth.CapExportComplaints))
	g.GET("/:id", h.Get)
	g.POST("/:id/assign", h.Assign, auth.Require(auth.CapAssignComplaint))
	g.PATCH("/:id/status", h.UpdateStatus, auth.Require(auth.CapUpdateComplaintStatus))
}

func requester(c echo.Context) (Requester, error) {
	p, id, err := auth.Caller(c)
	if err != nil {
		return Requester{}, err
	}
	return Requester{ID: id, Role: p.Role}, nil
}

// Create accepts either a JSON body or a multipart form with an optional
// attachment file.
func (h *Handler) Create(c echo.Context) error {
	who, err := requester(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}

	var upload *Upload
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile(AttachmentField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return apperr.Validation("Invalid attachment")
		default:
			f, err := fh.Open()
			if err != nil {
				return apperr.Internal("open attachment", err)
			}
			defer f.Close()
			upload = &Upload{FileName: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Content: f}
		}
	}

	complaint, err := h.svc.Create(c.Request().Context(), who, req, upload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, complaint)
}

func filterFromQuery(c echo.Context) (Filter, error) {
	f := Filter{
		Status:   Status(c.QueryParam("status")),
		Priority: Priority(c.QueryParam("priority")),
	}
	if v := c.QueryParam("facilityId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperr.Validation("Validation failed", "facilityId must be a valid UUID")
		}
		f.FacilityID = &id
	}
	return f, nil
}

func (h *Handler) List(c echo.Context) error {
	who, err := requester(c)
	if err != nil {
		return err
	}
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), who, f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Complaint{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	who, err := requester(c)
	if err != nil {
		return err
	}
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	complaint, err := h.svc.Get(c.Request().Context(), who, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, complaint)
}

// Assign responds with the new active assignment and its assignee.
func (h *Handler) Assign(c echo.Context) error {
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req AssignRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	complaint, err := h.svc.Assign(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	active := complaint.ActiveAssignment()
	if active == nil {
		return apperr.Internal("assign", fmt.Errorf("complaint %s has no active assignment", id))
	}
	return c.JSON(http.StatusOK, active)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	complaint, err := h.svc.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, complaint)
}

func (h *Handler) Export(c echo.Context) error {
	who, err := requester(c)
	if err != nil {
		return err
	}
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	data, err := h.svc.Export(c.Request().Context(), who, f)
	if err != nil {
		return err
	}
	return reporting.Attachment(c, "complaints", data, time.Now())
}
