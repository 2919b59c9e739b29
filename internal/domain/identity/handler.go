package identity

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

// RegisterRoutes mounts the public auth endpoints on public and the
// authenticated account endpoints on api.
func (h *Handler) RegisterRoutes(public *echo.Group, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)
	public.POST("/auth/refresh", h.Refresh)
	public.POST("/auth/logout", h.Logout)

	api.POST("/auth/admin/register", h.AdminRegister, auth.Require(auth.CapRegisterUser))
	api.GET("/auth/me", h.Me)
	api.GET("/users", h.ListUsers, auth.Require(auth.CapListUsers))
	api.PUT("/users/:id", h.UpdateUser, auth.Require(auth.CapManageUsers))
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	req.Name = validate.CleanText(req.Name)
	if err := validate.Struct(&req); err != nil {
		return err
	}
	role := auth.RoleResident
	if req.Role != "" {
		role = auth.Role(req.Role)
	}
	res, err := h.svc.Register(c.Request().Context(), NewUser{
		Email: req.Email, Password: req.Password, Name: req.Name, Role: role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) AdminRegister(c echo.Context) error {
	var req AdminRegisterRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	req.Name = validate.CleanText(req.Name)
	if err := validate.Struct(&req); err != nil {
		return err
	}
	u, err := h.svc.CreateUser(c.Request().Context(), NewUser{
		Email: req.Email, Password: req.Password, Name: req.Name, Role: auth.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{"user": u})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := validate.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	if err := h.svc.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) Me(c echo.Context) error {
	_, id, err := auth.Caller(c)
	if err != nil {
		return err
	}
	u, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListUsers(c echo.Context) error {
	p, _, err := auth.Caller(c)
	if err != nil {
		return err
	}
	users, err := h.svc.ListUsers(c.Request().Context(), p, c.QueryParam("role"), c.QueryParam("all") == "true")
	if err != nil {
		return err
	}
	if users == nil {
		users = []*User{}
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	p, _, err := auth.Caller(c)
	if err != nil {
		return err
	}
	id, err := validate.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := validate.Decode(c, &req); err != nil {
		return err
	}
	if req.Name != nil {
		name := validate.CleanText(*req.Name)
		req.Name = &name
	}
	u, err := h.svc.UpdateUser(c.Request().Context(), p, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
