package http

import (
	"errors"
	stdhttp "net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"taller-access/internal/application"
	"taller-access/internal/domain"
)

func handleError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(stdhttp.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, domain.ErrPermissionDeny):
		return c.JSON(stdhttp.StatusForbidden, map[string]string{"error": "permission denied"})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnavailable):
		return c.JSON(stdhttp.StatusBadGateway, map[string]string{"error": "upstream unavailable"})
	default:
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

type snapshotResponse struct {
	User        *domain.Identity `json:"user"`
	Role        string           `json:"role"`
	Permissions []string         `json:"permissions"`
	Loading     bool             `json:"loading"`
	Admin       bool             `json:"admin"`
}

func newSnapshotResponse(v application.View) snapshotResponse {
	snap := v.Snapshot()
	return snapshotResponse{
		User:        snap.Identity,
		Role:        snap.Role(),
		Permissions: snap.Permissions.List(),
		Loading:     snap.Loading,
		Admin:       v.IsAdmin(),
	}
}

type SessionHandler struct {
	service *application.SessionService
	store   *application.PermissionStore
}

func NewSessionHandler(service *application.SessionService, store *application.PermissionStore) *SessionHandler {
	return &SessionHandler{service: service, store: store}
}

func (h *SessionHandler) Login(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if req.Token == "" {
		req.Token = c.Request().Header.Get(echo.HeaderAuthorization)
	}
	if _, err := h.service.Login(c.Request().Context(), req.Token); err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, newSnapshotResponse(h.store.View()))
}

func (h *SessionHandler) Logout(c echo.Context) error {
	h.service.Logout(c.Request().Context())
	return c.NoContent(stdhttp.StatusNoContent)
}

type CapabilityHandler struct {
	store *application.PermissionStore
	gate  application.Gate
	menu  []domain.MenuItem
}

func NewCapabilityHandler(store *application.PermissionStore, menu []domain.MenuItem) *CapabilityHandler {
	return &CapabilityHandler{store: store, gate: application.NewGate(store), menu: menu}
}

func (h *CapabilityHandler) Me(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, newSnapshotResponse(h.store.View()))
}

func (h *CapabilityHandler) Refresh(c echo.Context) error {
	h.store.Refetch(c.Request().Context())
	return c.JSON(stdhttp.StatusOK, newSnapshotResponse(h.store.View()))
}

func (h *CapabilityHandler) Menu(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, h.gate.FilterMenu(h.menu))
}

func (h *CapabilityHandler) Can(c echo.Context) error {
	tokens := c.QueryParams()["permission"]
	if len(tokens) == 0 {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "permission is required"})
	}
	return c.JSON(stdhttp.StatusOK, map[string]bool{"allowed": h.gate.AllowsAny(tokens...)})
}

func (h *CapabilityHandler) Module(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]any{
		"module":     c.Param("module"),
		"accessible": h.gate.ModuleVisible(c.Param("module")),
	})
}

type RoleEditorHandler struct {
	service *application.RoleEditorService
}

func NewRoleEditorHandler(service *application.RoleEditorService) *RoleEditorHandler {
	return &RoleEditorHandler{service: service}
}

func (h *RoleEditorHandler) List(c echo.Context) error {
	roles, err := h.service.ListRoles(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, roles)
}

func (h *RoleEditorHandler) Get(c echo.Context) error {
	d, err := h.service.Load(c.Request().Context(), c.Param("role_id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, d)
}

func (h *RoleEditorHandler) SelectModule(c echo.Context) error {
	d, err := h.service.SelectModule(c.Request().Context(), c.Param("role_id"), c.Param("module"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, d)
}

func (h *RoleEditorHandler) DeselectModule(c echo.Context) error {
	d, err := h.service.DeselectModule(c.Request().Context(), c.Param("role_id"), c.Param("module"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, d)
}

func (h *RoleEditorHandler) ToggleModule(c echo.Context) error {
	d, err := h.service.ToggleModule(c.Request().Context(), c.Param("role_id"), c.Param("module"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, d)
}

func (h *RoleEditorHandler) TogglePermission(c echo.Context) error {
	token, err := url.PathUnescape(c.Param("permission"))
	if err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid permission"})
	}
	d, err := h.service.TogglePermission(c.Request().Context(), c.Param("role_id"), token)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, d)
}

func (h *RoleEditorHandler) SetPermissions(c echo.Context) error {
	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	d, err := h.service.SetPermissions(c.Request().Context(), c.Param("role_id"), req.Permissions)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, d)
}
