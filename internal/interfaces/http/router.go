package http

import (
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"taller-access/internal/domain"
)

type Middleware struct {
	XRay          echo.MiddlewareFunc
	RequestLogger echo.MiddlewareFunc
	// RoleView and RoleEdit guard the role editor routes.
	RoleView echo.MiddlewareFunc
	RoleEdit echo.MiddlewareFunc
}

type Handlers struct {
	Session    *SessionHandler
	Capability *CapabilityHandler
	// RoleEditor is nil when role storage is not configured.
	RoleEditor *RoleEditorHandler
}

func newEcho(m Middleware) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if m.XRay != nil {
		e.Use(m.XRay)
	}
	if m.RequestLogger != nil {
		e.Use(m.RequestLogger)
	}
	return e
}

func NewMainRouter(h Handlers, m Middleware) *echo.Echo {
	e := newEcho(m)
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(stdhttp.StatusOK) })

	e.POST("/session", h.Session.Login)
	e.DELETE("/session", h.Session.Logout)

	e.GET("/me", h.Capability.Me)
	e.POST("/me/refresh", h.Capability.Refresh)
	e.GET("/menu", h.Capability.Menu)
	e.GET("/can", h.Capability.Can)
	e.GET("/modules/:module", h.Capability.Module)

	if h.RoleEditor != nil {
		view := guard(m.RoleView)
		edit := guard(m.RoleEdit)
		roles := e.Group("/roles")
		roles.GET("", h.RoleEditor.List, view)
		roles.GET("/:role_id/permissions", h.RoleEditor.Get, view)
		roles.PUT("/:role_id/permissions", h.RoleEditor.SetPermissions, edit)
		roles.POST("/:role_id/modules/:module/select", h.RoleEditor.SelectModule, edit)
		roles.POST("/:role_id/modules/:module/deselect", h.RoleEditor.DeselectModule, edit)
		roles.POST("/:role_id/modules/:module/toggle", h.RoleEditor.ToggleModule, edit)
		roles.POST("/:role_id/permissions/:permission/toggle", h.RoleEditor.TogglePermission, edit)
	}
	return e
}

func guard(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw != nil {
		return mw
	}
	return func(echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return handleError(c, domain.ErrPermissionDeny)
		}
	}
}
