package web

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"user-management-app/internal/logger"
)

// NewRouter wires the frontend routes.
func NewRouter(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger.RequestLogger("web"))

	e.GET("/", h.ShowHome)
	e.POST("/ui/users", h.CreateUser)
	e.POST("/ui/users/update", h.UpdateUser)
	e.DELETE("/ui/users/:id", h.DeleteUser)
	// Fallback for browsers without JavaScript.
	e.POST("/ui/users/:id/delete", h.DeleteUser)

	return e
}
