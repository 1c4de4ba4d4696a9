package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"user-management-app/internal/auth"
	"user-management-app/internal/logger"
	"user-management-app/internal/validation"
)

type RouterConfig struct {
	RateLimit float64
	RateBurst int
	JWTSecret string
}

// NewRouter wires middleware and routes for the user API.
func NewRouter(h *UserHandler, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = validation.New()

	allowHeaders := []string{echo.HeaderContentType, HeaderIdempotencyKey}
	if cfg.JWTSecret != "" {
		allowHeaders = append(allowHeaders, echo.HeaderAuthorization)
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(logger.RequestLogger("user-service"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: allowHeaders,
	}))
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig(cfg)))
	}

	var mutate []echo.MiddlewareFunc
	if guard := auth.Middleware(cfg.JWTSecret); guard != nil {
		mutate = append(mutate, guard)
	}

	// Routes
	e.GET("/test", h.Test)
	e.GET("/health", h.Health)
	e.GET("/users", h.ListUsers)
	e.GET("/users/:id", h.GetUserByID)
	e.POST("/users", h.CreateUser, mutate...)
	e.PUT("/users/:id", h.UpdateUser, mutate...)
	e.DELETE("/users/:id", h.DeleteUser, mutate...)

	return e
}

func rateLimiterConfig(cfg RouterConfig) middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}
}
