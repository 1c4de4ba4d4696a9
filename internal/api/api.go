package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"user-management-app/internal/apperror"
	"user-management-app/internal/entity"
	"user-management-app/internal/service"
)

// HeaderIdempotencyKey lets clients make POST /users safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Test confirms the API is up --> /test
func (h *UserHandler) Test(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "API is working"})
}

// ListUsers returns all users --> GET /users
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// GetUserByID retrieves a user by ID --> GET /users/:id
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// CreateUser creates a new user --> POST /users
func (h *UserHandler) CreateUser(c echo.Context) error {
	input, err := bindInput(c)
	if err != nil {
		return err
	}

	user, err := h.userService.CreateUser(c.Request().Context(), input, c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser overwrites name and email --> PUT /users/:id
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	input, err := bindInput(c)
	if err != nil {
		return err
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser deletes a user --> DELETE /users/:id
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.DeleteUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entity.DeleteResult{Message: "Success delete", User: user})
}

// Health reports store reachability --> GET /health
func (h *UserHandler) Health(c echo.Context) error {
	status, code := "ok", http.StatusOK
	if err := h.userService.Ping(c.Request().Context()); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":  status,
		"service": "user-service",
		"time":    time.Now().Format(time.RFC3339),
	})
}

func parseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apperror.Validation("Invalid ID", map[string]string{"id": "ID must be a number"})
	}
	return id, nil
}

func bindInput(c echo.Context) (entity.UserInput, error) {
	var input entity.UserInput
	if err := c.Bind(&input); err != nil {
		return input, apperror.Validation("Invalid request payload", nil)
	}
	if err := c.Validate(&input); err != nil {
		return input, err
	}
	return input, nil
}
