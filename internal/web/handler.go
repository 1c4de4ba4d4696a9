// Package web serves the single-page user management frontend.
package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"user-management-app/internal/entity"
	"user-management-app/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// Toast messages.
const (
	msgCreated = "Success create"
	msgUpdated = "User updated"
	msgDeleted = "User deleted"
	msgFailed  = "Something went wrong"
)

// API is the part of the user API the frontend calls.
type API interface {
	ListUsers(ctx context.Context) ([]entity.User, error)
	CreateUser(ctx context.Context, input entity.UserInput) (*entity.User, error)
	UpdateUser(ctx context.Context, id int, input entity.UserInput) (*entity.User, error)
	DeleteUser(ctx context.Context, id int) (*entity.User, error)
}

type Handler struct {
	api       API
	sessions  *Sessions
	validator *validation.Validator
	templates *template.Template
}

type toast struct {
	Kind    string
	Message string
}

// PageData is what the templates render.
type PageData struct {
	Users  []entity.User
	Create createForm
	Update updateForm
	Toast  *toast
}

func NewHandler(api API, sessions *Sessions) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		api:       api,
		sessions:  sessions,
		validator: validation.New(),
		templates: tmpl,
	}, nil
}

// ShowHome fetches all users and renders the page --> GET /
func (h *Handler) ShowHome(c echo.Context) error {
	sid, err := h.sessionID(c)
	if err != nil {
		return err
	}

	data := PageData{}
	users, err := h.api.ListUsers(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Error fetching users")
		data.Toast = &toast{Kind: "error", Message: msgFailed}
		users = nil
	}
	data.Users = h.sessions.Reset(sid, users).Users()

	return h.render(c, "page", data)
}

// CreateUser validates the create form and posts it --> POST /ui/users
func (h *Handler) CreateUser(c echo.Context) error {
	list, err := h.list(c)
	if err != nil {
		return err
	}

	data := PageData{
		Create: createForm{Name: c.FormValue("name"), Email: c.FormValue("email")},
	}
	if data.Create.validate(h.validator) {
		user, err := h.api.CreateUser(c.Request().Context(), data.Create.input())
		if err != nil {
			log.Error().Err(err).Msg("Error create user")
			data.Toast = &toast{Kind: "error", Message: msgFailed}
		} else {
			list.Prepend(*user)
			data.Create = createForm{}
			data.Toast = &toast{Kind: "success", Message: msgCreated}
		}
	}

	data.Users = list.Users()
	return h.renderApp(c, data)
}

// UpdateUser validates the update form and puts it --> POST /ui/users/update
func (h *Handler) UpdateUser(c echo.Context) error {
	list, err := h.list(c)
	if err != nil {
		return err
	}

	data := PageData{
		Update: updateForm{ID: c.FormValue("id"), Name: c.FormValue("name"), Email: c.FormValue("email")},
	}
	if id, input, ok := data.Update.validate(h.validator); ok {
		if _, err := h.api.UpdateUser(c.Request().Context(), id, input); err != nil {
			log.Error().Err(err).Int("user_id", id).Msg("Error update user")
			data.Toast = &toast{Kind: "error", Message: msgFailed}
		} else {
			list.Patch(id, input.Name, input.Email)
			data.Update = updateForm{ID: "0"}
			data.Toast = &toast{Kind: "success", Message: msgUpdated}
		}
	}

	data.Users = list.Users()
	return h.renderApp(c, data)
}

// DeleteUser deletes one row --> DELETE /ui/users/:id
func (h *Handler) DeleteUser(c echo.Context) error {
	list, err := h.list(c)
	if err != nil {
		return err
	}

	data := PageData{}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		data.Toast = &toast{Kind: "error", Message: msgFailed}
	} else if _, err := h.api.DeleteUser(c.Request().Context(), id); err != nil {
		log.Error().Err(err).Int("user_id", id).Msg("Error delete user")
		data.Toast = &toast{Kind: "error", Message: msgFailed}
	} else {
		list.Remove(id)
		data.Toast = &toast{Kind: "success", Message: msgDeleted}
	}

	data.Users = list.Users()
	return h.renderApp(c, data)
}

// renderApp answers htmx requests with the app fragment and plain form
// posts with the whole page.
func (h *Handler) renderApp(c echo.Context, data PageData) error {
	if IsHTMXRequest(c.Request()) {
		return h.render(c, "app", data)
	}
	return h.render(c, "page", data)
}

func (h *Handler) render(c echo.Context, name string, data PageData) error {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *Handler) list(c echo.Context) (*UserList, error) {
	sid, err := h.sessionID(c)
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(sid), nil
}

func (h *Handler) sessionID(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	sid, err := newSessionID()
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return sid, nil
}
