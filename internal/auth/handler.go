// Package auth wires the sign-in, sign-out and set-password screens.
package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-mfi/meridian-admin/internal/apiclient"
	"github.com/meridian-mfi/meridian-admin/internal/session"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
	"github.com/meridian-mfi/meridian-admin/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	sessions    *session.Manager
	api         *apiclient.Client
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance. The api client is the
// unauthenticated one; set-password runs before any session exists.
func NewHandler(logger *slog.Logger, sessions *session.Manager, api *apiclient.Client, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		sessions:    sessions,
		api:         api,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/set-password", h.showSetPassword)
	r.Post("/set-password", h.handleSetPassword)
	r.Get("/unauthorized", h.showUnauthorized)
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	st := session.StateFromContext(r.Context())
	if st.Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginPageData{Form: loginForm{}})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = "This field is required"
		}
	}

	if len(errs) == 0 {
		result := h.sessions.Login(r.Context(), sess, form.Username, form.Password)
		if result.Success {
			if sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})
			}
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		errs["general"] = result.Error
	}

	form.Password = ""
	h.renderLogin(w, r, http.StatusUnauthorized, loginPageData{Form: form, Errors: errs})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	h.sessions.Logout(sess)
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Signed out"})
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type setPasswordForm struct {
	Token    string `validate:"required"`
	Password string `validate:"required,min=8"`
	Confirm  string `validate:"required,eqfield=Password"`
}

type setPasswordPageData struct {
	Form   setPasswordForm
	Errors map[string]string
}

func (h *Handler) showSetPassword(w http.ResponseWriter, r *http.Request) {
	data := setPasswordPageData{Form: setPasswordForm{Token: r.URL.Query().Get("token")}}
	h.renderPage(w, r, "pages/set_password.html", "Set password", http.StatusOK, data)
}

func (h *Handler) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := setPasswordForm{
		Token:    r.PostFormValue("token"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Tag() {
			case "min":
				errs[fieldErr.Field()] = "Password must be at least 8 characters"
			case "eqfield":
				errs[fieldErr.Field()] = "Passwords do not match"
			default:
				errs[fieldErr.Field()] = "This field is required"
			}
		}
	}

	if len(errs) == 0 {
		err := h.api.Post(r.Context(), "/auth/set-password/", map[string]string{
			"token":    form.Token,
			"password": form.Password,
		}, nil)
		if err == nil {
			if sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Password set, you can sign in now"})
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.logger.Warn("set password", slog.Any("error", err))
		errs["general"] = err.Error()
	}

	form.Password = ""
	form.Confirm = ""
	h.renderPage(w, r, "pages/set_password.html", "Set password", http.StatusBadRequest, setPasswordPageData{Form: form, Errors: errs})
}

func (h *Handler) showUnauthorized(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "pages/unauthorized.html", "Not allowed", http.StatusForbidden, nil)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	h.renderPage(w, r, "pages/login.html", "Sign in", status, data)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, name, title string, status int, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Auth:        session.StateFromContext(r.Context()),
		Data:        data,
	}
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logger.Error("render "+name, slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
