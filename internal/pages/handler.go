// Package pages holds the role-gated admin screens. Every handler reads its
// data through the session-bound API client; nothing here computes business
// rules — the backend answers, the templates display.
package pages

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfi/meridian-admin/internal/session"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
	"github.com/meridian-mfi/meridian-admin/internal/view"
)

// Handler renders the admin screens.
type Handler struct {
	logger      *slog.Logger
	sessions    *session.Manager
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, sessions *session.Manager, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, sessions: sessions, templates: templates, csrfManager: csrf}
}

// Dashboard is the landing screen for any authenticated user.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/dashboard.html", "Dashboard", http.StatusOK, nil)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, status int, data any) {
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

// renderError shows the backend failure inline; each page owns its message.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("page data fetch", slog.String("path", r.URL.Path), slog.Any("error", err))
	h.render(w, r, "pages/error.html", "Error", http.StatusBadGateway, err.Error())
}

func (h *Handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, kind, message, target string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
