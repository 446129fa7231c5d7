package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-mfi/meridian-admin/internal/auth"
	"github.com/meridian-mfi/meridian-admin/internal/guard"
	"github.com/meridian-mfi/meridian-admin/internal/observability"
	"github.com/meridian-mfi/meridian-admin/internal/pages"
	"github.com/meridian-mfi/meridian-admin/internal/session"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
	"github.com/meridian-mfi/meridian-admin/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Sessions       *session.Manager
	AuthHandler    *auth.Handler
	PagesHandler   *pages.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with gateway defaults. RequireAuth is
// always the outer guard and RequireRole the inner one, so anonymous
// visitors are sent to the login screen and only signed-in users with the
// wrong role ever see the unauthorized page.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Sessions.Bootstrap)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Handle("/static/*", http.FileServer(http.FS(web.Static)))

	params.AuthHandler.MountRoutes(r)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if session.StateFromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuth)

		r.Get("/dashboard", params.PagesHandler.Dashboard)

		r.Route("/clients", func(r chi.Router) {
			r.Use(guard.RequireRole(guard.RoleCashier, guard.RoleTeller, guard.RoleLoanOfficer, guard.RoleBranchManager, guard.RoleSuperAdmin))
			params.PagesHandler.MountClientRoutes(r)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Use(guard.RequireRole(guard.RoleCashier, guard.RoleLoanOfficer, guard.RoleBranchManager, guard.RoleSuperAdmin))
			params.PagesHandler.MountLoanRoutes(r)
		})

		r.Route("/savings", func(r chi.Router) {
			r.Use(guard.RequireRole(guard.RoleCashier, guard.RoleTeller, guard.RoleBranchManager, guard.RoleSuperAdmin))
			params.PagesHandler.MountSavingsRoutes(r)
		})

		r.Route("/teller-sessions", func(r chi.Router) {
			r.Use(guard.RequireRole(guard.RoleCashier, guard.RoleTeller, guard.RoleBranchManager))
			params.PagesHandler.MountTellerRoutes(r)
		})

		r.Route("/super-admin", func(r chi.Router) {
			r.Use(guard.RequireRole(guard.RoleSuperAdmin))
			params.PagesHandler.MountSuperAdminRoutes(r)
		})
	})

	return r
}
