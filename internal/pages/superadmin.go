package pages

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfi/meridian-admin/internal/apiclient"
	"github.com/meridian-mfi/meridian-admin/internal/guard"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
)

// MountSuperAdminRoutes registers the configuration screens.
func (h *Handler) MountSuperAdminRoutes(r chi.Router) {
	r.Get("/", h.showSuperAdmin)
	r.Get("/branches", h.listBranches)
	r.Post("/branches", h.createBranch)
	r.Get("/users", h.listStaffUsers)
	r.Post("/users", h.createStaffUser)
	r.Get("/audit-logs", h.listAuditLogs)
}

func (h *Handler) showSuperAdmin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/super_admin.html", "Super admin", http.StatusOK, nil)
}

type branchesPageData struct {
	Branches []apiclient.Branch
	Error    string
}

func (h *Handler) listBranches(w http.ResponseWriter, r *http.Request) {
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	branches, err := client.ListBranches(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/super_admin_branches.html", "Branches", http.StatusOK, branchesPageData{Branches: branches})
}

func (h *Handler) createBranch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	payload := map[string]any{
		"name":    r.PostFormValue("name"),
		"code":    r.PostFormValue("code"),
		"address": r.PostFormValue("address"),
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	if err := client.CreateBranch(r.Context(), payload); err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), "/super-admin/branches")
		return
	}
	h.flashAndRedirect(w, r, "success", "Branch created", "/super-admin/branches")
}

type usersPageData struct {
	Users []apiclient.StaffUser
	Roles []string
	Error string
}

func (h *Handler) listStaffUsers(w http.ResponseWriter, r *http.Request) {
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	users, err := client.ListStaffUsers(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/super_admin_users.html", "Users", http.StatusOK, usersPageData{Users: users, Roles: guard.AllRoles()})
}

func (h *Handler) createStaffUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	payload := map[string]any{
		"username":   r.PostFormValue("username"),
		"first_name": r.PostFormValue("first_name"),
		"role":       r.PostFormValue("role"),
	}
	if branch, err := strconv.ParseInt(r.PostFormValue("branch"), 10, 64); err == nil {
		payload["branch"] = branch
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	if err := client.CreateStaffUser(r.Context(), payload); err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), "/super-admin/users")
		return
	}
	h.flashAndRedirect(w, r, "success", "User created, invite sent", "/super-admin/users")
}

func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	logs, err := client.ListAuditLogs(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/super_admin_audit.html", "Audit logs", http.StatusOK, logs)
}
