package pages

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfi/meridian-admin/internal/apiclient"
	"github.com/meridian-mfi/meridian-admin/internal/guard"
	"github.com/meridian-mfi/meridian-admin/internal/session"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
)

// MountTellerRoutes registers the cash session screens.
func (h *Handler) MountTellerRoutes(r chi.Router) {
	r.Get("/", h.listCashSessions)
	r.Post("/allocate", h.allocateCash)
	r.Post("/{sessionID}/confirm", h.confirmCashOpening)
	r.Post("/{sessionID}/close", h.closeCashSession)
	r.Post("/{sessionID}/review", h.reviewCashSession)
}

type tellerPageData struct {
	Sessions []apiclient.CashSession
	Active   *apiclient.CashSession
	Error    string
}

func (h *Handler) listCashSessions(w http.ResponseWriter, r *http.Request) {
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	list, err := client.ListCashSessions(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := tellerPageData{Sessions: list}
	st := session.StateFromContext(r.Context())
	if st.User != nil && (st.User.Role == guard.RoleCashier || st.User.Role == guard.RoleTeller) {
		// A cashier without an open drawer gets a 404 here; that is a
		// normal state, not an error.
		if active, err := client.MyActiveCashSession(r.Context()); err == nil {
			data.Active = active
		} else if apiclient.StatusOf(err) != http.StatusNotFound {
			data.Error = err.Error()
		}
	}
	h.render(w, r, "pages/teller_sessions.html", "Cash sessions", http.StatusOK, data)
}

func (h *Handler) allocateCash(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	payload := map[string]any{
		"cashier_id":      r.PostFormValue("cashier_id"),
		"opening_balance": r.PostFormValue("opening_balance"),
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	if err := client.AllocateCash(r.Context(), payload); err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), "/teller-sessions")
		return
	}
	h.flashAndRedirect(w, r, "success", "Cash allocated", "/teller-sessions")
}

// confirmCashOpening is the cashier's acknowledgement that the allocated
// float matches what is physically in the drawer.
func (h *Handler) confirmCashOpening(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "sessionID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	payload := map[string]any{"counted_balance": r.PostFormValue("counted_balance")}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	if err := client.ConfirmCashOpening(r.Context(), id, payload); err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), "/teller-sessions")
		return
	}
	h.flashAndRedirect(w, r, "success", "Opening balance confirmed", "/teller-sessions")
}

func (h *Handler) closeCashSession(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "sessionID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	payload := map[string]any{"closing_balance": r.PostFormValue("closing_balance")}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	if err := client.CloseCashSession(r.Context(), id, payload); err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), "/teller-sessions")
		return
	}
	h.flashAndRedirect(w, r, "success", "Session closed", "/teller-sessions")
}

// reviewCashSession lets the branch manager sign off a closed drawer,
// recording whether any shortage or overage is accepted.
func (h *Handler) reviewCashSession(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "sessionID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	payload := map[string]any{
		"decision": r.PostFormValue("decision"),
		"notes":    r.PostFormValue("notes"),
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	if err := client.ReviewCashSession(r.Context(), id, payload); err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), "/teller-sessions")
		return
	}
	h.flashAndRedirect(w, r, "success", "Session reviewed", "/teller-sessions")
}
