package pages

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfi/meridian-admin/internal/apiclient"
	"github.com/meridian-mfi/meridian-admin/internal/guard"
	"github.com/meridian-mfi/meridian-admin/internal/session"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
)

// MountClientRoutes registers the client onboarding and KYC screens.
func (h *Handler) MountClientRoutes(r chi.Router) {
	r.Get("/", h.listClients)
	r.Get("/new", h.showRegisterClient)
	r.Post("/new", h.handleRegisterClient)
	r.Get("/{clientID}", h.showClient)
	r.Get("/{clientID}/kyc", h.showClientKyc)
	r.Post("/{clientID}/kyc", h.saveClientKyc)
	r.Post("/{clientID}/kyc/submit", h.kycAction("submit"))
	r.Post("/{clientID}/kyc/verify", h.kycAction("verify"))
	r.Post("/{clientID}/kyc/reject", h.kycAction("reject"))
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))

	// Loan officers see their own portfolio, everyone else the branch list.
	var clients []apiclient.ClientRecord
	var err error
	if st := session.StateFromContext(r.Context()); st.User != nil && st.User.Role == guard.RoleLoanOfficer {
		clients, err = client.ListOfficerClients(r.Context())
	} else {
		clients, err = client.ListClients(r.Context())
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/clients.html", "Clients", http.StatusOK, clients)
}

type registerClientData struct {
	Form  map[string]string
	Error string
}

func (h *Handler) showRegisterClient(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/client_register.html", "Register client", http.StatusOK, registerClientData{Form: map[string]string{}})
}

func (h *Handler) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := map[string]string{
		"first_name":  r.PostFormValue("first_name"),
		"last_name":   r.PostFormValue("last_name"),
		"phone":       r.PostFormValue("phone"),
		"national_id": r.PostFormValue("national_id"),
	}
	payload := make(map[string]any, len(form))
	for k, v := range form {
		payload[k] = v
	}

	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	created, err := client.RegisterClient(r.Context(), payload)
	if err != nil {
		h.render(w, r, "pages/client_register.html", "Register client", http.StatusBadRequest, registerClientData{Form: form, Error: err.Error()})
		return
	}
	h.flashAndRedirect(w, r, "success", "Client registered", clientPath(created.ID))
}

type clientDetailData struct {
	Client   *apiclient.ClientRecord
	Accounts []apiclient.SavingsAccount
}

func (h *Handler) showClient(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "clientID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	record, err := client.GetClient(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	// The account list is secondary; show the profile even if it fails.
	accounts, err := client.ListSavingsAccounts(r.Context(), id)
	if err != nil {
		h.logger.Warn("client savings accounts", slog.Any("error", err))
	}
	h.render(w, r, "pages/client_detail.html", record.FirstName+" "+record.LastName, http.StatusOK, clientDetailData{Client: record, Accounts: accounts})
}

type clientKycData struct {
	Client *apiclient.ClientRecord
	Kyc    map[string]any
	Error  string
}

func (h *Handler) showClientKyc(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "clientID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	record, err := client.GetClient(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	kyc, err := client.GetKyc(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/client_kyc.html", "KYC", http.StatusOK, clientKycData{Client: record, Kyc: kyc})
}

// saveClientKyc patches the KYC record with whichever fields were filled in.
func (h *Handler) saveClientKyc(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "clientID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	payload := make(map[string]any)
	for _, field := range []string{"id_type", "id_number", "address"} {
		if v := r.PostFormValue(field); v != "" {
			payload[field] = v
		}
	}
	if len(payload) == 0 {
		h.flashAndRedirect(w, r, "error", "Nothing to save", clientPath(id)+"/kyc")
		return
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	if err := client.SaveKyc(r.Context(), id, payload); err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), clientPath(id)+"/kyc")
		return
	}
	h.flashAndRedirect(w, r, "success", "KYC details saved", clientPath(id)+"/kyc")
}

func (h *Handler) kycAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "clientID")
		if !ok {
			http.NotFound(w, r)
			return
		}
		client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
		var err error
		switch action {
		case "submit":
			err = client.SubmitKyc(r.Context(), id)
		case "verify":
			err = client.VerifyKyc(r.Context(), id)
		case "reject":
			err = client.RejectKyc(r.Context(), id)
		}
		if err != nil {
			h.flashAndRedirect(w, r, "error", err.Error(), clientPath(id)+"/kyc")
			return
		}
		h.flashAndRedirect(w, r, "success", "KYC "+action+" recorded", clientPath(id)+"/kyc")
	}
}

func clientPath(id int64) string {
	return "/clients/" + formatID(id)
}
