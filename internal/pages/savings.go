package pages

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfi/meridian-admin/internal/apiclient"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
)

// MountSavingsRoutes registers the savings account screens.
func (h *Handler) MountSavingsRoutes(r chi.Router) {
	r.Get("/", h.listSavings)
	r.Get("/accounts/{accountID}", h.showSavingsAccount)
	r.Post("/accounts/{accountID}/deposit", h.savingsMovement("deposit"))
	r.Post("/accounts/{accountID}/withdraw", h.savingsMovement("withdraw"))
	r.Get("/withdrawal-approvals", h.listPendingWithdrawals)
}

type savingsPageData struct {
	Accounts []apiclient.SavingsAccount
	Products []apiclient.SavingsProduct
}

func (h *Handler) listSavings(w http.ResponseWriter, r *http.Request) {
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	accounts, err := client.ListSavingsAccounts(r.Context(), 0)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	products, err := client.ListSavingsProducts(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/savings.html", "Savings", http.StatusOK, savingsPageData{Accounts: accounts, Products: products})
}

type savingsAccountData struct {
	Account      *apiclient.SavingsAccount
	Transactions []apiclient.SavingsTransaction
	Error        string
}

func (h *Handler) showSavingsAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "accountID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	account, err := client.GetSavingsAccount(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	transactions, err := client.ListSavingsTransactions(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/savings_account.html", account.AccountNumber, http.StatusOK, savingsAccountData{Account: account, Transactions: transactions})
}

// savingsMovement forwards a deposit or withdrawal to the backend, which
// enforces balances, limits and approval rules.
func (h *Handler) savingsMovement(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "accountID")
		if !ok {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		payload := map[string]any{"amount": r.PostFormValue("amount")}
		client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))

		var err error
		if kind == "deposit" {
			err = client.Deposit(r.Context(), id, payload)
		} else {
			err = client.Withdraw(r.Context(), id, payload)
		}
		target := "/savings/accounts/" + formatID(id)
		if err != nil {
			h.flashAndRedirect(w, r, "error", err.Error(), target)
			return
		}
		h.flashAndRedirect(w, r, "success", "Transaction recorded", target)
	}
}

func (h *Handler) listPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	pending, err := client.ListPendingWithdrawals(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/withdrawal_approvals.html", "Withdrawal approvals", http.StatusOK, pending)
}
