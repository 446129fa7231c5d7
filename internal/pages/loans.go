package pages

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-mfi/meridian-admin/internal/apiclient"
	"github.com/meridian-mfi/meridian-admin/internal/shared"
)

// MountLoanRoutes registers the loan origination screens.
func (h *Handler) MountLoanRoutes(r chi.Router) {
	r.Get("/", h.listLoans)
	r.Post("/", h.createLoan)
	r.Get("/{loanID}", h.showLoan)
	r.Post("/{loanID}/submit", h.submitLoan)
	r.Post("/{loanID}/documents", h.uploadLoanDocument)
}

type loansPageData struct {
	Loans    []apiclient.Loan
	Products []apiclient.LoanProduct
}

func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	loans, err := client.ListLoans(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	products, err := client.ListLoanProducts(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/loans.html", "Loans", http.StatusOK, loansPageData{Loans: loans, Products: products})
}

// createLoan drafts a new application. The backend validates the amount
// against the product's limits and rejects clients without verified KYC.
func (h *Handler) createLoan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	payload := map[string]any{
		"client":  r.PostFormValue("client"),
		"product": r.PostFormValue("product"),
		"amount":  r.PostFormValue("amount"),
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	created, err := client.CreateLoan(r.Context(), payload)
	if err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), "/loans")
		return
	}
	h.flashAndRedirect(w, r, "success", "Loan application drafted", loanPath(created.ID))
}

type loanDetailData struct {
	Loan  *apiclient.Loan
	Error string
}

func (h *Handler) showLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "loanID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	loan, err := client.GetLoan(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, "pages/loan_detail.html", "Loan", http.StatusOK, loanDetailData{Loan: loan})
}

func (h *Handler) submitLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "loanID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	if err := client.SubmitLoan(r.Context(), id); err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), loanPath(id))
		return
	}
	h.flashAndRedirect(w, r, "success", "Loan submitted for approval", loanPath(id))
}

const maxDocumentUpload = 10 << 20

func (h *Handler) uploadLoanDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "loanID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseMultipartForm(maxDocumentUpload); err != nil {
		h.flashAndRedirect(w, r, "error", "Upload too large or malformed", loanPath(id))
		return
	}
	file, header, err := r.FormFile("document_file")
	if err != nil {
		h.flashAndRedirect(w, r, "error", "Choose a file to upload", loanPath(id))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	client := h.sessions.ClientFor(shared.SessionFromContext(r.Context()))
	err = client.UploadLoanDocument(r.Context(), id, r.PostFormValue("document_type"), r.PostFormValue("label"), apiclient.FilePart{
		Field:    "document_file",
		Filename: header.Filename,
		Content:  file,
	})
	if err != nil {
		h.flashAndRedirect(w, r, "error", err.Error(), loanPath(id))
		return
	}
	h.flashAndRedirect(w, r, "success", "Document uploaded", loanPath(id))
}

func loanPath(id int64) string {
	return "/loans/" + formatID(id)
}
