package apiclient

import (
	"context"
	"fmt"
)

// Thin typed wrappers over the backend resources the admin screens consume.
// The backend owns all business rules; these structs only carry the fields
// the templates display.

// ClientRecord is a microfinance client as returned by /clients/.
type ClientRecord struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	NationalID    string `json:"national_id"`
	Branch        int64  `json:"branch"`
	BranchDisplay string `json:"branch_display"`
	KycStatus     string `json:"kyc_status"`
	CreatedAt     string `json:"created_at"`
}

// LoanProduct describes a configured loan offering.
type LoanProduct struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	InterestRate string `json:"interest_rate"`
	MinAmount    string `json:"min_amount"`
	MaxAmount    string `json:"max_amount"`
	TermMonths   int    `json:"term_months"`
}

// Loan is a loan application or active loan.
type Loan struct {
	ID            int64  `json:"id"`
	Client        int64  `json:"client"`
	ClientName    string `json:"client_name"`
	Product       int64  `json:"product"`
	ProductName   string `json:"product_name"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	OfficerName   string `json:"officer_name"`
	BranchDisplay string `json:"branch_display"`
	CreatedAt     string `json:"created_at"`
}

// SavingsProduct describes a savings offering.
type SavingsProduct struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	InterestRate string `json:"interest_rate"`
}

// SavingsAccount is a client's savings account.
type SavingsAccount struct {
	ID            int64  `json:"id"`
	Client        int64  `json:"client"`
	ClientName    string `json:"client_name"`
	AccountNumber string `json:"account_number"`
	Product       int64  `json:"product"`
	ProductName   string `json:"product_name"`
	Balance       string `json:"balance"`
	Status        string `json:"status"`
}

// SavingsTransaction is one ledger entry on a savings account.
type SavingsTransaction struct {
	ID        int64  `json:"id"`
	Kind      string `json:"transaction_type"`
	Amount    string `json:"amount"`
	Balance   string `json:"balance_after"`
	Reference string `json:"reference"`
	CreatedAt string `json:"created_at"`
}

// CashSession is a teller's cash drawer session.
type CashSession struct {
	ID             int64  `json:"id"`
	CashierName    string `json:"cashier_name"`
	Status         string `json:"status"`
	OpeningBalance string `json:"opening_balance"`
	ClosingBalance string `json:"closing_balance"`
	OpenedAt       string `json:"opened_at"`
	ClosedAt       string `json:"closed_at"`
}

// Branch is an institution branch.
type Branch struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Address  string `json:"address"`
	IsActive bool   `json:"is_active"`
}

// StaffUser is a backend user account managed from the super-admin screens.
type StaffUser struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	Branch        int64  `json:"branch"`
	BranchDisplay string `json:"branch_display"`
	IsActive      bool   `json:"is_active"`
}

// AuditLog is one audit trail entry.
type AuditLog struct {
	ID        int64  `json:"id"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Target    string `json:"target"`
	CreatedAt string `json:"created_at"`
}

// Clients

func (c *Client) ListClients(ctx context.Context) ([]ClientRecord, error) {
	var out []ClientRecord
	if err := c.Get(ctx, "/clients/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetClient(ctx context.Context, clientID int64) (*ClientRecord, error) {
	var out ClientRecord
	if err := c.Get(ctx, fmt.Sprintf("/clients/%d/", clientID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegisterClient(ctx context.Context, payload map[string]any) (*ClientRecord, error) {
	var out ClientRecord
	if err := c.Post(ctx, "/clients/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KYC. The backend accepts PATCH, not POST, for the KYC record itself.

func (c *Client) GetKyc(ctx context.Context, clientID int64) (map[string]any, error) {
	var out map[string]any
	if err := c.Get(ctx, fmt.Sprintf("/clients/%d/kyc/", clientID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveKyc(ctx context.Context, clientID int64, payload map[string]any) error {
	return c.Patch(ctx, fmt.Sprintf("/clients/%d/kyc/", clientID), payload, nil)
}

func (c *Client) SubmitKyc(ctx context.Context, clientID int64) error {
	return c.Post(ctx, fmt.Sprintf("/clients/%d/kyc/submit/", clientID), nil, nil)
}

func (c *Client) VerifyKyc(ctx context.Context, clientID int64) error {
	return c.Post(ctx, fmt.Sprintf("/clients/%d/kyc/verify/", clientID), nil, nil)
}

func (c *Client) RejectKyc(ctx context.Context, clientID int64) error {
	return c.Post(ctx, fmt.Sprintf("/clients/%d/kyc/reject/", clientID), nil, nil)
}

// Loans

func (c *Client) ListLoanProducts(ctx context.Context) ([]LoanProduct, error) {
	var out []LoanProduct
	if err := c.Get(ctx, "/loan-products/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListLoans(ctx context.Context) ([]Loan, error) {
	var out []Loan
	if err := c.Get(ctx, "/loans/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	var out Loan
	if err := c.Get(ctx, fmt.Sprintf("/loans/%d/", loanID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateLoan(ctx context.Context, payload map[string]any) (*Loan, error) {
	var out Loan
	if err := c.Post(ctx, "/loans/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitLoan(ctx context.Context, loanID int64) error {
	return c.Post(ctx, fmt.Sprintf("/loans/%d/submit/", loanID), nil, nil)
}

// UploadLoanDocument sends the document as multipart form data.
func (c *Client) UploadLoanDocument(ctx context.Context, loanID int64, docType, label string, file FilePart) error {
	fields := map[string]string{"document_type": docType}
	if label != "" {
		fields["label"] = label
	}
	return c.PostMultipart(ctx, fmt.Sprintf("/loans/%d/documents/", loanID), fields, []FilePart{file}, nil)
}

// ListOfficerClients returns the active clients assigned to the calling
// loan officer. The backend nests the list under "clients".
func (c *Client) ListOfficerClients(ctx context.Context) ([]ClientRecord, error) {
	var out struct {
		Clients []ClientRecord `json:"clients"`
	}
	if err := c.Get(ctx, "/loan-officer/clients/", &out); err != nil {
		return nil, err
	}
	return out.Clients, nil
}

// Savings

func (c *Client) ListSavingsProducts(ctx context.Context) ([]SavingsProduct, error) {
	var out []SavingsProduct
	if err := c.Get(ctx, "/savings/products/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListSavingsAccounts(ctx context.Context, clientID int64) ([]SavingsAccount, error) {
	path := "/savings/accounts/"
	if clientID > 0 {
		path = fmt.Sprintf("/savings/accounts/?client_id=%d", clientID)
	}
	var out []SavingsAccount
	if err := c.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSavingsAccount(ctx context.Context, accountID int64) (*SavingsAccount, error) {
	var out SavingsAccount
	if err := c.Get(ctx, fmt.Sprintf("/savings/accounts/%d/", accountID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSavingsTransactions(ctx context.Context, accountID int64) ([]SavingsTransaction, error) {
	var out []SavingsTransaction
	if err := c.Get(ctx, fmt.Sprintf("/savings/accounts/%d/transactions/", accountID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Deposit(ctx context.Context, accountID int64, payload map[string]any) error {
	return c.Post(ctx, fmt.Sprintf("/savings/accounts/%d/deposit/", accountID), payload, nil)
}

func (c *Client) Withdraw(ctx context.Context, accountID int64, payload map[string]any) error {
	return c.Post(ctx, fmt.Sprintf("/savings/accounts/%d/withdraw/", accountID), payload, nil)
}

func (c *Client) ListPendingWithdrawals(ctx context.Context) ([]SavingsTransaction, error) {
	var out []SavingsTransaction
	if err := c.Get(ctx, "/branch-manager/savings/withdrawals/pending/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Teller cash sessions

func (c *Client) ListCashSessions(ctx context.Context) ([]CashSession, error) {
	var out []CashSession
	if err := c.Get(ctx, "/cash/sessions/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyActiveCashSession(ctx context.Context) (*CashSession, error) {
	var out CashSession
	if err := c.Get(ctx, "/cash/sessions/my_active/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AllocateCash(ctx context.Context, payload map[string]any) error {
	return c.Post(ctx, "/cash/sessions/allocate/", payload, nil)
}

func (c *Client) ConfirmCashOpening(ctx context.Context, sessionID int64, payload map[string]any) error {
	return c.Post(ctx, fmt.Sprintf("/cash/sessions/%d/confirm_opening/", sessionID), payload, nil)
}

func (c *Client) CloseCashSession(ctx context.Context, sessionID int64, payload map[string]any) error {
	return c.Post(ctx, fmt.Sprintf("/cash/sessions/%d/close/", sessionID), payload, nil)
}

func (c *Client) ReviewCashSession(ctx context.Context, sessionID int64, payload map[string]any) error {
	return c.Post(ctx, fmt.Sprintf("/cash/sessions/%d/review/", sessionID), payload, nil)
}

// Super admin

func (c *Client) ListBranches(ctx context.Context) ([]Branch, error) {
	var out []Branch
	if err := c.Get(ctx, "/branches/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBranch(ctx context.Context, payload map[string]any) error {
	return c.Post(ctx, "/branches/", payload, nil)
}

func (c *Client) ListStaffUsers(ctx context.Context) ([]StaffUser, error) {
	var out []StaffUser
	if err := c.Get(ctx, "/users/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateStaffUser(ctx context.Context, payload map[string]any) error {
	return c.Post(ctx, "/users/", payload, nil)
}

func (c *Client) ListAuditLogs(ctx context.Context) ([]AuditLog, error) {
	var out []AuditLog
	if err := c.Get(ctx, "/audit-logs/", &out); err != nil {
		return nil, err
	}
	return out, nil
}
