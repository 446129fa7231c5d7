package guard

// Staff roles as issued by the backend. The gate treats the role as an
// opaque tag; anything not listed here simply matches no role set.
const (
	RoleSuperAdmin    = "SUPER_ADMIN"
	RoleBranchManager = "BRANCH_MANAGER"
	RoleLoanOfficer   = "LOAN_OFFICER"
	RoleCashier       = "CASHIER"
	RoleTeller        = "TELLER"
	RoleAuditor       = "AUDITOR"
)

// AllRoles lists every role the admin screens can filter on.
func AllRoles() []string {
	return []string{
		RoleSuperAdmin,
		RoleBranchManager,
		RoleLoanOfficer,
		RoleCashier,
		RoleTeller,
		RoleAuditor,
	}
}
