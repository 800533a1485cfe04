package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Approves regularizations, runs payroll feed
	RoleEmployee Role = "employee" // Regular employee
)

// Principal is the caller identity carried by an access token. Tokens are
// issued by the external auth service.
type Principal struct {
	UserID     string
	CompanyID  string
	EmployeeID string
	Role       Role
}

// CanApprove reports whether the caller may decide regularization requests.
func (p Principal) CanApprove() bool {
	return HasPermission(p.Role, PermissionRegularizationApprove)
}
