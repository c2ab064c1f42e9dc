// ABOUTME: Centralized role and vendor-status routing for every entry point
// ABOUTME: RouteFor picks the destination; RequireRole gates role-specific commands

package auth

import (
	"fmt"
	"log/slog"

	"github.com/dangquan18/subme/models"
)

// Destination is where an entry point should send the user
type Destination string

const (
	DestSignIn         Destination = "sign-in"
	DestCustomerHome   Destination = "customer-home"
	DestVendorHome     Destination = "vendor-home"
	DestVendorPending  Destination = "vendor-pending"
	DestVendorRejected Destination = "vendor-rejected"
	DestAdminHome      Destination = "admin-home"
)

// RouteFor maps a session user to its destination. Unknown roles route to
// sign-in. Vendors without a confirmed status route as pending.
func RouteFor(user *models.User) Destination {
	if user == nil {
		return DestSignIn
	}
	switch user.Role {
	case models.RoleAdmin:
		return DestAdminHome
	case models.RoleUser:
		return DestCustomerHome
	case models.RoleVendor:
		switch {
		case user.Status.Active():
			return DestVendorHome
		case user.Status == models.VendorRejected:
			return DestVendorRejected
		default:
			return DestVendorPending
		}
	default:
		return DestSignIn
	}
}

// ForbiddenError is returned by RequireRole
type ForbiddenError struct {
	Required models.Role
	Actual   models.Role
	Reason   string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("this command requires the %s role (signed in as %s)", e.Required, e.Actual)
}

// RequireRole checks that user holds exactly role; roles do not inherit.
// Vendors must also be approved. A nil user fails with ErrNotAuthenticated.
func RequireRole(user *models.User, role models.Role) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	if user.Role == role {
		switch RouteFor(user) {
		case DestVendorPending:
			return &ForbiddenError{Required: role, Actual: user.Role, Reason: "vendor account is awaiting approval"}
		case DestVendorRejected:
			return &ForbiddenError{Required: role, Actual: user.Role, Reason: "vendor account was rejected"}
		}
		return nil
	}

	slog.Warn("Role check denied",
		"required_role", role,
		"user_role", user.Role,
		"user_id", user.ID,
	)
	return &ForbiddenError{Required: role, Actual: user.Role}
}
