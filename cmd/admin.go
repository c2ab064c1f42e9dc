// ABOUTME: Admin commands for vendor and plan approval
// ABOUTME: All commands require an admin session

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/models"
)

var (
	adminStatus string
	adminReason string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Approve or reject vendors and plans",
}

var adminVendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List vendor accounts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runAdminVendors(ctx, os.Stdout, adminStatus) })
	},
}

var adminPackagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List every plan, including pending ones",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runAdminPackages(ctx, os.Stdout, adminStatus) })
	},
}

// reviewCmd builds the approve and reject commands for vendors and plans
func reviewCmd(use, short, target string, approve bool) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			execute(func(ctx context.Context) int {
				return runAdminReview(ctx, os.Stdout, target, models.ID(args[0]), approve, adminReason)
			})
		},
	}
	if !approve {
		c.Flags().StringVar(&adminReason, "reason", "", "Reason shown to the vendor")
	}
	return c
}

func init() {
	adminVendorsCmd.Flags().StringVar(&adminStatus, "status", "", "Filter by status: pending, approved, rejected")
	adminPackagesCmd.Flags().StringVar(&adminStatus, "status", "", "Filter by status: pending, approved, rejected")

	adminCmd.AddCommand(
		adminVendorsCmd,
		reviewCmd("approve-vendor", "Approve a vendor account", "vendor", true),
		reviewCmd("reject-vendor", "Reject a vendor account", "vendor", false),
		adminPackagesCmd,
		reviewCmd("approve-package", "Approve a plan for listing", "package", true),
		reviewCmd("reject-package", "Reject a plan", "package", false),
	)
	rootCmd.AddCommand(adminCmd)
}

func runAdminVendors(ctx context.Context, w io.Writer, status string) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleAdmin); code != exitOK {
		return code
	}
	vendors, err := a.API.Admin.Vendors(ctx)
	if err != nil {
		return fail(w, err)
	}
	if status != "" {
		filtered := make([]models.Vendor, 0, len(vendors))
		for _, v := range vendors {
			if sameStatus(string(v.Status), status) {
				filtered = append(filtered, v)
			}
		}
		vendors = filtered
	}
	return output(w, vendors, func() string { return formatVendors(vendors) })
}

func runAdminPackages(ctx context.Context, w io.Writer, status string) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleAdmin); code != exitOK {
		return code
	}
	pkgs, err := a.API.Admin.Packages(ctx)
	if err != nil {
		return fail(w, err)
	}
	if status != "" {
		filtered := make([]models.Package, 0, len(pkgs))
		for _, p := range pkgs {
			if sameStatus(string(p.Status), status) {
				filtered = append(filtered, p)
			}
		}
		pkgs = filtered
	}
	return output(w, pkgs, func() string { return formatAdminPackages(pkgs) })
}

// reviewResult is the JSON shape of approve and reject commands
type reviewResult struct {
	Target   string    `json:"target"`
	ID       models.ID `json:"id"`
	Decision string    `json:"decision"`
	Reason   string    `json:"reason,omitempty"`
}

func runAdminReview(ctx context.Context, w io.Writer, target string, id models.ID, approve bool, reason string) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleAdmin); code != exitOK {
		return code
	}

	admin := a.API.Admin
	var err error
	switch {
	case target == "vendor" && approve:
		err = admin.ApproveVendor(ctx, id)
	case target == "vendor":
		err = admin.RejectVendor(ctx, id, reason)
	case approve:
		err = admin.ApprovePackage(ctx, id)
	default:
		err = admin.RejectPackage(ctx, id, reason)
	}
	if err != nil {
		return fail(w, err)
	}

	res := reviewResult{Target: target, ID: id, Decision: "approved", Reason: reason}
	level := render.StatusOK
	if !approve {
		res.Decision = "rejected"
		level = render.StatusCritical
	}
	return output(w, res, func() string {
		return render.StatusText(fmt.Sprintf("%s %s %s", capitalize(target), id, res.Decision), level)
	})
}

func formatVendors(vendors []models.Vendor) string {
	if len(vendors) == 0 {
		return render.Empty("vendors")
	}
	rows := make([][]string, 0, len(vendors))
	for _, v := range vendors {
		rows = append(rows, []string{
			v.ID.String(),
			render.Truncate(render.Plain(firstNonEmpty(v.BusinessName, v.Name)), 28),
			v.Email,
			render.VendorBadge(v.Status),
			render.Date(v.CreatedAt),
		})
	}
	return render.Table([]string{"ID", "BUSINESS", "EMAIL", "STATUS", "JOINED"}, rows)
}

func formatAdminPackages(pkgs []models.Package) string {
	if len(pkgs) == 0 {
		return render.Empty("plans")
	}
	rows := make([][]string, 0, len(pkgs))
	for _, p := range pkgs {
		rows = append(rows, []string{
			p.ID.String(),
			render.Truncate(render.Plain(p.Name), 30),
			render.Truncate(render.Plain(p.VendorName), 20),
			render.Money(p.Price),
			render.StatusBadge(string(p.Status)),
			render.Date(p.CreatedAt),
		})
	}
	return render.Table([]string{"ID", "PLAN", "VENDOR", "PRICE", "STATUS", "CREATED"}, rows)
}

func sameStatus(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return true
	}
	// Approved vendors are reported as "active" by some endpoints
	return models.VendorStatus(a).Active() && models.VendorStatus(b).Active()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
