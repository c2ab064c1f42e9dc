// ABOUTME: Vendor commands: dashboard, plan management and orders
// ABOUTME: All commands require an approved vendor session

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/models"
)

var (
	planTitle        string
	planDescription  string
	planPrice        float64
	planDurationDays int
	planBilling      string
	planCategory     string
	planImageURL     string
	planItems        []string

	deleteConfirmed bool
)

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Vendor dashboard, plans and orders",
}

var vendorDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show profile, statistics and recent orders",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runVendorDashboard(ctx, os.Stdout) })
	},
}

var vendorStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show sales and plan statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runVendorStats(ctx, os.Stdout) })
	},
}

var vendorPackagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List your plans, including pending and rejected ones",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runVendorPackages(ctx, os.Stdout) })
	},
}

var vendorPackageShowCmd = &cobra.Command{
	Use:   "package-show <id>",
	Short: "Show one of your plans",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runVendorPackageShow(ctx, os.Stdout, models.ID(args[0])) })
	},
}

var vendorPackageCreateCmd = &cobra.Command{
	Use:   "package-create",
	Short: "Create a plan; it is listed once an admin approves it",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runVendorPackageCreate(ctx, os.Stdout, packageInputFromFlags(cmd, true))
		})
	},
}

var vendorPackageUpdateCmd = &cobra.Command{
	Use:   "package-update <id>",
	Short: "Change fields of one of your plans",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runVendorPackageUpdate(ctx, os.Stdout, models.ID(args[0]), packageInputFromFlags(cmd, false))
		})
	},
}

var vendorPackageDeleteCmd = &cobra.Command{
	Use:   "package-delete <id>",
	Short: "Delete one of your plans",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			if !deleteConfirmed {
				if !isInteractive() {
					fmt.Fprintln(os.Stdout, "Error: pass --yes to delete when not running in a terminal")
					return exitError
				}
				err := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete plan %s?", args[0])).
						Description("Existing subscribers keep their current period.").
						Value(&deleteConfirmed),
				)).WithTheme(createTheme()).RunWithContext(ctx)
				if err != nil || !deleteConfirmed {
					fmt.Fprintln(os.Stdout, "Aborted.")
					return exitOK
				}
			}
			return runVendorPackageDelete(ctx, os.Stdout, models.ID(args[0]))
		})
	},
}

var vendorOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List subscriptions to your plans",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runVendorOrders(ctx, os.Stdout) })
	},
}

func init() {
	for _, c := range []*cobra.Command{vendorPackageCreateCmd, vendorPackageUpdateCmd} {
		c.Flags().StringVar(&planTitle, "name", "", "Plan name")
		c.Flags().StringVar(&planDescription, "description", "", "Plan description")
		c.Flags().Float64Var(&planPrice, "price", 0, "Price per period")
		c.Flags().IntVar(&planDurationDays, "duration-days", 0, "Length of one period in days")
		c.Flags().StringVar(&planBilling, "billing-cycle", "", "Billing cycle, for example monthly")
		c.Flags().StringVar(&planCategory, "category", "", "Category")
		c.Flags().StringVar(&planImageURL, "image-url", "", "Image URL")
		c.Flags().StringSliceVar(&planItems, "item", nil, "Box item (repeatable)")
	}
	vendorPackageDeleteCmd.Flags().BoolVarP(&deleteConfirmed, "yes", "y", false, "Delete without asking")

	vendorCmd.AddCommand(
		vendorDashboardCmd,
		vendorStatsCmd,
		vendorPackagesCmd,
		vendorPackageShowCmd,
		vendorPackageCreateCmd,
		vendorPackageUpdateCmd,
		vendorPackageDeleteCmd,
		vendorOrdersCmd,
	)
	rootCmd.AddCommand(vendorCmd)
}

// packageInputFromFlags keeps only flags the user set. On create, name and
// price are always sent and the other fields when non-empty.
func packageInputFromFlags(cmd *cobra.Command, create bool) models.PackageInput {
	include := func(flag string, empty bool) bool {
		if create {
			return !empty
		}
		return cmd.Flags().Changed(flag)
	}

	var in models.PackageInput
	if create || cmd.Flags().Changed("name") {
		in.Name = &planTitle
	}
	if create || cmd.Flags().Changed("price") {
		in.Price = &planPrice
	}
	if include("description", planDescription == "") {
		in.Description = &planDescription
	}
	if include("duration-days", planDurationDays == 0) {
		in.DurationDays = &planDurationDays
	}
	if include("billing-cycle", planBilling == "") {
		in.BillingCycle = &planBilling
	}
	if include("category", planCategory == "") {
		in.Category = &planCategory
	}
	if include("image-url", planImageURL == "") {
		in.ImageURL = &planImageURL
	}
	if include("item", len(planItems) == 0) {
		in.Items = planItems
	}
	return in
}

// dashboard is the JSON shape of vendor dashboard
type dashboard struct {
	Profile *models.Vendor      `json:"profile"`
	Stats   *models.VendorStats `json:"stats"`
	Orders  []models.Order      `json:"recent_orders"`
}

const dashboardOrders = 5

func runVendorDashboard(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleVendor); code != exitOK {
		return code
	}

	var d dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Profile, err = a.API.Vendor.Profile(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Stats, err = a.API.Vendor.Stats(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Orders, err = a.API.Vendor.Orders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(w, err)
	}
	if len(d.Orders) > dashboardOrders {
		d.Orders = d.Orders[:dashboardOrders]
	}
	return output(w, d, func() string { return formatDashboard(d) })
}

func runVendorStats(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleVendor); code != exitOK {
		return code
	}
	stats, err := a.API.Vendor.Stats(ctx)
	if err != nil {
		return fail(w, err)
	}
	return output(w, stats, func() string { return formatStats(stats) })
}

func runVendorPackages(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleVendor); code != exitOK {
		return code
	}
	pkgs, err := a.API.Vendor.Packages(ctx)
	if err != nil {
		return fail(w, err)
	}
	return output(w, pkgs, func() string { return formatVendorPackages(pkgs) })
}

func runVendorPackageShow(ctx context.Context, w io.Writer, id models.ID) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleVendor); code != exitOK {
		return code
	}
	pkg, err := a.API.Vendor.Package(ctx, id)
	if err != nil {
		return fail(w, err)
	}
	return output(w, pkg, func() string { return formatPackageDetail(packageDetail{Package: pkg}) })
}

func runVendorPackageCreate(ctx context.Context, w io.Writer, in models.PackageInput) int {
	if in.Name == nil || *in.Name == "" {
		fmt.Fprintln(w, "Error: --name is required")
		return exitError
	}
	if in.Price == nil || *in.Price <= 0 {
		fmt.Fprintln(w, "Error: --price must be greater than 0")
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleVendor); code != exitOK {
		return code
	}
	pkg, err := a.API.Vendor.CreatePackage(ctx, in)
	if err != nil {
		return fail(w, err)
	}
	return output(w, pkg, func() string {
		return render.SuccessStyle.Render(fmt.Sprintf("%s Plan %s created", render.CheckOK, pkg.ID)) + "\n" +
			render.StatusText("It is listed once an admin approves it.", render.StatusInfo)
	})
}

func runVendorPackageUpdate(ctx context.Context, w io.Writer, id models.ID, in models.PackageInput) int {
	if in.Name == nil && in.Description == nil && in.Price == nil && in.DurationDays == nil &&
		in.BillingCycle == nil && in.Category == nil && in.ImageURL == nil && in.Items == nil {
		fmt.Fprintln(w, "Error: nothing to update; pass at least one field flag")
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleVendor); code != exitOK {
		return code
	}
	pkg, err := a.API.Vendor.UpdatePackage(ctx, id, in)
	if err != nil {
		return fail(w, err)
	}
	return output(w, pkg, func() string {
		return render.SuccessStyle.Render(fmt.Sprintf("%s Plan %s updated", render.CheckOK, pkg.ID))
	})
}

func runVendorPackageDelete(ctx context.Context, w io.Writer, id models.ID) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleVendor); code != exitOK {
		return code
	}
	if err := a.API.Vendor.DeletePackage(ctx, id); err != nil {
		return fail(w, err)
	}
	return output(w, map[string]any{"id": id, "deleted": true}, func() string {
		return render.SuccessStyle.Render(fmt.Sprintf("%s Plan %s deleted", render.CheckOK, id))
	})
}

func runVendorOrders(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleVendor); code != exitOK {
		return code
	}
	orders, err := a.API.Vendor.Orders(ctx)
	if err != nil {
		return fail(w, err)
	}
	return output(w, orders, func() string { return formatOrders(orders) })
}

func formatDashboard(d dashboard) string {
	title := render.Store.String() + " Vendor dashboard"
	if d.Profile != nil && d.Profile.BusinessName != "" {
		title = render.Store.String() + " " + render.Plain(d.Profile.BusinessName)
	}
	out := render.Heading(title)
	if d.Profile != nil {
		out += "\n" + render.Fields(
			render.Field{Label: "Status", Value: render.VendorBadge(d.Profile.Status)},
			render.Field{Label: "Email", Value: d.Profile.Email},
			render.Field{Label: "Phone", Value: d.Profile.Phone},
		)
	}
	if d.Stats != nil {
		out += "\n\n" + formatStats(d.Stats)
	}
	out += "\n\n" + render.Subtitle.Render("Recent orders") + "\n" + formatOrders(d.Orders)
	return out
}

func formatStats(s *models.VendorStats) string {
	return render.Fields(
		render.Field{Label: "Plans", Value: fmt.Sprintf("%d (%d active, %d pending)", s.TotalPackages, s.ActivePackages, s.PendingPackages)},
		render.Field{Label: "Subscribers", Value: strconv.Itoa(s.ActiveSubscriptions)},
		render.Field{Label: "Orders", Value: fmt.Sprintf("%d (%d pending)", s.TotalOrders, s.PendingOrders)},
		render.Field{Label: "Revenue", Value: render.Money(s.TotalRevenue)},
		render.Field{Label: "This month", Value: render.Money(s.MonthlyRevenue)},
		render.Field{Label: "Rating", Value: render.Stars(s.AverageRating)},
	)
}

func formatVendorPackages(pkgs []models.Package) string {
	if len(pkgs) == 0 {
		return render.Empty("plans")
	}
	rows := make([][]string, 0, len(pkgs))
	for _, p := range pkgs {
		rows = append(rows, []string{
			p.ID.String(),
			render.Truncate(render.Plain(p.Name), 32),
			render.Money(p.Price),
			billing(p),
			render.StatusBadge(string(p.Status)),
			strconv.Itoa(p.ReviewCount),
		})
	}
	return render.Table([]string{"ID", "PLAN", "PRICE", "BILLING", "STATUS", "REVIEWS"}, rows)
}

func formatOrders(orders []models.Order) string {
	if len(orders) == 0 {
		return render.Empty("orders")
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID.String(),
			render.Truncate(render.Plain(o.PackageName), 28),
			render.Truncate(render.Plain(firstNonEmpty(o.CustomerName, o.CustomerEmail)), 24),
			render.Money(o.Amount),
			render.StatusBadge(string(o.Status)),
			render.Date(o.CreatedAt),
		})
	}
	return render.Table([]string{"ID", "PLAN", "CUSTOMER", "AMOUNT", "STATUS", "DATE"}, rows)
}
