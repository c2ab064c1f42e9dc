// ABOUTME: Catalog commands: browse plans and read or write reviews
// ABOUTME: Browsing needs no session; posting a review requires a customer

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/models"
)

var (
	pkgFilter   models.PackageFilter
	pkgVendorID string

	reviewRating  int
	reviewComment string
)

var packagesCmd = &cobra.Command{
	Use:     "packages",
	Aliases: []string{"plans"},
	Short:   "Browse subscription plans",
}

var packagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approved plans",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			f := pkgFilter
			f.VendorID = models.ID(pkgVendorID)
			return runPackagesList(ctx, os.Stdout, f)
		})
	},
}

var packagesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a plan with its reviews",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runPackagesShow(ctx, os.Stdout, models.ID(args[0])) })
	},
}

var packagesFeaturedCmd = &cobra.Command{
	Use:   "featured",
	Short: "List featured plans",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runPackagesFeatured(ctx, os.Stdout) })
	},
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Read and write plan reviews",
}

var reviewsListCmd = &cobra.Command{
	Use:   "list <package-id>",
	Short: "List reviews for a plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runReviewsList(ctx, os.Stdout, models.ID(args[0])) })
	},
}

var reviewsAddCmd = &cobra.Command{
	Use:   "add <package-id>",
	Short: "Rate a plan you subscribe to",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runReviewsAdd(ctx, os.Stdout, models.ReviewInput{
				PackageID: models.ID(args[0]),
				Rating:    reviewRating,
				Comment:   reviewComment,
			})
		})
	},
}

func init() {
	packagesListCmd.Flags().StringVar(&pkgFilter.Category, "category", "", "Filter by category")
	packagesListCmd.Flags().StringVar(&pkgFilter.Search, "search", "", "Search plan names and descriptions")
	packagesListCmd.Flags().StringVar(&pkgVendorID, "vendor", "", "Filter by vendor ID")
	packagesListCmd.Flags().IntVar(&pkgFilter.Page, "page", 0, "Page number")
	packagesListCmd.Flags().IntVar(&pkgFilter.Limit, "limit", 0, "Page size")
	packagesCmd.AddCommand(packagesListCmd, packagesShowCmd, packagesFeaturedCmd)

	reviewsAddCmd.Flags().IntVar(&reviewRating, "rating", 0, "Rating from 1 to 5 (required)")
	reviewsAddCmd.Flags().StringVar(&reviewComment, "comment", "", "Review text")
	reviewsCmd.AddCommand(reviewsListCmd, reviewsAddCmd)

	rootCmd.AddCommand(packagesCmd, reviewsCmd)
}

func runPackagesList(ctx context.Context, w io.Writer, f models.PackageFilter) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	pkgs, err := a.API.Packages.List(ctx, f)
	if err != nil {
		return fail(w, err)
	}
	return output(w, pkgs, func() string { return formatPackagesHuman(pkgs) })
}

func runPackagesFeatured(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	pkgs, err := a.API.Packages.Featured(ctx)
	if err != nil {
		return fail(w, err)
	}
	return output(w, pkgs, func() string { return formatPackagesHuman(pkgs) })
}

// packageDetail is the JSON shape of packages show
type packageDetail struct {
	Package *models.Package `json:"package"`
	Reviews []models.Review `json:"reviews"`
}

func runPackagesShow(ctx context.Context, w io.Writer, id models.ID) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	var detail packageDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pkg, err := a.API.Packages.Get(gctx, id)
		detail.Package = pkg
		return err
	})
	g.Go(func() error {
		reviews, err := a.API.Reviews.ForPlan(gctx, id)
		if err != nil {
			// Reviews are secondary; show the plan without them
			a.Logger.Warn("Failed to load reviews", "package_id", id, "error", err)
			return nil
		}
		detail.Reviews = reviews
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail(w, err)
	}
	return output(w, detail, func() string { return formatPackageDetail(detail) })
}

func runReviewsList(ctx context.Context, w io.Writer, packageID models.ID) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	reviews, err := a.API.Reviews.ForPlan(ctx, packageID)
	if err != nil {
		return fail(w, err)
	}
	return output(w, reviews, func() string { return formatReviewsHuman(reviews) })
}

func runReviewsAdd(ctx context.Context, w io.Writer, in models.ReviewInput) int {
	if in.Rating < 1 || in.Rating > 5 {
		fmt.Fprintf(w, "Error: --rating must be between 1 and 5, got %d\n", in.Rating)
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleUser); code != exitOK {
		return code
	}
	review, err := a.API.Reviews.Create(ctx, in)
	if err != nil {
		return fail(w, err)
	}
	return output(w, review, func() string {
		return render.SuccessStyle.Render(fmt.Sprintf("%s Review posted %s", render.CheckOK, render.Stars(float64(review.Rating))))
	})
}

func formatPackagesHuman(pkgs []models.Package) string {
	if len(pkgs) == 0 {
		return render.Empty("plans")
	}
	rows := make([][]string, 0, len(pkgs))
	for _, p := range pkgs {
		rows = append(rows, []string{
			p.ID.String(),
			render.Truncate(render.Plain(p.Name), 32),
			render.Plain(p.Category),
			render.Money(p.Price),
			billing(p),
			render.Truncate(render.Plain(p.VendorName), 20),
			ratingCell(p),
		})
	}
	return render.Table([]string{"ID", "PLAN", "CATEGORY", "PRICE", "BILLING", "VENDOR", "RATING"}, rows)
}

func formatPackageDetail(d packageDetail) string {
	p := d.Package
	var b strings.Builder
	title := render.Box.String() + " " + render.Plain(p.Name)
	if p.Featured {
		title += " (featured)"
	}
	b.WriteString(render.Heading(title))
	b.WriteString("\n")
	b.WriteString(render.Fields(
		render.Field{Label: "ID", Value: p.ID.String()},
		render.Field{Label: "Vendor", Value: render.Plain(p.VendorName)},
		render.Field{Label: "Category", Value: render.Plain(p.Category)},
		render.Field{Label: "Price", Value: render.Money(p.Price)},
		render.Field{Label: "Billing", Value: billing(*p)},
		render.Field{Label: "Rating", Value: ratingCell(*p)},
		render.Field{Label: "Status", Value: statusOrEmpty(string(p.Status))},
	))
	if desc := render.Plain(p.Description); desc != "" {
		b.WriteString("\n\n")
		b.WriteString(desc)
	}
	if len(p.Items) > 0 {
		b.WriteString("\n\n")
		b.WriteString(render.Subtitle.Render("In the box:"))
		for _, item := range p.Items {
			b.WriteString("\n  • ")
			b.WriteString(render.Plain(item))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(formatReviewsHuman(d.Reviews))
	return b.String()
}

func formatReviewsHuman(reviews []models.Review) string {
	if len(reviews) == 0 {
		return render.Empty("reviews")
	}
	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, []string{
			render.Stars(float64(r.Rating)),
			render.Truncate(render.Plain(r.UserName), 20),
			render.Truncate(render.Plain(r.Comment), 60),
			render.Date(r.CreatedAt),
		})
	}
	return render.Table([]string{"RATING", "BY", "COMMENT", "DATE"}, rows)
}

func billing(p models.Package) string {
	switch {
	case p.BillingCycle != "":
		return p.BillingCycle
	case p.DurationDays > 0:
		return strconv.Itoa(p.DurationDays) + " days"
	}
	return ""
}

func ratingCell(p models.Package) string {
	if p.ReviewCount == 0 && p.Rating == 0 {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", render.Stars(p.Rating), p.ReviewCount)
}

func statusOrEmpty(status string) string {
	if status == "" {
		return ""
	}
	return render.StatusBadge(status)
}
