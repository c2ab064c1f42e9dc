// ABOUTME: Catalog services for browsing plans and reading or writing reviews
// ABOUTME: Covers /packages and /reviews

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dangquan18/subme/internal/client"
	"github.com/dangquan18/subme/models"
)

// PackageService covers the public catalog
type PackageService struct {
	r Requester
}

// List returns approved plans matching f
func (s *PackageService) List(ctx context.Context, f models.PackageFilter) ([]models.Package, error) {
	return getList[models.Package](ctx, s.r, "/packages", []string{"packages"}, client.Query(filterQuery(f)))
}

// Get returns one plan
func (s *PackageService) Get(ctx context.Context, id models.ID) (*models.Package, error) {
	return getOne[models.Package](ctx, s.r, pathID("/packages/%s", id))
}

// Featured returns the plans highlighted on the home screen
func (s *PackageService) Featured(ctx context.Context) ([]models.Package, error) {
	return getList[models.Package](ctx, s.r, "/packages/featured", []string{"packages"})
}

func filterQuery(f models.PackageFilter) url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.VendorID != "" {
		q.Set("vendor_id", f.VendorID.String())
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ReviewService covers /reviews
type ReviewService struct {
	r Requester
}

// ForPlan returns the reviews of a plan
func (s *ReviewService) ForPlan(ctx context.Context, packageID models.ID) ([]models.Review, error) {
	return getList[models.Review](ctx, s.r, pathID("/reviews/plan/%s", packageID), []string{"reviews"})
}

// Create posts a review
func (s *ReviewService) Create(ctx context.Context, in models.ReviewInput) (*models.Review, error) {
	return send[models.Review](ctx, s.r, http.MethodPost, "/reviews", in)
}
