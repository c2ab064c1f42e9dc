// ABOUTME: Vendor self-service and admin moderation services
// ABOUTME: Approval decisions are forwarded; the backend owns the workflow

package api

import (
	"context"
	"net/http"

	"github.com/dangquan18/subme/models"
)

// VendorService covers /vendor for the signed-in vendor
type VendorService struct {
	r Requester
}

// Profile returns the vendor record of the current user, including its
// approval status
func (s *VendorService) Profile(ctx context.Context) (*models.Vendor, error) {
	return getOne[models.Vendor](ctx, s.r, "/vendor/profile")
}

// Stats returns dashboard figures
func (s *VendorService) Stats(ctx context.Context) (*models.VendorStats, error) {
	return getOne[models.VendorStats](ctx, s.r, "/vendor/stats")
}

// Packages returns the vendor's own plans in every approval state
func (s *VendorService) Packages(ctx context.Context) ([]models.Package, error) {
	return getList[models.Package](ctx, s.r, "/vendor/packages", []string{"packages"})
}

// Package returns one of the vendor's plans
func (s *VendorService) Package(ctx context.Context, id models.ID) (*models.Package, error) {
	return getOne[models.Package](ctx, s.r, pathID("/vendor/packages/%s", id))
}

// CreatePackage submits a new plan for approval
func (s *VendorService) CreatePackage(ctx context.Context, in models.PackageInput) (*models.Package, error) {
	return send[models.Package](ctx, s.r, http.MethodPost, "/vendor/packages", in)
}

// UpdatePackage patches a plan
func (s *VendorService) UpdatePackage(ctx context.Context, id models.ID, in models.PackageInput) (*models.Package, error) {
	return send[models.Package](ctx, s.r, http.MethodPatch, pathID("/vendor/packages/%s", id), in)
}

// DeletePackage removes a plan
func (s *VendorService) DeletePackage(ctx context.Context, id models.ID) error {
	return exec(ctx, s.r, http.MethodDelete, pathID("/vendor/packages/%s", id), nil)
}

// Orders returns subscriptions to the vendor's plans
func (s *VendorService) Orders(ctx context.Context) ([]models.Order, error) {
	return getList[models.Order](ctx, s.r, "/vendor/orders", []string{"orders"})
}

// AdminService covers the moderation endpoints
type AdminService struct {
	r Requester
}

type rejection struct {
	Reason string `json:"reason,omitempty"`
}

// Vendors lists every vendor account
func (s *AdminService) Vendors(ctx context.Context) ([]models.Vendor, error) {
	return getList[models.Vendor](ctx, s.r, "/vendor/admin/all", []string{"vendors"})
}

// ApproveVendor lets a vendor operate
func (s *AdminService) ApproveVendor(ctx context.Context, id models.ID) error {
	return exec(ctx, s.r, http.MethodPatch, pathID("/vendor/admin/%s/approve", id), nil)
}

// RejectVendor declines a vendor application
func (s *AdminService) RejectVendor(ctx context.Context, id models.ID, reason string) error {
	return exec(ctx, s.r, http.MethodPatch, pathID("/vendor/admin/%s/reject", id), rejection{Reason: reason})
}

// Packages lists every plan regardless of approval state
func (s *AdminService) Packages(ctx context.Context) ([]models.Package, error) {
	return getList[models.Package](ctx, s.r, "/packages/admin/all", []string{"packages"})
}

// ApprovePackage publishes a plan
func (s *AdminService) ApprovePackage(ctx context.Context, id models.ID) error {
	return exec(ctx, s.r, http.MethodPatch, pathID("/packages/admin/%s/approve", id), nil)
}

// RejectPackage declines a plan
func (s *AdminService) RejectPackage(ctx context.Context, id models.ID, reason string) error {
	return exec(ctx, s.r, http.MethodPatch, pathID("/packages/admin/%s/reject", id), rejection{Reason: reason})
}
