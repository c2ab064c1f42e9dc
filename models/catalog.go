// ABOUTME: Catalog models for subscription plans and their reviews
// ABOUTME: Backend-owned records the client displays and forwards

package models

// PlanStatus is the admin approval state of a plan
type PlanStatus string

const (
	PlanPending  PlanStatus = "pending"
	PlanApproved PlanStatus = "approved"
	PlanRejected PlanStatus = "rejected"
)

// Package is a vendor-created subscription plan
type Package struct {
	ID           ID         `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Price        float64    `json:"price"`
	DurationDays int        `json:"duration_days,omitempty"`
	BillingCycle string     `json:"billing_cycle,omitempty"`
	Category     string     `json:"category,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	Items        []string   `json:"items,omitempty"`
	VendorID     ID         `json:"vendor_id,omitempty"`
	VendorName   string     `json:"vendor_name,omitempty"`
	Status       PlanStatus `json:"status,omitempty"`
	Featured     bool       `json:"featured,omitempty"`
	Rating       float64    `json:"rating,omitempty"`
	ReviewCount  int        `json:"review_count,omitempty"`
	CreatedAt    string     `json:"created_at,omitempty"`
}

// PackageFilter narrows GET /packages
type PackageFilter struct {
	Category string
	Search   string
	VendorID ID
	Page     int
	Limit    int
}

// PackageInput creates or updates a vendor plan. Nil fields are left unchanged
// on update.
type PackageInput struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	DurationDays *int     `json:"duration_days,omitempty"`
	BillingCycle *string  `json:"billing_cycle,omitempty"`
	Category     *string  `json:"category,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
	Items        []string `json:"items,omitempty"`
}

// Review is a customer's rating of a plan
type Review struct {
	ID        ID     `json:"id"`
	PackageID ID     `json:"package_id"`
	UserID    ID     `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ReviewInput is the body of POST /reviews
type ReviewInput struct {
	PackageID ID     `json:"package_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}
