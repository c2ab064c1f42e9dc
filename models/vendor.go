// ABOUTME: Vendor self-service and admin models
// ABOUTME: Vendor accounts, dashboard statistics, orders and notifications

package models

// Vendor is a vendor account as seen by admins and by the vendor's own profile
type Vendor struct {
	ID           ID           `json:"id"`
	UserID       ID           `json:"user_id,omitempty"`
	BusinessName string       `json:"business_name,omitempty"`
	Name         string       `json:"name,omitempty"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Address      string       `json:"address,omitempty"`
	Status       VendorStatus `json:"status"`
	CreatedAt    string       `json:"created_at,omitempty"`
}

// VendorStats backs the vendor dashboard
type VendorStats struct {
	TotalPackages       int     `json:"total_packages"`
	ActivePackages      int     `json:"active_packages"`
	PendingPackages     int     `json:"pending_packages"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	TotalOrders         int     `json:"total_orders"`
	PendingOrders       int     `json:"pending_orders"`
	TotalRevenue        float64 `json:"total_revenue"`
	MonthlyRevenue      float64 `json:"monthly_revenue"`
	AverageRating       float64 `json:"average_rating"`
}

// Order is a subscription as seen by the vendor fulfilling it
type Order struct {
	ID             ID                 `json:"id"`
	SubscriptionID ID                 `json:"subscription_id,omitempty"`
	PackageID      ID                 `json:"package_id,omitempty"`
	PackageName    string             `json:"package_name,omitempty"`
	CustomerName   string             `json:"customer_name,omitempty"`
	CustomerEmail  string             `json:"customer_email,omitempty"`
	Amount         float64            `json:"amount"`
	Status         SubscriptionStatus `json:"status"`
	CreatedAt      string             `json:"created_at,omitempty"`
}

// Notification is an in-app message for the current user
type Notification struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	Type      string `json:"type,omitempty"`
	Read      bool   `json:"is_read"`
	CreatedAt string `json:"created_at,omitempty"`
}
