// ABOUTME: Subscription, delivery and payment models
// ABOUTME: Lifecycle states are owned by the backend; the client only displays them

package models

// SubscriptionStatus is the backend-owned lifecycle state
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Subscription links a customer to a plan
type Subscription struct {
	ID               ID                 `json:"id"`
	PackageID        ID                 `json:"package_id"`
	Package          *Package           `json:"package,omitempty"`
	UserID           ID                 `json:"user_id,omitempty"`
	Status           SubscriptionStatus `json:"status"`
	StartDate        string             `json:"start_date,omitempty"`
	EndDate          string             `json:"end_date,omitempty"`
	NextDeliveryDate string             `json:"next_delivery_date,omitempty"`
	AutoRenew        bool               `json:"auto_renew"`
	DeliveryAddress  string             `json:"delivery_address,omitempty"`
	CreatedAt        string             `json:"created_at,omitempty"`
}

// SubscriptionInput is the body of POST /subscriptions
type SubscriptionInput struct {
	PackageID       ID     `json:"package_id"`
	PaymentMethod   string `json:"payment_method,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	AutoRenew       bool   `json:"auto_renew"`
}

// SubscriptionUpdate is the body of PATCH /subscriptions/:id
type SubscriptionUpdate struct {
	AutoRenew       *bool   `json:"auto_renew,omitempty"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`
}

// Delivery is one scheduled shipment of a subscription
type Delivery struct {
	ID             ID     `json:"id"`
	SubscriptionID ID     `json:"subscription_id"`
	Status         string `json:"status"`
	ScheduledDate  string `json:"scheduled_date,omitempty"`
	DeliveredAt    string `json:"delivered_at,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Note           string `json:"note,omitempty"`
}

// PaymentRequest is the body of POST /payments/process
type PaymentRequest struct {
	SubscriptionID ID      `json:"subscription_id,omitempty"`
	PackageID      ID      `json:"package_id,omitempty"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"payment_method"`
}

// Payment is a processed payment record
type Payment struct {
	ID             ID      `json:"id"`
	SubscriptionID ID      `json:"subscription_id,omitempty"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"payment_method,omitempty"`
	Status         string  `json:"status"`
	TransactionID  string  `json:"transaction_id,omitempty"`
	PaidAt         string  `json:"paid_at,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// PaymentResult is returned by POST /payments/process. PaymentURL is set when
// the gateway requires a redirect to complete the payment.
type PaymentResult struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message,omitempty"`
	Payment    *Payment      `json:"payment,omitempty"`
	PaymentURL string        `json:"payment_url,omitempty"`
	Sub        *Subscription `json:"subscription,omitempty"`
}
