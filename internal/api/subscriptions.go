// ABOUTME: Subscription, delivery and payment services
// ABOUTME: The client forwards lifecycle actions; the backend decides transitions

package api

import (
	"context"
	"net/http"

	"github.com/dangquan18/subme/models"
)

// SubscriptionService covers /subscriptions
type SubscriptionService struct {
	r Requester
}

// List returns the current user's subscriptions
func (s *SubscriptionService) List(ctx context.Context) ([]models.Subscription, error) {
	return getList[models.Subscription](ctx, s.r, "/subscriptions", []string{"subscriptions"})
}

// Create subscribes the current user to a plan
func (s *SubscriptionService) Create(ctx context.Context, in models.SubscriptionInput) (*models.Subscription, error) {
	return send[models.Subscription](ctx, s.r, http.MethodPost, "/subscriptions", in)
}

// Update patches delivery settings of a subscription
func (s *SubscriptionService) Update(ctx context.Context, id models.ID, upd models.SubscriptionUpdate) (*models.Subscription, error) {
	return send[models.Subscription](ctx, s.r, http.MethodPatch, pathID("/subscriptions/%s", id), upd)
}

// Cancel cancels a subscription
func (s *SubscriptionService) Cancel(ctx context.Context, id models.ID) error {
	return exec(ctx, s.r, http.MethodDelete, pathID("/subscriptions/%s", id), nil)
}

// Pause asks the backend to pause deliveries
func (s *SubscriptionService) Pause(ctx context.Context, id models.ID) (*models.Subscription, error) {
	return s.action(ctx, id, "pause")
}

// Resume asks the backend to resume a paused subscription
func (s *SubscriptionService) Resume(ctx context.Context, id models.ID) (*models.Subscription, error) {
	return s.action(ctx, id, "resume")
}

// Renew extends a subscription for another period
func (s *SubscriptionService) Renew(ctx context.Context, id models.ID) (*models.Subscription, error) {
	return s.action(ctx, id, "renew")
}

func (s *SubscriptionService) action(ctx context.Context, id models.ID, verb string) (*models.Subscription, error) {
	return send[models.Subscription](ctx, s.r, http.MethodPost, pathID("/subscriptions/%s/", id)+verb, nil)
}

// DeliveryService covers the deliveries of a subscription
type DeliveryService struct {
	r Requester
}

// ForSubscription returns scheduled and past deliveries
func (s *DeliveryService) ForSubscription(ctx context.Context, subscriptionID models.ID) ([]models.Delivery, error) {
	return getList[models.Delivery](ctx, s.r, pathID("/subscriptions/%s/deliveries", subscriptionID), []string{"deliveries"})
}

// PaymentService covers /payments
type PaymentService struct {
	r Requester
}

// Process submits a payment
func (s *PaymentService) Process(ctx context.Context, req models.PaymentRequest) (*models.PaymentResult, error) {
	res, err := send[models.PaymentResult](ctx, s.r, http.MethodPost, "/payments/process", req)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &models.PaymentResult{Success: true}
	}
	return res, nil
}

// History returns past payments. The backend has returned this collection
// bare, under "data", and under "payments"; all three normalize here.
func (s *PaymentService) History(ctx context.Context) ([]models.Payment, error) {
	return getList[models.Payment](ctx, s.r, "/payments/history", []string{"payments"})
}
