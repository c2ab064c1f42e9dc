// ABOUTME: Domain service modules mapping client concepts onto SubMe REST endpoints
// ABOUTME: Stateless adapters with explicit response schemas and list-shape normalization

// Package api holds one service per backend concern (auth, packages,
// subscriptions, payments, reviews, notifications, deliveries, vendor and
// admin). Services keep no state and make no business decisions; they turn a
// typed call into one REST request and normalize the response.
//
// Errors from the HTTP layer are returned wrapped, so callers can still use
// client.IsNetwork, client.IsUnauthorized and client.AsAPIError on them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dangquan18/subme/internal/client"
)

// ErrUnexpectedShape is returned when a response does not match the schema
// expected for its endpoint
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Requester performs backend requests. *client.Client implements it.
type Requester interface {
	Get(ctx context.Context, path string, out any, opts ...client.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...client.RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...client.RequestOption) error
	Patch(ctx context.Context, path string, body, out any, opts ...client.RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...client.RequestOption) error
}

// Services groups every domain service over one Requester
type Services struct {
	Auth          *AuthService
	Packages      *PackageService
	Subscriptions *SubscriptionService
	Payments      *PaymentService
	Reviews       *ReviewService
	Notifications *NotificationService
	Deliveries    *DeliveryService
	Vendor        *VendorService
	Admin         *AdminService
}

// New builds all services over r
func New(r Requester) *Services {
	return &Services{
		Auth:          &AuthService{r: r},
		Packages:      &PackageService{r: r},
		Subscriptions: &SubscriptionService{r: r},
		Payments:      &PaymentService{r: r},
		Reviews:       &ReviewService{r: r},
		Notifications: &NotificationService{r: r},
		Deliveries:    &DeliveryService{r: r},
		Vendor:        &VendorService{r: r},
		Admin:         &AdminService{r: r},
	}
}

// listKeys are the wrapper keys the backend uses around collections
var listKeys = []string{"data", "items", "results"}

// getList fetches path and normalizes the collection it returns. The body may
// be a bare array or an object carrying the array under one of listKeys or
// extra; one level of nesting (e.g. {"data": {"payments": [...]}}) is
// unwrapped as well. Anything else fails with ErrUnexpectedShape.
func getList[T any](ctx context.Context, r Requester, path string, extra []string, opts ...client.RequestOption) ([]T, error) {
	var raw json.RawMessage
	if err := r.Get(ctx, path, &raw, opts...); err != nil {
		return nil, wrap(http.MethodGet, path, err)
	}
	items, err := decodeList[T](raw, append(extra, listKeys...))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return items, nil
}

func decodeList[T any](raw json.RawMessage, keys []string) ([]T, error) {
	return decodeListDepth[T](raw, keys, 0)
}

func decodeListDepth[T any](raw json.RawMessage, keys []string, depth int) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnexpectedShape)
	}

	switch raw[0] {
	case '[':
		items := []T{}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		return items, nil
	case '{':
		if depth > 1 {
			break
		}
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		for _, k := range keys {
			inner, ok := wrapper[k]
			if !ok {
				continue
			}
			return decodeListDepth[T](inner, keys, depth+1)
		}
		return nil, fmt.Errorf("%w: object has none of the keys %v", ErrUnexpectedShape, keys)
	}
	return nil, fmt.Errorf("%w: expected array or object", ErrUnexpectedShape)
}

// getOne fetches a single object. A {"data": {...}} envelope is unwrapped
// and the record must pass its required-field check.
func getOne[T any](ctx context.Context, r Requester, path string, opts ...client.RequestOption) (*T, error) {
	var raw json.RawMessage
	if err := r.Get(ctx, path, &raw, opts...); err != nil {
		return nil, wrap(http.MethodGet, path, err)
	}
	return decodeOne[T](http.MethodGet, path, raw)
}

// send issues a write and decodes the single object it returns. A 2xx with
// an empty body yields nil and no error.
func send[T any](ctx context.Context, r Requester, method, path string, body any, opts ...client.RequestOption) (*T, error) {
	var raw json.RawMessage
	var err error
	switch method {
	case http.MethodPost:
		err = r.Post(ctx, path, body, &raw, opts...)
	case http.MethodPut:
		err = r.Put(ctx, path, body, &raw, opts...)
	case http.MethodPatch:
		err = r.Patch(ctx, path, body, &raw, opts...)
	case http.MethodDelete:
		err = r.Delete(ctx, path, &raw, opts...)
	default:
		return nil, fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return nil, wrap(method, path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return decodeOne[T](method, path, raw)
}

// exec issues a write whose response body is not needed
func exec(ctx context.Context, r Requester, method, path string, body any) error {
	var err error
	switch method {
	case http.MethodPost:
		err = r.Post(ctx, path, body, nil)
	case http.MethodPut:
		err = r.Put(ctx, path, body, nil)
	case http.MethodPatch:
		err = r.Patch(ctx, path, body, nil)
	case http.MethodDelete:
		err = r.Delete(ctx, path, nil)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	return wrap(method, path, err)
}

// validator is implemented by records with required fields
type validator interface {
	Validate() error
}

// envelopeKeys may sit beside "data" in a response envelope
var envelopeKeys = map[string]bool{"data": true, "success": true, "message": true, "statusCode": true}

func decodeOne[T any](method, path string, raw json.RawMessage) (*T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%s %s: %w: expected object", method, path, ErrUnexpectedShape)
	}
	raw = unwrapData(raw)

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrUnexpectedShape, err)
	}
	if s, ok := any(v).(validator); ok {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrUnexpectedShape, err)
		}
	}
	return &v, nil
}

// unwrapData returns the object under "data" when raw is an envelope: data
// holds an object and every other key is an envelope key. A record that
// merely has a data field is returned unchanged.
func unwrapData(raw json.RawMessage) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	d := bytes.TrimSpace(fields["data"])
	if len(d) == 0 || d[0] != '{' {
		return raw
	}
	for k := range fields {
		if !envelopeKeys[k] {
			return raw
		}
	}
	return d
}

func wrap(method, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %s: %w", method, path, err)
}

func pathID(format string, id fmt.Stringer) string {
	return fmt.Sprintf(format, url.PathEscape(id.String()))
}
