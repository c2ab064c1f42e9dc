// ABOUTME: Tests for the domain services against a chi fake backend
// ABOUTME: Checks endpoint mapping, list normalization and error propagation

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dangquan18/subme/internal/client"
	"github.com/dangquan18/subme/logger"
	"github.com/dangquan18/subme/models"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, bool) { return string(s), true }

// newBackend starts r and returns services talking to it with a bearer token
func newBackend(t *testing.T, r http.Handler) *Services {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c := client.New(srv.URL,
		client.WithTokenSource(staticToken("tok")),
		client.WithLogger(logger.Discard()),
	)
	return New(c)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestDecodeList_Shapes(t *testing.T) {
	keys := []string{"payments", "data", "items"}
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2, false},
		{"empty array", `[]`, 0, false},
		{"data wrapper", `{"data":[{"id":1}]}`, 1, false},
		{"payments wrapper", `{"success":true,"payments":[{"id":1},{"id":2},{"id":3}]}`, 3, false},
		{"nested wrapper", `{"data":{"payments":[{"id":1}]}}`, 1, false},
		{"unknown key", `{"rows":[{"id":1}]}`, 0, true},
		{"scalar", `42`, 0, true},
		{"null data", `{"data":null}`, 0, true},
		{"empty", ``, 0, true},
		{"too deep", `{"data":{"data":{"data":[]}}}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList[models.Payment](json.RawMessage(tt.body), keys)
			if tt.wantErr {
				if !errors.Is(err, ErrUnexpectedShape) {
					t.Fatalf("expected ErrUnexpectedShape, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, len(got))
			}
			if got == nil {
				t.Error("expected non-nil slice")
			}
		})
	}
}

func TestAuth_LoginSendsNoBearer(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("expected no Authorization header on login, got %q", h)
		}
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ann@subme.test" || req.Password != "secret" {
			t.Errorf("unexpected credentials %+v", req)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "a.b.c",
			"user":         map[string]any{"id": 7, "email": "ann@subme.test", "role": "user"},
		})
	})
	svc := newBackend(t, r)

	resp, err := svc.Auth.Login(context.Background(), "  ann@subme.test ", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken != "a.b.c" {
		t.Errorf("expected token a.b.c, got %q", resp.AccessToken)
	}
	if resp.User == nil || resp.User.ID != "7" {
		t.Errorf("expected user id 7, got %+v", resp.User)
	}
}

func TestAuth_LoginWithoutTokenIsUnexpected(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ok"})
	})
	svc := newBackend(t, r)

	_, err := svc.Auth.Login(context.Background(), "a@b.c", "x")
	if !errors.Is(err, ErrUnexpectedShape) {
		t.Errorf("expected ErrUnexpectedShape, got %v", err)
	}
}

func TestAuth_MeUnwrapsDataEnvelope(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{"id": "u1", "email": "a@b.c", "role": "vendor"},
		})
	})
	svc := newBackend(t, r)

	u, err := svc.Auth.Me(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" || u.Role != models.RoleVendor {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestPackages_ListSendsFilter(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/packages", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("category") != "coffee" || q.Get("page") != "2" || q.Get("limit") != "" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []map[string]any{{"id": 1, "name": "Beans", "price": 9.5}},
			"total": 1,
		})
	})
	svc := newBackend(t, r)

	pkgs, err := svc.Packages.List(context.Background(), models.PackageFilter{Category: "coffee", Page: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "Beans" {
		t.Errorf("unexpected packages %+v", pkgs)
	}
}

func TestPackages_GetNotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/packages/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "Package not found"})
	})
	svc := newBackend(t, r)

	_, err := svc.Packages.Get(context.Background(), "99")
	ae, ok := client.AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError through the wrapper, got %v", err)
	}
	if ae.StatusCode != http.StatusNotFound || ae.Message != "Package not found" {
		t.Errorf("unexpected APIError %+v", ae)
	}
}

func TestSubscriptions_Lifecycle(t *testing.T) {
	var calls []string
	r := chi.NewRouter()
	r.Delete("/subscriptions/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "cancel "+chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})
	for _, verb := range []string{"pause", "resume", "renew"} {
		verb := verb
		r.Post("/subscriptions/{id}/"+verb, func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, verb+" "+chi.URLParam(r, "id"))
			writeJSON(w, http.StatusOK, map[string]any{"id": chi.URLParam(r, "id"), "status": "active"})
		})
	}
	svc := newBackend(t, r)
	ctx := context.Background()

	if _, err := svc.Subscriptions.Pause(ctx, "3"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := svc.Subscriptions.Resume(ctx, "3"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	sub, err := svc.Subscriptions.Renew(ctx, "3")
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if sub.Status != models.SubscriptionActive {
		t.Errorf("expected active, got %s", sub.Status)
	}
	if err := svc.Subscriptions.Cancel(ctx, "3"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	want := []string{"pause 3", "resume 3", "renew 3", "cancel 3"}
	if len(calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}

func TestSubscriptions_UpdateSendsOnlySetFields(t *testing.T) {
	r := chi.NewRouter()
	r.Patch("/subscriptions/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"auto_renew":false}` {
			t.Errorf("unexpected body %s", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 4, "status": "active", "auto_renew": false})
	})
	svc := newBackend(t, r)

	off := false
	if _, err := svc.Subscriptions.Update(context.Background(), "4", models.SubscriptionUpdate{AutoRenew: &off}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPayments_HistoryShapes(t *testing.T) {
	bodies := []string{
		`[{"id":1,"amount":10,"status":"paid"}]`,
		`{"data":[{"id":1,"amount":10,"status":"paid"}]}`,
		`{"payments":[{"id":1,"amount":10,"status":"paid"}]}`,
	}
	for _, body := range bodies {
		r := chi.NewRouter()
		r.Get("/payments/history", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		svc := newBackend(t, r)

		got, err := svc.Payments.History(context.Background())
		if err != nil {
			t.Fatalf("body %s: unexpected error: %v", body, err)
		}
		if len(got) != 1 || got[0].Amount != 10 {
			t.Errorf("body %s: unexpected payments %+v", body, got)
		}
	}
}

func TestPayments_HistoryRejectsUnknownShape(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/payments/history", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"history":[]}`))
	})
	svc := newBackend(t, r)

	if _, err := svc.Payments.History(context.Background()); !errors.Is(err, ErrUnexpectedShape) {
		t.Errorf("expected ErrUnexpectedShape, got %v", err)
	}
}

func TestPayments_ProcessRedirect(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/payments/process", func(w http.ResponseWriter, r *http.Request) {
		var req models.PaymentRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "vnpay" || req.Amount != 199000 {
			t.Errorf("unexpected request %+v", req)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "payment_url": "https://pay.example/x"})
	})
	svc := newBackend(t, r)

	res, err := svc.Payments.Process(context.Background(), models.PaymentRequest{PackageID: "2", Amount: 199000, Method: "vnpay"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.PaymentURL != "https://pay.example/x" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestNotifications_UnreadCountAndMarkAll(t *testing.T) {
	var markedAll bool
	r := chi.NewRouter()
	r.Get("/notifications", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":1,"title":"a","is_read":false},{"id":2,"title":"b","is_read":true},{"id":3,"title":"c"}]}`))
	})
	r.Patch("/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		markedAll = true
		writeJSON(w, http.StatusOK, map[string]any{"updated": 2})
	})
	svc := newBackend(t, r)
	ctx := context.Background()

	n, err := svc.Notifications.UnreadCount(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 unread, got %d", n)
	}
	if err := svc.Notifications.MarkAllRead(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !markedAll {
		t.Error("expected PATCH /notifications/read-all")
	}
}

func TestVendor_ProfileAndOrders(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/vendor/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 11, "business_name": "Bean Co", "status": "pending"})
	})
	r.Get("/vendor/orders", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"orders": []map[string]any{{"id": 1, "amount": 5, "status": "active"}}})
	})
	svc := newBackend(t, r)
	ctx := context.Background()

	v, err := svc.Vendor.Profile(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != models.VendorPending || v.BusinessName != "Bean Co" {
		t.Errorf("unexpected vendor %+v", v)
	}
	orders, err := svc.Vendor.Orders(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(orders))
	}
}

func TestVendor_ProfileRejectsUnexpectedShape(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"nested under vendor", `{"vendor":{"id":3,"status":"approved"}}`},
		{"empty object", `{}`},
		{"data without status", `{"data":{"id":3}}`},
		{"array", `[{"id":3,"status":"approved"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/vendor/profile", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			})
			svc := newBackend(t, r)

			v, err := svc.Vendor.Profile(context.Background())
			if !errors.Is(err, ErrUnexpectedShape) {
				t.Fatalf("expected ErrUnexpectedShape, got %+v / %v", v, err)
			}
		})
	}
}

func TestGetOne_EnvelopeUnwrapping(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantName string
	}{
		{"bare record", `{"id":5,"name":"Box"}`, "Box"},
		{"data only", `{"data":{"id":5,"name":"Box"}}`, "Box"},
		{"data with success", `{"success":true,"message":"ok","data":{"id":5,"name":"Box"}}`, "Box"},
		{"record with a data field", `{"id":5,"name":"Box","data":{"id":7,"name":"Inner"}}`, "Box"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/packages/5", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			})
			svc := newBackend(t, r)

			p, err := svc.Packages.Get(context.Background(), "5")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ID != "5" || p.Name != tt.wantName {
				t.Errorf("expected package 5 %q, got %+v", tt.wantName, p)
			}
		})
	}
}

func TestAdmin_RejectVendorSendsReason(t *testing.T) {
	r := chi.NewRouter()
	r.Patch("/vendor/admin/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if chi.URLParam(r, "id") != "5" || body["reason"] != "incomplete documents" {
			t.Errorf("unexpected reject request id=%s body=%v", chi.URLParam(r, "id"), body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "status": "rejected"})
	})
	svc := newBackend(t, r)

	if err := svc.Admin.RejectVendor(context.Background(), "5", "incomplete documents"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAdmin_ApprovePackageForbidden(t *testing.T) {
	r := chi.NewRouter()
	r.Patch("/packages/admin/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Forbidden resource"})
	})
	svc := newBackend(t, r)

	err := svc.Admin.ApprovePackage(context.Background(), "8")
	ae, ok := client.AsAPIError(err)
	if !ok || ae.Kind() != client.KindValidation {
		t.Errorf("expected validation APIError, got %v", err)
	}
}

func TestServices_NetworkErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	svc := New(client.New(srv.URL, client.WithLogger(logger.Discard())))

	_, err := svc.Subscriptions.List(context.Background())
	if !client.IsNetwork(err) {
		t.Errorf("expected network error, got %v", err)
	}
}
