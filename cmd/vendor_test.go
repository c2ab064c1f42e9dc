// ABOUTME: Tests for vendor and admin commands
// ABOUTME: Verifies role gating, dashboard aggregation and approval requests

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dangquan18/subme/models"
)

func vendorRouter(t *testing.T) chi.Router {
	r := chi.NewRouter()
	r.Get("/vendor/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.Vendor{ID: "3", BusinessName: "Coffee Club", Email: vendorUser.Email, Status: models.VendorApproved})
	})
	r.Get("/vendor/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.VendorStats{TotalPackages: 4, ActivePackages: 3, PendingPackages: 1, ActiveSubscriptions: 18, TotalRevenue: 3582000})
	})
	r.Get("/vendor/orders", func(w http.ResponseWriter, r *http.Request) {
		orders := make([]models.Order, 0, 8)
		for i := 0; i < 8; i++ {
			orders = append(orders, models.Order{ID: models.ID(strconv.Itoa(100 + i)), PackageName: "Morning Beans", CustomerName: "Mai", Amount: 199000, Status: models.SubscriptionActive})
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
	})
	return r
}

func TestVendorDashboardCommand(t *testing.T) {
	useBackend(t, vendorRouter(t))
	signIn(t, vendorUser)

	var buf bytes.Buffer
	exitCode := runVendorDashboard(context.Background(), &buf)
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	for _, want := range []string{"Coffee Club", "3,582,000", "4 (3 active, 1 pending)", "Recent orders"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("expected output to contain %q, got %s", want, buf.String())
		}
	}
}

func TestVendorDashboardCommand_JSONLimitsOrders(t *testing.T) {
	useBackend(t, vendorRouter(t))
	signIn(t, vendorUser)
	jsonOutput = true

	var buf bytes.Buffer
	if exitCode := runVendorDashboard(context.Background(), &buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	var parsed dashboard
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed.Orders) != dashboardOrders {
		t.Errorf("expected %d recent orders, got %d", dashboardOrders, len(parsed.Orders))
	}
	if parsed.Stats == nil || parsed.Stats.ActiveSubscriptions != 18 {
		t.Errorf("unexpected stats %+v", parsed.Stats)
	}
}

func TestVendorCommands_PendingVendorIsForbidden(t *testing.T) {
	useBackend(t, vendorRouter(t))
	pending := vendorUser
	pending.Status = models.VendorPending
	signIn(t, pending)

	var buf bytes.Buffer
	exitCode := runVendorStats(context.Background(), &buf)
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("awaiting approval")) {
		t.Errorf("expected pending reason, got %s", buf.String())
	}
}

func TestVendorCommands_CustomerIsForbidden(t *testing.T) {
	useBackend(t, vendorRouter(t))
	signIn(t, customerUser)

	var buf bytes.Buffer
	if exitCode := runVendorOrders(context.Background(), &buf); exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
}

func TestVendorPackageCreateCommand_Validation(t *testing.T) {
	name, price := "Tea Box", 0.0
	var buf bytes.Buffer
	if exitCode := runVendorPackageCreate(context.Background(), &buf, models.PackageInput{Price: &price}); exitCode != 2 {
		t.Errorf("expected exit code 2 without name, got %d", exitCode)
	}
	if exitCode := runVendorPackageCreate(context.Background(), &buf, models.PackageInput{Name: &name, Price: &price}); exitCode != 2 {
		t.Errorf("expected exit code 2 for zero price, got %d", exitCode)
	}
}

func TestVendorPackageCreateCommand(t *testing.T) {
	r := vendorRouter(t)
	r.Post("/vendor/packages", func(w http.ResponseWriter, r *http.Request) {
		var in models.PackageInput
		decodeBody(t, r, &in)
		if in.Name == nil || *in.Name != "Tea Box" || len(in.Items) != 2 {
			t.Errorf("unexpected plan input %+v", in)
		}
		writeJSON(w, http.StatusCreated, models.Package{ID: "44", Name: "Tea Box", Status: models.PlanPending})
	})
	useBackend(t, r)
	signIn(t, vendorUser)

	name, price := "Tea Box", 150000.0
	var buf bytes.Buffer
	exitCode := runVendorPackageCreate(context.Background(), &buf, models.PackageInput{
		Name: &name, Price: &price, Items: []string{"Oolong", "Jasmine"},
	})
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("Plan 44 created")) {
		t.Errorf("expected confirmation, got %s", buf.String())
	}
}

func TestVendorPackageUpdateCommand_NothingToUpdate(t *testing.T) {
	var buf bytes.Buffer
	if exitCode := runVendorPackageUpdate(context.Background(), &buf, "44", models.PackageInput{}); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
}

func TestVendorPackageDeleteCommand(t *testing.T) {
	deleted := ""
	r := vendorRouter(t)
	r.Delete("/vendor/packages/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = chi.URLParam(r, "id")
		writeJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
	})
	useBackend(t, r)
	signIn(t, vendorUser)

	var buf bytes.Buffer
	if exitCode := runVendorPackageDelete(context.Background(), &buf, "44"); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if deleted != "44" {
		t.Errorf("expected plan 44 deleted, got %q", deleted)
	}
}

func adminRouter(t *testing.T) (chi.Router, *[]string) {
	var calls []string
	r := chi.NewRouter()
	r.Get("/vendor/admin/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Vendor{
			{ID: "3", BusinessName: "Coffee Club", Status: models.VendorActive},
			{ID: "4", BusinessName: "Tea House", Status: models.VendorPending},
		})
	})
	r.Get("/packages/admin/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []models.Package{
			{ID: "44", Name: "Tea Box", Status: models.PlanPending},
			{ID: "1", Name: "Morning Beans", Status: models.PlanApproved},
		}})
	})
	review := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.ContentLength > 0 {
			decodeBody(t, r, &body)
		}
		call := r.Method + " " + r.URL.Path
		if reason, ok := body["reason"]; ok {
			call += " reason=" + reason.(string)
		}
		calls = append(calls, call)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
	r.Patch("/vendor/admin/{id}/approve", review)
	r.Patch("/vendor/admin/{id}/reject", review)
	r.Patch("/packages/admin/{id}/approve", review)
	r.Patch("/packages/admin/{id}/reject", review)
	return r, &calls
}

func TestAdminVendorsCommand_StatusFilter(t *testing.T) {
	r, _ := adminRouter(t)
	useBackend(t, r)
	signIn(t, adminUser)

	var buf bytes.Buffer
	exitCode := runAdminVendors(context.Background(), &buf, "approved")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("Coffee Club")) {
		t.Errorf("expected active vendor to match approved filter, got %s", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte("Tea House")) {
		t.Errorf("pending vendor should be filtered out, got %s", buf.String())
	}
}

func TestAdminPackagesCommand_StatusFilter(t *testing.T) {
	r, _ := adminRouter(t)
	useBackend(t, r)
	signIn(t, adminUser)
	jsonOutput = true

	var buf bytes.Buffer
	if exitCode := runAdminPackages(context.Background(), &buf, "pending"); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	var parsed []models.Package
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed) != 1 || parsed[0].ID != "44" {
		t.Errorf("unexpected plans %+v", parsed)
	}
}

func TestAdminReviewCommands(t *testing.T) {
	r, calls := adminRouter(t)
	useBackend(t, r)
	signIn(t, adminUser)

	steps := []struct {
		target  string
		approve bool
		reason  string
	}{
		{"vendor", true, ""},
		{"vendor", false, "Missing license"},
		{"package", true, ""},
		{"package", false, "Blurry photos"},
	}
	for _, s := range steps {
		var buf bytes.Buffer
		if exitCode := runAdminReview(context.Background(), &buf, s.target, "4", s.approve, s.reason); exitCode != 0 {
			t.Errorf("%s approve=%v: expected exit code 0, got %d: %s", s.target, s.approve, exitCode, buf.String())
		}
	}

	got := strings.Join(*calls, "\n")
	for _, want := range []string{
		"/vendor/admin/4/approve",
		"/vendor/admin/4/reject reason=Missing license",
		"/packages/admin/4/approve",
		"/packages/admin/4/reject reason=Blurry photos",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected call %q, got:\n%s", want, got)
		}
	}
}

func TestAdminCommands_VendorIsForbidden(t *testing.T) {
	r, calls := adminRouter(t)
	useBackend(t, r)
	signIn(t, vendorUser)

	var buf bytes.Buffer
	if exitCode := runAdminReview(context.Background(), &buf, "vendor", "4", true, ""); exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if len(*calls) != 0 {
		t.Errorf("forbidden command must not reach the backend, got %v", *calls)
	}
}
