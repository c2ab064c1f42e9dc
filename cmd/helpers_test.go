// ABOUTME: Shared fixtures for command tests
// ABOUTME: Points the CLI at an httptest backend and seeds stored sessions

package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dangquan18/subme/config"
	"github.com/dangquan18/subme/internal/session"
	"github.com/dangquan18/subme/internal/storage"
	"github.com/dangquan18/subme/internal/token/tokentest"
	"github.com/dangquan18/subme/models"
)

// useBackend points the global flags at router with a fresh file store
func useBackend(t *testing.T, router chi.Router) {
	t.Helper()
	server := httptest.NewServer(router)

	apiURL = server.URL
	storeFlag = config.StoreFile
	configDir = t.TempDir()
	t.Cleanup(func() {
		server.Close()
		apiURL = ""
		storeFlag = ""
		configDir = ""
		jsonOutput = false
	})
}

// storedSession opens the session file the CLI uses
func storedSession(t *testing.T) *session.Manager {
	t.Helper()
	store := storage.NewFileStore(filepath.Join(configDir, "session.json"), slog.Default())
	return session.NewManager(store)
}

// signIn stores a valid token and user as if login had succeeded
func signIn(t *testing.T, user models.User) string {
	t.Helper()
	raw := tokentest.For(t, string(user.ID), user.Email, string(user.Role), time.Hour)
	s := storedSession(t)
	s.SaveToken(context.Background(), raw)
	s.SaveUser(context.Background(), &user)
	return raw
}

var (
	customerUser = models.User{ID: "7", Email: "mai@subme.test", Name: "Mai", Role: models.RoleUser}
	vendorUser   = models.User{ID: "12", Email: "shop@subme.test", Name: "Shop", Role: models.RoleVendor, Status: models.VendorApproved, VendorID: "3", BusinessName: "Coffee Club"}
	adminUser    = models.User{ID: "1", Email: "admin@subme.test", Name: "Admin", Role: models.RoleAdmin}
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request, v any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Errorf("failed to decode request body: %v", err)
	}
}
