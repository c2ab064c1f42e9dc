// ABOUTME: Tests for the composition root
// ABOUTME: Verifies wiring from config through to the 401 hook and metrics

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dangquan18/subme/config"
	"github.com/dangquan18/subme/internal/auth"
	"github.com/dangquan18/subme/internal/client"
	"github.com/dangquan18/subme/internal/session"
	"github.com/dangquan18/subme/internal/storage"
	"github.com/dangquan18/subme/internal/token/tokentest"
	"github.com/dangquan18/subme/logger"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		APIURL:         url,
		RequestTimeout: 5 * time.Second,
		RateBurst:      1,
		Store:          config.StoreMemory,
	}
}

func TestNew_AnonymousWithoutSession(t *testing.T) {
	a, err := New(context.Background(), testConfig("http://localhost:1"), WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if got := a.Auth.Snapshot().State; got != auth.StateAnonymous {
		t.Errorf("expected anonymous, got %s", got)
	}
	if a.Client.BaseURL() != "http://localhost:1" {
		t.Errorf("unexpected base URL %s", a.Client.BaseURL())
	}
}

func TestNew_RestoresSessionFromStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Set(ctx, session.KeyToken, tokentest.For(t, 1, "a@subme.test", "user", time.Hour))

	a, err := New(ctx, testConfig("http://localhost:1"), WithStore(store), WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	user, err := a.Auth.User()
	if err != nil {
		t.Fatalf("expected restored user: %v", err)
	}
	if user.Email != "a@subme.test" {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestNew_UnauthorizedClearsSessionAndCounts(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Error("expected bearer token from stored session")
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.Set(ctx, session.KeyToken, tokentest.For(t, 1, "a@subme.test", "user", time.Hour))

	a, err := New(ctx, testConfig(srv.URL), WithStore(store), WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	var invalidated bool
	a.Auth.Subscribe(func(ev auth.Event) {
		if ev.Kind == auth.EventSessionInvalidated {
			invalidated = true
		}
	})

	_, err = a.API.Notifications.List(ctx)
	if !client.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if !invalidated {
		t.Error("expected session invalidated event")
	}
	if a.Sessions.IsSessionValid(ctx) {
		t.Error("expected stored session cleared")
	}
	expected := `
# HELP subme_session_invalidations_total Sessions cleared after the backend answered 401
# TYPE subme_session_invalidations_total counter
subme_session_invalidations_total 1
`
	if err := testutil.GatherAndCompare(a.Registry, strings.NewReader(expected), "subme_session_invalidations_total"); err != nil {
		t.Errorf("unexpected invalidation metric: %v", err)
	}
}

func TestNew_UnknownStore(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.Store = "floppy"
	if _, err := New(context.Background(), cfg, WithLogger(logger.Discard())); err == nil {
		t.Error("expected error for unknown store")
	}
}
