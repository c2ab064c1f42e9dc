// ABOUTME: Tests for session commands
// ABOUTME: Verifies login, signup, logout, whoami, reload and profile against a fake backend

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dangquan18/subme/internal/token/tokentest"
	"github.com/dangquan18/subme/models"
)

func loginRouter(t *testing.T, vendorStatus models.VendorStatus) chi.Router {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		decodeBody(t, r, &req)
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send a bearer token")
		}
		switch req.Email {
		case customerUser.Email:
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": tokentest.For(t, 7, customerUser.Email, "user", time.Hour),
				"user":         map[string]any{"id": 7, "name": "Mai", "phone": "0901"},
			})
		case vendorUser.Email:
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": tokentest.For(t, 12, vendorUser.Email, "vendor", time.Hour),
			})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials", "statusCode": 401})
		}
	})
	r.Get("/vendor/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.Vendor{ID: "3", BusinessName: "Coffee Club", Status: vendorStatus})
	})
	return r
}

func TestLoginCommand_Success(t *testing.T) {
	useBackend(t, loginRouter(t, ""))

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf, " mai@subme.test ", "secret")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("Signed in as Mai")) {
		t.Errorf("expected greeting, got %s", buf.String())
	}

	// A later invocation restores the stored session
	buf.Reset()
	exitCode = runWhoami(context.Background(), &buf)
	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	for _, want := range []string{"mai@subme.test", "user"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("expected whoami output to contain %q, got %s", want, buf.String())
		}
	}
}

func TestLoginCommand_InvalidCredentials(t *testing.T) {
	useBackend(t, loginRouter(t, ""))

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf, "nobody@subme.test", "wrong")
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("subme login")) {
		t.Errorf("expected login hint, got %s", buf.String())
	}
	if _, ok := storedSession(t).LoadToken(context.Background()); ok {
		t.Error("failed login must not store a token")
	}
}

func TestLoginCommand_ConnectionError(t *testing.T) {
	useBackend(t, chi.NewRouter())
	apiURL = "http://localhost:99999"

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf, customerUser.Email, "secret")
	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
}

func TestLoginCommand_PendingVendor(t *testing.T) {
	useBackend(t, loginRouter(t, models.VendorPending))

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf, vendorUser.Email, "secret")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("awaiting admin approval")) {
		t.Errorf("expected pending notice, got %s", buf.String())
	}
}

func TestLoginCommand_JSON(t *testing.T) {
	useBackend(t, loginRouter(t, models.VendorApproved))
	jsonOutput = true

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf, vendorUser.Email, "secret")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}

	var parsed sessionView
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed.State != "authenticated" {
		t.Errorf("expected authenticated state, got %s", parsed.State)
	}
	if parsed.Route != "vendor-home" {
		t.Errorf("expected vendor-home route, got %s", parsed.Route)
	}
	if parsed.User == nil || parsed.User.BusinessName != "Coffee Club" {
		t.Errorf("expected enriched vendor, got %+v", parsed.User)
	}
}

func TestSignupCommand(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req models.SignupRequest
		decodeBody(t, r, &req)
		if req.Role != models.RoleUser || req.Name != "Lan" {
			t.Errorf("unexpected signup request %+v", req)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"access_token": tokentest.For(t, 30, req.Email, "user", time.Hour),
			"user":         map[string]any{"id": 30, "name": req.Name},
		})
	})
	useBackend(t, r)

	var buf bytes.Buffer
	exitCode := runSignup(context.Background(), &buf, models.SignupRequest{
		Email: "lan@subme.test", Password: "secret", Name: "Lan", Role: models.RoleUser,
	})
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("Signed in as Lan")) {
		t.Errorf("expected greeting, got %s", buf.String())
	}
}

func TestSignupCommand_DuplicateEmail(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Email already exists", "statusCode": 409})
	})
	useBackend(t, r)

	var buf bytes.Buffer
	exitCode := runSignup(context.Background(), &buf, models.SignupRequest{Email: "a@subme.test", Password: "x", Name: "A"})
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Email already exists")) {
		t.Errorf("expected backend message, got %s", buf.String())
	}
}

func TestNeedsSignupPrompt(t *testing.T) {
	full := models.SignupRequest{Email: "a@b.c", Password: "p", Name: "A", Role: models.RoleUser}
	if needsSignupPrompt(full) {
		t.Error("complete customer signup should not prompt")
	}
	vendorReq := full
	vendorReq.Role = models.RoleVendor
	if !needsSignupPrompt(vendorReq) {
		t.Error("vendor signup without business name should prompt")
	}
	if !needsSignupPrompt(models.SignupRequest{Email: "a@b.c"}) {
		t.Error("missing password should prompt")
	}
}

func TestWhoamiCommand_NotSignedIn(t *testing.T) {
	useBackend(t, chi.NewRouter())

	var buf bytes.Buffer
	exitCode := runWhoami(context.Background(), &buf)
	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Not signed in")) {
		t.Errorf("expected not signed in message, got %s", buf.String())
	}
}

func TestWhoamiCommand_ExpiredSessionIsCleared(t *testing.T) {
	useBackend(t, chi.NewRouter())
	s := storedSession(t)
	s.SaveToken(context.Background(), tokentest.For(t, 7, customerUser.Email, "user", -time.Minute))
	s.SaveUser(context.Background(), &customerUser)

	var buf bytes.Buffer
	if exitCode := runWhoami(context.Background(), &buf); exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if _, ok := storedSession(t).LoadUser(context.Background()); ok {
		t.Error("expired session should be cleared from storage")
	}
}

func TestLogoutCommand(t *testing.T) {
	useBackend(t, chi.NewRouter())
	signIn(t, customerUser)

	var buf bytes.Buffer
	if exitCode := runLogout(context.Background(), &buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if _, ok := storedSession(t).LoadToken(context.Background()); ok {
		t.Error("logout should clear the stored token")
	}
}

func TestReloadCommand_PicksUpApproval(t *testing.T) {
	useBackend(t, loginRouter(t, models.VendorApproved))
	pending := vendorUser
	pending.Status = models.VendorPending
	signIn(t, pending)

	var buf bytes.Buffer
	exitCode := runReload(context.Background(), &buf)
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("vendor dashboard")) {
		t.Errorf("expected vendor home hint after approval, got %s", buf.String())
	}

	user, ok := storedSession(t).LoadUser(context.Background())
	if !ok || user.Status != models.VendorApproved {
		t.Errorf("expected approved status persisted, got %+v", user)
	}
}

func TestProfileUpdateCommand(t *testing.T) {
	r := chi.NewRouter()
	r.Patch("/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		decodeBody(t, r, &body)
		if _, ok := body["name"]; ok {
			t.Error("unset fields must not be sent")
		}
		if body["phone"] != "0988" {
			t.Errorf("expected phone in body, got %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": 7, "email": customerUser.Email, "name": "Mai", "phone": "0988"}})
	})
	useBackend(t, r)
	signIn(t, customerUser)

	phone := "0988"
	var buf bytes.Buffer
	exitCode := runProfileUpdate(context.Background(), &buf, models.ProfileUpdate{Phone: &phone})
	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}

	user, ok := storedSession(t).LoadUser(context.Background())
	if !ok || user.Phone != "0988" || user.Role != models.RoleUser {
		t.Errorf("expected stored user updated, got %+v", user)
	}
}

func TestProfileUpdateCommand_NothingToUpdate(t *testing.T) {
	useBackend(t, chi.NewRouter())
	signIn(t, customerUser)

	var buf bytes.Buffer
	if exitCode := runProfileUpdate(context.Background(), &buf, models.ProfileUpdate{}); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
}
