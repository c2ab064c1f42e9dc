// ABOUTME: Auth service for login, signup and the current user's profile
// ABOUTME: Login and signup are sent without a bearer token

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dangquan18/subme/internal/client"
	"github.com/dangquan18/subme/models"
)

// AuthService covers /auth
type AuthService struct {
	r Requester
}

// Login exchanges credentials for a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	return s.issue(ctx, "/auth/login", req)
}

// Signup registers an account and returns its first token
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	return s.issue(ctx, "/auth/signup", req)
}

func (s *AuthService) issue(ctx context.Context, path string, body any) (*models.AuthResponse, error) {
	resp, err := send[models.AuthResponse](ctx, s.r, http.MethodPost, path, body, client.NoAuth())
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.AccessToken == "" {
		return nil, fmt.Errorf("POST %s: %w: no access_token", path, ErrUnexpectedShape)
	}
	return resp, nil
}

// Me returns the profile of the authenticated user
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	return getOne[models.User](ctx, s.r, "/auth/me")
}

// UpdateProfile patches the editable profile fields
func (s *AuthService) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.User, error) {
	return send[models.User](ctx, s.r, http.MethodPatch, "/auth/profile", upd)
}
