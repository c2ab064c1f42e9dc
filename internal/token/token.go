// ABOUTME: Token codec for backend-issued bearer tokens
// ABOUTME: Decodes the claims segment without verifying signatures and checks expiry

// Package token reads the claims of the compact three-segment tokens issued
// by the SubMe backend. The client holds no signing keys, so signatures are
// never verified here; the backend remains the authority on validity and a
// decoded token only tells the client who it believes it is and until when.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dangquan18/subme/models"
)

// ErrMalformedToken wraps every decode failure
var ErrMalformedToken = errors.New("malformed token")

// Claims is the decoded middle segment of a token
type Claims struct {
	Subject   models.ID        `json:"sub"`
	Email     string           `json:"email"`
	Role      models.Role      `json:"role"`
	Name      string           `json:"name,omitempty"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`

	// Extra keeps every other claim the backend put in the token
	Extra map[string]any `json:"-"`
}

var knownClaims = map[string]bool{"sub": true, "email": true, "role": true, "name": true, "iat": true, "exp": true}

func (c *Claims) UnmarshalJSON(data []byte) error {
	type plain Claims
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range knownClaims {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}
	*c = Claims(p)
	return nil
}

// MarshalJSON writes Extra alongside the named claims; named claims win on conflict
func (c Claims) MarshalJSON() ([]byte, error) {
	type plain Claims
	named, err := json.Marshal(plain(c))
	if err != nil || len(c.Extra) == 0 {
		return named, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(named, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(c.Extra)+len(fields))
	for k, v := range c.Extra {
		if !knownClaims[k] {
			out[k] = v
		}
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode splits raw into header, claims and signature and parses the claims.
// The header and signature segments are not inspected.
func Decode(raw string) (*Claims, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: claims segment is not base64url: %v", ErrMalformedToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: claims are not a JSON object: %v", ErrMalformedToken, err)
	}

	if err := claims.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return &claims, nil
}

func (c *Claims) validate() error {
	var missing []string
	if c.Subject == "" {
		missing = append(missing, "sub")
	}
	if c.Email == "" {
		missing = append(missing, "email")
	}
	if c.Role == "" {
		missing = append(missing, "role")
	}
	if c.ExpiresAt == nil {
		missing = append(missing, "exp")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing claims: %s", strings.Join(missing, ", "))
	}
	if !c.Role.Valid() {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

// ExpiredAt reports whether exp (whole seconds) is strictly before now.
// A token is still valid during its exp second.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Unix() < now.Unix()
}

// IsExpired checks expiry against the wall clock
func IsExpired(c *Claims) bool {
	return c.ExpiredAt(time.Now())
}

// Expired decodes raw and checks expiry. Tokens that fail to decode are
// reported as expired.
func Expired(raw string, now time.Time) bool {
	c, err := Decode(raw)
	if err != nil {
		return true
	}
	return c.ExpiredAt(now)
}

// User builds the session user record carried by the claims
func (c *Claims) User() *models.User {
	return &models.User{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
		Role:  c.Role,
	}
}

// jwt.Claims implementation, so tokens can be minted with jwt.NewWithClaims

func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c *Claims) GetIssuer() (string, error)                   { return "", nil }
func (c *Claims) GetSubject() (string, error)                  { return c.Subject.String(), nil }
func (c *Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }
