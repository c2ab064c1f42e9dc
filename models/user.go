// ABOUTME: Identity models shared by the token codec, session and services
// ABOUTME: Defines IDs, roles, vendor approval states and the session user record

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a backend identifier. The backend emits numeric ids in some payloads
// and string ids in others; both decode into the same value.
type ID string

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string, number or null
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so request bodies match what the
// backend validates against
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) numeric() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

// Role is the closed set of principal kinds
type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of user, vendor, admin
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes case and whitespace
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// VendorStatus is the backend-owned approval state of a vendor account.
// The backend uses "approved" on vendor records and "active" on some
// profile payloads; both mean the vendor may operate.
type VendorStatus string

const (
	VendorPending  VendorStatus = "pending"
	VendorApproved VendorStatus = "approved"
	VendorActive   VendorStatus = "active"
	VendorRejected VendorStatus = "rejected"
)

// Active reports whether the vendor has been approved
func (s VendorStatus) Active() bool {
	return s == VendorApproved || s == VendorActive
}

// User is the denormalized snapshot of the authenticated principal
type User struct {
	ID      ID           `json:"id"`
	Email   string       `json:"email"`
	Name    string       `json:"name,omitempty"`
	Role    Role         `json:"role"`
	Status  VendorStatus `json:"status,omitempty"` // meaningful only for vendors
	Phone   string       `json:"phone,omitempty"`
	Address string       `json:"address,omitempty"`
	Avatar  string       `json:"avatar,omitempty"`

	// Vendor profile fields, filled by enrichment
	VendorID     ID     `json:"vendor_id,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
}

// IsVendor reports whether the user has the vendor role
func (u *User) IsVendor() bool { return u != nil && u.Role == RoleVendor }

// Clone returns a copy safe to hand to other goroutines
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Merge fills empty fields of u from other. Identity fields of u win.
func (u *User) Merge(other *User) {
	if other == nil {
		return
	}
	if u.ID == "" {
		u.ID = other.ID
	}
	if u.Email == "" {
		u.Email = other.Email
	}
	if u.Name == "" {
		u.Name = other.Name
	}
	if u.Role == "" {
		u.Role = other.Role
	}
	if u.Status == "" {
		u.Status = other.Status
	}
	if u.Phone == "" {
		u.Phone = other.Phone
	}
	if u.Address == "" {
		u.Address = other.Address
	}
	if u.Avatar == "" {
		u.Avatar = other.Avatar
	}
	if u.VendorID == "" {
		u.VendorID = other.VendorID
	}
	if u.BusinessName == "" {
		u.BusinessName = other.BusinessName
	}
}

// LoginRequest represents credentials for authentication
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest registers a customer or vendor account
type SignupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Role         Role   `json:"role,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
}

// AuthResponse is returned by login and signup
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user,omitempty"`
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Avatar  *string `json:"avatar,omitempty"`
}
