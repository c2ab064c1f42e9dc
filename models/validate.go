// ABOUTME: Required-field checks for single records returned by the backend
// ABOUTME: A record failing its check is treated as a response shape mismatch

package models

import "fmt"

// MissingFieldError names the required field a record arrived without
type MissingFieldError struct {
	Record string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s record is missing %q", e.Record, e.Field)
}

// Validate requires the fields every user payload carries. Role is optional
// because profile updates return the record without it.
func (u User) Validate() error {
	if u.ID == "" {
		return &MissingFieldError{Record: "user", Field: "id"}
	}
	if u.Email == "" {
		return &MissingFieldError{Record: "user", Field: "email"}
	}
	return nil
}

// Validate requires the approval status; routing depends on it
func (v Vendor) Validate() error {
	if v.Status == "" {
		return &MissingFieldError{Record: "vendor", Field: "status"}
	}
	return nil
}

// Validate requires the plan id
func (p Package) Validate() error {
	if p.ID == "" {
		return &MissingFieldError{Record: "package", Field: "id"}
	}
	return nil
}

// Validate requires the subscription id
func (s Subscription) Validate() error {
	if s.ID == "" {
		return &MissingFieldError{Record: "subscription", Field: "id"}
	}
	return nil
}
