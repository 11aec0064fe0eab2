package goSession

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MrEthical07/goSession/credential"
)

// Identity is the decoded, read-only profile of the authenticated user. It is
// created on login and discarded together with the credential.
type Identity = credential.Identity

// APIError carries the server's error body for a failed auth endpoint call:
// a human-readable message plus optional field-level validation errors.
type APIError struct {
	StatusCode  int               `json:"-"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"errors,omitempty"`
}

// Error describes the error operation and its observable behavior.
//
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.FieldErrors) == 0 {
		return e.Message
	}

	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s (fields: %s)", e.Message, strings.Join(fields, ", "))
}

// PermissionSet is the capability set returned by the permission endpoint for
// the current identity. Order of flags is irrelevant.
type PermissionSet struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// loginRequest is the wire body for the login endpoint.
type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// loginResponse is the wire body returned by the login endpoint.
type loginResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         Identity `json:"user"`
}

// refreshRequest is the wire body for the refresh endpoint.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshResponse is the wire body returned by the refresh endpoint.
type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// logoutRequest is the wire body for the best-effort revocation endpoint.
type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}
