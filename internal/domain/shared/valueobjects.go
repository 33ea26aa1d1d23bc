// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// UserID represents a unique user identifier (UUID format).
type UserID string

// IsValid checks if the user ID is a valid UUID.
func (u UserID) IsValid() bool {
	return uuidRegex.MatchString(string(u))
}

// String returns the string representation.
func (u UserID) String() string {
	return string(u)
}

// IsEmpty checks if the ID is empty.
func (u UserID) IsEmpty() bool {
	return u == ""
}

// NewUserID creates a new UserID with validation.
func NewUserID(id string) (UserID, error) {
	uid := UserID(strings.ToLower(strings.TrimSpace(id)))
	if !uid.IsValid() {
		return "", NewDomainError("shared", "NewUserID", ErrInvalidID, "invalid user ID format")
	}
	return uid, nil
}

// ApplicationID represents a unique application identifier (UUID format).
type ApplicationID string

// IsValid checks if the application ID is a valid UUID.
func (a ApplicationID) IsValid() bool {
	return uuidRegex.MatchString(string(a))
}

// String returns the string representation.
func (a ApplicationID) String() string {
	return string(a)
}

// IsEmpty checks if the ID is empty.
func (a ApplicationID) IsEmpty() bool {
	return a == ""
}

// InternshipID represents a unique internship identifier (UUID format).
type InternshipID string

// IsValid checks if the internship ID is a valid UUID.
func (i InternshipID) IsValid() bool {
	return uuidRegex.MatchString(string(i))
}

// String returns the string representation.
func (i InternshipID) String() string {
	return string(i)
}

// IsEmpty checks if the ID is empty.
func (i InternshipID) IsEmpty() bool {
	return i == ""
}

// ═══════════════════════════════════════════════════════════════════════════
// Idempotency Key
// ═══════════════════════════════════════════════════════════════════════════

// IdempotencyKey is a client-supplied token that makes create-type operations
// safe to retry after a timeout. Empty means the caller opted out.
type IdempotencyKey string

// IsZero reports whether the caller supplied no key.
func (k IdempotencyKey) IsZero() bool {
	return strings.TrimSpace(string(k)) == ""
}

// String returns the string representation.
func (k IdempotencyKey) String() string {
	return string(k)
}

// ═══════════════════════════════════════════════════════════════════════════
// Version (optimistic concurrency)
// ═══════════════════════════════════════════════════════════════════════════

// Version is a monotonically increasing entity revision used for
// compare-and-swap writes against the record store.
type Version int64

// Next returns the version a successful write must produce.
func (v Version) Next() Version {
	return v + 1
}
