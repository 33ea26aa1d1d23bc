// Package user contains the identity model for the placement hub.
// A user is a student, a tutor, or a company; the role tag is immutable
// once the account is created.
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role determines which workflow operations an account may invoke.
type Role string

const (
	// RoleStudent - submits applications and logs internship hours.
	RoleStudent Role = "student"
	// RoleTutor - reviews pending applications.
	RoleTutor Role = "tutor"
	// RoleCompany - decides on approved applications.
	RoleCompany Role = "company"
)

// IsValid checks that the role is one of the known tags.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleCompany:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// User is an account identified by email, tagged with exactly one role.
type User struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// Name - display name, shown on dashboards and denormalized onto
	// applications at submission time.
	Name string

	// Email - login identifier, unique across all roles.
	Email string

	// PasswordHash - bcrypt hash of the account password.
	PasswordHash string

	// Role - student, tutor, or company. Immutable after creation.
	Role Role

	// CreatedAt - time the account was registered.
	CreatedAt time.Time

	// UpdatedAt - time of the last display-attribute change.
	UpdatedAt time.Time
}

// Domain errors.
var (
	// ErrUserNotFound - user not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken - email already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidRole - unknown role tag.
	ErrInvalidRole = errors.New("invalid user role")

	// ErrInvalidName - empty or oversized display name.
	ErrInvalidName = errors.New("invalid name: must be 1-100 chars")

	// ErrInvalidEmail - malformed email.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidPassword - password does not meet the minimum length.
	ErrInvalidPassword = errors.New("invalid password: must be at least 6 chars")

	// ErrWrongCredentials - email/password pair does not match.
	ErrWrongCredentials = errors.New("wrong credentials")
)

// NewUserParams contains parameters for creating a new user.
type NewUserParams struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     Role
}

// NewUser creates a new user with validation and password hashing.
func NewUser(params NewUserParams) (*User, error) {
	if params.ID == "" {
		return nil, errors.New("user id is required")
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 100 {
		return nil, ErrInvalidName
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if len(email) < 3 || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if len(params.Password) < 6 {
		return nil, ErrInvalidPassword
	}

	if !params.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()

	return &User{
		ID:           params.ID,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         params.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Rename updates the display name. The role and email never change.
func (u *User) Rename(name string) error {
	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 100 {
		return ErrInvalidName
	}
	u.Name = name
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// IsStudent reports whether the account carries the student role.
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsTutor reports whether the account carries the tutor role.
func (u *User) IsTutor() bool { return u.Role == RoleTutor }

// IsCompany reports whether the account carries the company role.
func (u *User) IsCompany() bool { return u.Role == RoleCompany }

// String returns a string representation for logging.
func (u *User) String() string {
	return fmt.Sprintf("User{ID: %s, Email: %s, Role: %s}", u.ID, u.Email, u.Role)
}
