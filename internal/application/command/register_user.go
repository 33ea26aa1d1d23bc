package command

import (
	"context"
	"errors"

	"github.com/pasantia-hub/placement-hub/internal/domain/shared"
	"github.com/pasantia-hub/placement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Creates an account with one of the three workflow roles. The role is fixed
// at registration; all later authorization derives from it.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the data for a new account.
type RegisterUserCommand struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if c.Name == "" {
		return shared.NewDomainError("user", "Register", shared.ErrInvalidInput, "name is required")
	}
	if c.Email == "" {
		return shared.NewDomainError("user", "Register", shared.ErrInvalidInput, "email is required")
	}
	if !c.Role.IsValid() {
		return shared.NewDomainError("user", "Register", shared.ErrValidation, "role must be student, tutor or company")
	}
	return nil
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	users       user.Repository
	idGenerator IDGenerator
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(users user.Repository, idGenerator IDGenerator) *RegisterUserHandler {
	return &RegisterUserHandler{users: users, idGenerator: idGenerator}
}

// Handle executes the register command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*user.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:       h.idGenerator.GenerateID(),
		Name:     cmd.Name,
		Email:    cmd.Email,
		Password: cmd.Password,
		Role:     cmd.Role,
	})
	if err != nil {
		return nil, shared.WrapError("user", "Register", shared.ErrValidation, "invalid registration", err)
	}

	if err := h.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, shared.WrapError("user", "Register", shared.ErrAlreadyExists, "email is already registered", err)
		}
		return nil, wrapStore("user", "Register", err)
	}

	return u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATE USER COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AuthenticateUserCommand contains login credentials.
type AuthenticateUserCommand struct {
	Email    string
	Password string
}

// AuthenticateUserHandler verifies credentials against the stored hash.
type AuthenticateUserHandler struct {
	users user.Repository
}

// NewAuthenticateUserHandler creates a new AuthenticateUserHandler.
func NewAuthenticateUserHandler(users user.Repository) *AuthenticateUserHandler {
	return &AuthenticateUserHandler{users: users}
}

// Handle verifies the credentials and returns the account on success.
// A missing account and a wrong password report the same error, so the
// endpoint does not leak which emails are registered.
func (h *AuthenticateUserHandler) Handle(ctx context.Context, cmd AuthenticateUserCommand) (*user.User, error) {
	if cmd.Email == "" || cmd.Password == "" {
		return nil, shared.NewDomainError("user", "Login", shared.ErrInvalidInput, "email and password are required")
	}

	u, err := h.users.GetByEmail(ctx, cmd.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, shared.WrapError("user", "Login", shared.ErrUnauthorized, "wrong credentials", user.ErrWrongCredentials)
		}
		return nil, wrapStore("user", "Login", err)
	}

	if !u.CheckPassword(cmd.Password) {
		return nil, shared.WrapError("user", "Login", shared.ErrUnauthorized, "wrong credentials", user.ErrWrongCredentials)
	}

	return u, nil
}
