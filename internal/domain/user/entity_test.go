package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validParams() NewUserParams {
	return NewUserParams{
		ID:       "user-1",
		Name:     "Aruzhan Bekova",
		Email:    "aruzhan@example.com",
		Password: "secret1",
		Role:     RoleStudent,
	}
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(validParams())
	require.NoError(t, err)

	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "aruzhan@example.com", u.Email)
	assert.Equal(t, RoleStudent, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestNewUser_NormalizesFields(t *testing.T) {
	params := validParams()
	params.Name = "  Aruzhan Bekova  "
	params.Email = "  ARUZHAN@Example.COM "

	u, err := NewUser(params)
	require.NoError(t, err)

	assert.Equal(t, "Aruzhan Bekova", u.Name)
	assert.Equal(t, "aruzhan@example.com", u.Email)
}

func TestNewUser_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewUserParams)
		wantErr error
	}{
		{"empty name", func(p *NewUserParams) { p.Name = "   " }, ErrInvalidName},
		{"missing at sign", func(p *NewUserParams) { p.Email = "not-an-email" }, ErrInvalidEmail},
		{"short password", func(p *NewUserParams) { p.Password = "abc" }, ErrInvalidPassword},
		{"unknown role", func(p *NewUserParams) { p.Role = Role("admin") }, ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			_, err := NewUser(params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	u, err := NewUser(validParams())
	require.NoError(t, err)

	assert.True(t, u.CheckPassword("secret1"))
	assert.False(t, u.CheckPassword("wrong-password"))
}

func TestRename(t *testing.T) {
	u, err := NewUser(validParams())
	require.NoError(t, err)

	require.NoError(t, u.Rename("New Name"))
	assert.Equal(t, "New Name", u.Name)

	assert.ErrorIs(t, u.Rename(""), ErrInvalidName)
}

func TestRoleChecks(t *testing.T) {
	assert.True(t, Role("tutor").IsValid())
	assert.False(t, Role("admin").IsValid())

	params := validParams()
	params.Role = RoleCompany
	u, err := NewUser(params)
	require.NoError(t, err)

	assert.True(t, u.IsCompany())
	assert.False(t, u.IsStudent())
	assert.False(t, u.IsTutor())
}
