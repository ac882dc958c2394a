package repository

import (
	"context"
	"testing"

	"courtbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	u := &domain.User{
		Email:        "  Marco@Example.com ",
		PasswordHash: "hash",
		Name:         "Marco Rossi",
		Phone:        "+39 333 1234567",
		Role:         domain.RoleUser,
		Status:       domain.UserPending,
	}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "marco@example.com", u.Email)

	got, err := repo.GetByEmail(ctx, "MARCO@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := &domain.User{Email: "marco@example.com", PasswordHash: "x", Name: "Other", Role: domain.RoleUser, Status: domain.UserPending}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrConflict)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_ListAndUpdateStatus(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	users := []*domain.User{
		{Email: "anna@example.com", Name: "Anna Bianchi", Phone: "3471112222", Status: domain.UserPending},
		{Email: "luca@example.com", Name: "Luca Verdi", Status: domain.UserActive},
		{Email: "sara@club.it", Name: "Sara Neri", Status: domain.UserActive},
	}
	for _, u := range users {
		u.PasswordHash = "hash"
		u.Role = domain.RoleUser
		require.NoError(t, repo.Create(ctx, u))
	}

	pending, total, err := repo.List(ctx, domain.UserFilter{Status: domain.UserPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Anna Bianchi", pending[0].Name)

	_, total, err = repo.List(ctx, domain.UserFilter{Query: "CLUB.IT"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = repo.List(ctx, domain.UserFilter{Query: "111"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	require.NoError(t, repo.UpdateStatus(ctx, users[0].ID, domain.UserActive))
	got, err := repo.GetByID(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserActive, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 9999, domain.UserActive), domain.ErrNotFound)
}
