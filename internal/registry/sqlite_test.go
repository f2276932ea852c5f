package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rsawant/fieldledger/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRegistry(t *testing.T) *SQLiteRegistry {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "registry.db")
	reg, err := NewSQLiteRegistry(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	return reg
}

func TestNewSQLiteRegistry(t *testing.T) {
	t.Run("creates database and parent directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "registry.db")
		reg, err := NewSQLiteRegistry(dbPath)
		require.NoError(t, err)
		defer func() { _ = reg.Close() }()

		ok, err := reg.IsRegistered(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := NewSQLiteRegistry("  ")
		assert.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a new user", func(t *testing.T) {
		reg := setupTestRegistry(t)

		err := reg.Register(ctx, 42, "Ravi", "JohnLee")
		require.NoError(t, err)

		ok, err := reg.IsRegistered(ctx, 42)
		require.NoError(t, err)
		assert.True(t, ok)

		company, err := reg.Company(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "JohnLee", company)
	})

	t.Run("duplicate user ID fails", func(t *testing.T) {
		reg := setupTestRegistry(t)

		require.NoError(t, reg.Register(ctx, 42, "Ravi", "JohnLee"))

		err := reg.Register(ctx, 42, "Someone Else", "OtherCo")
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)

		// Original registration is untouched.
		company, err := reg.Company(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "JohnLee", company)
	})

	t.Run("rejects blank fields", func(t *testing.T) {
		reg := setupTestRegistry(t)

		assert.Error(t, reg.Register(ctx, 1, "", "JohnLee"))
		assert.Error(t, reg.Register(ctx, 1, "Ravi", "  "))
	})
}

func TestCompany(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user returns not found", func(t *testing.T) {
		reg := setupTestRegistry(t)

		_, err := reg.Company(ctx, 999)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestSwitchCompany(t *testing.T) {
	ctx := context.Background()

	t.Run("moves a user to another company", func(t *testing.T) {
		reg := setupTestRegistry(t)
		require.NoError(t, reg.Register(ctx, 42, "Ravi", "JohnLee"))

		err := reg.SwitchCompany(ctx, 42, "Medco")
		require.NoError(t, err)

		company, err := reg.Company(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "Medco", company)
	})

	t.Run("unknown user returns not found", func(t *testing.T) {
		reg := setupTestRegistry(t)

		err := reg.SwitchCompany(ctx, 999, "Medco")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("rejects blank company", func(t *testing.T) {
		reg := setupTestRegistry(t)
		require.NoError(t, reg.Register(ctx, 42, "Ravi", "JohnLee"))

		assert.Error(t, reg.SwitchCompany(ctx, 42, " "))
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the full record", func(t *testing.T) {
		reg := setupTestRegistry(t)
		require.NoError(t, reg.Register(ctx, 42, "Ravi", "JohnLee"))

		user, err := reg.Get(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.UserID)
		assert.Equal(t, "Ravi", user.Name)
		assert.Equal(t, "JohnLee", user.Company)
		assert.Equal(t, "user", user.Role)
		assert.False(t, user.RegisteredAt.IsZero())
	})

	t.Run("unknown user returns not found", func(t *testing.T) {
		reg := setupTestRegistry(t)

		_, err := reg.Get(ctx, 999)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestListByCompany(t *testing.T) {
	ctx := context.Background()

	t.Run("returns users sorted by name", func(t *testing.T) {
		reg := setupTestRegistry(t)
		require.NoError(t, reg.Register(ctx, 1, "Zara", "JohnLee"))
		require.NoError(t, reg.Register(ctx, 2, "Amit", "JohnLee"))
		require.NoError(t, reg.Register(ctx, 3, "Ravi", "Medco"))

		users, err := reg.ListByCompany(ctx, "JohnLee")
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Amit", users[0].Name)
		assert.Equal(t, "Zara", users[1].Name)
	})

	t.Run("empty company returns no users", func(t *testing.T) {
		reg := setupTestRegistry(t)

		users, err := reg.ListByCompany(ctx, "Nobody")
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}
