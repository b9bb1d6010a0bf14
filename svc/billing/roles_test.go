package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staffpulse/billing/pkg/cache"
	"github.com/staffpulse/billing/svc/billing"
)

type mockRoleStore struct {
	mock.Mock
}

func (m *mockRoleStore) UserRole(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func TestCachedRoleChecker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := &testClock{t: testNow}
	store := &mockRoleStore{}
	store.On("UserRole", mock.Anything, "admin-1").Return("admin", nil).Twice()
	store.On("UserRole", mock.Anything, "user-1").Return("", nil).Once()

	checker := billing.NewRoleChecker(store, cache.NewExpiring[string, string](16, 5*time.Minute, cache.WithClock(clock.Now)))

	for range 3 {
		ok, err := checker.IsAdmin(ctx, "admin-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := checker.IsAdmin(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = checker.IsAdmin(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(6 * time.Minute)
	ok, err = checker.IsAdmin(ctx, "admin-1")
	require.NoError(t, err)
	assert.True(t, ok)

	store.AssertExpectations(t)
}

func TestCachedRoleChecker_Invalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := &mockRoleStore{}
	store.On("UserRole", mock.Anything, "u1").Return("admin", nil).Once()
	store.On("UserRole", mock.Anything, "u1").Return("member", nil).Once()
	checker := billing.NewRoleChecker(store, cache.NewExpiring[string, string](16, time.Hour))

	ok, _ := checker.IsAdmin(ctx, "u1")
	assert.True(t, ok)
	checker.Invalidate("u1")
	ok, _ = checker.IsAdmin(ctx, "u1")
	assert.False(t, ok)
}

func TestCachedRoleChecker_StoreErrorIsNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := &mockRoleStore{}
	store.On("UserRole", mock.Anything, "u1").Return("", errors.New("conn refused")).Once()
	store.On("UserRole", mock.Anything, "u1").Return("admin", nil).Once()
	checker := billing.NewRoleChecker(store, cache.NewExpiring[string, string](16, time.Hour))

	_, err := checker.IsAdmin(ctx, "u1")
	require.ErrorIs(t, err, billing.ErrFailedToCheckRole)

	ok, err := checker.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCachedRoleChecker_EmptyUser(t *testing.T) {
	t.Parallel()
	store := &mockRoleStore{}
	checker := billing.NewRoleChecker(store, cache.NewExpiring[string, string](16, time.Hour))

	ok, err := checker.IsAdmin(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
	store.AssertNotCalled(t, "UserRole", mock.Anything, mock.Anything)
}
