package billing

import (
	"context"
	"errors"

	"github.com/staffpulse/billing/pkg/cache"
)

// RoleAdmin grants invoice administration.
const RoleAdmin = "admin"

// RoleStore reads a user's role. It returns "" for users without one.
type RoleStore interface {
	UserRole(ctx context.Context, userID string) (string, error)
}

// RoleChecker answers admin checks.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RoleCheckerFunc adapts a function to RoleChecker.
type RoleCheckerFunc func(ctx context.Context, userID string) (bool, error)

func (f RoleCheckerFunc) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return f(ctx, userID)
}

// CachedRoleChecker resolves roles through an expiring cache. A cache miss
// only costs a store read.
type CachedRoleChecker struct {
	store RoleStore
	cache *cache.Expiring[string, string]
}

// NewRoleChecker panics if store or c is nil.
func NewRoleChecker(store RoleStore, c *cache.Expiring[string, string]) *CachedRoleChecker {
	if store == nil {
		panic("billing: RoleStore is required")
	}
	if c == nil {
		panic("billing: role cache is required")
	}
	return &CachedRoleChecker{store: store, cache: c}
}

func (r *CachedRoleChecker) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if role, ok := r.cache.Get(userID); ok {
		return role == RoleAdmin, nil
	}
	role, err := r.store.UserRole(ctx, userID)
	if err != nil {
		return false, errors.Join(ErrFailedToCheckRole, err)
	}
	r.cache.Set(userID, role)
	return role == RoleAdmin, nil
}

// Invalidate drops the cached role for userID.
func (r *CachedRoleChecker) Invalidate(userID string) {
	r.cache.Delete(userID)
}
