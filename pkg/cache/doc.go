// Package cache provides a generic, thread-safe, size-bounded LRU cache with
// per-entry expiry.
//
// The billing service uses it to keep user roles for a short while so that
// admin checks do not hit the database on every request:
//
//	roles := cache.NewExpiring[string, string](1024, 5*time.Minute)
//	roles.Set(userID, "admin")
//	role, ok := roles.Get(userID)
//
// The cache is best-effort and per-process. Entries expire lazily: a read of
// an expired key removes it and reports a miss. WithClock injects a time
// source for deterministic tests.
package cache
