// Package model contains the vault's domain entities: profiles, accounts,
// passwords, services, and formats, plus the pure lifecycle functions that
// derive a password's effective status from its service's lifespan policy.
package model

// Profile is a single user's vault. It owns accounts and custom formats and
// isolates them from every other profile. Name is unique across all profiles.
// Password is an opaque credential blob, hashed by the caller before storage.
type Profile struct {
	ID       int64
	Name     string
	Password string
}
