package model

// Account is a registration of a profile with a service, identified by a
// user identifier such as a login name. An account belongs to exactly one
// profile and one service for its lifetime and owns an ordered history of
// passwords.
type Account struct {
	ID             int64
	UserIdentifier string
	ProfileID      int64
	ServiceID      int64
}
