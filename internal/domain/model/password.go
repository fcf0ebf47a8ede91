package model

import "time"

// Password is one credential in an account's rotation history. Secret is
// pre-hashed by the caller. CreatedAt is immutable once set; passwords for an
// account are totally ordered by creation time. Status is the only mutable
// field and only ever moves forward (active -> expired, active|expired ->
// changed).
type Password struct {
	ID        int64
	Secret    string
	CreatedAt time.Time
	Status    Status
	AccountID int64
}
