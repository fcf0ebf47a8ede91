package model

// Status represents the lifecycle state of a password.
type Status string

const (
	StatusActive  Status = "active"  // Current password, still within its lifespan.
	StatusExpired Status = "expired" // Current password, past its lifespan.
	StatusChanged Status = "changed" // Superseded by a newer password. Terminal.
)

// LifespanUnit represents the unit of a service's password lifespan.
type LifespanUnit string

const (
	LifespanDay   LifespanUnit = "day"
	LifespanMonth LifespanUnit = "month"
	LifespanYear  LifespanUnit = "year"
)

// LifespanUnits lists the seeded lifespan units in seed order.
func LifespanUnits() []LifespanUnit {
	return []LifespanUnit{LifespanDay, LifespanMonth, LifespanYear}
}

// Statuses lists the seeded password statuses in seed order.
func Statuses() []Status {
	return []Status{StatusActive, StatusExpired, StatusChanged}
}
