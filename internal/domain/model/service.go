package model

// Service is a named target system with its own credential rules: length
// bounds, a bound format, a duplicate-acceptance flag, and a lifespan policy.
// A LifespanAmount of -1 means passwords for this service never expire.
type Service struct {
	ID                int64
	Name              string
	AcceptsDuplicates bool
	MinLength         int
	MaxLength         int
	LifespanAmount    int
	LifespanUnit      LifespanUnit
	FormatID          int64
}

// DefaultService returns a Service carrying the catalog defaults: duplicates
// accepted, exact 16-character length, never expires.
func DefaultService(name string, unit LifespanUnit, formatID int64) Service {
	return Service{
		Name:              name,
		AcceptsDuplicates: true,
		MinLength:         16,
		MaxLength:         16,
		LifespanAmount:    -1,
		LifespanUnit:      unit,
		FormatID:          formatID,
	}
}
