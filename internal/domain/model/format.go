package model

// Format is a named validation pattern a credential must satisfy as a
// full-string regular-expression match. ProfileID is nil for built-in global
// formats and set for a profile's custom formats.
type Format struct {
	ID          int64
	Name        string
	Pattern     string
	Description string
	ProfileID   *int64
}
