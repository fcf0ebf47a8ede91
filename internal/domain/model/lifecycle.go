package model

import "time"

// ExpiryTime returns the instant at which a password created at createdAt
// stops being valid under the given lifespan policy. ok is false when the
// password never expires (amount < 0).
//
// Month and year amounts use calendar arithmetic: whole months or years are
// added and a day-of-month overflow is clamped to the last valid day of the
// resulting month, so 2023-01-31 plus one month is 2023-02-28, not a fixed
// 30-day offset.
func ExpiryTime(createdAt time.Time, amount int, unit LifespanUnit) (expiry time.Time, ok bool) {
	if amount < 0 {
		return time.Time{}, false
	}

	switch unit {
	case LifespanDay:
		return createdAt.AddDate(0, 0, amount), true
	case LifespanMonth:
		return addMonthsClamped(createdAt, amount), true
	case LifespanYear:
		return addMonthsClamped(createdAt, 12*amount), true
	}

	// Unknown unit: treat as never expiring rather than guessing a duration.
	return time.Time{}, false
}

// EffectiveStatus derives the status a password should report right now.
// changed is terminal and expired never reverts, so only a stored active
// status is ever re-derived: it becomes expired once now reaches the expiry
// instant of the owning service's lifespan policy.
func EffectiveStatus(stored Status, createdAt time.Time, amount int, unit LifespanUnit, now time.Time) Status {
	if stored != StatusActive {
		return stored
	}

	expiry, ok := ExpiryTime(createdAt, amount, unit)
	if ok && !now.Before(expiry) {
		return StatusExpired
	}
	return StatusActive
}

// addMonthsClamped adds months to t, clamping the day of month to the last
// valid day of the target month. time.AddDate alone normalizes overflow into
// the following month (Jan 31 + 1 month = Mar 3), which is not what a
// calendar lifespan means.
func addMonthsClamped(t time.Time, months int) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).
		AddDate(0, months, 0)

	day := t.Day()
	if last := lastDayOfMonth(anchor.Year(), anchor.Month()); day > last {
		day = last
	}

	return time.Date(anchor.Year(), anchor.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
