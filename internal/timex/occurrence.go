package timex

import "time"

// NextOccurrence keeps the wall-clock time of day of t and moves it to the
// date of now. If that instant is already in the past it moves one more day
// forward. An instant equal to now is not considered past.
//
// The result is expressed in now's location.
func NextOccurrence(t, now time.Time) time.Time {
	t = t.In(now.Location())
	y, m, d := now.Date()
	next := time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), now.Location())
	if next.Before(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ParseTimeOfDay parses "HH:MM" (or "HH:MM:SS") and returns its next
// occurrence relative to now.
func ParseTimeOfDay(s string, now time.Time) (time.Time, error) {
	var (
		t   time.Time
		err error
	)
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err = time.ParseInLocation(layout, s, now.Location())
		if err == nil {
			return NextOccurrence(t, now), nil
		}
	}
	return time.Time{}, err
}
