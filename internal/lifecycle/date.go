package lifecycle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat is returned when a date or time component is not numeric.
var ErrInvalidDateFormat = errors.New("invalid date format")

// InstantLayout is the iCalendar UTC DATE-TIME form, e.g. 20260124T170000Z.
const InstantLayout = "20060102T150405Z"

// ParseEventDate builds an absolute instant from a "YYYY/MM/DD" date and an
// optional "HH:mm" time. The numbers are used as UTC components directly; no
// zone conversion or DST adjustment happens. A blank clock means 00:00.
//
// Format is validated upstream, so the date is only split and coerced; out of
// range values roll over the way time.Date normalizes them.
func ParseEventDate(date, clock string) (time.Time, error) {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidDateFormat, date)
	}

	ymd := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidDateFormat, date)
		}
		ymd[i] = n
	}

	hours, minutes := 0, 0
	if strings.TrimSpace(clock) != "" {
		tp := strings.Split(clock, ":")
		var err error
		if hours, err = strconv.Atoi(tp[0]); err != nil {
			return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalidDateFormat, clock)
		}
		if len(tp) > 1 {
			if minutes, err = strconv.Atoi(tp[1]); err != nil {
				return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalidDateFormat, clock)
			}
		}
	}

	return time.Date(ymd[0], time.Month(ymd[1]), ymd[2], hours, minutes, 0, 0, time.UTC), nil
}

// FormatInstant renders t in UTC as YYYYMMDDTHHMMSSZ.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// ParseInstant is the inverse of FormatInstant.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(InstantLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: instant %q", ErrInvalidDateFormat, s)
	}
	return t, nil
}
