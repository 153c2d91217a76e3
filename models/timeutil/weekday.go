package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// weekdayCodes mirrors RFC5545's two-letter-ish convention but keeps the
// three-letter form the pack's recurrence_rule.go already used
// (ValidWeekdays), generalized into a bidirectional lookup.
var weekdayCodes = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "SUN",
	time.Monday:    "MON",
	time.Tuesday:   "TUE",
	time.Wednesday: "WED",
	time.Thursday:  "THU",
	time.Friday:    "FRI",
	time.Saturday:  "SAT",
}

// WeekdayName returns the three-letter code for w.
func WeekdayName(w time.Weekday) string {
	return weekdayNames[w]
}

// ParseWeekday parses a bare three-letter weekday code ("MON").
func ParseWeekday(s string) (time.Weekday, error) {
	w, ok := weekdayCodes[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("timeutil: invalid weekday %q", s)
	}
	return w, nil
}

// OrdinalWeekday is a BYDAY-style weekday reference with an optional
// ordinal prefix, e.g. "MON" alone, "+1MON" (first Monday), "-1FRI" (last
// Friday of the period).
type OrdinalWeekday struct {
	Weekday time.Weekday
	// N is the ordinal position (1 = first, -1 = last) within the
	// enclosing period. Zero means "every occurrence of this weekday".
	N int
}

// ParseOrdinalWeekday parses strings like "MON", "+1MON", "-1FRI", "2TUE".
func ParseOrdinalWeekday(s string) (OrdinalWeekday, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 3 {
		return OrdinalWeekday{}, fmt.Errorf("timeutil: invalid weekday rule %q", s)
	}
	code := s[len(s)-3:]
	wd, err := ParseWeekday(code)
	if err != nil {
		return OrdinalWeekday{}, fmt.Errorf("timeutil: invalid weekday rule %q: %w", s, err)
	}
	prefix := strings.TrimSpace(s[:len(s)-3])
	if prefix == "" {
		return OrdinalWeekday{Weekday: wd}, nil
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return OrdinalWeekday{}, fmt.Errorf("timeutil: invalid weekday ordinal %q: %w", s, err)
	}
	if n == 0 || n > 53 || n < -53 {
		return OrdinalWeekday{}, fmt.Errorf("timeutil: weekday ordinal %d out of range", n)
	}
	return OrdinalWeekday{Weekday: wd, N: n}, nil
}

// String formats the ordinal weekday back to its RRULE-style form.
func (o OrdinalWeekday) String() string {
	if o.N == 0 {
		return WeekdayName(o.Weekday)
	}
	return fmt.Sprintf("%+d%s", o.N, WeekdayName(o.Weekday))
}
