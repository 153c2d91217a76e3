package recurrence

import (
	"sort"
	"time"

	"github.com/kairoscal/server/models/calendar"
	"github.com/kairoscal/server/models/timeutil"
)

func effectiveWeekStart(rule calendar.RRuleOptions) time.Weekday {
	if rule.WeekStart != nil {
		return *rule.WeekStart
	}
	return time.Monday
}

// alignFirstPeriod returns the first period anchor at or before dtstartDate
// for rule.Freq.
func alignFirstPeriod(rule calendar.RRuleOptions, dtstartDate timeutil.LocalDate) timeutil.LocalDate {
	switch rule.Freq {
	case calendar.FreqWeekly:
		return startOfWeek(dtstartDate, effectiveWeekStart(rule))
	case calendar.FreqMonthly:
		return timeutil.LocalDate{Year: dtstartDate.Year, Month: dtstartDate.Month, Day: 1}
	case calendar.FreqYearly:
		return timeutil.LocalDate{Year: dtstartDate.Year, Month: time.January, Day: 1}
	default: // daily
		return dtstartDate
	}
}

func startOfWeek(d timeutil.LocalDate, weekStart time.Weekday) timeutil.LocalDate {
	offset := int(d.Weekday()-weekStart+7) % 7
	return d.AddDays(-offset)
}

// advancePeriod steps period forward by rule.Interval periods.
func advancePeriod(rule calendar.RRuleOptions, period timeutil.LocalDate) timeutil.LocalDate {
	switch rule.Freq {
	case calendar.FreqWeekly:
		return period.AddDays(7 * rule.Interval)
	case calendar.FreqMonthly:
		t := time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, rule.Interval, 0)
		return timeutil.LocalDate{Year: t.Year(), Month: t.Month(), Day: 1}
	case calendar.FreqYearly:
		return timeutil.LocalDate{Year: period.Year + rule.Interval, Month: time.January, Day: 1}
	default: // daily
		return period.AddDays(rule.Interval)
	}
}

// candidatesForPeriod returns the sorted candidate local dates the rule
// produces within the period anchored at period, before bysetpos is
// applied.
func candidatesForPeriod(rule calendar.RRuleOptions, period, dtstartDate timeutil.LocalDate) []timeutil.LocalDate {
	switch rule.Freq {
	case calendar.FreqWeekly:
		return weeklyCandidates(rule, period)
	case calendar.FreqMonthly:
		return monthlyCandidates(rule, period, dtstartDate)
	case calendar.FreqYearly:
		return yearlyCandidates(rule, period, dtstartDate)
	default:
		return dailyCandidates(rule, period)
	}
}

func monthAllowed(rule calendar.RRuleOptions, month time.Month) bool {
	if len(rule.ByMonth) == 0 {
		return true
	}
	for _, m := range rule.ByMonth {
		if time.Month(m) == month {
			return true
		}
	}
	return false
}

func weekdayAllowed(weekdays []calendar.ByWeekday, w time.Weekday) bool {
	for _, bw := range weekdays {
		if bw.Weekday == w {
			return true
		}
	}
	return false
}

func dailyCandidates(rule calendar.RRuleOptions, day timeutil.LocalDate) []timeutil.LocalDate {
	if !monthAllowed(rule, day.Month) {
		return nil
	}
	if len(rule.ByWeekday) > 0 && !weekdayAllowed(rule.ByWeekday, day.Weekday()) {
		return nil
	}
	return []timeutil.LocalDate{day}
}

func weeklyCandidates(rule calendar.RRuleOptions, weekStart timeutil.LocalDate) []timeutil.LocalDate {
	weekdays := rule.ByWeekday
	var out []timeutil.LocalDate
	for i := 0; i < 7; i++ {
		d := weekStart.AddDays(i)
		if !monthAllowed(rule, d.Month) {
			continue
		}
		if len(weekdays) > 0 {
			if weekdayAllowed(weekdays, d.Weekday()) {
				out = append(out, d)
			}
			continue
		}
		out = append(out, d)
	}
	return out
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// resolveOrdinal maps a 1-based (or negative, counted from the end) ordinal
// against a count of n items to a 0-based index, or -1 if out of range.
func resolveOrdinal(n, total int) int {
	if n > 0 {
		if n > total {
			return -1
		}
		return n - 1
	}
	if n < 0 {
		idx := total + n
		if idx < 0 {
			return -1
		}
		return idx
	}
	return -1
}

func monthlyCandidates(rule calendar.RRuleOptions, monthStart, dtstartDate timeutil.LocalDate) []timeutil.LocalDate {
	if !monthAllowed(rule, monthStart.Month) {
		return nil
	}
	total := daysInMonth(monthStart.Year, monthStart.Month)

	switch {
	case len(rule.ByMonthDay) > 0:
		var out []timeutil.LocalDate
		for _, md := range rule.ByMonthDay {
			idx := resolveOrdinal(md, total)
			if idx < 0 {
				continue
			}
			out = append(out, timeutil.LocalDate{Year: monthStart.Year, Month: monthStart.Month, Day: idx + 1})
		}
		sortDates(out)
		return out

	case len(rule.ByWeekday) > 0:
		var out []timeutil.LocalDate
		for _, bw := range rule.ByWeekday {
			var occurrences []timeutil.LocalDate
			for day := 1; day <= total; day++ {
				d := timeutil.LocalDate{Year: monthStart.Year, Month: monthStart.Month, Day: day}
				if d.Weekday() == bw.Weekday {
					occurrences = append(occurrences, d)
				}
			}
			if bw.N == 0 {
				out = append(out, occurrences...)
				continue
			}
			idx := resolveOrdinal(bw.N, len(occurrences))
			if idx >= 0 {
				out = append(out, occurrences[idx])
			}
		}
		sortDates(out)
		return dedupDates(out)

	default:
		if dtstartDate.Day > total {
			return nil
		}
		return []timeutil.LocalDate{{Year: monthStart.Year, Month: monthStart.Month, Day: dtstartDate.Day}}
	}
}

func isLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func daysInYear(year int) int {
	if isLeap(year) {
		return 366
	}
	return 365
}

func dateFromYearDay(year, yday int) timeutil.LocalDate {
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, yday-1)
	return timeutil.LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func yearlyCandidates(rule calendar.RRuleOptions, yearStart, dtstartDate timeutil.LocalDate) []timeutil.LocalDate {
	year := yearStart.Year

	switch {
	case len(rule.ByYearDay) > 0:
		total := daysInYear(year)
		var out []timeutil.LocalDate
		for _, yd := range rule.ByYearDay {
			idx := resolveOrdinal(yd, total)
			if idx < 0 {
				continue
			}
			out = append(out, dateFromYearDay(year, idx+1))
		}
		sortDates(out)
		return out

	case len(rule.ByMonth) > 0 && len(rule.ByMonthDay) > 0:
		var out []timeutil.LocalDate
		for _, m := range rule.ByMonth {
			month := time.Month(m)
			total := daysInMonth(year, month)
			for _, md := range rule.ByMonthDay {
				idx := resolveOrdinal(md, total)
				if idx < 0 {
					continue
				}
				out = append(out, timeutil.LocalDate{Year: year, Month: month, Day: idx + 1})
			}
		}
		sortDates(out)
		return out

	case len(rule.ByMonth) > 0:
		var out []timeutil.LocalDate
		for _, m := range rule.ByMonth {
			month := time.Month(m)
			total := daysInMonth(year, month)
			if dtstartDate.Day > total {
				continue
			}
			out = append(out, timeutil.LocalDate{Year: year, Month: month, Day: dtstartDate.Day})
		}
		sortDates(out)
		return out

	case len(rule.ByWeekNo) > 0 && len(rule.ByWeekday) > 0:
		weekStart := effectiveWeekStart(rule)
		jan1 := timeutil.LocalDate{Year: year, Month: time.January, Day: 1}
		firstWeekStart := startOfWeek(jan1, weekStart)
		var out []timeutil.LocalDate
		for _, wn := range rule.ByWeekNo {
			n := wn
			if n < 0 {
				// negative week numbers count from the last week of the
				// ISO year; approximate using 53 weeks per year.
				n = 53 + n + 1
			}
			weekAnchor := firstWeekStart.AddDays((n - 1) * 7)
			for _, bw := range rule.ByWeekday {
				offset := int(bw.Weekday-weekStart+7) % 7
				d := weekAnchor.AddDays(offset)
				if d.Year == year {
					out = append(out, d)
				}
			}
		}
		sortDates(out)
		return dedupDates(out)

	default:
		total := daysInMonth(year, dtstartDate.Month)
		if dtstartDate.Day > total {
			return nil
		}
		return []timeutil.LocalDate{{Year: year, Month: dtstartDate.Month, Day: dtstartDate.Day}}
	}
}

func sortDates(dates []timeutil.LocalDate) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

func dedupDates(dates []timeutil.LocalDate) []timeutil.LocalDate {
	out := dates[:0:0]
	for i, d := range dates {
		if i == 0 || !d.Equal(dates[i-1]) {
			out = append(out, d)
		}
	}
	return out
}

// applyBySetPos selects the ordinal positions of dates named by
// rule.BySetPos, or returns dates unchanged when BySetPos is empty.
func applyBySetPos(rule calendar.RRuleOptions, dates []timeutil.LocalDate) []timeutil.LocalDate {
	if len(rule.BySetPos) == 0 {
		return dates
	}
	sortDates(dates)
	var out []timeutil.LocalDate
	seen := make(map[int]bool, len(rule.BySetPos))
	for _, pos := range rule.BySetPos {
		idx := resolveOrdinal(pos, len(dates))
		if idx < 0 || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, dates[idx])
	}
	sortDates(out)
	return out
}

// toUTCSorted converts each candidate date to a UTC instant using dtstart's
// local time-of-day in loc, then sorts ascending.
func toUTCSorted(dates []timeutil.LocalDate, dtstart time.Time, loc *time.Location) []time.Time {
	local := dtstart.In(loc)
	h, m, s := local.Clock()
	ns := local.Nanosecond()

	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		t := time.Date(d.Year, d.Month, d.Day, h, m, s, ns, loc).UTC()
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
