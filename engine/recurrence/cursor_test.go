package recurrence

import (
	"context"
	"testing"
	"time"

	"github.com/kairoscal/server/models/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUTC(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func drain(t *testing.T, c *Cursor) []time.Time {
	t.Helper()
	var out []time.Time
	ctx := context.Background()
	for {
		next, ok := c.Next(ctx)
		if !ok {
			return out
		}
		out = append(out, next)
	}
}

// S1: daily recurrence, count=10.
func TestCursor_DailyCount(t *testing.T) {
	count := 10
	dtstart := mustUTC("1970-01-01T00:00:00.001Z")
	c, err := New(Options{
		Rule:     calendar.RRuleOptions{Freq: calendar.FreqDaily, Interval: 1, Count: &count},
		DTStart:  dtstart,
		Location: time.UTC,
		Window: Window{
			Start: mustUTC("1970-01-01T00:00:00.020Z"),
			End:   mustUTC("1970-01-11T00:00:00.001Z"),
		},
	})
	require.NoError(t, err)

	got := drain(t, c)
	require.Len(t, got, 10)
	for k, instant := range got {
		want := dtstart.Add(time.Duration(k) * 24 * time.Hour)
		assert.True(t, instant.Equal(want), "instance %d: got %s want %s", k, instant, want)
	}
}

// S2: empty window after horizon.
func TestCursor_EmptyAfterHorizon(t *testing.T) {
	count := 10
	dtstart := mustUTC("1970-01-01T00:00:00.001Z")
	c, err := New(Options{
		Rule:     calendar.RRuleOptions{Freq: calendar.FreqDaily, Interval: 1, Count: &count},
		DTStart:  dtstart,
		Location: time.UTC,
		Window: Window{
			Start: mustUTC("1970-01-12T00:00:00.000Z"),
			End:   mustUTC("1970-02-10T00:00:00.000Z"),
		},
	})
	require.NoError(t, err)

	got := drain(t, c)
	assert.Empty(t, got)
}

// S3: exdate drops one occurrence.
func TestCursor_ExdateDropsOccurrence(t *testing.T) {
	count := 10
	dtstart := mustUTC("1970-01-01T00:00:00.001Z")
	c, err := New(Options{
		Rule:     calendar.RRuleOptions{Freq: calendar.FreqDaily, Interval: 1, Count: &count},
		DTStart:  dtstart,
		Location: time.UTC,
		Exdates:  []time.Time{mustUTC("1970-01-02T00:00:00.001Z")},
		Window: Window{
			Start: mustUTC("1970-01-01T00:00:00.020Z"),
			End:   mustUTC("1970-01-11T00:00:00.001Z"),
		},
	})
	require.NoError(t, err)

	got := drain(t, c)
	require.Len(t, got, 9)
	assert.False(t, got[1].Equal(mustUTC("1970-01-02T00:00:00.001Z")))
}

func TestCursor_MonotonicallyIncreasing(t *testing.T) {
	count := 20
	c, err := New(Options{
		Rule:     calendar.RRuleOptions{Freq: calendar.FreqWeekly, Interval: 1, Count: &count, ByWeekday: []calendar.ByWeekday{{Weekday: time.Monday}, {Weekday: time.Wednesday}, {Weekday: time.Friday}}},
		DTStart:  mustUTC("2024-01-01T09:00:00Z"), // a Monday
		Location: time.UTC,
		Window: Window{
			Start: mustUTC("2024-01-01T00:00:00Z"),
			End:   mustUTC("2024-12-31T00:00:00Z"),
		},
	})
	require.NoError(t, err)

	got := drain(t, c)
	require.Len(t, got, 20)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].After(got[i-1]), "instance %d not strictly after %d", i, i-1)
	}
}

func TestCursor_MonthlyByMonthDayNegative(t *testing.T) {
	count := 3
	c, err := New(Options{
		Rule:     calendar.RRuleOptions{Freq: calendar.FreqMonthly, Interval: 1, Count: &count, ByMonthDay: []int{-1}},
		DTStart:  mustUTC("2024-01-01T10:00:00Z"),
		Location: time.UTC,
		Window: Window{
			Start: mustUTC("2024-01-01T00:00:00Z"),
			End:   mustUTC("2024-12-31T00:00:00Z"),
		},
	})
	require.NoError(t, err)

	got := drain(t, c)
	require.Len(t, got, 3)
	assert.Equal(t, 31, got[0].Day()) // Jan 31
	assert.Equal(t, 29, got[1].Day()) // Feb 29, 2024 is a leap year
	assert.Equal(t, 31, got[2].Day()) // Mar 31
}

func TestCursor_RejectsInvalidRule(t *testing.T) {
	_, err := New(Options{
		Rule:     calendar.RRuleOptions{Freq: "bogus", Interval: 1},
		DTStart:  mustUTC("2024-01-01T00:00:00Z"),
		Location: time.UTC,
		Window:   Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-02-01T00:00:00Z")},
	})
	assert.Error(t, err)
}

func TestCursor_CancellationStopsEnumeration(t *testing.T) {
	c, err := New(Options{
		Rule:     calendar.RRuleOptions{Freq: calendar.FreqDaily, Interval: 1},
		DTStart:  mustUTC("2024-01-01T00:00:00Z"),
		Location: time.UTC,
		Window:   Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2030-01-01T00:00:00Z")},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := c.Next(ctx)
	assert.False(t, ok)
}
