package freebusy

import (
	"testing"
	"time"

	"github.com/kairoscal/server/engine/instance"
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

// S5: overlapping/adjacent busy instances from two calendars merge into one
// interval.
func TestCompute_MergesOverlappingAcrossCalendars(t *testing.T) {
	instances := []instance.Instance{
		{EventID: 1, Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-01T01:00:00Z"), Busy: true, Status: calendar.StatusConfirmed},
		{EventID: 2, Start: mustUTC("1970-01-01T01:00:01Z"), End: mustUTC("1970-01-01T02:00:01Z"), Busy: true, Status: calendar.StatusConfirmed},
		{EventID: 3, Start: mustUTC("1970-01-01T01:00:00Z"), End: mustUTC("1970-01-01T01:00:01Z"), Busy: true, Status: calendar.StatusConfirmed},
	}

	got := Compute(instances, Window{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-02T00:00:00Z")}, Options{})

	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(mustUTC("1970-01-01T00:00:00Z")))
	assert.True(t, got[0].End.Equal(mustUTC("1970-01-01T02:00:01Z")))
}

func TestCompute_CancelledExcluded(t *testing.T) {
	instances := []instance.Instance{
		{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-01T01:00:00Z"), Busy: true, Status: calendar.StatusCancelled},
	}
	got := Compute(instances, Window{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-02T00:00:00Z")}, Options{})
	assert.Empty(t, got)
}

func TestCompute_TentativeExcludedByDefault(t *testing.T) {
	instances := []instance.Instance{
		{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-01T01:00:00Z"), Busy: true, Status: calendar.StatusTentative},
	}
	window := Window{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-02T00:00:00Z")}

	assert.Empty(t, Compute(instances, window, Options{IncludeTentative: false}))
	assert.Len(t, Compute(instances, window, Options{IncludeTentative: true}), 1)
}

func TestCompute_NonBusyCarvesHole(t *testing.T) {
	instances := []instance.Instance{
		{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-01T03:00:00Z"), Busy: true, Status: calendar.StatusConfirmed},
		{Start: mustUTC("1970-01-01T01:00:00Z"), End: mustUTC("1970-01-01T02:00:00Z"), Busy: false, Status: calendar.StatusConfirmed},
	}
	got := Compute(instances, Window{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-02T00:00:00Z")}, Options{})

	require.Len(t, got, 2)
	assert.True(t, got[0].End.Equal(mustUTC("1970-01-01T01:00:00Z")))
	assert.True(t, got[1].Start.Equal(mustUTC("1970-01-01T02:00:00Z")))
}

func TestCompute_ClipsToWindow(t *testing.T) {
	instances := []instance.Instance{
		{Start: mustUTC("1970-01-01T23:00:00Z"), End: mustUTC("1970-01-02T02:00:00Z"), Busy: true, Status: calendar.StatusConfirmed},
	}
	window := Window{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-02T00:00:00Z")}
	got := Compute(instances, window, Options{})

	require.Len(t, got, 1)
	assert.True(t, got[0].End.Equal(window.End))
}

// S5 invariant 5: multi-user freebusy matches per-user freebusy independently.
func TestComputeMulti_MatchesPerUser(t *testing.T) {
	window := Window{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-02T00:00:00Z")}
	u1 := []instance.Instance{{Start: mustUTC("1970-01-01T00:00:00Z"), End: mustUTC("1970-01-01T01:00:00Z"), Busy: true, Status: calendar.StatusConfirmed}}
	u2 := []instance.Instance{{Start: mustUTC("1970-01-01T05:00:00Z"), End: mustUTC("1970-01-01T06:00:00Z"), Busy: true, Status: calendar.StatusConfirmed}}

	multi := ComputeMulti(map[int64][]instance.Instance{1: u1, 2: u2}, window, Options{})

	assert.Equal(t, Compute(u1, window, Options{}), multi[1])
	assert.Equal(t, Compute(u2, window, Options{}), multi[2])
}
