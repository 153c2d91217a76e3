package booking

import (
	"testing"
	"time"

	"github.com/kairoscal/server/models/booking"
	"github.com/kairoscal/server/models/timeutil"
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

func svc(policy booking.MultiPersonPolicy, resources ...booking.ServiceResource) *booking.Service {
	return &booking.Service{AccountID: 1, Name: "svc", Resources: resources, MultiPersonPolicy: policy}
}

func res(userID int64) booking.ServiceResource {
	return booking.ServiceResource{UserID: userID, Availability: booking.AvailabilityCalendar, CalendarID: ptr(int64(1))}
}

func ptr(v int64) *int64 { return &v }

func TestGenerate_CollectiveSingleResource(t *testing.T) {
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyCollective}, res(1))

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 30 * time.Minute,
		Resources: []ResourceAvailability{
			{Resource: res(1), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T10:00:00Z")}}},
		},
	})

	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 2)
	assert.True(t, days[0].Slots[0].Start.Equal(mustUTC("2024-01-01T09:00:00Z")))
	assert.True(t, days[0].Slots[1].Start.Equal(mustUTC("2024-01-01T09:30:00Z")))
}

func TestGenerate_CollectiveRequiresAllResources(t *testing.T) {
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyCollective}, res(1), res(2))

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 30 * time.Minute,
		Resources: []ResourceAvailability{
			{Resource: res(1), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T10:00:00Z")}}},
			{Resource: res(2), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:30:00Z"), End: mustUTC("2024-01-01T10:00:00Z")}}},
		},
	})

	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 1)
	assert.True(t, days[0].Slots[0].Start.Equal(mustUTC("2024-01-01T09:30:00Z")))
}

func TestGenerate_GroupRequiresN(t *testing.T) {
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyGroup, N: 2}, res(1), res(2), res(3))

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 30 * time.Minute,
		Resources: []ResourceAvailability{
			{Resource: res(1), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T09:30:00Z")}}},
			{Resource: res(2), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T09:30:00Z")}}},
			{Resource: res(3), Raw: nil},
		},
	})

	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 1)
	assert.ElementsMatch(t, []int64{1, 2}, days[0].Slots[0].UserIDs)
}

func TestGenerate_RoundRobinPicksLowestUserID(t *testing.T) {
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyRoundRobin, Algorithm: booking.RoundRobinLowestUserID}, res(2), res(1))

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 30 * time.Minute,
		Resources: []ResourceAvailability{
			{Resource: res(2), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T09:30:00Z")}}},
			{Resource: res(1), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T09:30:00Z")}}},
		},
	})

	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 1)
	assert.Equal(t, []int64{1}, days[0].Slots[0].UserIDs)
}

func TestGenerate_BufferShrinksAvailability(t *testing.T) {
	resource := booking.ServiceResource{UserID: 1, Availability: booking.AvailabilityCalendar, CalendarID: ptr(1), BufferBeforeMin: 15, BufferAfterMin: 15}
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyCollective}, resource)

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 15 * time.Minute,
		Resources: []ResourceAvailability{
			{Resource: resource, Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T10:00:00Z")}}},
		},
	})

	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 1)
	assert.True(t, days[0].Slots[0].Start.Equal(mustUTC("2024-01-01T09:15:00Z")))
}

func TestGenerate_BufferDropsShortInterval(t *testing.T) {
	resource := booking.ServiceResource{UserID: 1, Availability: booking.AvailabilityCalendar, CalendarID: ptr(1), BufferBeforeMin: 20, BufferAfterMin: 20}
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyCollective}, resource)

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 30 * time.Minute,
		Resources: []ResourceAvailability{
			{Resource: resource, Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T09:45:00Z")}}},
		},
	})

	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestGenerate_PastSlotsOmitted(t *testing.T) {
	resource := res(1)
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyCollective}, resource)

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 30 * time.Minute,
		Now:          mustUTC("2024-01-01T09:15:00Z"),
		Resources: []ResourceAvailability{
			{Resource: resource, Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T10:00:00Z")}}},
		},
	})

	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 1)
	assert.True(t, days[0].Slots[0].Start.Equal(mustUTC("2024-01-01T09:30:00Z")))
}

func TestGenerate_EmptyDayOmittedWhenNoResourceAvailability(t *testing.T) {
	resource := res(1)
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyCollective}, resource)

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-03T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 30 * time.Minute,
		Resources: []ResourceAvailability{
			{Resource: resource, Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T10:00:00Z")}}},
		},
	})

	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, timeutil.LocalDate{Year: 2024, Month: time.January, Day: 1}, days[0].Date)
}

func TestGenerate_HostFilter(t *testing.T) {
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyRoundRobin, Algorithm: booking.RoundRobinLowestUserID}, res(1), res(2))

	days, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 30 * time.Minute,
		SlotInterval: 30 * time.Minute,
		HostUserIDs:  []int64{2},
		Resources: []ResourceAvailability{
			{Resource: res(1), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T09:30:00Z")}}},
			{Resource: res(2), Raw: []timeutil.Interval{{Start: mustUTC("2024-01-01T09:00:00Z"), End: mustUTC("2024-01-01T09:30:00Z")}}},
		},
	})

	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 1)
	assert.Equal(t, []int64{2}, days[0].Slots[0].UserIDs)
}

func TestGenerate_RejectsZeroDuration(t *testing.T) {
	service := svc(booking.MultiPersonPolicy{Variant: booking.PolicyCollective}, res(1))
	_, err := Generate(Request{
		Service:      service,
		Window:       Window{Start: mustUTC("2024-01-01T00:00:00Z"), End: mustUTC("2024-01-02T00:00:00Z")},
		Location:     time.UTC,
		SlotDuration: 0,
		SlotInterval: 30 * time.Minute,
	})
	assert.Error(t, err)
}
