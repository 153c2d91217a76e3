package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	w, err := ParseWeekday("mon")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, w)

	_, err = ParseWeekday("XXX")
	assert.Error(t, err)
}

func TestParseOrdinalWeekday(t *testing.T) {
	cases := []struct {
		in   string
		want OrdinalWeekday
	}{
		{"MON", OrdinalWeekday{Weekday: time.Monday}},
		{"+1MON", OrdinalWeekday{Weekday: time.Monday, N: 1}},
		{"-1FRI", OrdinalWeekday{Weekday: time.Friday, N: -1}},
		{"2TUE", OrdinalWeekday{Weekday: time.Tuesday, N: 2}},
	}
	for _, c := range cases {
		got, err := ParseOrdinalWeekday(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseOrdinalWeekday_OutOfRange(t *testing.T) {
	_, err := ParseOrdinalWeekday("+60MON")
	assert.Error(t, err)
}

func TestOrdinalWeekday_String(t *testing.T) {
	assert.Equal(t, "MON", OrdinalWeekday{Weekday: time.Monday}.String())
	assert.Equal(t, "+1MON", OrdinalWeekday{Weekday: time.Monday, N: 1}.String())
	assert.Equal(t, "-1FRI", OrdinalWeekday{Weekday: time.Friday, N: -1}.String())
}
