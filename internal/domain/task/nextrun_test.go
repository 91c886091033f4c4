package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", value)
	require.NoError(t, err)
	return ts
}

func TestReducedCalculator_Next(t *testing.T) {
	tests := []struct {
		name string
		expr string
		from string
		want string
	}{
		{"time already passed rolls to tomorrow", "0 2 * * *", "2024-01-01T05:00", "2024-01-02T02:00"},
		{"time not yet passed stays today", "0 2 * * *", "2024-01-01T01:00", "2024-01-01T02:00"},
		{"exact match is strictly after", "0 2 * * *", "2024-01-01T02:00", "2024-01-02T02:00"},
		{"every minute", "* * * * *", "2024-01-01T10:15", "2024-01-01T10:16"},
		{"step minutes", "*/15 * * * *", "2024-01-01T10:16", "2024-01-01T10:30"},
		{"hour range", "30 9-17 * * *", "2024-01-01T17:45", "2024-01-02T09:30"},
		{"minute list", "5,50 * * * *", "2024-01-01T10:06", "2024-01-01T10:50"},
		{"weekday ignored", "0 2 * * 1", "2024-01-03T05:00", "2024-01-04T02:00"},
		{"month and day ignored", "0 0 15 6 *", "2024-01-01T05:00", "2024-01-02T00:00"},
		{"year rollover", "0 0 * * *", "2024-12-31T23:59", "2025-01-01T00:00"},
	}

	calc := ReducedCalculator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Next(tt.expr, at(t, tt.from))
			require.NoError(t, err)
			assert.Equal(t, at(t, tt.want), got)
		})
	}
}

func TestReducedCalculator_IgnoresSeconds(t *testing.T) {
	from := at(t, "2024-01-01T01:59").Add(30 * time.Second)

	got, err := ReducedCalculator{}.Next("0 2 * * *", from)

	require.NoError(t, err)
	assert.Equal(t, at(t, "2024-01-01T02:00"), got)
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	return loc
}

func TestReducedCalculator_SpringForward(t *testing.T) {
	loc := newYork(t)
	calc := ReducedCalculator{}

	// 02:00 does not exist on 2024-03-10; the run moves to the end of the gap.
	got, err := calc.Next("0 2 * * *", time.Date(2024, 3, 9, 5, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 10, 3, 0, 0, 0, loc).Equal(got), "got %s", got)

	// A time outside the gap keeps its wall clock across the 23 hour day.
	got, err = calc.Next("0 5 * * *", time.Date(2024, 3, 9, 5, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 10, 5, 0, 0, 0, loc).Equal(got), "got %s", got)

	// The day after the transition is back on schedule.
	got, err = calc.Next("0 2 * * *", got)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 11, 2, 0, 0, 0, loc).Equal(got), "got %s", got)
}

func TestReducedCalculator_FallBackFiresOnce(t *testing.T) {
	loc := newYork(t)
	calc := ReducedCalculator{}

	// 01:30 occurs twice on 2024-11-03.
	first, err := calc.Next("30 1 * * *", time.Date(2024, 11, 3, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, 3, first.Day())
	assert.Equal(t, 1, first.Hour())
	assert.Equal(t, 30, first.Minute())

	second, err := calc.Next("30 1 * * *", first)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 11, 4, 1, 30, 0, 0, loc).Equal(second), "got %s", second)
}

func TestReducedCalculator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"defaults", "0 2 * * *", false},
		{"names accepted", "0 2 * jan mon-fri", false},
		{"sunday as 7", "0 2 * * 7", false},
		{"too few fields", "0 2 * *", true},
		{"too many fields", "0 2 * * * *", true},
		{"minute out of range", "60 2 * * *", true},
		{"hour out of range", "0 24 * * *", true},
		{"day out of range", "0 2 0 * *", true},
		{"bad step", "*/0 * * * *", true},
		{"reversed range", "0 5-2 * * *", true},
		{"garbage", "every night", true},
		{"empty list element", "0,,5 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReducedCalculator{}.Validate(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStandardCalculator_HonoursWeekday(t *testing.T) {
	// 2024-01-03 is a Wednesday; the next Monday is 2024-01-08.
	got, err := StandardCalculator{}.Next("0 2 * * 1", at(t, "2024-01-03T05:00"))

	require.NoError(t, err)
	assert.Equal(t, at(t, "2024-01-08T02:00"), got)
}

func TestNewCalculator(t *testing.T) {
	calc, err := NewCalculator("reduced")
	require.NoError(t, err)
	assert.IsType(t, ReducedCalculator{}, calc)

	calc, err = NewCalculator("standard")
	require.NoError(t, err)
	assert.IsType(t, StandardCalculator{}, calc)

	_, err = NewCalculator("quartz")
	assert.Error(t, err)
}
