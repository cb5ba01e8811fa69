package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{
			name: "plain month",
			in:   time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "jan 31 clamps to feb 28",
			in:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "jan 31 clamps to feb 29 in leap year",
			in:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "year rollover",
			in:   time.Date(2026, 12, 10, 0, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2027, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "time of day preserved",
			in:   time.Date(2026, 5, 1, 23, 59, 58, 7, time.UTC),
			n:    2,
			want: time.Date(2026, 7, 1, 23, 59, 58, 7, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.in, tt.n))
		})
	}
}

func TestWindowRemaining(t *testing.T) {
	window := 15 * time.Minute
	at := time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC)

	assert.Equal(t, 10*time.Minute, WindowRemaining(at, window))

	start := WindowStart(at, window)
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), start)
}

func TestDaysBetween(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 23, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 8, 3, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, DaysBetween(t1, t2))
	assert.Equal(t, 2, DaysBetween(t2, t1))
	assert.Equal(t, 0, DaysBetween(t1, t1))
}
