package access

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw     string
		want    Duration
		wantErr bool
	}{
		{raw: "1-month", want: DurationOneMonth},
		{raw: " 2-months ", want: DurationTwoMonths},
		{raw: "3-MONTHS", want: DurationThreeMonths},
		{raw: "lifetime", want: DurationLifetime},
		{raw: "", wantErr: true},
		{raw: "4-months", wantErr: true},
		{raw: "1-months", wantErr: true},
		{raw: "forever", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDuration(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDuration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateEndDate_Lifetime_IsNil(t *testing.T) {
	starts := []time.Time{
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
		{},
	}
	for _, s := range starts {
		end, err := CalculateEndDate(DurationLifetime, s)
		require.NoError(t, err)
		assert.Nil(t, end)
	}
}

func TestCalculateEndDate_AddsCalendarMonths(t *testing.T) {
	start := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		d    Duration
		want time.Time
	}{
		{d: DurationOneMonth, want: time.Date(2025, 4, 15, 10, 30, 0, 0, time.UTC)},
		{d: DurationTwoMonths, want: time.Date(2025, 5, 15, 10, 30, 0, 0, time.UTC)},
		{d: DurationThreeMonths, want: time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.d), func(t *testing.T) {
			end, err := CalculateEndDate(tt.d, start)
			require.NoError(t, err)
			require.NotNil(t, end)
			assert.True(t, end.Equal(tt.want), "got %s want %s", end, tt.want)
		})
	}
}

func TestCalculateEndDate_StrictlyLaterByMonths(t *testing.T) {
	starts := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 31, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 30, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, s := range starts {
		for _, d := range []Duration{DurationOneMonth, DurationTwoMonths, DurationThreeMonths} {
			end, err := CalculateEndDate(d, s)
			require.NoError(t, err)
			require.NotNil(t, end)
			assert.True(t, end.After(s), "%s + %s", s, d)

			months := (end.Year()-s.Year())*12 + int(end.Month()-s.Month())
			assert.Equal(t, d.Months(), months, "%s + %s = %s", s, d, end)
		}
	}
}

// 31 ene + 1 mes se clampa al último día de febrero.
func TestCalculateEndDate_MonthEnd_ClampsToLastDay(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		d     Duration
		want  time.Time
	}{
		{
			name:  "jan31 + 1 month (2025)",
			start: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			d:     DurationOneMonth,
			want:  time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "jan31 + 1 month (leap year)",
			start: time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC),
			d:     DurationOneMonth,
			want:  time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC),
		},
		{
			name:  "nov30 + 3 months",
			start: time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
			d:     DurationThreeMonths,
			want:  time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "dec31 + 2 months",
			start: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			d:     DurationTwoMonths,
			want:  time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "mar31 + 1 month",
			start: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			d:     DurationOneMonth,
			want:  time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, err := CalculateEndDate(tt.d, tt.start)
			require.NoError(t, err)
			require.NotNil(t, end)
			assert.True(t, end.Equal(tt.want), "got %s want %s", end, tt.want)
		})
	}
}

func TestCalculateEndDate_InvalidDuration(t *testing.T) {
	_, err := CalculateEndDate(Duration("6-months"), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestEngine_EndDateFromNow(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	eng := NewEngine(FixedClock(now))

	end, err := eng.EndDateFromNow(DurationOneMonth)
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.True(t, end.Equal(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)))

	ent, err := eng.Grant(DurationLifetime)
	require.NoError(t, err)
	assert.Equal(t, now, ent.AccessStartDate)
	assert.Nil(t, ent.AccessEndDate)
}
