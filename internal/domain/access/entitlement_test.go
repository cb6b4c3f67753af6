package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var purchaseStart = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func mustEntitlement(t *testing.T, d Duration) Entitlement {
	t.Helper()
	e, err := NewEntitlement(d, purchaseStart)
	require.NoError(t, err)
	return e
}

func endOf(t *testing.T, d Duration) time.Time {
	t.Helper()
	end, err := CalculateEndDate(d, purchaseStart)
	require.NoError(t, err)
	require.NotNil(t, end)
	return *end
}

func TestNewEntitlement_Invariant(t *testing.T) {
	for _, d := range Durations {
		e := mustEntitlement(t, d)
		assert.Equal(t, d.IsLifetime(), e.AccessEndDate == nil, "duration %s", d)
		assert.Equal(t, purchaseStart, e.AccessStartDate)
	}
}

func TestSetAccessDuration_OverwritesFromStart(t *testing.T) {
	e := mustEntitlement(t, DurationOneMonth)

	// extensión manual previa, fuera de la grilla de meses
	manual := purchaseStart.AddDate(1, 0, 0)
	e.AccessEndDate = &manual

	got, err := SetAccessDuration(e, DurationTwoMonths)
	require.NoError(t, err)
	require.NotNil(t, got.AccessEndDate)
	assert.True(t, got.AccessEndDate.Equal(endOf(t, DurationTwoMonths)))
	assert.Equal(t, DurationTwoMonths, got.AccessDuration)
	assert.Equal(t, purchaseStart, got.AccessStartDate)

	got, err = SetAccessDuration(got, DurationLifetime)
	require.NoError(t, err)
	assert.Nil(t, got.AccessEndDate)

	got, err = SetAccessDuration(got, DurationOneMonth)
	require.NoError(t, err)
	require.NotNil(t, got.AccessEndDate)
	assert.True(t, got.AccessEndDate.Equal(endOf(t, DurationOneMonth)))
}

func TestSetAccessDuration_Invalid(t *testing.T) {
	_, err := SetAccessDuration(mustEntitlement(t, DurationOneMonth), Duration("12-months"))
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestExtendAccess_NeverDecreases(t *testing.T) {
	for _, from := range Durations {
		for _, to := range Durations {
			e := mustEntitlement(t, from)
			got, err := ExtendAccess(e, to)
			require.NoError(t, err)

			switch {
			case e.AccessEndDate == nil:
				assert.Nil(t, got.AccessEndDate, "%s -> %s", from, to)
			case got.AccessEndDate == nil:
				assert.Equal(t, DurationLifetime, to)
			default:
				assert.False(t, got.AccessEndDate.Before(*e.AccessEndDate), "%s -> %s", from, to)
			}
			assert.Equal(t, got.AccessDuration.IsLifetime(), got.AccessEndDate == nil)
		}
	}
}

func TestExtendAccess_KeepsLaterEnd(t *testing.T) {
	e := mustEntitlement(t, DurationThreeMonths)
	got, err := ExtendAccess(e, DurationOneMonth)
	require.NoError(t, err)
	assert.Equal(t, DurationThreeMonths, got.AccessDuration)
	assert.True(t, got.AccessEndDate.Equal(endOf(t, DurationThreeMonths)))

	got, err = ExtendAccess(e, DurationLifetime)
	require.NoError(t, err)
	assert.Nil(t, got.AccessEndDate)
	assert.Equal(t, DurationLifetime, got.AccessDuration)
}

func TestReduceAccess_NeverIncreases(t *testing.T) {
	finite := []Duration{DurationOneMonth, DurationTwoMonths, DurationThreeMonths}
	for _, from := range Durations {
		for _, to := range finite {
			e := mustEntitlement(t, from)
			got, err := ReduceAccess(e, to)
			require.NoError(t, err)
			require.NotNil(t, got.AccessEndDate, "%s -> %s", from, to)

			if e.AccessEndDate != nil {
				assert.False(t, got.AccessEndDate.After(*e.AccessEndDate), "%s -> %s", from, to)
			}
		}
	}
}

func TestReduceAccess_LifetimeTarget_IsInvalidOperation(t *testing.T) {
	for _, from := range Durations {
		_, err := ReduceAccess(mustEntitlement(t, from), DurationLifetime)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidOperation)
	}
}

func TestReduceAccess_FromLifetime(t *testing.T) {
	got, err := ReduceAccess(mustEntitlement(t, DurationLifetime), DurationTwoMonths)
	require.NoError(t, err)
	require.NotNil(t, got.AccessEndDate)
	assert.True(t, got.AccessEndDate.Equal(endOf(t, DurationTwoMonths)))
	assert.Equal(t, DurationTwoMonths, got.AccessDuration)
}
