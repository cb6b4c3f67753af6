package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

type Duration string

const (
	DurationOneMonth    Duration = "1-month"
	DurationTwoMonths   Duration = "2-months"
	DurationThreeMonths Duration = "3-months"
	DurationLifetime    Duration = "lifetime"
)

// Durations lista los valores aceptados, en orden creciente.
var Durations = []Duration{
	DurationOneMonth,
	DurationTwoMonths,
	DurationThreeMonths,
	DurationLifetime,
}

func ParseDuration(raw string) (Duration, error) {
	d := Duration(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	return d, nil
}

func (d Duration) Valid() bool {
	switch d {
	case DurationOneMonth, DurationTwoMonths, DurationThreeMonths, DurationLifetime:
		return true
	}
	return false
}

func (d Duration) IsLifetime() bool { return d == DurationLifetime }

// Months devuelve los meses calendario del label ("2-months" => 2). Lifetime => 0.
func (d Duration) Months() int {
	switch d {
	case DurationOneMonth:
		return 1
	case DurationTwoMonths:
		return 2
	case DurationThreeMonths:
		return 3
	default:
		return 0
	}
}

// CalculateEndDate suma N meses calendario a start.
// Lifetime => nil (nunca expira).
//
// Si el día de start no existe en el mes destino se usa el último día de ese mes
// (31 ene + 1 mes => 28/29 feb). time.AddDate normalizaría a marzo.
func CalculateEndDate(d Duration, start time.Time) (*time.Time, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDuration, string(d))
	}
	if d.IsLifetime() {
		return nil, nil
	}

	end := addMonthsClamped(start, d.Months())
	return &end, nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, day := t.Date()
	hh, mm, ss := t.Clock()

	firstOfTarget := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	lastDay := now.With(firstOfTarget).EndOfMonth().Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hh, mm, ss, t.Nanosecond(), t.Location())
}
