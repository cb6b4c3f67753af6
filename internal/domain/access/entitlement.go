package access

import (
	"fmt"
	"time"
)

// Entitlement es la parte temporal de un enrollment: desde cuándo y hasta cuándo
// el estudiante puede ver el curso (o combo). AccessEndDate nil => lifetime.
type Entitlement struct {
	AccessDuration  Duration
	AccessStartDate time.Time
	AccessEndDate   *time.Time
}

// NewEntitlement arma el entitlement de una compra que empieza en start.
func NewEntitlement(d Duration, start time.Time) (Entitlement, error) {
	end, err := CalculateEndDate(d, start)
	if err != nil {
		return Entitlement{}, err
	}
	return Entitlement{
		AccessDuration:  d,
		AccessStartDate: start,
		AccessEndDate:   end,
	}, nil
}

// SetAccessDuration recalcula el fin desde AccessStartDate y reemplaza el anterior,
// descartando extensiones/reducciones previas.
func SetAccessDuration(e Entitlement, d Duration) (Entitlement, error) {
	end, err := CalculateEndDate(d, e.AccessStartDate)
	if err != nil {
		return Entitlement{}, err
	}
	e.AccessDuration = d
	e.AccessEndDate = end
	return e, nil
}

// ExtendAccess nunca adelanta el fin: max(actual, candidato). Lifetime siempre gana.
func ExtendAccess(e Entitlement, d Duration) (Entitlement, error) {
	candidate, err := CalculateEndDate(d, e.AccessStartDate)
	if err != nil {
		return Entitlement{}, err
	}

	if e.AccessEndDate == nil {
		return e, nil
	}
	if candidate != nil && candidate.Before(*e.AccessEndDate) {
		return e, nil
	}

	e.AccessDuration = d
	e.AccessEndDate = candidate
	return e, nil
}

// ReduceAccess nunca atrasa el fin: min(actual, candidato).
// Reducir "a lifetime" no tiene sentido y se rechaza.
func ReduceAccess(e Entitlement, d Duration) (Entitlement, error) {
	if d.IsLifetime() {
		return Entitlement{}, fmt.Errorf("%w: cannot reduce access to %s", ErrInvalidOperation, d)
	}
	candidate, err := CalculateEndDate(d, e.AccessStartDate)
	if err != nil {
		return Entitlement{}, err
	}

	if e.AccessEndDate != nil && e.AccessEndDate.Before(*candidate) {
		return e, nil
	}

	e.AccessDuration = d
	e.AccessEndDate = candidate
	return e, nil
}
