package access

import (
	"fmt"
	"time"
)

const (
	day = 24 * time.Hour

	// ExpiringSoonDays es el umbral (inclusive) para mostrar aviso de renovación.
	ExpiringSoonDays = 7
)

type State string

const (
	StateActive  State = "ACTIVE"
	StateExpired State = "EXPIRED"
)

// Status es el estado derivado de un AccessEndDate. Nunca se persiste.
type Status struct {
	HasAccess       bool
	RemainingDays   *int // nil => lifetime
	IsExpiringSoon  bool
	IsExpired       bool
	IsLifetime      bool
	FormattedAccess string
}

func (s Status) State() State {
	if s.HasAccess {
		return StateActive
	}
	return StateExpired
}

// DeriveStatusAt calcula el estado de acceso para end en el instante now.
//
// IsExpired es true cuando RemainingDays == 0, lo que incluye un end igual a now
// y cualquier end pasado.
func DeriveStatusAt(end *time.Time, now time.Time) Status {
	if end == nil {
		return Status{
			HasAccess:       true,
			IsLifetime:      true,
			FormattedAccess: FormatRemaining(nil),
		}
	}

	remaining := remainingDays(*end, now)
	return Status{
		HasAccess:       end.After(now),
		RemainingDays:   &remaining,
		IsExpiringSoon:  remaining > 0 && remaining <= ExpiringSoonDays,
		IsExpired:       remaining == 0,
		IsLifetime:      false,
		FormattedAccess: FormatRemaining(&remaining),
	}
}

// HasValidAccessAt: lifetime o end en el futuro.
func HasValidAccessAt(end *time.Time, now time.Time) bool {
	return end == nil || end.After(now)
}

// remainingDays = ceil((end - now) / 1 día), nunca negativo.
func remainingDays(end, now time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	n := int(left / day)
	if left%day > 0 {
		n++
	}
	return n
}

// FormatRemaining produce el label para badges. Las divisiones truncan (floor),
// así que 91..364 días se muestran como "0 years left".
func FormatRemaining(remaining *int) string {
	if remaining == nil {
		return "Lifetime access"
	}

	n := *remaining
	switch {
	case n <= 0:
		return "Expired"
	case n == 1:
		return "1 day left"
	case n <= 7:
		return fmt.Sprintf("%d days left", n)
	case n <= 30:
		return fmt.Sprintf("%d weeks left", n/7)
	case n <= 90:
		return fmt.Sprintf("%d months left", n/30)
	default:
		return fmt.Sprintf("%d years left", n/365)
	}
}
