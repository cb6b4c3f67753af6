package access

import "time"

// Engine ata las operaciones puras a un Clock. No hace I/O ni guarda estado:
// la persistencia (y su atomicidad) es responsabilidad del caller.
type Engine struct {
	clock Clock
}

func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	return &Engine{clock: clock}
}

func (e *Engine) Now() time.Time { return e.clock.Now() }

func (e *Engine) DeriveStatus(end *time.Time) Status {
	return DeriveStatusAt(end, e.clock.Now())
}

func (e *Engine) HasValidAccess(end *time.Time) bool {
	return HasValidAccessAt(end, e.clock.Now())
}

// EndDateFromNow es CalculateEndDate con start = ahora.
func (e *Engine) EndDateFromNow(d Duration) (*time.Time, error) {
	return CalculateEndDate(d, e.clock.Now())
}

// Grant crea un entitlement que empieza ahora.
func (e *Engine) Grant(d Duration) (Entitlement, error) {
	return NewEntitlement(d, e.clock.Now())
}
