package access

import "time"

// Clock es la fuente de "ahora" del engine. En tests se inyecta una fija.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock usa el reloj del proceso.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock devuelve siempre t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
