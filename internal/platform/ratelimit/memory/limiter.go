package memory

import (
	"context"
	"sync"
	"time"

	"elearning-access/internal/platform/ratelimit"
)

// Limiter es una ventana deslizante en memoria. Sirve para un solo nodo
// (dev o cuando no hay REDIS_URL).
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]ratelimit.Limit
	buckets map[string][]time.Time
	now     func() time.Time
}

func New(limits map[string]ratelimit.Limit) *Limiter {
	if limits == nil {
		limits = map[string]ratelimit.Limit{}
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (l *Limiter) Allow(_ context.Context, bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, ratelimit.ErrBucketKeyRequired
	}

	lim := ratelimit.Lookup(l.limits, bucket)
	now := l.now()
	windowStart := now.Add(-lim.Window)
	k := key + ":" + bucket

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.buckets[k]
	i := 0
	for i < len(ts) && !ts[i].After(windowStart) {
		i++
	}
	ts = ts[i:]

	if len(ts) >= lim.Limit {
		// se rechaza sin registrar el intento
		l.buckets[k] = ts
		return false, nil
	}

	l.buckets[k] = append(ts, now)
	return true, nil
}
