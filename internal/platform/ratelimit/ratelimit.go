package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrBucketKeyRequired = errors.New("ratelimit: bucket and key required")

// Limit es la ventana deslizante de un bucket: como mucho Limit requests por Window.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Default aplica a buckets sin configuración propia ni "default".
var Default = Limit{Limit: 100, Window: time.Minute}

type Limiter interface {
	Allow(ctx context.Context, bucket, key string) (bool, error)
}

// Lookup resuelve el Limit de bucket, cayendo a "default" y luego a Default.
func Lookup(limits map[string]Limit, bucket string) Limit {
	if v, ok := limits[bucket]; ok {
		return v
	}
	if v, ok := limits["default"]; ok {
		return v
	}
	return Default
}
