package cache

import (
	"context"

	"github.com/pkg/errors"

	"f1replay/pkg/caster"
)

// Typed stores values of T in a ResponseCache through a caster.
type Typed[T any] struct {
	cache  *ResponseCache
	caster caster.Caster[T]
}

func NewTyped[T any](c *ResponseCache) *Typed[T] {
	return &Typed[T]{cache: c, caster: caster.JSONCaster[T]{}}
}

func (t *Typed[T]) Fetch(ctx context.Context, key string, forceRefresh bool, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	data, err := t.cache.Fetch(ctx, key, forceRefresh, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		data, err := t.caster.To(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s", key)
		}
		return data, nil
	})
	if err != nil {
		return zero, err
	}
	v, err := t.caster.From(data)
	if err != nil {
		t.cache.Invalidate(key)
		return zero, errors.Wrapf(err, "decoding %s", key)
	}
	return v, nil
}

func (t *Typed[T]) Invalidate(key string) {
	t.cache.Invalidate(key)
}
