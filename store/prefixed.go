package store

import (
	"context"
	"strings"
)

// Prefixed namespaces every key of a shared Store, so several worlds can
// share one backend.
type Prefixed struct {
	next   Store
	prefix string
}

// NewPrefixed wraps next so every key is stored as prefix+key.
func NewPrefixed(next Store, prefix string) *Prefixed {
	return &Prefixed{next: next, prefix: prefix}
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *Prefixed) Set(ctx context.Context, key string, value *string) error {
	return p.next.Set(ctx, p.prefix+key, value)
}

func (p *Prefixed) List(ctx context.Context, prefix string) ([]string, error) {
	l, ok := p.next.(Lister)
	if !ok {
		return nil, nil
	}
	keys, err := l.List(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, p.prefix)
	}
	return keys, nil
}

// Close closes the wrapped store.
func (p *Prefixed) Close(ctx context.Context) error { return Close(ctx, p.next) }
