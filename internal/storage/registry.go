package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Driver selects a backend.
type Driver string

const (
	DriverLocal  Driver = "local"
	DriverRemote Driver = "remote"
)

// ParseDriver maps a configuration value to a Driver. "s3" is accepted for remote; anything
// unrecognized selects the local backend.
func ParseDriver(s string) Driver {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote", "s3":
		return DriverRemote
	default:
		return DriverLocal
	}
}

// Settings carries everything needed to build either backend.
type Settings struct {
	Driver        Driver
	LocalPath     string
	PublicBaseURL string
	Remote        RemoteOptions
	EnsureBucket  bool
}

// New builds the provider selected by s.Driver.
func New(ctx context.Context, s Settings) (Provider, error) {
	switch s.Driver {
	case DriverRemote:
		p, err := NewRemoteProvider(ctx, s.Remote)
		if err != nil {
			return nil, fmt.Errorf("remote storage: %w", err)
		}
		return p, nil
	default:
		return NewLocalProvider(s.LocalPath, s.PublicBaseURL), nil
	}
}

// Registry owns the process's provider. It is built once, on first use, from the settings
// returned by load at that moment; later changes to whatever load reads are ignored.
type Registry struct {
	load func() Settings

	mu       sync.Mutex
	provider Provider
}

// NewRegistry returns a Registry that will call load on first access.
func NewRegistry(load func() Settings) *Registry {
	return &Registry{load: load}
}

// Provider returns the shared provider, constructing it if needed. A failed construction
// is not cached.
func (r *Registry) Provider(ctx context.Context) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.provider != nil {
		return r.provider, nil
	}
	p, err := New(ctx, r.load())
	if err != nil {
		return nil, err
	}
	r.provider = p
	return p, nil
}

// Override replaces the provider. Meant for wiring test doubles.
func (r *Registry) Override(p Provider) {
	r.mu.Lock()
	r.provider = p
	r.mu.Unlock()
}
