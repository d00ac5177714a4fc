package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/core/config"
)

// ArchiveConnectionName is the connection name of the archive storage.
const ArchiveConnectionName = "archive"

// Resolver opens the archive storage on first use through the provider matching
// the configured type.
type Resolver struct {
	cfg       config.StorageConfig
	providers map[string]StorageProvider
}

// NewResolver indexes providers by type.
func NewResolver(cfg config.StorageConfig, providers ...StorageProvider) *Resolver {
	r := &Resolver{cfg: cfg, providers: make(map[string]StorageProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Type()] = p
	}
	return r
}

// Resolve returns the archive connection.
func (r *Resolver) Resolve(ctx context.Context) (StorageConnection, error) {
	p, ok := r.providers[r.cfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider registered for type %q", r.cfg.Type)
	}
	return p.GetConnection(ctx, ArchiveConnectionName, r.cfg)
}

// CloseAll closes every provider's connections.
func (r *Resolver) CloseAll() error {
	var lastErr error
	for _, p := range r.providers {
		if err := p.CloseAll(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// ResolverParams collects the registered providers.
type ResolverParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.ArchiveConfig
	Providers []StorageProvider `group:"storage_providers"`
}

// NewArchiveResolver builds the archive resolver and closes its connections on stop.
func NewArchiveResolver(p ResolverParams) *Resolver {
	r := NewResolver(p.Config.Storage, p.Providers...)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error { return r.CloseAll() },
	})
	return r
}

// Module provides the archive Resolver. Backend packages contribute the providers.
var Module = fx.Provide(NewArchiveResolver)
