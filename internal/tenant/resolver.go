package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Resolver builds tenant contexts from API keys. Without a cache every
// request is resolved against the store.
type Resolver struct {
	store Store
	cache Cache
	ttl   time.Duration
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// WithCache enables time-bounded caching. Callers that mutate a project must
// call Invalidate with its API key.
func (r *Resolver) WithCache(cache Cache, ttl time.Duration) *Resolver {
	r.cache = cache
	r.ttl = ttl
	return r
}

// Resolve returns ErrProjectNotFound for unknown keys. Maintenance is
// reported on the context, not enforced here.
func (r *Resolver) Resolve(ctx context.Context, apiKey string) (*Context, error) {
	if r.cache != nil {
		t, ok, err := r.cache.Get(ctx, apiKey)
		if err != nil {
			slog.Warn("tenant cache read failed", "error", err)
		} else if ok {
			return t, nil
		}
	}

	project, err := r.store.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseProjectConfig(project.Config)
	if err != nil {
		return nil, fmt.Errorf("project %s has invalid config: %w", project.Name, err)
	}

	flags := map[string]any{}
	if len(project.FeatureFlags) > 0 {
		if err := json.Unmarshal(project.FeatureFlags, &flags); err != nil {
			return nil, fmt.Errorf("project %s has invalid feature flags: %w", project.Name, err)
		}
	}

	functions, err := r.store.FunctionStates(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	t := &Context{
		ProjectID:    project.ID,
		Name:         project.Name,
		APIKey:       project.APIKey,
		Maintenance:  project.IsMaintenance,
		FeatureFlags: flags,
		Config:       cfg,
		Functions:    functions,
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, apiKey, t, r.ttl); err != nil {
			slog.Warn("tenant cache write failed", "project", project.Name, "error", err)
		}
	}
	return t, nil
}

// OriginAllowedAnywhere delegates to the store; reverse lookups are never cached.
func (r *Resolver) OriginAllowedAnywhere(ctx context.Context, origin string) (bool, error) {
	return r.store.OriginAllowedAnywhere(ctx, origin)
}

// Invalidate drops a cached context. It is a no-op without a cache.
func (r *Resolver) Invalidate(ctx context.Context, apiKey string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, apiKey); err != nil {
		slog.Warn("tenant cache invalidation failed", "error", err)
	}
}
