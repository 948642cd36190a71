// Package state owns the shared in-memory index: the tags registry and the
// latest scan result behind one mutex. It is an explicit object constructed
// at process start and handed to the serving layer, never a hidden global.
//
// One lock serializes everything: lazy first-time initialization happens
// exactly once even under concurrent first callers, and every mutation runs
// its filesystem change, a full rescan, and a cache resave before the lock
// is released. A reader can never observe a half-applied mutation within
// one process.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/skillcortex/skillcortex/pkg/config"
	"github.com/skillcortex/skillcortex/pkg/index"
	"github.com/skillcortex/skillcortex/pkg/logger"
	"github.com/skillcortex/skillcortex/pkg/scanner"
	"github.com/skillcortex/skillcortex/pkg/tags"
)

// State is the process-wide index state.
type State struct {
	cfg *config.Config

	mu       sync.Mutex
	registry *tags.Registry
	scan     *scanner.ScanResult
}

// New returns an uninitialized State; the registry and scan result are
// loaded lazily on first use.
func New(cfg *config.Config) *State {
	return &State{cfg: cfg}
}

// Config returns the configuration the state was built with.
func (s *State) Config() *config.Config {
	return s.cfg
}

// Ensure initializes the registry and scan result if that has not happened
// yet. The first caller loads the vocabulary, restores the cache or scans
// fresh, and persists the result; concurrent callers block until it is done
// and then reuse the in-memory state without re-entering the guarded path.
func (s *State) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(ctx)
}

func (s *State) ensureLocked(ctx context.Context) error {
	if s.registry != nil && s.scan != nil {
		return nil
	}

	start := time.Now()
	registry, err := tags.Load(s.cfg.TagsPath)
	if err != nil {
		return errors.Wrap(err, "failed to load tags registry")
	}

	scan, ok := index.Load(ctx, s.cfg.CachePath)
	if !ok {
		scan, err = scanner.Scan(ctx, s.cfg.Roots, registry)
		if err != nil {
			return err
		}
		if err := index.Save(s.cfg.CachePath, scan); err != nil {
			return errors.Wrap(err, "failed to save index cache")
		}
	}

	s.registry = registry
	s.scan = scan
	logger.G(ctx).WithFields(map[string]interface{}{
		"skills":   len(scan.Skills),
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Info("Index ready")
	return nil
}

// Snapshot returns the current registry and scan result, initializing them
// first if needed. The returned values must be treated as immutable; they
// are replaced wholesale by the next mutation.
func (s *State) Snapshot(ctx context.Context) (*tags.Registry, *scanner.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLocked(ctx); err != nil {
		return nil, nil, err
	}
	return s.registry, s.scan, nil
}

// Mutate runs fn (a filesystem change such as create, delete, or tag
// update), then performs a full synchronous rescan and cache resave, all
// under the state lock. If fn fails, the previous scan result stays in
// place untouched.
func (s *State) Mutate(ctx context.Context, fn func(registry *tags.Registry, scan *scanner.ScanResult) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLocked(ctx); err != nil {
		return err
	}

	if err := fn(s.registry, s.scan); err != nil {
		return err
	}

	scan, err := scanner.Scan(ctx, s.cfg.Roots, s.registry)
	if err != nil {
		return errors.Wrap(err, "rescan after mutation failed")
	}
	if err := index.Save(s.cfg.CachePath, scan); err != nil {
		return errors.Wrap(err, "failed to save index cache after mutation")
	}
	s.scan = scan
	return nil
}
