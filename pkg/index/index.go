// Package index persists a scan result to a single cache file so process
// restarts avoid a full re-walk of the skill roots. The on-disk format is a
// private versioned JSON envelope holding only the flat record list; the
// category tree is rebuilt on load, which makes the tree invariant hold by
// construction after a round trip.
//
// The cache is authoritative between explicit invalidation events: nothing
// here compares file modification times. Callers invalidate by performing a
// mutation and then rescanning and resaving. This is a documented
// limitation, not an accident.
package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillcortex/skillcortex/pkg/logger"
	"github.com/skillcortex/skillcortex/pkg/scanner"
)

// formatVersion is bumped whenever the envelope layout changes; a mismatch
// is treated the same as a corrupt cache.
const formatVersion = 1

type envelope struct {
	Version int                    `json:"version"`
	SavedAt time.Time              `json:"saved_at"`
	Skills  []*scanner.SkillRecord `json:"skills"`
}

// Load attempts to restore a previously saved scan result. Absence,
// corruption, or a version mismatch yields (nil, false) and never an error:
// the caller simply performs a fresh scan.
func Load(ctx context.Context, path string) (*scanner.ScanResult, bool) {
	log := logger.G(ctx).WithField("cache", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Failed to read index cache, will rescan")
		}
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.WithError(err).Warn("Index cache is corrupt, will rescan")
		return nil, false
	}
	if env.Version != formatVersion {
		log.WithField("version", env.Version).Info("Index cache format changed, will rescan")
		return nil, false
	}

	return &scanner.ScanResult{
		Tree:   scanner.BuildTree(env.Skills),
		Skills: env.Skills,
	}, true
}

// Save persists the result. The write is atomic with respect to crashes:
// the envelope goes to a uniquely named temporary file in the target
// directory and is renamed into place, so a partial write never shadows the
// previous cache.
func Save(path string, result *scanner.ScanResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}

	data, err := json.Marshal(envelope{
		Version: formatVersion,
		SavedAt: time.Now().UTC(),
		Skills:  result.Skills,
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal index cache")
	}

	tempPath := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary cache file")
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "failed to move cache file into place")
	}

	return nil
}
