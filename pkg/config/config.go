// Package config resolves process configuration from viper (config file,
// environment, flags) into a typed Config consumed by the rest of the
// program.
package config

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// WritableRootNames are the conventional base names that mark a root as the
// creation target for new skills. The scanner itself is agnostic to write
// targets; only the mutation layer cares.
var WritableRootNames = map[string]bool{
	".skills": true,
	"skills":  true,
}

// Config holds the resolved process configuration.
type Config struct {
	// Roots are the skill root directories in priority order.
	Roots []string
	// CachePath is where the serialized index lives.
	CachePath string
	// TagsPath is the tag vocabulary file.
	TagsPath string
}

// SetDefaults registers the default configuration values with viper. Called
// once from the command wiring before any config is read.
func SetDefaults() {
	viper.SetDefault("skill_roots", []string{"./.skills"})
	viper.SetDefault("cache_path", "./.skillcortex/index.json")
	viper.SetDefault("tags_path", "./.skillcortex/tags.txt")
}

// Load builds a Config from the current viper state and validates it.
// Validation problems are aggregated so a misconfigured process reports
// everything wrong at once.
func Load() (*Config, error) {
	cfg := &Config{
		Roots:     viper.GetStringSlice("skill_roots"),
		CachePath: viper.GetString("cache_path"),
		TagsPath:  viper.GetString("tags_path"),
	}

	var result *multierror.Error
	if len(cfg.Roots) == 0 {
		result = multierror.Append(result, errors.New("at least one skill root must be configured"))
	}
	for i, root := range cfg.Roots {
		if root == "" {
			result = multierror.Append(result, errors.Errorf("skill root %d is empty", i))
		}
	}
	if cfg.CachePath == "" {
		result = multierror.Append(result, errors.New("cache_path must not be empty"))
	}
	if cfg.TagsPath == "" {
		result = multierror.Append(result, errors.New("tags_path must not be empty"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// WritableRoot returns the creation target for new skills: the first root
// with a conventional writable name, falling back to the first root.
func (c *Config) WritableRoot() string {
	for _, root := range c.Roots {
		if WritableRootNames[filepath.Base(root)] {
			return root
		}
	}
	if len(c.Roots) > 0 {
		return c.Roots[0]
	}
	return ""
}

// EnsureWritableRoot creates the writable root directory if it does not
// exist yet, so a fresh checkout can scan without manual setup.
func (c *Config) EnsureWritableRoot() error {
	root := c.WritableRoot()
	if root == "" {
		return errors.New("no skill root configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create writable skill root %q", root)
	}
	return nil
}
