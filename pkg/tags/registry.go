// Package tags loads the controlled tag vocabulary and answers membership
// queries against it. The vocabulary is a plain text file with one tag per
// line; blank lines and "#" comments are skipped.
package tags

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/skillcortex/skillcortex/pkg/frontmatter"
)

var validTag = regexp.MustCompile(`^[a-z0-9-]+$`)

// Registry holds the permitted tag vocabulary. It is immutable after Load.
// An empty registry means no vocabulary is configured and enforcement is
// disabled entirely, not that every tag is rejected.
type Registry struct {
	allowed map[string]struct{}
}

// Load reads the vocabulary file at path. A missing file yields an empty
// registry: skill tags are then accepted without validation. A file
// containing an entry that does not normalize to a valid tag token fails
// with a configuration error.
func Load(path string) (*Registry, error) {
	reg := &Registry{allowed: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, errors.Wrapf(err, "failed to read tags vocabulary %q", path)
	}

	for i, line := range strings.Split(string(data), "\n") {
		entry := strings.TrimSpace(line)
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		normalized := frontmatter.NormalizeTags([]string{entry})
		if len(normalized) != 1 || !validTag.MatchString(normalized[0]) {
			return nil, errors.Errorf("malformed tags vocabulary %q: invalid entry %q on line %d", path, entry, i+1)
		}
		reg.allowed[normalized[0]] = struct{}{}
	}

	return reg, nil
}

// IsAllowed reports whether the tag is in the vocabulary. It always returns
// true when no vocabulary is configured.
func (r *Registry) IsAllowed(tag string) bool {
	if r.Empty() {
		return true
	}
	_, ok := r.allowed[tag]
	return ok
}

// Empty reports whether the registry has no vocabulary configured.
func (r *Registry) Empty() bool {
	return len(r.allowed) == 0
}

// Allowed returns the vocabulary in lexicographic order.
func (r *Registry) Allowed() []string {
	out := make([]string, 0, len(r.allowed))
	for tag := range r.allowed {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
