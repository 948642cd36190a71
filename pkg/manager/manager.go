// Package manager implements the skill mutation layer: creating and
// deleting skill directories and rewriting the tags line of an existing
// SKILL.md. It only touches the filesystem; callers are responsible for
// triggering a rescan and cache resave afterwards (see pkg/state).
package manager

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/skillcortex/skillcortex/pkg/config"
	"github.com/skillcortex/skillcortex/pkg/frontmatter"
	"github.com/skillcortex/skillcortex/pkg/scanner"
)

const (
	maxNamePartLen      = 64
	maxDescriptionLen   = 1024
	importedDirName     = "imported"
	defaultBodySkeleton = `
## Instructions

[Provide detailed step-by-step instructions for using this skill]

## Examples

[Add examples of how to use this skill]

## Notes

[Add any additional notes or considerations]
`
)

var namePartPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ErrSkillExists is returned by Create when the target SKILL.md already exists.
var ErrSkillExists = errors.New("skill already exists")

// ValidateNamePart checks one path component of a skill path: lowercase
// letters, digits, and hyphens only, at most 64 characters, no leading,
// trailing, or doubled hyphen.
func ValidateNamePart(name string) error {
	switch {
	case name == "":
		return errors.New("name cannot be empty")
	case len(name) > maxNamePartLen:
		return errors.Errorf("name too long (max %d chars): %d", maxNamePartLen, len(name))
	case !namePartPattern.MatchString(name):
		return errors.New("name must contain only lowercase letters, numbers, and hyphens")
	case strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-"):
		return errors.New("name cannot start or end with a hyphen")
	case strings.Contains(name, "--"):
		return errors.New("name cannot contain consecutive hyphens")
	}
	return nil
}

// ParseSkillPath splits a slash-separated skill path such as
// "coding/python-helper" into category segments and the skill name, after
// validating every component.
func ParseSkillPath(path string) (categoryPath []string, name string, err error) {
	parts := make([]string, 0, 4)
	for _, part := range strings.Split(path, "/") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return nil, "", errors.New("path cannot be empty")
	}
	for _, part := range parts {
		if err := ValidateNamePart(part); err != nil {
			return nil, "", errors.Wrapf(err, "invalid path component %q", part)
		}
	}
	return parts[:len(parts)-1], parts[len(parts)-1], nil
}

// CreateOptions describes a new skill.
type CreateOptions struct {
	// Path is the slash-separated skill path, e.g. "coding/python-helper".
	Path        string
	Description string
	Tags        []string
	// Instructions replaces the generated body template when set.
	Instructions string
	License      string
	Metadata     map[string]string

	ScriptsDir    bool
	ReferencesDir bool
	AssetsDir     bool
}

// CreateResult reports where a skill was created.
type CreateResult struct {
	SkillPath    string
	SkillDir     string
	SkillName    string
	CategoryPath []string
}

// Create writes a new skill directory with a generated SKILL.md under the
// configuration's writable root. The skill directory is removed again if
// the SKILL.md write fails, so a failed create leaves no half-made skill.
func Create(cfg *config.Config, opts CreateOptions) (*CreateResult, error) {
	categoryPath, name, err := ParseSkillPath(opts.Path)
	if err != nil {
		return nil, err
	}
	if opts.Description == "" || len(opts.Description) > maxDescriptionLen {
		return nil, errors.Errorf("description must be 1-%d characters", maxDescriptionLen)
	}

	root := cfg.WritableRoot()
	if root == "" {
		return nil, errors.New("no skill root directory configured")
	}

	skillDir := filepath.Join(append([]string{root}, append(categoryPath, name)...)...)
	skillPath := filepath.Join(skillDir, scanner.SkillFileName)
	if _, err := os.Stat(skillPath); err == nil {
		return nil, errors.Wrapf(ErrSkillExists, "at %s", skillPath)
	}

	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create skill directory")
	}

	content := GenerateSkillMarkdown(name, opts.Description, frontmatter.NormalizeTags(opts.Tags), opts.Instructions, opts.License, opts.Metadata)
	if err := os.WriteFile(skillPath, []byte(content), 0o644); err != nil {
		os.RemoveAll(skillDir)
		return nil, errors.Wrap(err, "failed to write SKILL.md")
	}

	for dir, wanted := range map[string]bool{
		"scripts":    opts.ScriptsDir,
		"references": opts.ReferencesDir,
		"assets":     opts.AssetsDir,
	} {
		if !wanted {
			continue
		}
		if err := os.MkdirAll(filepath.Join(skillDir, dir), 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create %s directory", dir)
		}
	}

	return &CreateResult{
		SkillPath:    skillPath,
		SkillDir:     skillDir,
		SkillName:    name,
		CategoryPath: categoryPath,
	}, nil
}

// GenerateSkillMarkdown renders a complete SKILL.md: frontmatter block plus
// either the given instructions or a section skeleton for the author to
// fill in.
func GenerateSkillMarkdown(name, description string, tags []string, instructions, license string, metadata map[string]string) string {
	var b strings.Builder
	b.WriteString(frontmatter.Delimiter + "\n")
	b.WriteString("name: " + name + "\n")
	b.WriteString("description: " + description + "\n")
	if len(tags) > 0 {
		b.WriteString("tags: [" + strings.Join(tags, ", ") + "]\n")
	}
	if license != "" {
		b.WriteString("license: " + license + "\n")
	}
	if len(metadata) > 0 {
		b.WriteString("metadata:\n")
		for _, key := range sortedKeys(metadata) {
			b.WriteString("  " + key + ": " + metadata[key] + "\n")
		}
	}
	b.WriteString(frontmatter.Delimiter + "\n")

	if instructions != "" {
		b.WriteString("\n" + instructions + "\n")
	} else {
		b.WriteString(defaultBodySkeleton)
	}
	return b.String()
}

// IsDeletable reports whether the skill at skillPath may be deleted: only
// skills under a writable root, excluding anything below an imported/
// subtree. Returns a human-readable reason when not deletable.
func IsDeletable(skillPath string, roots []string) (bool, string) {
	for _, root := range roots {
		rel, err := filepath.Rel(root, skillPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if !config.WritableRootNames[filepath.Base(root)] {
			return false, "cannot delete skills from read-only roots"
		}
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if part == importedDirName {
				return false, "cannot delete imported skills"
			}
		}
		return true, ""
	}
	return false, "skill not in a deletable directory"
}

// Delete removes the whole skill directory containing skillPath after
// checking deletability against the configured roots.
func Delete(skillPath string, roots []string) error {
	if _, err := os.Stat(skillPath); err != nil {
		return errors.Wrapf(err, "skill not found at %s", skillPath)
	}
	ok, reason := IsDeletable(skillPath, roots)
	if !ok {
		return errors.New(reason)
	}
	if err := os.RemoveAll(filepath.Dir(skillPath)); err != nil {
		return errors.Wrap(err, "failed to delete skill directory")
	}
	return nil
}

// UpdateTags rewrites the tags line inside an existing SKILL.md's
// frontmatter, preserving every other line and the body byte for byte. A
// frontmatter without a tags line gains one at the end of the block.
func UpdateTags(skillPath string, newTags []string) error {
	data, err := os.ReadFile(skillPath)
	if err != nil {
		return errors.Wrap(err, "failed to read skill file")
	}

	lines := strings.SplitAfter(string(data), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatter.Delimiter {
		return errors.New("skill file has no frontmatter")
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatter.Delimiter {
			closeIdx = i
			break
		}
	}
	if closeIdx < 0 {
		return frontmatter.ErrUnterminated
	}

	tagsLine := "tags: [" + strings.Join(frontmatter.NormalizeTags(newTags), ", ") + "]\n"
	replaced := false
	updated := make([]string, 0, len(lines)+1)
	updated = append(updated, lines[0])
	for _, line := range lines[1:closeIdx] {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "tags:") {
			updated = append(updated, tagsLine)
			replaced = true
			continue
		}
		updated = append(updated, line)
	}
	if !replaced {
		updated = append(updated, tagsLine)
	}
	updated = append(updated, lines[closeIdx:]...)

	if err := os.WriteFile(skillPath, []byte(strings.Join(updated, "")), 0o644); err != nil {
		return errors.Wrap(err, "failed to write skill file")
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
