// Package scanner walks skill root directories, parses each SKILL.md via
// the frontmatter parser, validates tags against the registry, and builds
// both a category tree and a flat list of records. A scan is an all-or-
// nothing snapshot: per-file problems are recorded on the affected record
// and never abort the walk, while an unusable root fails the whole scan.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/skillcortex/skillcortex/pkg/frontmatter"
	"github.com/skillcortex/skillcortex/pkg/logger"
	"github.com/skillcortex/skillcortex/pkg/tags"
)

// SkillFileName is the marker file that declares a skill directory.
const SkillFileName = "SKILL.md"

// snapshotMaxRunes bounds the description preview length.
const snapshotMaxRunes = 160

// IssueKind classifies a per-record validation or parse problem.
type IssueKind string

const (
	// IssueUnknownTag flags a tag absent from the configured vocabulary.
	IssueUnknownTag IssueKind = "unknown_tag"
	// IssueDuplicateID flags a record whose derived ID was already taken
	// by an earlier record in the same scan.
	IssueDuplicateID IssueKind = "duplicate_id"
	// IssueParseError flags a frontmatter block that failed to parse.
	IssueParseError IssueKind = "parse_error"
	// IssueReadError flags a skill file that could not be read.
	IssueReadError IssueKind = "read_error"
)

// Issue is one problem found on a record. Issues ride on the record rather
// than aborting the scan.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// SkillRecord is one indexed skill.
type SkillRecord struct {
	// ID is derived from CategoryPath plus the skill directory name,
	// joined by "/". It is stable across scans of unchanged trees.
	ID           string                  `json:"id"`
	Path         string                  `json:"path"`
	Frontmatter  frontmatter.Frontmatter `json:"frontmatter"`
	Snapshot     string                  `json:"snapshot"`
	Issues       []Issue                 `json:"issues,omitempty"`
	CategoryPath []string                `json:"category_path"`
}

// Name returns the frontmatter name, falling back to the skill directory
// name when the frontmatter omits one.
func (r *SkillRecord) Name() string {
	if r.Frontmatter.Name != "" {
		return r.Frontmatter.Name
	}
	return filepath.Base(filepath.Dir(r.Path))
}

// HasIssues reports whether any parse or validation problem was recorded.
func (r *SkillRecord) HasIssues() bool {
	return len(r.Issues) > 0
}

// TreeNode is one node of the category hierarchy. Children are keyed by
// category segment; Skills holds the records located directly at this node
// in discovery order.
type TreeNode struct {
	Children map[string]*TreeNode `json:"children,omitempty"`
	Skills   []*SkillRecord       `json:"skills,omitempty"`
}

// NewTreeNode returns an empty node.
func NewTreeNode() *TreeNode {
	return &TreeNode{Children: make(map[string]*TreeNode)}
}

// Walk descends the tree following the given category segments. It returns
// nil when any segment is missing.
func (n *TreeNode) Walk(path []string) *TreeNode {
	node := n
	for _, segment := range path {
		node = node.Children[segment]
		if node == nil {
			return nil
		}
	}
	return node
}

// CategoryNames returns the child category names in lexicographic order.
// Ordering is computed at read time; the tree itself stores no order.
func (n *TreeNode) CategoryNames() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScanResult is the output of one full scan: the category tree plus every
// record in discovery order. Every record in Skills is reachable from Tree
// by walking its CategoryPath and appears in exactly one node's skill list.
type ScanResult struct {
	Tree   *TreeNode
	Skills []*SkillRecord
}

// FindSkill returns the first record with the given ID, honoring the
// first-encountered-wins collision policy.
func (s *ScanResult) FindSkill(id string) *SkillRecord {
	for _, record := range s.Skills {
		if record.ID == id {
			return record
		}
	}
	return nil
}

// Scan walks each root in order and indexes every skill directory found.
// A missing or unreadable root fails the scan; everything else is recorded
// per skill. There is no parallelism: the walk is synchronous and its cost
// is linear in file count and content size.
func Scan(ctx context.Context, roots []string, registry *tags.Registry) (*ScanResult, error) {
	log := logger.G(ctx)
	var records []*SkillRecord
	byID := make(map[string]*SkillRecord)

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.Wrapf(err, "skill root %q is not usable", root)
		}
		if !info.IsDir() {
			return nil, errors.Errorf("skill root %q is not a directory", root)
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == root {
					return walkErr
				}
				log.WithError(walkErr).WithField("path", path).Warn("Skipping unreadable entry")
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || d.Name() != SkillFileName {
				return nil
			}

			categoryPath, leaf, ok := locate(root, path)
			if !ok {
				log.WithField("path", path).Debug("Skipping skill file directly under root")
				return nil
			}

			record := buildRecord(path, categoryPath, leaf, registry)
			if prior, exists := byID[record.ID]; exists {
				record.Issues = append(record.Issues, Issue{
					Kind:   IssueDuplicateID,
					Detail: "id already used by " + prior.Path,
				})
			} else {
				byID[record.ID] = record
			}
			records = append(records, record)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to walk skill root %q", root)
		}
	}

	log.WithField("skills", len(records)).Debug("Scan complete")
	return &ScanResult{Tree: BuildTree(records), Skills: records}, nil
}

// BuildTree assembles the category hierarchy from a flat record list.
// Intermediate nodes are created on demand and shared by records with a
// common category prefix; each record lands in exactly one node.
func BuildTree(records []*SkillRecord) *TreeNode {
	root := NewTreeNode()
	for _, record := range records {
		node := root
		for _, segment := range record.CategoryPath {
			child := node.Children[segment]
			if child == nil {
				child = NewTreeNode()
				node.Children[segment] = child
			}
			node = child
		}
		node.Skills = append(node.Skills, record)
	}
	return root
}

// locate splits a skill file path into the category segments between root
// and the containing directory plus the containing directory's own name.
// A SKILL.md sitting directly in a root has no containing skill directory
// and is not indexed.
func locate(root, path string) (categoryPath []string, leaf string, ok bool) {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return nil, "", false
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	return segments[:len(segments)-1], segments[len(segments)-1], true
}

func buildRecord(path string, categoryPath []string, leaf string, registry *tags.Registry) *SkillRecord {
	record := &SkillRecord{
		ID:           strings.Join(append(append([]string{}, categoryPath...), leaf), "/"),
		Path:         path,
		CategoryPath: categoryPath,
	}

	content, err := os.ReadFile(path)
	if err != nil {
		record.Issues = append(record.Issues, Issue{Kind: IssueReadError, Detail: err.Error()})
		return record
	}

	doc, err := frontmatter.Parse(string(content))
	if err != nil {
		record.Issues = append(record.Issues, Issue{Kind: IssueParseError, Detail: err.Error()})
		return record
	}

	record.Frontmatter = doc.Frontmatter
	record.Snapshot = Snapshot(doc.Frontmatter.Description)

	if registry != nil && !registry.Empty() {
		for _, tag := range doc.Frontmatter.Tags {
			if !registry.IsAllowed(tag) {
				record.Issues = append(record.Issues, Issue{Kind: IssueUnknownTag, Detail: tag})
			}
		}
	}

	return record
}

// Snapshot produces a bounded preview of a description: its first line,
// truncated to a fixed rune budget with a trailing ellipsis when cut.
func Snapshot(description string) string {
	line := description
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	runes := []rune(line)
	if len(runes) <= snapshotMaxRunes {
		return line
	}
	return string(runes[:snapshotMaxRunes]) + "..."
}
