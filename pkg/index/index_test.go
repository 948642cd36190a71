package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcortex/skillcortex/pkg/frontmatter"
	"github.com/skillcortex/skillcortex/pkg/scanner"
)

func sampleResult() *scanner.ScanResult {
	records := []*scanner.SkillRecord{
		{
			ID:   "coding/python-helper",
			Path: "/roots/.skills/coding/python-helper/SKILL.md",
			Frontmatter: frontmatter.Frontmatter{
				Name:        "python-helper",
				Description: "Helps with Python",
				Tags:        []string{"coding", "python"},
			},
			Snapshot:     "Helps with Python",
			CategoryPath: []string{"coding"},
		},
		{
			ID:           "simple-skill",
			Path:         "/roots/.skills/simple-skill/SKILL.md",
			Frontmatter:  frontmatter.Frontmatter{Name: "simple-skill", Description: "d"},
			Snapshot:     "d",
			Issues:       []scanner.Issue{{Kind: scanner.IssueUnknownTag, Detail: "rust"}},
			CategoryPath: nil,
		},
	}
	return &scanner.ScanResult{Tree: scanner.BuildTree(records), Skills: records}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "index.json")
	saved := sampleResult()

	require.NoError(t, Save(path, saved))

	loaded, ok := Load(context.Background(), path)
	require.True(t, ok)
	require.Len(t, loaded.Skills, 2)

	for i, record := range saved.Skills {
		got := loaded.Skills[i]
		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, record.Path, got.Path)
		assert.Equal(t, record.Frontmatter, got.Frontmatter)
		assert.Equal(t, record.Snapshot, got.Snapshot)
		assert.Equal(t, record.Issues, got.Issues)
		assert.Equal(t, record.CategoryPath, got.CategoryPath)

		// Tree is rebuilt on load: every record must be reachable by its
		// category path.
		node := loaded.Tree.Walk(got.CategoryPath)
		require.NotNil(t, node)
		assert.Contains(t, node.Skills, got)
	}
	assert.Equal(t, saved.Tree.CategoryNames(), loaded.Tree.CategoryNames())
}

func TestLoadMissingFile(t *testing.T) {
	result, ok := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("\x00garbage{not json"), 0o644))

	result, ok := Load(context.Background(), path)
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestLoadVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	data, err := json.Marshal(map[string]any{"version": 999, "skills": []any{}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, ok := Load(context.Background(), path)
	assert.False(t, ok)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	require.NoError(t, Save(path, sampleResult()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index.json", entries[0].Name())
}

func TestSaveOverwritesPreviousCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, Save(path, sampleResult()))

	smaller := &scanner.ScanResult{Tree: scanner.BuildTree(nil), Skills: nil}
	require.NoError(t, Save(path, smaller))

	loaded, ok := Load(context.Background(), path)
	require.True(t, ok)
	assert.Empty(t, loaded.Skills)
}
