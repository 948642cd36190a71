package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillcortex/skillcortex/pkg/config"
	"github.com/skillcortex/skillcortex/pkg/scanner"
	"github.com/skillcortex/skillcortex/pkg/state"
)

func testServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		Roots:     []string{filepath.Join(base, ".skills")},
		CachePath: filepath.Join(base, "index.json"),
		TagsPath:  filepath.Join(base, "tags.txt"),
	}
	require.NoError(t, cfg.EnsureWritableRoot())
	return &Server{state: state.New(cfg)}, cfg
}

func addSkill(t *testing.T, cfg *config.Config, relDir, content string) {
	t.Helper()
	dir := filepath.Join(cfg.WritableRoot(), filepath.FromSlash(relDir))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, scanner.SkillFileName), []byte(content), 0o644))
}

func request(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func decode(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

const pythonSkill = `---
name: python-helper
description: Helps with Python coding tasks
tags: [coding, python]
---

## Instructions

Use Python well.

## Examples

print("hello")
`

func TestListSkillTree(t *testing.T) {
	s, cfg := testServer(t)
	addSkill(t, cfg, "coding/python-helper", pythonSkill)
	addSkill(t, cfg, "simple-skill", "---\nname: simple-skill\ndescription: d\n---\nx")

	result, err := s.handleListSkillTree(context.Background(), request(map[string]any{}))
	require.NoError(t, err)
	payload := decode(t, result)
	assert.Equal(t, []any{"coding"}, payload["categories"])
	require.Len(t, payload["skills"], 1)

	result, err = s.handleListSkillTree(context.Background(), request(map[string]any{"path": "coding"}))
	require.NoError(t, err)
	payload = decode(t, result)
	skills := payload["skills"].([]any)
	require.Len(t, skills, 1)
	assert.Equal(t, "coding/python-helper", skills[0].(map[string]any)["skill_id"])
}

func TestListSkillTreeUnknownPath(t *testing.T) {
	s, cfg := testServer(t)
	addSkill(t, cfg, "simple-skill", "---\nname: simple-skill\ndescription: d\n---\nx")

	result, err := s.handleListSkillTree(context.Background(), request(map[string]any{"path": "no/such/path"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSearchSkills(t *testing.T) {
	s, cfg := testServer(t)
	addSkill(t, cfg, "coding/python-helper", pythonSkill)
	addSkill(t, cfg, "writing/essay-helper", "---\nname: essay-helper\ndescription: Helps write essays\ntags: [writing]\n---\nx")

	t.Run("by query", func(t *testing.T) {
		result, err := s.handleSearchSkills(context.Background(), request(map[string]any{"query": "python"}))
		require.NoError(t, err)
		payload := decode(t, result)
		assert.Equal(t, float64(1), payload["count"])
	})

	t.Run("by tags", func(t *testing.T) {
		result, err := s.handleSearchSkills(context.Background(), request(map[string]any{"tags": []any{"writing"}}))
		require.NoError(t, err)
		payload := decode(t, result)
		results := payload["results"].([]any)
		require.Len(t, results, 1)
		assert.Equal(t, "writing/essay-helper", results[0].(map[string]any)["skill_id"])
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		result, err := s.handleSearchSkills(context.Background(), request(map[string]any{}))
		require.NoError(t, err)
		payload := decode(t, result)
		assert.Equal(t, float64(2), payload["count"])
	})
}

func TestGetSkillDetails(t *testing.T) {
	s, cfg := testServer(t)
	addSkill(t, cfg, "coding/python-helper", pythonSkill)

	t.Run("summary by default", func(t *testing.T) {
		result, err := s.handleGetSkillDetails(context.Background(), request(map[string]any{"skill_id": "coding/python-helper"}))
		require.NoError(t, err)
		payload := decode(t, result)
		assert.Equal(t, "python-helper", payload["name"])
		assert.NotContains(t, payload, "content")
	})

	t.Run("full content", func(t *testing.T) {
		result, err := s.handleGetSkillDetails(context.Background(), request(map[string]any{
			"skill_id": "coding/python-helper",
			"section":  "full",
		}))
		require.NoError(t, err)
		payload := decode(t, result)
		assert.Contains(t, payload["content"], "## Examples")
	})

	t.Run("named section", func(t *testing.T) {
		result, err := s.handleGetSkillDetails(context.Background(), request(map[string]any{
			"skill_id": "coding/python-helper",
			"section":  "examples",
		}))
		require.NoError(t, err)
		payload := decode(t, result)
		content := payload["content"].(string)
		assert.Contains(t, content, "print(\"hello\")")
		assert.NotContains(t, content, "Use Python well.")
	})

	t.Run("max lines", func(t *testing.T) {
		result, err := s.handleGetSkillDetails(context.Background(), request(map[string]any{
			"skill_id":  "coding/python-helper",
			"section":   "full",
			"max_lines": float64(2),
		}))
		require.NoError(t, err)
		payload := decode(t, result)
		assert.Contains(t, payload["content"], "more lines]")
	})

	t.Run("unknown skill", func(t *testing.T) {
		result, err := s.handleGetSkillDetails(context.Background(), request(map[string]any{"skill_id": "nope"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestCreateAndDeleteSkill(t *testing.T) {
	s, cfg := testServer(t)
	addSkill(t, cfg, "existing", "---\nname: existing\ndescription: d\n---\nx")

	result, err := s.handleCreateSkill(context.Background(), request(map[string]any{
		"path":        "coding/new-skill",
		"description": "A freshly created skill",
		"tags":        []any{"coding"},
	}))
	require.NoError(t, err)
	payload := decode(t, result)
	assert.Equal(t, "new-skill", payload["skill_name"])

	// The index refreshed as part of the mutation.
	_, scan, err := s.state.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, scan.FindSkill("coding/new-skill"))

	// Deleting without confirmation only previews.
	result, err = s.handleDeleteSkill(context.Background(), request(map[string]any{"skill_id": "coding/new-skill"}))
	require.NoError(t, err)
	payload = decode(t, result)
	assert.Contains(t, payload["message"], "NOT")

	_, scan, err = s.state.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, scan.FindSkill("coding/new-skill"))

	result, err = s.handleDeleteSkill(context.Background(), request(map[string]any{
		"skill_id": "coding/new-skill",
		"confirm":  true,
	}))
	require.NoError(t, err)
	decode(t, result)

	_, scan, err = s.state.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, scan.FindSkill("coding/new-skill"))
}

func TestCreateSkillInvalidPath(t *testing.T) {
	s, _ := testServer(t)

	result, err := s.handleCreateSkill(context.Background(), request(map[string]any{
		"path":        "Bad Path!",
		"description": "d",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestUpdateTags(t *testing.T) {
	s, cfg := testServer(t)
	require.NoError(t, os.WriteFile(cfg.TagsPath, []byte("coding\npython\n"), 0o644))
	addSkill(t, cfg, "flagged", "---\nname: flagged\ndescription: d\ntags: [coding, rust]\n---\nx")

	t.Run("list mode reports issues", func(t *testing.T) {
		result, err := s.handleUpdateTags(context.Background(), request(map[string]any{}))
		require.NoError(t, err)
		payload := decode(t, result)
		assert.Equal(t, float64(1), payload["count"])
	})

	t.Run("apply rewrites and rescans", func(t *testing.T) {
		result, err := s.handleUpdateTags(context.Background(), request(map[string]any{
			"mode": "apply",
			"updates": []any{
				map[string]any{"skill_id": "flagged", "tags": []any{"coding", "python"}},
			},
		}))
		require.NoError(t, err)
		payload := decode(t, result)
		results := payload["results"].([]any)
		require.Len(t, results, 1)
		assert.Equal(t, true, results[0].(map[string]any)["ok"])

		_, scan, err := s.state.Snapshot(context.Background())
		require.NoError(t, err)
		record := scan.FindSkill("flagged")
		require.NotNil(t, record)
		assert.Equal(t, []string{"coding", "python"}, record.Frontmatter.Tags)
		assert.Empty(t, record.Issues)
	})

	t.Run("apply rejects unknown tags", func(t *testing.T) {
		result, err := s.handleUpdateTags(context.Background(), request(map[string]any{
			"mode": "apply",
			"updates": []any{
				map[string]any{"skill_id": "flagged", "tags": []any{"nonsense"}},
			},
		}))
		require.NoError(t, err)
		payload := decode(t, result)
		entry := payload["results"].([]any)[0].(map[string]any)
		assert.Equal(t, false, entry["ok"])
		assert.Equal(t, "invalid tags", entry["error"])
	})

	t.Run("invalid mode", func(t *testing.T) {
		result, err := s.handleUpdateTags(context.Background(), request(map[string]any{"mode": "bogus"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
