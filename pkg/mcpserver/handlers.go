package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"

	"github.com/skillcortex/skillcortex/pkg/content"
	"github.com/skillcortex/skillcortex/pkg/frontmatter"
	"github.com/skillcortex/skillcortex/pkg/logger"
	"github.com/skillcortex/skillcortex/pkg/manager"
	"github.com/skillcortex/skillcortex/pkg/scanner"
	"github.com/skillcortex/skillcortex/pkg/tags"
)

// skillSummary is the compact record shape returned by browse and search
// tools; full content is only served by get_skill_details.
type skillSummary struct {
	SkillID      string          `json:"skill_id"`
	Name         string          `json:"name"`
	Snapshot     string          `json:"description_snapshot"`
	Tags         []string        `json:"tags"`
	TagIssues    []scanner.Issue `json:"tag_issues,omitempty"`
	CategoryPath []string        `json:"category_path"`
}

func summarize(record *scanner.SkillRecord) skillSummary {
	return skillSummary{
		SkillID:      record.ID,
		Name:         record.Name(),
		Snapshot:     record.Snapshot,
		Tags:         record.Frontmatter.Tags,
		TagIssues:    record.Issues,
		CategoryPath: record.CategoryPath,
	}
}

func (s *Server) handleListSkillTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, scan, err := s.state.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	path := splitCategoryPath(argString(request, "path"))
	node := scan.Tree.Walk(path)
	if node == nil {
		return mcp.NewToolResultError("category path not found: " + strings.Join(path, "/")), nil
	}

	summaries := make([]skillSummary, 0, len(node.Skills))
	for _, record := range node.Skills {
		summaries = append(summaries, summarize(record))
	}
	return jsonResult(map[string]any{
		"path":       path,
		"categories": node.CategoryNames(),
		"skills":     summaries,
	})
}

func (s *Server) handleSearchSkills(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, scan, err := s.state.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(argString(request, "query")))
	filterTags := frontmatter.NormalizeTags(argStringSlice(request, "tags"))

	results := make([]skillSummary, 0)
	for _, record := range scan.Skills {
		if query != "" && !matchesQuery(record, query) {
			continue
		}
		if !hasAllTags(record, filterTags) {
			continue
		}
		results = append(results, summarize(record))
	}
	return jsonResult(map[string]any{"count": len(results), "results": results})
}

func matchesQuery(record *scanner.SkillRecord, query string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		record.ID,
		record.Name(),
		record.Snapshot,
		strings.Join(record.CategoryPath, "/"),
	}, " "))
	return strings.Contains(haystack, query)
}

func hasAllTags(record *scanner.SkillRecord, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	have := make(map[string]bool, len(record.Frontmatter.Tags))
	for _, tag := range record.Frontmatter.Tags {
		have[tag] = true
	}
	for _, tag := range wanted {
		if !have[tag] {
			return false
		}
	}
	return true
}

func (s *Server) handleGetSkillDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, scan, err := s.state.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	skillID := argString(request, "skill_id")
	record := scan.FindSkill(skillID)
	if record == nil {
		return mcp.NewToolResultError("skill not found: " + skillID), nil
	}

	response := map[string]any{
		"skill_id":    record.ID,
		"name":        record.Name(),
		"description": record.Frontmatter.Description,
		"tags":        record.Frontmatter.Tags,
	}

	section := strings.ToLower(strings.TrimSpace(argString(request, "section")))
	if section == "" || section == "summary" {
		response["description_snapshot"] = record.Snapshot
		response["hint"] = "Use section=\"instructions\" or \"full\" for complete content"
		return jsonResult(response)
	}

	raw, err := os.ReadFile(record.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skill file %q", record.Path)
	}

	body := string(raw)
	if doc, err := frontmatter.Parse(body); err == nil {
		body = doc.Body
	}

	maxLines := argInt(request, "max_lines")
	if section == "full" {
		response["content"] = content.ApplyMaxLines(string(raw), maxLines)
	} else {
		response["section"] = section
		response["content"] = content.ApplyMaxLines(content.ExtractSection(body, section), maxLines)
	}
	return jsonResult(response)
}

// tagUpdateResult reports the outcome of one update in an apply batch.
type tagUpdateResult struct {
	SkillID string   `json:"skill_id,omitempty"`
	OK      bool     `json:"ok"`
	Error   string   `json:"error,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func (s *Server) handleUpdateTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := strings.ToLower(strings.TrimSpace(argString(request, "mode")))
	if mode == "" || mode == "list" {
		_, scan, err := s.state.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		flagged := make([]skillSummary, 0)
		for _, record := range scan.Skills {
			if record.HasIssues() {
				flagged = append(flagged, summarize(record))
			}
		}
		return jsonResult(map[string]any{"count": len(flagged), "skills": flagged})
	}
	if mode != "apply" {
		return mcp.NewToolResultError("invalid mode: " + mode), nil
	}

	updates := argObjectSlice(request, "updates")
	if len(updates) == 0 {
		return mcp.NewToolResultError("apply mode requires a non-empty updates list"), nil
	}

	var results []tagUpdateResult
	err := s.state.Mutate(ctx, func(registry *tags.Registry, scan *scanner.ScanResult) error {
		for _, update := range updates {
			results = append(results, applyTagUpdate(registry, scan, update))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"results": results})
}

func applyTagUpdate(registry *tags.Registry, scan *scanner.ScanResult, update map[string]any) tagUpdateResult {
	skillID, _ := update["skill_id"].(string)
	if skillID == "" {
		return tagUpdateResult{Error: "missing skill_id"}
	}
	newTags := frontmatter.NormalizeTags(anySlice(update["tags"]))
	if len(newTags) == 0 {
		return tagUpdateResult{SkillID: skillID, Error: "missing tags"}
	}

	var invalid []string
	for _, tag := range newTags {
		if !registry.IsAllowed(tag) {
			invalid = append(invalid, tag)
		}
	}
	if len(invalid) > 0 {
		return tagUpdateResult{SkillID: skillID, Error: "invalid tags", Invalid: invalid}
	}

	record := scan.FindSkill(skillID)
	if record == nil {
		return tagUpdateResult{SkillID: skillID, Error: "skill not found"}
	}
	if err := manager.UpdateTags(record.Path, newTags); err != nil {
		return tagUpdateResult{SkillID: skillID, Error: err.Error()}
	}
	return tagUpdateResult{SkillID: skillID, OK: true, Tags: newTags}
}

func (s *Server) handleCreateSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := manager.CreateOptions{
		Path:          argString(request, "path"),
		Description:   argString(request, "description"),
		Tags:          argStringSlice(request, "tags"),
		Instructions:  argString(request, "instructions"),
		License:       argString(request, "license"),
		Metadata:      argStringMap(request, "metadata"),
		ScriptsDir:    argBool(request, "create_scripts_dir"),
		ReferencesDir: argBool(request, "create_references_dir"),
		AssetsDir:     argBool(request, "create_assets_dir"),
	}

	var created *manager.CreateResult
	err := s.state.Mutate(ctx, func(_ *tags.Registry, _ *scanner.ScanResult) error {
		var createErr error
		created, createErr = manager.Create(s.state.Config(), opts)
		return createErr
	})
	if err != nil {
		logger.G(ctx).WithError(err).WithField("path", opts.Path).Warn("Skill creation failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"skill_path":    created.SkillPath,
		"skill_dir":     created.SkillDir,
		"skill_name":    created.SkillName,
		"category_path": created.CategoryPath,
		"message":       "Skill created successfully at " + created.SkillPath,
	})
}

func (s *Server) handleDeleteSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, scan, err := s.state.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	skillID := argString(request, "skill_id")
	record := scan.FindSkill(skillID)
	if record == nil {
		return mcp.NewToolResultError("skill not found: " + skillID), nil
	}

	if !argBool(request, "confirm") {
		if ok, reason := manager.IsDeletable(record.Path, s.state.Config().Roots); !ok {
			return mcp.NewToolResultError(reason), nil
		}
		return jsonResult(map[string]any{
			"skill_id":   skillID,
			"skill_path": record.Path,
			"message":    "Preview mode: skill will NOT be deleted. Set confirm=true to delete.",
		})
	}

	err = s.state.Mutate(ctx, func(_ *tags.Registry, _ *scanner.ScanResult) error {
		return manager.Delete(record.Path, s.state.Config().Roots)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"skill_id": skillID,
		"message":  "Skill deleted successfully",
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tool result")
	}
	return mcp.NewToolResultText(string(data)), nil
}

func splitCategoryPath(path string) []string {
	parts := make([]string, 0, 4)
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
