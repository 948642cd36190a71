// Package mcpserver exposes the skill index over the Model Context
// Protocol. It registers one tool per operation and serves them on stdio;
// all shared state lives in pkg/state and is initialized lazily on the
// first tool call.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/skillcortex/skillcortex/pkg/state"
	"github.com/skillcortex/skillcortex/pkg/version"
)

const serverInstructions = `skillcortex indexes SKILL.md skill definitions from the configured
skill roots. Use list_skill_tree to browse categories, search_skills to find
skills by text or tags, and get_skill_details to fetch a skill's
instructions. create_skill, delete_skill, and update_tags mutate the skill
files and refresh the index.`

// Server holds the tool handlers and their shared state.
type Server struct {
	state *state.State
}

// New builds the MCP server with every skill tool registered.
func New(st *state.State) *server.MCPServer {
	s := &Server{state: st}

	mcpServer := server.NewMCPServer(
		"skillcortex",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	mcpServer.AddTool(mcp.NewTool("list_skill_tree",
		mcp.WithDescription("Browse the skill category tree. Returns the categories and skills at the given path."),
		mcp.WithString("path", mcp.Description("Slash-separated category path, e.g. \"coding/python\". Empty for the root.")),
	), s.handleListSkillTree)

	mcpServer.AddTool(mcp.NewTool("search_skills",
		mcp.WithDescription("Search skills by free text and/or tags."),
		mcp.WithString("query", mcp.Description("Case-insensitive substring matched against id, name, description, and category.")),
		mcp.WithArray("tags", mcp.Description("Tags a skill must all carry."), mcp.Items(map[string]any{"type": "string"})),
	), s.handleSearchSkills)

	mcpServer.AddTool(mcp.NewTool("get_skill_details",
		mcp.WithDescription("Get a skill's metadata and content. Sections keep responses small; ask for \"full\" only when needed."),
		mcp.WithString("skill_id", mcp.Required(), mcp.Description("Unique identifier of the skill.")),
		mcp.WithString("section", mcp.Description("\"summary\" (default), \"full\", or a body section such as \"instructions\" or \"examples\".")),
		mcp.WithNumber("max_lines", mcp.Description("Optional line limit for returned content.")),
	), s.handleGetSkillDetails)

	mcpServer.AddTool(mcp.NewTool("update_tags",
		mcp.WithDescription("List skills with tag issues, or apply tag updates to skill files."),
		mcp.WithString("mode", mcp.Description("\"list\" (default) or \"apply\".")),
		mcp.WithArray("updates", mcp.Description("For apply: objects with skill_id and tags."), mcp.Items(map[string]any{"type": "object"})),
	), s.handleUpdateTags)

	mcpServer.AddTool(mcp.NewTool("create_skill",
		mcp.WithDescription("Create a new skill under the writable skill root."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Skill path such as \"coding/python-helper\" or \"simple-skill\".")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Skill description, 1-1024 characters.")),
		mcp.WithArray("tags", mcp.Description("Optional tags."), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("instructions", mcp.Description("Optional body; a section template is generated when omitted.")),
		mcp.WithString("license", mcp.Description("Optional license.")),
		mcp.WithObject("metadata", mcp.Description("Optional string-to-string metadata mapping.")),
		mcp.WithBoolean("create_scripts_dir", mcp.Description("Also create a scripts/ directory.")),
		mcp.WithBoolean("create_references_dir", mcp.Description("Also create a references/ directory.")),
		mcp.WithBoolean("create_assets_dir", mcp.Description("Also create an assets/ directory.")),
	), s.handleCreateSkill)

	mcpServer.AddTool(mcp.NewTool("delete_skill",
		mcp.WithDescription("Delete a skill (requires confirmation). Only skills under the writable root can be deleted."),
		mcp.WithString("skill_id", mcp.Required(), mcp.Description("Unique identifier of the skill to delete.")),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to actually delete; false returns a preview.")),
	), s.handleDeleteSkill)

	return mcpServer
}
