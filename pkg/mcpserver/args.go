package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Argument extraction over the raw request map. Tool arguments arrive as
// decoded JSON, so every accessor tolerates missing keys and wrong types by
// returning a zero value; required-field enforcement happens in the
// handlers where a useful error can be produced.

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	return args
}

func argString(request mcp.CallToolRequest, key string) string {
	value, _ := arguments(request)[key].(string)
	return value
}

func argBool(request mcp.CallToolRequest, key string) bool {
	value, _ := arguments(request)[key].(bool)
	return value
}

func argInt(request mcp.CallToolRequest, key string) int {
	// JSON numbers decode as float64.
	if value, ok := arguments(request)[key].(float64); ok {
		return int(value)
	}
	return 0
}

func argStringSlice(request mcp.CallToolRequest, key string) []string {
	return anySlice(arguments(request)[key])
}

func anySlice(value any) []string {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argStringMap(request mcp.CallToolRequest, key string) map[string]string {
	raw, ok := arguments(request)[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func argObjectSlice(request mcp.CallToolRequest, key string) []map[string]any {
	raw, ok := arguments(request)[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
