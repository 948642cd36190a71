// Package frontmatter parses the metadata block at the top of SKILL.md
// files. The block is bounded by "---" delimiter lines and holds simple
// key/value pairs plus a tags list (inline bracketed or multi-line) and an
// optional nested metadata mapping. The parser is a small line-oriented
// state machine and is deliberately tolerant: lines it cannot interpret are
// skipped rather than failing the whole file.
package frontmatter

import (
	"strings"

	"github.com/pkg/errors"
)

// Delimiter marks the start and end of a frontmatter block.
const Delimiter = "---"

// ErrUnterminated is returned when a frontmatter block is opened but never
// closed. Content without an opening delimiter is not an error; it is
// treated as all body.
var ErrUnterminated = errors.New("unterminated frontmatter")

// Frontmatter holds the parsed metadata of a skill file.
type Frontmatter struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	License     string            `json:"license,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Document is the result of parsing a skill file: the frontmatter plus the
// body that follows the closing delimiter.
type Document struct {
	Frontmatter Frontmatter
	Body        string
}

type parseState int

const (
	stateBeforeBlock parseState = iota
	stateInBlock
	stateInBody
)

// field tracks which multi-line construct the parser is inside while in the
// block, so indented continuation lines can be attributed correctly.
type field int

const (
	fieldNone field = iota
	fieldTags
	fieldMetadata
)

// Parse reads a skill file's content. If the first line is not an opening
// delimiter the whole content becomes the body with zero-value metadata.
// Duplicate keys inside the block overwrite earlier occurrences (last one
// wins). Tags are normalized via NormalizeTags before returning.
func Parse(content string) (*Document, error) {
	doc := &Document{}
	lines := strings.Split(content, "\n")

	state := stateBeforeBlock
	current := fieldNone
	var rawTags []string
	var bodyStart int
	terminated := false

	for i, line := range lines {
		switch state {
		case stateBeforeBlock:
			if strings.TrimSpace(line) != Delimiter {
				doc.Body = content
				return doc, nil
			}
			state = stateInBlock

		case stateInBlock:
			trimmed := strings.TrimSpace(line)
			if trimmed == Delimiter {
				state = stateInBody
				terminated = true
				bodyStart = i + 1
				continue
			}
			if trimmed == "" {
				continue
			}

			indented := line != strings.TrimLeft(line, " \t")
			if indented || strings.HasPrefix(trimmed, "-") {
				switch {
				case current == fieldTags && strings.HasPrefix(trimmed, "-"):
					item := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
					if item = unquote(item); item != "" {
						rawTags = append(rawTags, item)
					}
				case current == fieldMetadata:
					if key, value, ok := splitKeyValue(trimmed); ok {
						setMetadata(&doc.Frontmatter, key, value)
					}
				}
				continue
			}

			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				current = fieldNone
				continue
			}

			switch key {
			case "tags":
				if value == "" {
					current = fieldTags
					rawTags = nil
					continue
				}
				rawTags = parseInlineTags(value)
				current = fieldNone
			case "metadata":
				current = fieldMetadata
			case "name":
				doc.Frontmatter.Name = value
				current = fieldNone
			case "description":
				doc.Frontmatter.Description = value
				current = fieldNone
			case "license":
				doc.Frontmatter.License = value
				current = fieldNone
			default:
				// Unknown top-level keys are preserved under metadata.
				setMetadata(&doc.Frontmatter, key, value)
				current = fieldNone
			}
		}

		if state == stateInBody {
			break
		}
	}

	if !terminated {
		return nil, ErrUnterminated
	}

	doc.Frontmatter.Tags = NormalizeTags(rawTags)
	doc.Body = strings.TrimLeft(strings.Join(lines[bodyStart:], "\n"), "\n")
	return doc, nil
}

// NormalizeTags trims, lowercases, and hyphenates each tag, drops empties,
// and removes duplicates while preserving first-seen order. It is
// idempotent: normalizing an already-normalized list is a no-op.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))

	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		t = strings.Join(strings.Fields(t), "-")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}

	return normalized
}

// parseInlineTags parses a bracketed inline list such as "[coding, python]".
// A bare comma-separated value without brackets is accepted as well.
func parseInlineTags(value string) []string {
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")

	var items []string
	for _, part := range strings.Split(value, ",") {
		if item := unquote(strings.TrimSpace(part)); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func splitKeyValue(line string) (string, string, bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key := strings.ToLower(strings.TrimSpace(line[:idx]))
	if key == "" {
		return "", "", false
	}
	return key, unquote(strings.TrimSpace(line[idx+1:])), true
}

func setMetadata(fm *Frontmatter, key, value string) {
	if fm.Metadata == nil {
		fm.Metadata = make(map[string]string)
	}
	fm.Metadata[key] = value
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
