// Package content serves partial skill file content on demand. The index
// core exposes metadata only; when a caller wants a skill's instructions or
// examples, this package slices the markdown body into sections delimited
// by heading lines, located via the goldmark AST.
package content

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type heading struct {
	level     int
	title     string
	lineStart int
}

// headings parses the body and returns every heading with the byte offset
// of its line start, in document order.
func headings(body []byte) []heading {
	doc := goldmark.New().Parser().Parse(text.NewReader(body))

	var found []heading
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		seg := h.Lines().At(0)
		found = append(found, heading{
			level:     h.Level,
			title:     strings.TrimSpace(string(body[seg.Start:seg.Stop])),
			lineStart: lineStart(body, seg.Start),
		})
		return ast.WalkContinue, nil
	})
	return found
}

// ExtractSection returns the part of the body belonging to the heading
// whose title contains section (case-insensitive), from that heading line
// up to the next heading at the same or a shallower level. When the section
// is absent, "instructions" falls
// back to the leading body text before the first level-two heading; any
// other missing section yields a not-found marker.
func ExtractSection(body, section string) string {
	want := strings.ToLower(strings.TrimSpace(section))
	src := []byte(body)
	all := headings(src)

	for i, h := range all {
		if !strings.Contains(strings.ToLower(h.title), want) {
			continue
		}
		// The section owns everything up to the next heading at the same
		// or a shallower level, so subsections stay attached.
		end := len(src)
		for _, next := range all[i+1:] {
			if next.level <= h.level {
				end = next.lineStart
				break
			}
		}
		return strings.TrimSpace(string(src[h.lineStart:end]))
	}

	if want == "instructions" {
		end := len(src)
		for _, h := range all {
			if h.level == 2 {
				end = h.lineStart
				break
			}
		}
		if lead := strings.TrimSpace(string(src[:end])); lead != "" {
			return lead
		}
		return "[No instructions section found]"
	}

	return fmt.Sprintf("[Section %q not found]", section)
}

// ApplyMaxLines truncates s to at most maxLines lines, noting how many
// were dropped. Non-positive maxLines disables truncation.
func ApplyMaxLines(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	kept := strings.Join(lines[:maxLines], "\n")
	return fmt.Sprintf("%s\n... [truncated, %d more lines]", kept, len(lines)-maxLines)
}

func lineStart(src []byte, offset int) int {
	for offset > 0 && src[offset-1] != '\n' {
		offset--
	}
	return offset
}
