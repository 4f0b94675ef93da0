package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// MarkdownParser parses Markdown documents using goldmark.
type MarkdownParser struct {
	markers Markers
}

// NewMarkdownParser creates a new MarkdownParser.
func NewMarkdownParser(markers Markers) *MarkdownParser {
	return &MarkdownParser{markers: markers}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *MarkdownParser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Parse walks the Markdown AST and extracts fenced blocks whose info tag is
// one of tags, together with the headings used for describe/context names.
func (p *MarkdownParser) Parse(filePath string, content []byte, tags []string) (*domain.ParsedDocument, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	parsed := &domain.ParsedDocument{
		FilePath: filePath,
		FileType: "markdown",
		Metadata: make(map[string]string),
	}
	wanted := tagSet(tags)

	var currentHeading, currentGroup string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			headingText := extractText(node, content)
			lineNum := 0
			if node.Lines().Len() > 0 {
				lineNum = lineNumber(content, node.Lines().At(0).Start)
			} else if first, ok := node.FirstChild().(*ast.Text); ok {
				lineNum = lineNumber(content, first.Segment.Start)
			}
			parsed.Headings = append(parsed.Headings, domain.Heading{
				Level: node.Level,
				Text:  headingText,
				Line:  lineNum,
			})
			currentHeading = headingText

		case *ast.FencedCodeBlock:
			var info string
			if node.Info != nil {
				info = string(node.Info.Segment.Value(content))
			}
			attrs := parseInfoString(info)
			tag := attrs["_tag"]
			if !wanted[tag] || node.Lines().Len() == 0 {
				return ast.WalkContinue, nil
			}
			delete(attrs, "_tag")

			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				buf.Write(line.Value(content))
			}

			parsed.Blocks = append(parsed.Blocks, domain.ScenarioBlock{
				Tag:        tag,
				Content:    strings.TrimRight(buf.String(), "\n"),
				LineNumber: lineNumber(content, lines.At(0).Start),
				Attributes: attrs,
				Context:    currentHeading,
				Group:      currentGroup,
			})

		case *ast.HTMLBlock:
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				buf.Write(line.Value(content))
			}
			html := strings.TrimSpace(buf.String())
			if name, ok := p.markers.start(html); ok {
				currentGroup = name
				parsed.Metadata["scenario-start"] = name
			} else if p.markers.end(html) {
				currentGroup = ""
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("parse", filePath, 0,
			"failed to walk markdown AST",
			"check the markdown file for syntax issues; scenario blocks must use fenced code blocks",
			err)
	}

	return parsed, nil
}

// parseInfoString parses a fenced code block info string like:
//
//	ui-scenario name="Login" timeout=5s
//
// The first token is stored under _tag, the rest as key/value pairs.
func parseInfoString(info string) map[string]string {
	result := make(map[string]string)
	parts := splitQuoted(strings.TrimSpace(info), func(c byte) bool { return c == ' ' || c == '\t' })
	if len(parts) == 0 {
		return result
	}

	result["_tag"] = parts[0]
	for _, part := range parts[1:] {
		if key, val, ok := strings.Cut(part, "="); ok && key != "" {
			result[key] = strings.Trim(val, "\"'")
		}
	}
	return result
}

// splitQuoted splits s on separator bytes outside single or double quotes.
func splitQuoted(s string, isSep func(byte) bool) []string {
	var parts []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			current.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			current.WriteByte(c)
		case isSep(c):
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// extractText gets the text content of a heading node.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

// lineNumber calculates the 1-based line number for a byte offset.
func lineNumber(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
