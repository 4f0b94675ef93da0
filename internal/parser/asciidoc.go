package parser

import (
	"regexp"
	"strings"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// AsciiDocParser parses AsciiDoc documents using regex patterns.
type AsciiDocParser struct {
	markers Markers
}

// NewAsciiDocParser creates a new AsciiDocParser.
func NewAsciiDocParser(markers Markers) *AsciiDocParser {
	return &AsciiDocParser{markers: markers}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *AsciiDocParser) SupportedExtensions() []string {
	return []string{".adoc", ".asciidoc"}
}

var (
	// Matches [source,tag,attr1="val1",attr2="val2"]
	asciidocSourceRe = regexp.MustCompile(`^\[source,([^,\]]+)(?:,(.+))?\]\s*$`)
	// Matches ---- delimiter
	asciidocDelimRe = regexp.MustCompile(`^----+\s*$`)
	// Matches = Title, == Section, etc.
	asciidocHeadingRe = regexp.MustCompile(`^(={1,6})\s+(.+)$`)
)

// Parse extracts [source,<tag>] listing blocks and section titles.
func (p *AsciiDocParser) Parse(filePath string, content []byte, tags []string) (*domain.ParsedDocument, error) {
	lines := strings.Split(string(content), "\n")
	wanted := tagSet(tags)

	parsed := &domain.ParsedDocument{
		FilePath: filePath,
		FileType: "asciidoc",
		Metadata: make(map[string]string),
	}

	var currentHeading, currentGroup string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if name, ok := p.markers.start(trimmed); ok {
			currentGroup = name
			parsed.Metadata["scenario-start"] = name
			continue
		}
		if p.markers.end(trimmed) {
			currentGroup = ""
			continue
		}

		if m := asciidocHeadingRe.FindStringSubmatch(line); m != nil {
			title := strings.TrimSpace(m[2])
			parsed.Headings = append(parsed.Headings, domain.Heading{
				Level: len(m[1]),
				Text:  title,
				Line:  i + 1,
			})
			currentHeading = title
			continue
		}

		m := asciidocSourceRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		tag := strings.TrimSpace(m[1])
		if !wanted[tag] {
			continue
		}
		attrs := make(map[string]string)
		if m[2] != "" {
			attrs = parseAsciidocAttrs(m[2])
		}

		// The listing delimiter must follow the directive directly.
		if i+1 >= len(lines) || !asciidocDelimRe.MatchString(lines[i+1]) {
			continue
		}
		i += 2
		start := i + 1
		var body []string
		for i < len(lines) && !asciidocDelimRe.MatchString(lines[i]) {
			body = append(body, lines[i])
			i++
		}
		if i >= len(lines) {
			return nil, domain.NewErrorWithSuggestion("parse", filePath, start-1,
				"unterminated listing block",
				"close the block with a ---- line", nil)
		}

		parsed.Blocks = append(parsed.Blocks, domain.ScenarioBlock{
			Tag:        tag,
			Content:    strings.Join(body, "\n"),
			LineNumber: start,
			Attributes: attrs,
			Context:    currentHeading,
			Group:      currentGroup,
		})
	}

	return parsed, nil
}

// parseAsciidocAttrs parses comma-separated key="value" or key=value attributes.
func parseAsciidocAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range splitQuoted(s, func(c byte) bool { return c == ',' }) {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		attrs[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(val), "\"'")
	}
	return attrs
}
