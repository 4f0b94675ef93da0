package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// Parser extracts scenario blocks from a source file.
type Parser interface {
	Parse(filePath string, content []byte, tags []string) (*domain.ParsedDocument, error)
	SupportedExtensions() []string
}

// ParserRegistry maps file extensions to parsers.
type ParserRegistry interface {
	Register(parser Parser)
	ParserFor(filePath string) (Parser, error)
}

// Markers holds the comment prefixes that open and close a named scenario
// spanning several blocks.
type Markers struct {
	Start []string
	End   []string
}

// DefaultMarkers returns the markers understood when none are configured.
func DefaultMarkers() Markers {
	return Markers{
		Start: []string{"<!-- scenario-start:", "// scenario-start:"},
		End:   []string{"<!-- scenario-end", "// scenario-end"},
	}
}

// start returns the group name if line opens a scenario group.
func (m Markers) start(line string) (string, bool) {
	for _, marker := range m.Start {
		if strings.HasPrefix(line, marker) {
			name := strings.TrimPrefix(line, marker)
			name = strings.TrimSuffix(strings.TrimSpace(name), "-->")
			return strings.TrimSpace(name), true
		}
	}
	return "", false
}

func (m Markers) end(line string) bool {
	for _, marker := range m.End {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

// DefaultRegistry is a thread-safe parser registry.
type DefaultRegistry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates a new DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		parsers: make(map[string]Parser),
	}
}

// NewDefaultRegistry returns a registry with the Markdown, AsciiDoc and YAML
// parsers registered.
func NewDefaultRegistry(markers Markers) *DefaultRegistry {
	r := NewRegistry()
	r.Register(NewMarkdownParser(markers))
	r.Register(NewAsciiDocParser(markers))
	r.Register(NewYAMLParser())
	return r
}

// Register adds a parser to the registry for each of its supported extensions.
func (r *DefaultRegistry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.SupportedExtensions() {
		r.parsers[strings.ToLower(strings.TrimPrefix(ext, "."))] = p
	}
}

// ParserFor returns the parser registered for the extension of filePath.
func (r *DefaultRegistry) ParserFor(filePath string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if p, ok := r.parsers[ext]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no parser registered for extension %q", filepath.Ext(filePath))
}

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}
