package parser

import (
	"bytes"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// YAMLParser treats a whole YAML file as one scenario block.
type YAMLParser struct{}

// NewYAMLParser creates a new YAMLParser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *YAMLParser) SupportedExtensions() []string {
	return []string{".yaml", ".yml"}
}

// Parse returns a document with a single block holding the file content.
// Tags do not apply to plain scenario files.
func (p *YAMLParser) Parse(filePath string, content []byte, _ []string) (*domain.ParsedDocument, error) {
	parsed := &domain.ParsedDocument{
		FilePath: filePath,
		FileType: "yaml",
		Metadata: make(map[string]string),
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return parsed, nil
	}
	parsed.Blocks = append(parsed.Blocks, domain.ScenarioBlock{
		Tag:        "yaml",
		Content:    string(content),
		LineNumber: 1,
		Attributes: map[string]string{},
	})
	return parsed, nil
}
