package template

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// TemplateEngine renders suite results into report documents.
type TemplateEngine interface {
	Render(name string, result *domain.SuiteResult) (string, error)
	ListTemplates() []string
}

// DefaultEngine implements TemplateEngine.
type DefaultEngine struct {
	templates map[string]*template.Template
}

// NewEngine loads the built-in report templates. When overrideDir is set,
// its .tmpl files replace built-ins of the same name or add new formats.
func NewEngine(overrideDir string) (*DefaultEngine, error) {
	engine := &DefaultEngine{
		templates: make(map[string]*template.Template),
	}

	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		return nil, domain.NewError("template", "templates", 0, "failed to open built-in templates", err)
	}
	if err := engine.loadTemplates(sub, "built-in"); err != nil {
		return nil, err
	}
	if overrideDir != "" {
		if err := engine.loadTemplates(os.DirFS(overrideDir), overrideDir); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// loadTemplates reads all .tmpl files from fsys.
func (e *DefaultEngine) loadTemplates(fsys fs.FS, origin string) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return domain.NewErrorWithSuggestion("template", origin, 0, "failed to read template directory",
			"check output.templates_dir in scenario-runner.yaml", err)
	}

	funcMap := CustomFuncMap()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}

		path := filepath.Join(origin, entry.Name())
		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return domain.NewError("template", path, 0, "failed to read template file", err)
		}

		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return domain.NewError("template", path, 0, "failed to parse template", err)
		}

		e.templates[name] = tmpl
	}

	return nil
}

// Render executes the named template against result.
func (e *DefaultEngine) Render(name string, result *domain.SuiteResult) (string, error) {
	tmpl, ok := e.templates[name]
	if !ok {
		return "", domain.NewError("template", "", 0,
			fmt.Sprintf("template %q not found (available: %s)", name, strings.Join(e.ListTemplates(), ", ")), nil)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, result); err != nil {
		return "", domain.NewError("template", name, 0, "failed to execute template", err)
	}
	return buf.String(), nil
}

// ListTemplates returns the names of all loaded templates, sorted.
func (e *DefaultEngine) ListTemplates() []string {
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
