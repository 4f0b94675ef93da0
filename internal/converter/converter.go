package converter

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// Converter transforms parsed documents into Scenario domain models.
type Converter interface {
	Convert(doc *domain.ParsedDocument, tagCfg *config.TagConfig) ([]domain.Scenario, error)
}

// DefaultConverter implements Converter.
type DefaultConverter struct {
	target *config.TargetConfig
}

// NewConverter creates a new DefaultConverter.
func NewConverter(target *config.TargetConfig) *DefaultConverter {
	return &DefaultConverter{target: target}
}

// group is the set of blocks that make up one scenario.
type group struct {
	name   string
	blocks []domain.ScenarioBlock
}

// Convert transforms a ParsedDocument into a slice of Scenarios.
// Blocks between scenario-start/end markers are merged into one scenario;
// every other block yields its own scenarios.
func (c *DefaultConverter) Convert(doc *domain.ParsedDocument, tagCfg *config.TagConfig) ([]domain.Scenario, error) {
	if len(doc.Blocks) == 0 {
		return nil, nil
	}

	describe := inferDescribeBlock(doc)
	context := inferContextBlock(doc)

	// Group blocks, maintaining document order. Ungrouped blocks stay alone.
	var groups []*group
	byName := make(map[string]*group)
	for _, block := range doc.Blocks {
		if block.Group == "" {
			groups = append(groups, &group{blocks: []domain.ScenarioBlock{block}})
			continue
		}
		g, ok := byName[block.Group]
		if !ok {
			g = &group{name: block.Group}
			byName[block.Group] = g
			groups = append(groups, g)
		}
		g.blocks = append(g.blocks, block)
	}

	var scenarios []domain.Scenario
	for _, g := range groups {
		built, err := c.convertGroup(doc, g, tagCfg)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, built...)
	}

	fallback := fileScenarioName(doc.FilePath)
	unnamed := 0
	for i := range scenarios {
		if scenarios[i].Name == "" {
			unnamed++
		}
	}
	n := 0
	seen := make(map[string]int)
	for i := range scenarios {
		s := &scenarios[i]
		if s.Name == "" {
			n++
			s.Name = fallback
			if unnamed > 1 {
				s.Name = fmt.Sprintf("%s #%d", fallback, n)
			}
		}
		if s.Describe == "" {
			s.Describe = describe
		}
		if s.Context == "" {
			s.Context = context
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, domain.NewErrorWithSuggestion("convert", doc.FilePath, s.LineNumber,
				fmt.Sprintf("duplicate scenario name %q (first defined at line %d)", s.Name, prev),
				"give each scenario a unique name", nil)
		}
		seen[s.Name] = s.LineNumber

		if !s.HasOutcomeCheck() {
			return nil, domain.NewErrorWithSuggestion("convert", doc.FilePath, s.LineNumber,
				fmt.Sprintf("scenario %q has no assertion", s.Name),
				"end the scenario with an assertions list or an inline assert step", nil)
		}
	}

	return scenarios, nil
}

// convertGroup decodes every block of a group. A named group always
// produces exactly one scenario.
func (c *DefaultConverter) convertGroup(doc *domain.ParsedDocument, g *group, tagCfg *config.TagConfig) ([]domain.Scenario, error) {
	var out []domain.Scenario
	var merged *domain.Scenario

	for _, block := range g.blocks {
		records, err := decodeBlock(block.Content)
		if err != nil {
			var schemaErr *SchemaError
			suggestion := "check the block is valid scenario YAML"
			if errors.As(err, &schemaErr) {
				suggestion = "each step needs exactly one of navigate, fill, click, read_text, read_visible, read_enabled, wait, resize, scroll, assert, screenshot"
			}
			return nil, domain.NewErrorWithSuggestion("convert", doc.FilePath, block.LineNumber,
				"invalid scenario block", suggestion, err)
		}
		if g.name != "" && len(records) > 1 {
			return nil, domain.NewError("convert", doc.FilePath, block.LineNumber,
				fmt.Sprintf("a scenarios list cannot appear inside group %q", g.name), nil)
		}

		for _, rec := range records {
			s, err := c.buildScenario(doc, block, rec, merged, tagCfg)
			if err != nil {
				return nil, err
			}
			if g.name == "" {
				out = append(out, s)
				continue
			}
			if merged == nil {
				s.Name = g.name
				merged = &s
				continue
			}
			mergeInto(merged, s)
		}
	}

	if merged != nil {
		out = append(out, *merged)
	}
	return out, nil
}

// buildScenario converts one record, applying block attributes and
// expanding variables. parent is the scenario built so far from earlier
// fragments of the same group, or nil. Later fragments inherit its vars and
// its base URL, which is what the runner resolves every step against.
func (c *DefaultConverter) buildScenario(doc *domain.ParsedDocument, block domain.ScenarioBlock, rec scenarioRecord, parent *domain.Scenario, tagCfg *config.TagConfig) (domain.Scenario, error) {
	line := block.LineNumber + rec.line - 1
	attrs := tagCfg.Attributes

	s := domain.Scenario{
		Name:         rec.Name,
		Description:  rec.Description,
		SourceFile:   doc.FilePath,
		LineNumber:   line,
		Context:      block.Context,
		BaseURL:      rec.BaseURL,
		Vars:         rec.Vars,
		ReauthGuards: rec.ReauthGuards,
		Tags:         rec.Tags,
		Skip:         rec.Skip,
	}

	if name := resolveAttribute(block.Attributes, attrs["name"]); name != "" {
		s.Name = name
	}
	if base := resolveAttribute(block.Attributes, attrs["base_url"]); base != "" {
		s.BaseURL = base
	}
	if skip := resolveAttribute(block.Attributes, attrs["skip"]); skip != "" {
		s.Skip = skip == "true" || skip == "yes"
	}
	if tags := resolveAttribute(block.Attributes, attrs["tags"]); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" && !slices.Contains(s.Tags, t) {
				s.Tags = append(s.Tags, t)
			}
		}
	}
	timeout := resolveAttribute(block.Attributes, attrs["timeout"])

	var inherited map[string]string
	if parent != nil {
		if s.BaseURL != "" && s.BaseURL != parent.BaseURL {
			return s, domain.NewErrorWithSuggestion("convert", doc.FilePath, line,
				fmt.Sprintf("base_url %q differs from the base URL of scenario %q", s.BaseURL, parent.Name),
				"set base_url on the first block of the scenario-start group only", nil)
		}
		s.BaseURL = parent.BaseURL
		inherited = parent.Vars
	}

	if s.BaseURL != "" {
		if err := ValidateBaseURL(s.BaseURL, c.target.BlockedPatterns); err != nil {
			return s, domain.NewError("convert", doc.FilePath, line, err.Error(), nil)
		}
	}

	vars := make(map[string]string, len(inherited)+len(s.Vars)+1)
	for k, v := range inherited {
		vars[k] = v
	}
	for k, v := range s.Vars {
		vars[k] = v
	}
	if _, ok := vars["BASE_URL"]; !ok {
		vars["BASE_URL"] = c.baseURL(s)
	}
	var missing []string
	expand := func(v string) string {
		out, m := domain.ExpandVars(v, vars)
		missing = append(missing, m...)
		return out
	}

	for _, r := range rec.Steps {
		step, err := r.toStep(timeout)
		if err != nil {
			return s, domain.NewError("convert", doc.FilePath, block.LineNumber+r.line-1, err.Error(), nil)
		}
		step.LineNumber = block.LineNumber + r.line - 1
		step.URL = expand(step.URL)
		step.Locator = expand(step.Locator)
		step.Text = expand(step.Text)
		if step.Assertion != nil {
			expandAssertion(step.Assertion, expand)
		}
		if step.Kind == domain.StepNavigate {
			if err := ValidateURL(step.URL, c.baseURL(s), c.target); err != nil {
				return s, domain.NewErrorWithSuggestion("convert", doc.FilePath, step.LineNumber, err.Error(),
					"adjust target.allowed_hosts or target.blocked_patterns in scenario-runner.yaml if this is intentional", nil)
			}
		}
		s.Steps = append(s.Steps, step)
	}
	for _, r := range rec.Assertions {
		a := r.toAssertion()
		expandAssertion(&a, expand)
		s.Assertions = append(s.Assertions, a)
	}
	for i, g := range s.ReauthGuards {
		s.ReauthGuards[i] = expand(g)
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		missing = slices.Compact(missing)
		return s, domain.NewErrorWithSuggestion("convert", doc.FilePath, line,
			fmt.Sprintf("undefined variables: %s", strings.Join(missing, ", ")),
			"define them under vars or export them in the environment", nil)
	}
	return s, nil
}

func (c *DefaultConverter) baseURL(s domain.Scenario) string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return c.target.BaseURL
}

func expandAssertion(a *domain.Assertion, expand func(string) string) {
	a.Locator = expand(a.Locator)
	a.Expected = expand(a.Expected)
}

// mergeInto appends a later fragment of a grouped scenario to the first one.
func mergeInto(dst *domain.Scenario, src domain.Scenario) {
	dst.Steps = append(dst.Steps, src.Steps...)
	dst.Assertions = append(dst.Assertions, src.Assertions...)
	dst.ReauthGuards = append(dst.ReauthGuards, src.ReauthGuards...)
	for _, t := range src.Tags {
		if !slices.Contains(dst.Tags, t) {
			dst.Tags = append(dst.Tags, t)
		}
	}
	if len(src.Vars) > 0 {
		if dst.Vars == nil {
			dst.Vars = make(map[string]string, len(src.Vars))
		}
		for k, v := range src.Vars {
			dst.Vars[k] = v
		}
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	dst.Skip = dst.Skip || src.Skip
}

// resolveAttribute looks up an attribute value using a list of possible key names.
func resolveAttribute(attrs map[string]string, keys []string) string {
	for _, key := range keys {
		if val, ok := attrs[key]; ok {
			return val
		}
	}
	return ""
}

// fileScenarioName derives a scenario name from a file path.
func fileScenarioName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, ".scenario")
}

// inferDescribeBlock extracts the top-level heading for the Describe block.
func inferDescribeBlock(doc *domain.ParsedDocument) string {
	for _, h := range doc.Headings {
		if h.Level == 1 {
			return h.Text
		}
	}
	// Fallback: use the first heading regardless of level
	if len(doc.Headings) > 0 {
		return doc.Headings[0].Text
	}
	// Last resort: use filename
	return fileScenarioName(doc.FilePath)
}

// inferContextBlock extracts a context block from level-2 headings.
func inferContextBlock(doc *domain.ParsedDocument) string {
	for _, h := range doc.Headings {
		if h.Level == 2 {
			return h.Text
		}
	}
	return ""
}
