package converter

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// scenarioRecord is the YAML shape of one scenario.
type scenarioRecord struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	BaseURL      string            `yaml:"base_url"`
	Vars         map[string]string `yaml:"vars"`
	Tags         []string          `yaml:"tags"`
	Skip         bool              `yaml:"skip"`
	ReauthGuards []string          `yaml:"reauth_guards"`
	Steps        []stepRecord      `yaml:"steps"`
	Assertions   []assertionRecord `yaml:"assertions"`

	line     int
	fragment bool // a bare step list rather than a scenario mapping
}

type stepRecord struct {
	Name        string           `yaml:"name"`
	Navigate    string           `yaml:"navigate"`
	WaitUntil   string           `yaml:"wait_until"`
	Fill        *fillRecord      `yaml:"fill"`
	Click       *targetRecord    `yaml:"click"`
	ReadText    *targetRecord    `yaml:"read_text"`
	ReadVisible *targetRecord    `yaml:"read_visible"`
	ReadEnabled *targetRecord    `yaml:"read_enabled"`
	Wait        *string          `yaml:"wait"`
	Resize      *resizeRecord    `yaml:"resize"`
	Scroll      *scrollRecord    `yaml:"scroll"`
	Assert      *assertionRecord `yaml:"assert"`
	Screenshot  string           `yaml:"screenshot"`

	line int
}

func (s *stepRecord) UnmarshalYAML(node *yaml.Node) error {
	type plain stepRecord
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.line = node.Line
	return nil
}

// targetRecord accepts either a bare locator or a mapping.
type targetRecord struct {
	Locator string  `yaml:"locator"`
	Timeout string  `yaml:"timeout"`
	Nth     *int    `yaml:"nth"`
	Settle  *string `yaml:"settle"`
}

func (t *targetRecord) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Locator = node.Value
		return nil
	}
	type plain targetRecord
	return node.Decode((*plain)(t))
}

type fillRecord struct {
	Locator string  `yaml:"locator"`
	Text    string  `yaml:"text"`
	Timeout string  `yaml:"timeout"`
	Nth     *int    `yaml:"nth"`
	Settle  *string `yaml:"settle"`
}

type resizeRecord struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type scrollRecord struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

type matchRecord struct {
	Locator string `yaml:"locator"`
	Value   string `yaml:"value"`
}

type countRecord struct {
	Locator string `yaml:"locator"`
	Value   int    `yaml:"value"`
}

type assertionRecord struct {
	Message      string       `yaml:"message"`
	Visible      string       `yaml:"visible"`
	Hidden       string       `yaml:"hidden"`
	Enabled      string       `yaml:"enabled"`
	Disabled     string       `yaml:"disabled"`
	TitleEquals  *string      `yaml:"title_equals"`
	TextEquals   *matchRecord `yaml:"text_equals"`
	TextContains *matchRecord `yaml:"text_contains"`
	CountAtLeast *countRecord `yaml:"count_at_least"`
}

// decodeBlock validates a block's YAML against the scenario schema and
// decodes it into scenario records.
func decodeBlock(content string) ([]scenarioRecord, error) {
	var generic any
	if err := yaml.Unmarshal([]byte(content), &generic); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if generic == nil {
		return nil, nil
	}

	violations, err := validateAgainstSchema(generic)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &SchemaError{Violations: violations}
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	switch {
	case node.Kind == yaml.SequenceNode:
		rec := scenarioRecord{line: node.Line, fragment: true}
		if err := node.Decode(&rec.Steps); err != nil {
			return nil, err
		}
		return []scenarioRecord{rec}, nil

	case hasKey(node, "scenarios"):
		var wrapper struct {
			Scenarios []yaml.Node `yaml:"scenarios"`
		}
		if err := node.Decode(&wrapper); err != nil {
			return nil, err
		}
		recs := make([]scenarioRecord, 0, len(wrapper.Scenarios))
		for i := range wrapper.Scenarios {
			var rec scenarioRecord
			if err := wrapper.Scenarios[i].Decode(&rec); err != nil {
				return nil, err
			}
			rec.line = wrapper.Scenarios[i].Line
			recs = append(recs, rec)
		}
		return recs, nil

	default:
		var rec scenarioRecord
		if err := node.Decode(&rec); err != nil {
			return nil, err
		}
		rec.line = node.Line
		return []scenarioRecord{rec}, nil
	}
}

func hasKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// SchemaError lists every schema violation found in one block.
type SchemaError struct {
	Violations []SchemaViolation
}

func (e *SchemaError) Error() string {
	msg := "scenario does not match schema"
	for _, v := range e.Violations {
		msg += "; " + v.String()
	}
	return msg
}

// toStep converts a step record into a domain step. defaultTimeout applies
// to locate-and-act steps without their own timeout.
func (r stepRecord) toStep(defaultTimeout string) (domain.Step, error) {
	step := domain.Step{Name: r.Name, LineNumber: r.line}

	act := func(action domain.Action, t *targetRecord) error {
		step.Kind = domain.StepAct
		step.Action = action
		step.Locator = t.Locator
		step.Nth = t.Nth
		return applyTiming(&step, t.Timeout, t.Settle, defaultTimeout)
	}

	switch {
	case r.Navigate != "":
		step.Kind = domain.StepNavigate
		step.URL = r.Navigate
		step.WaitUntil = r.WaitUntil
	case r.Fill != nil:
		step.Kind = domain.StepAct
		step.Action = domain.ActionFill
		step.Locator = r.Fill.Locator
		step.Text = r.Fill.Text
		step.Nth = r.Fill.Nth
		if err := applyTiming(&step, r.Fill.Timeout, r.Fill.Settle, defaultTimeout); err != nil {
			return step, err
		}
	case r.Click != nil:
		if err := act(domain.ActionClick, r.Click); err != nil {
			return step, err
		}
	case r.ReadText != nil:
		if err := act(domain.ActionReadText, r.ReadText); err != nil {
			return step, err
		}
	case r.ReadVisible != nil:
		if err := act(domain.ActionReadVisible, r.ReadVisible); err != nil {
			return step, err
		}
	case r.ReadEnabled != nil:
		if err := act(domain.ActionReadEnabled, r.ReadEnabled); err != nil {
			return step, err
		}
	case r.Wait != nil:
		d, err := config.ParseDuration(*r.Wait)
		if err != nil {
			return step, fmt.Errorf("wait: %w", err)
		}
		step.Kind = domain.StepWait
		step.Duration = d
	case r.Resize != nil:
		step.Kind = domain.StepResize
		step.Width = r.Resize.Width
		step.Height = r.Resize.Height
	case r.Scroll != nil:
		step.Kind = domain.StepScroll
		step.DeltaX = r.Scroll.DX
		step.DeltaY = r.Scroll.DY
	case r.Assert != nil:
		a := r.Assert.toAssertion()
		step.Kind = domain.StepAssert
		step.Assertion = &a
	case r.Screenshot != "":
		step.Kind = domain.StepScreenshot
		step.Path = r.Screenshot
	default:
		return step, fmt.Errorf("step at line %d has no action", r.line)
	}

	if step.WaitUntil != "" && step.Kind != domain.StepNavigate {
		return step, fmt.Errorf("wait_until is only valid on navigate steps")
	}
	return step, nil
}

func applyTiming(step *domain.Step, timeout string, settle *string, defaultTimeout string) error {
	if timeout == "" {
		timeout = defaultTimeout
	}
	d, err := config.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	step.Timeout = d
	if settle != nil {
		s, err := config.ParseDuration(*settle)
		if err != nil {
			return fmt.Errorf("settle: %w", err)
		}
		step.Settle = &s
	}
	return nil
}

func (r assertionRecord) toAssertion() domain.Assertion {
	a := domain.Assertion{Message: r.Message}
	switch {
	case r.Visible != "":
		a.Kind, a.Locator = domain.AssertVisible, r.Visible
	case r.Hidden != "":
		a.Kind, a.Locator = domain.AssertHidden, r.Hidden
	case r.Enabled != "":
		a.Kind, a.Locator = domain.AssertEnabled, r.Enabled
	case r.Disabled != "":
		a.Kind, a.Locator = domain.AssertDisabled, r.Disabled
	case r.TitleEquals != nil:
		a.Kind, a.Expected = domain.AssertTitleEquals, *r.TitleEquals
	case r.TextEquals != nil:
		a.Kind, a.Locator, a.Expected = domain.AssertTextEquals, r.TextEquals.Locator, r.TextEquals.Value
	case r.TextContains != nil:
		a.Kind, a.Locator, a.Expected = domain.AssertTextContains, r.TextContains.Locator, r.TextContains.Value
	case r.CountAtLeast != nil:
		a.Kind, a.Locator, a.Count = domain.AssertCountAtLeast, r.CountAtLeast.Locator, r.CountAtLeast.Value
	}
	return a
}
