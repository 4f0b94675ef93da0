package domain

import "time"

// ParsedDocument holds the result of parsing a single scenario source file.
type ParsedDocument struct {
	FilePath string
	FileType string            // "markdown", "asciidoc", "yaml"
	Blocks   []ScenarioBlock   // All extracted scenario blocks (tagged ones)
	Headings []Heading         // Document structure (for describe/context inference)
	Metadata map[string]string // Any document-level metadata found
}

// ScenarioBlock is a single tagged block of scenario YAML extracted from a document.
type ScenarioBlock struct {
	Tag        string            // The matched tag (e.g. "ui-scenario")
	Content    string            // Raw YAML content of the block
	LineNumber int               // 1-based line number in source
	Attributes map[string]string // Key-value attributes from the fence info
	Context    string            // Nearest heading / section title
	Group      string            // scenario-start group name (empty if ungrouped)
}

// Heading represents a document heading for context inference.
type Heading struct {
	Level int
	Text  string
	Line  int
}

// Scenario is one complete, ordered UI test case. It is not modified once
// the converter has produced it.
type Scenario struct {
	Name         string
	Description  string
	SourceFile   string
	LineNumber   int
	Describe     string
	Context      string
	BaseURL      string // overrides the configured target when set
	Vars         map[string]string
	Steps        []Step
	Assertions   []Assertion
	ReauthGuards []string
	Tags         []string
	Skip         bool
}

// HasOutcomeCheck reports whether the scenario ends in at least one assertion,
// either terminal or as an inline checkpoint.
func (s Scenario) HasOutcomeCheck() bool {
	if len(s.Assertions) > 0 {
		return true
	}
	for _, st := range s.Steps {
		if st.Kind == StepAssert {
			return true
		}
	}
	return false
}

// StepKind tags the variant carried by a Step.
type StepKind string

const (
	StepNavigate   StepKind = "navigate"
	StepAct        StepKind = "act"
	StepWait       StepKind = "wait"
	StepResize     StepKind = "resize"
	StepScroll     StepKind = "scroll"
	StepAssert     StepKind = "assert"
	StepScreenshot StepKind = "screenshot"
)

// Action is the operation a locate-and-act step performs on its element.
type Action string

const (
	ActionFill        Action = "fill"
	ActionClick       Action = "click"
	ActionReadText    Action = "read_text"
	ActionReadVisible Action = "read_visible"
	ActionReadEnabled Action = "read_enabled"
)

// Step is a single atomic browser action. Only the fields belonging to
// Kind are meaningful.
type Step struct {
	Name       string
	Kind       StepKind
	LineNumber int

	// navigate
	URL       string
	WaitUntil string

	// act
	Locator string
	Action  Action
	Text    string
	Nth     *int           // explicit match index; nil means "first, with ambiguity check"
	Timeout time.Duration  // zero means the runner default
	Settle  *time.Duration // fixed pre-action delay; nil means the runner default

	// wait
	Duration time.Duration

	// resize
	Width  int
	Height int

	// scroll
	DeltaX float64
	DeltaY float64

	// assert
	Assertion *Assertion

	// screenshot
	Path string
}

// Label returns the step name, or a short description derived from its kind.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	switch s.Kind {
	case StepNavigate:
		return "navigate " + s.URL
	case StepAct:
		return string(s.Action) + " " + s.Locator
	case StepWait:
		return "wait " + s.Duration.String()
	case StepResize:
		return "resize viewport"
	case StepScroll:
		return "scroll"
	case StepAssert:
		if s.Assertion != nil {
			return "assert " + string(s.Assertion.Kind)
		}
		return "assert"
	case StepScreenshot:
		return "screenshot " + s.Path
	}
	return string(s.Kind)
}

// AssertionKind names the predicate an Assertion evaluates.
type AssertionKind string

const (
	AssertVisible      AssertionKind = "visible"
	AssertHidden       AssertionKind = "hidden"
	AssertEnabled      AssertionKind = "enabled"
	AssertDisabled     AssertionKind = "disabled"
	AssertTitleEquals  AssertionKind = "title_equals"
	AssertTextEquals   AssertionKind = "text_equals"
	AssertTextContains AssertionKind = "text_contains"
	AssertCountAtLeast AssertionKind = "count_at_least"
)

// Assertion is a predicate over observable page state, evaluated once.
type Assertion struct {
	Kind     AssertionKind
	Locator  string
	Expected string
	Count    int
	Message  string
}

// Status is the outcome of a scenario or step.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult records what happened to one step or assertion.
type StepResult struct {
	Index    int
	Name     string
	Kind     StepKind
	Status   Status
	Value    string // value produced by read actions
	Duration time.Duration
	Error    string
}

// Result is the outcome of a single scenario run.
type Result struct {
	Scenario    string
	SourceFile  string
	Describe    string
	RunID       string
	Status      Status
	Kind        ErrorKind // failure reason, empty on success
	FailedStep  int       // -1 unless failed; terminal assertions count after the steps
	Message     string
	Expected    string
	Actual      string
	Steps       []StepResult
	Diagnostics []string
	Artifacts   []string
	Started     time.Time
	Duration    time.Duration
}

// Passed reports whether the scenario passed.
func (r Result) Passed() bool {
	return r.Status == StatusPassed
}

// SuiteResult aggregates all scenario results of one invocation.
type SuiteResult struct {
	RunID    string
	BaseURL  string
	Started  time.Time
	Duration time.Duration
	Results  []Result
	Passed   int
	Failed   int
	Skipped  int
}

// Tally recomputes the passed/failed/skipped counters from Results.
func (s *SuiteResult) Tally() {
	s.Passed, s.Failed, s.Skipped = 0, 0, 0
	for _, r := range s.Results {
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
}

// OK reports whether no scenario failed.
func (s *SuiteResult) OK() bool {
	return s.Failed == 0
}
