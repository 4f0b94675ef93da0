package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// Config is the top-level configuration struct.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Tags    TagConfig     `yaml:"tags"`
	Target  TargetConfig  `yaml:"target"`
	Browser BrowserConfig `yaml:"browser"`
	Runner  RunnerConfig  `yaml:"runner"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Filter  string        `yaml:"filter"` // regexp over scenario names
	DryRun  bool          `yaml:"dry_run"`
}

type InputConfig struct {
	Directories []string `yaml:"directories"`
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	Recursive   *bool    `yaml:"recursive"` // pointer to distinguish unset from false
}

type TagConfig struct {
	ScenarioTags  []string            `yaml:"scenario_tags"`
	ScenarioStart MarkerConfig        `yaml:"scenario_start"`
	ScenarioEnd   MarkerConfig        `yaml:"scenario_end"`
	Attributes    map[string][]string `yaml:"attributes"`
}

type MarkerConfig struct {
	CommentMarkers []string `yaml:"comment_markers"`
}

type TargetConfig struct {
	BaseURL         string   `yaml:"base_url"`
	AllowedHosts    []string `yaml:"allowed_hosts"`
	BlockedPatterns []string `yaml:"blocked_patterns"`
}

type BrowserConfig struct {
	Engine         string   `yaml:"engine"` // chromium, firefox, webkit
	Headless       *bool    `yaml:"headless"`
	Args           []string `yaml:"args"`
	ViewportWidth  int      `yaml:"viewport_width"`
	ViewportHeight int      `yaml:"viewport_height"`
	DefaultTimeout string   `yaml:"default_timeout"`
}

type RunnerConfig struct {
	ActionTimeout       string   `yaml:"action_timeout"`
	NavigationTimeout   string   `yaml:"navigation_timeout"`
	ReadinessTimeout    string   `yaml:"readiness_timeout"`
	WaitUntil           string   `yaml:"wait_until"`
	ReadinessState      string   `yaml:"readiness_state"`
	SettleDelay         string   `yaml:"settle_delay"`
	OnAmbiguous         string   `yaml:"on_ambiguous"` // first, warn, fail
	Parallel            int      `yaml:"parallel"`
	ScenarioTimeout     string   `yaml:"scenario_timeout"`
	ScreenshotOnFailure bool     `yaml:"screenshot_on_failure"`
	ReauthGuards        []string `yaml:"reauth_guards"`
}

type OutputConfig struct {
	Directory    string   `yaml:"directory"`
	Formats      []string `yaml:"formats"`
	TemplatesDir string   `yaml:"templates_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // text, json
}

// Load reads a YAML configuration file and returns a Config. A missing file
// is not an error when allowMissing is set; the defaults are returned instead.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, domain.NewError("config", path, 0, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError("config", path, 0, "failed to parse config file", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays the SCENARIO_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SCENARIO_BASE_URL"); v != "" {
		cfg.Target.BaseURL = v
	}
	if v := os.Getenv("SCENARIO_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Browser.Headless = &b
		}
	}
}

// IsHeadless reports the effective headless setting.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}
