package runner

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/browser"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
)

// Ambiguity policies for locators matching more than one element.
const (
	AmbiguousFirst = "first"
	AmbiguousWarn  = "warn"
	AmbiguousFail  = "fail"
)

// Options controls how scenarios are executed.
type Options struct {
	BaseURL string
	Launch  browser.LaunchOptions

	ActionTimeout     time.Duration // global default for locate-and-act steps
	NavigationTimeout time.Duration
	ReadinessTimeout  time.Duration
	WaitUntil         string
	ReadinessState    string
	SettleDelay       time.Duration
	ScenarioTimeout   time.Duration // zero disables the whole-scenario deadline
	PollInterval      time.Duration

	OnAmbiguous         string
	ReauthGuards        []string
	ScreenshotOnFailure bool
	ArtifactsDir        string
}

// OptionsFromConfig builds runner options from a validated Config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := Options{
		BaseURL: cfg.Target.BaseURL,
		Launch: browser.LaunchOptions{
			Headless:       cfg.Browser.IsHeadless(),
			Args:           cfg.Browser.Args,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
		},
		WaitUntil:           cfg.Runner.WaitUntil,
		ReadinessState:      cfg.Runner.ReadinessState,
		OnAmbiguous:         cfg.Runner.OnAmbiguous,
		ReauthGuards:        cfg.Runner.ReauthGuards,
		ScreenshotOnFailure: cfg.Runner.ScreenshotOnFailure,
		ArtifactsDir:        filepath.Join(cfg.Output.Directory, "artifacts"),
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"browser.default_timeout", cfg.Browser.DefaultTimeout, &opts.Launch.DefaultTimeout},
		{"runner.action_timeout", cfg.Runner.ActionTimeout, &opts.ActionTimeout},
		{"runner.navigation_timeout", cfg.Runner.NavigationTimeout, &opts.NavigationTimeout},
		{"runner.readiness_timeout", cfg.Runner.ReadinessTimeout, &opts.ReadinessTimeout},
		{"runner.settle_delay", cfg.Runner.SettleDelay, &opts.SettleDelay},
		{"runner.scenario_timeout", cfg.Runner.ScenarioTimeout, &opts.ScenarioTimeout},
	}
	for _, d := range durations {
		v, err := config.ParseDuration(d.raw)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return opts.withDefaults(), nil
}

func (o Options) withDefaults() Options {
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 5 * time.Second
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 10 * time.Second
	}
	if o.ReadinessTimeout <= 0 {
		o.ReadinessTimeout = 3 * time.Second
	}
	if o.WaitUntil == "" {
		o.WaitUntil = "commit"
	}
	if o.ReadinessState == "" {
		o.ReadinessState = "domcontentloaded"
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 100 * time.Millisecond
	}
	if o.OnAmbiguous == "" {
		o.OnAmbiguous = AmbiguousWarn
	}
	if o.ArtifactsDir == "" {
		o.ArtifactsDir = "artifacts"
	}
	return o
}
