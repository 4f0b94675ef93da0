package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

var (
	validLevels     = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"text": true, "json": true}
	validEngines    = map[string]bool{"chromium": true, "firefox": true, "webkit": true}
	validWaitUntil  = map[string]bool{"commit": true, "domcontentloaded": true, "load": true, "networkidle": true}
	validReadiness  = map[string]bool{"domcontentloaded": true, "load": true, "networkidle": true}
	validAmbiguity  = map[string]bool{"first": true, "warn": true, "fail": true}
	validFormats    = map[string]bool{"text": true, "markdown": true, "junit": true, "json": true}
)

// Validate checks the Config for required fields and valid values.
func Validate(cfg *Config) error {
	var errs []string

	// Input validation
	if len(cfg.Input.Directories) == 0 {
		errs = append(errs, "input.directories must not be empty")
	}
	if len(cfg.Input.Include) == 0 {
		errs = append(errs, "input.include must not be empty")
	}

	// Tags validation
	if len(cfg.Tags.ScenarioTags) == 0 {
		errs = append(errs, "tags.scenario_tags must not be empty")
	}

	// Target validation
	if cfg.Target.BaseURL == "" {
		errs = append(errs, "target.base_url must not be empty")
	} else if u, err := url.Parse(cfg.Target.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("target.base_url must be an absolute URL (got %q)", cfg.Target.BaseURL))
	}

	// Browser validation
	if !validEngines[cfg.Browser.Engine] {
		errs = append(errs, fmt.Sprintf("browser.engine must be one of: chromium, firefox, webkit (got %q)", cfg.Browser.Engine))
	}
	if cfg.Browser.ViewportWidth <= 0 || cfg.Browser.ViewportHeight <= 0 {
		errs = append(errs, "browser.viewport_width and browser.viewport_height must be positive")
	}
	errs = appendDurationErr(errs, "browser.default_timeout", cfg.Browser.DefaultTimeout)

	// Runner validation
	errs = appendDurationErr(errs, "runner.action_timeout", cfg.Runner.ActionTimeout)
	errs = appendDurationErr(errs, "runner.navigation_timeout", cfg.Runner.NavigationTimeout)
	errs = appendDurationErr(errs, "runner.readiness_timeout", cfg.Runner.ReadinessTimeout)
	errs = appendDurationErr(errs, "runner.settle_delay", cfg.Runner.SettleDelay)
	errs = appendDurationErr(errs, "runner.scenario_timeout", cfg.Runner.ScenarioTimeout)
	if !validWaitUntil[cfg.Runner.WaitUntil] {
		errs = append(errs, fmt.Sprintf("runner.wait_until must be one of: commit, domcontentloaded, load, networkidle (got %q)", cfg.Runner.WaitUntil))
	}
	if !validReadiness[cfg.Runner.ReadinessState] {
		errs = append(errs, fmt.Sprintf("runner.readiness_state must be one of: domcontentloaded, load, networkidle (got %q)", cfg.Runner.ReadinessState))
	}
	if !validAmbiguity[cfg.Runner.OnAmbiguous] {
		errs = append(errs, fmt.Sprintf("runner.on_ambiguous must be one of: first, warn, fail (got %q)", cfg.Runner.OnAmbiguous))
	}
	if cfg.Runner.Parallel < 1 {
		errs = append(errs, "runner.parallel must be at least 1")
	}

	// Output validation
	if cfg.Output.Directory == "" {
		errs = append(errs, "output.directory must not be empty")
	}
	for _, f := range cfg.Output.Formats {
		if !validFormats[f] {
			errs = append(errs, fmt.Sprintf("output.formats contains unknown format %q (valid: text, markdown, junit, json)", f))
		}
	}

	if cfg.Filter != "" {
		if _, err := regexp.Compile(cfg.Filter); err != nil {
			errs = append(errs, fmt.Sprintf("filter is not a valid regular expression: %v", err))
		}
	}

	// Validate logging
	if cfg.Logging.Level != "" && !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "" && !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of: text, json (got %q)", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return domain.NewError("config", "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), nil)
	}

	return nil
}

func appendDurationErr(errs []string, field, value string) []string {
	if _, err := ParseDuration(value); err != nil {
		errs = append(errs, fmt.Sprintf("%s is not a valid duration: %v", field, err))
	}
	return errs
}

// ParseDuration parses a Go duration string. A bare integer is read as
// milliseconds and an empty string as zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.Atoi(s); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
