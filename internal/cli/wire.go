package cli

import (
	"fmt"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/browser"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/converter"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/parser"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/runner"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/scanner"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/suite"
	tmpl "github.com/fjglira/GoE2E-ScenarioRunner/internal/template"
)

// components is everything a command needs, built from one Config.
type components struct {
	suite    *suite.Suite
	engine   *tmpl.DefaultEngine
	launcher *browser.PlaywrightLauncher
}

// wire builds the pipeline. The playwright driver is started lazily on the
// first Launch, so commands that only load scenarios never start it.
func wire(cfg *config.Config) (*components, error) {
	recursive := true
	if cfg.Input.Recursive != nil {
		recursive = *cfg.Input.Recursive
	}
	s := scanner.NewScanner(recursive)

	markers := parser.DefaultMarkers()
	if len(cfg.Tags.ScenarioStart.CommentMarkers) > 0 {
		markers.Start = cfg.Tags.ScenarioStart.CommentMarkers
	}
	if len(cfg.Tags.ScenarioEnd.CommentMarkers) > 0 {
		markers.End = cfg.Tags.ScenarioEnd.CommentMarkers
	}
	registry := parser.NewDefaultRegistry(markers)

	conv := converter.NewConverter(&cfg.Target)

	engine, err := tmpl.NewEngine(cfg.Output.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create template engine: %w", err)
	}

	opts, err := runner.OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid runner options: %w", err)
	}
	launcher := browser.NewPlaywrightLauncher(cfg.Browser.Engine, log)
	r := runner.New(launcher, opts, log)

	return &components{
		suite:    suite.New(s, registry, conv, r, engine, log),
		engine:   engine,
		launcher: launcher,
	}, nil
}
