// Package suite wires scanning, parsing, conversion, execution and reporting
// into one run over every configured scenario source.
package suite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/converter"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/parser"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/scanner"
	tmpl "github.com/fjglira/GoE2E-ScenarioRunner/internal/template"
)

// ScenarioRunner executes one scenario. *runner.Runner implements it.
type ScenarioRunner interface {
	Run(ctx context.Context, s domain.Scenario) domain.Result
}

// reportFiles maps each output format to the file it is written to.
var reportFiles = map[string]string{
	"text":     "report.txt",
	"markdown": "report.md",
	"junit":    "junit.xml",
	"json":     "report.json",
}

// Suite is the top-level orchestrator.
type Suite struct {
	scanner   scanner.Scanner
	registry  parser.ParserRegistry
	converter converter.Converter
	runner    ScenarioRunner
	engine    tmpl.TemplateEngine
	log       *logrus.Logger
}

// New creates a Suite with all dependencies.
func New(
	s scanner.Scanner,
	r parser.ParserRegistry,
	c converter.Converter,
	run ScenarioRunner,
	e tmpl.TemplateEngine,
	log *logrus.Logger,
) *Suite {
	return &Suite{
		scanner:   s,
		registry:  r,
		converter: c,
		runner:    run,
		engine:    e,
		log:       log,
	}
}

// Load scans the configured input directories and returns every scenario in
// authoring order: files sorted per directory, scenarios in document order.
// Scenario names must be unique across all files.
func (s *Suite) Load(cfg *config.Config) ([]domain.Scenario, error) {
	var files []string
	for _, dir := range cfg.Input.Directories {
		s.log.Debugf("Scanning: %s", dir)
		found, err := s.scanner.Scan(dir, cfg.Input.Include, cfg.Input.Exclude)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		s.log.Warn("No scenario files found")
		return nil, nil
	}
	s.log.Infof("Found %d scenario file(s)", len(files))

	var all []domain.Scenario
	seen := make(map[string]string)
	for _, path := range files {
		p, err := s.registry.ParserFor(path)
		if err != nil {
			s.log.Warnf("No parser for %s, skipping", path)
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.NewErrorWithSuggestion("parse", path, 0,
				"failed to read file",
				"check that the file exists and has read permissions",
				err)
		}

		doc, err := p.Parse(path, content, cfg.Tags.ScenarioTags)
		if err != nil {
			return nil, err
		}
		if len(doc.Blocks) == 0 {
			s.log.Debugf("No scenario blocks in %s", path)
			continue
		}

		scenarios, err := s.converter.Convert(doc, &cfg.Tags)
		if err != nil {
			return nil, err
		}
		for _, sc := range scenarios {
			if prev, dup := seen[sc.Name]; dup {
				return nil, domain.NewErrorWithSuggestion("convert", path, sc.LineNumber,
					fmt.Sprintf("duplicate scenario name %q (also defined in %s)", sc.Name, prev),
					"give every scenario a unique name",
					nil)
			}
			seen[sc.Name] = path
		}
		s.log.Debugf("Loaded %d scenario(s) from %s", len(scenarios), path)
		all = append(all, scenarios...)
	}

	return all, nil
}

// Select applies the name filter. An empty filter keeps everything.
func Select(scenarios []domain.Scenario, filter string) ([]domain.Scenario, error) {
	if filter == "" {
		return scenarios, nil
	}
	re, err := regexp.Compile(filter)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("config", "", 0, "invalid scenario filter",
			"pass a Go regular expression to --filter", err)
	}
	var out []domain.Scenario
	for _, sc := range scenarios {
		if re.MatchString(sc.Name) {
			out = append(out, sc)
		}
	}
	return out, nil
}

// Run loads, filters and executes every scenario, then writes the
// configured reports. Scenarios run concurrently up to runner.parallel;
// results keep authoring order. In dry-run mode nothing is executed and the
// returned result is nil.
func (s *Suite) Run(ctx context.Context, cfg *config.Config) (*domain.SuiteResult, error) {
	scenarios, err := s.Load(cfg)
	if err != nil {
		return nil, err
	}
	scenarios, err = Select(scenarios, cfg.Filter)
	if err != nil {
		return nil, err
	}

	if cfg.DryRun {
		for _, sc := range scenarios {
			s.log.Infof("[DRY-RUN] Would run: %s (%s, %d step(s))", sc.Name, sc.SourceFile, len(sc.Steps))
		}
		return nil, nil
	}

	result := &domain.SuiteResult{
		RunID:   uuid.NewString(),
		BaseURL: cfg.Target.BaseURL,
		Started: time.Now(),
		Results: make([]domain.Result, len(scenarios)),
	}
	log := s.log.WithField("suite_run_id", result.RunID)
	log.Infof("Running %d scenario(s) with parallelism %d", len(scenarios), max(cfg.Runner.Parallel, 1))

	var g errgroup.Group
	g.SetLimit(max(cfg.Runner.Parallel, 1))
	for i, sc := range scenarios {
		g.Go(func() error {
			result.Results[i] = s.runner.Run(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(result.Started)
	result.Tally()
	log.WithFields(logrus.Fields{
		"passed":  result.Passed,
		"failed":  result.Failed,
		"skipped": result.Skipped,
	}).Info("Suite finished")

	if err := s.WriteReports(cfg, result); err != nil {
		return result, err
	}
	return result, nil
}

// WriteReports renders result in every configured format into
// output.directory.
func (s *Suite) WriteReports(cfg *config.Config, result *domain.SuiteResult) error {
	if len(cfg.Output.Formats) == 0 {
		return nil
	}
	if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
		return domain.NewErrorWithSuggestion("write", cfg.Output.Directory, 0,
			"failed to create output directory",
			"check that the parent directory exists and has write permissions",
			err)
	}

	for _, format := range cfg.Output.Formats {
		name, ok := reportFiles[format]
		if !ok {
			name = "report." + format
		}
		path := filepath.Join(cfg.Output.Directory, name)

		var data []byte
		if format == "json" {
			b, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return domain.NewError("write", path, 0, "failed to encode JSON report", err)
			}
			data = append(b, '\n')
		} else {
			rendered, err := s.engine.Render(format, result)
			if err != nil {
				return err
			}
			data = []byte(rendered)
		}

		s.log.Debugf("Writing: %s", path)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return domain.NewErrorWithSuggestion("write", path, 0,
				"failed to write report",
				"check disk space and write permissions for the output directory",
				err)
		}
	}
	return nil
}
