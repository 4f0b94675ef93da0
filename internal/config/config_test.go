package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
)

var _ = Describe("Config", func() {
	Describe("Load", func() {
		It("should load minimal config", func() {
			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "minimal.yaml"), false)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg).ToNot(BeNil())
			Expect(cfg.Input.Directories).To(ContainElement("scenarios"))
			Expect(cfg.Tags.ScenarioTags).To(ContainElement("ui-scenario"))
			Expect(cfg.Runner.ActionTimeout).To(Equal("5s"))
		})

		It("should load full config", func() {
			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "full.yaml"), false)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Input.Directories).To(HaveLen(3))
			Expect(cfg.Input.Include).To(ContainElement("*.adoc"))
			Expect(cfg.Input.Exclude).To(ContainElement("drafts/**"))
			Expect(cfg.Tags.ScenarioTags).To(ContainElements("ui-scenario", "pos-flow"))
			Expect(cfg.Target.AllowedHosts).To(ContainElement("pos.internal"))
			Expect(cfg.Browser.Engine).To(Equal("firefox"))
			Expect(cfg.Browser.IsHeadless()).To(BeFalse())
			Expect(cfg.Runner.OnAmbiguous).To(Equal("fail"))
			Expect(cfg.Runner.Parallel).To(Equal(4))
			Expect(cfg.Runner.ReauthGuards).To(ConsistOf("form#login"))
			Expect(cfg.Output.Formats).To(ContainElements("markdown", "json"))
		})

		It("should return error for nonexistent file", func() {
			_, err := config.Load("nonexistent.yaml", false)
			Expect(err).To(HaveOccurred())
		})

		It("should return defaults for nonexistent file when allowed", func() {
			cfg, err := config.Load("nonexistent.yaml", true)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Target.BaseURL).To(Equal("http://localhost:3000"))
		})

		It("should return error for invalid YAML", func() {
			tmpFile := filepath.Join(GinkgoT().TempDir(), "invalid.yaml")
			Expect(os.WriteFile(tmpFile, []byte("{{invalid yaml}}"), 0644)).To(Succeed())

			_, loadErr := config.Load(tmpFile, false)
			Expect(loadErr).To(HaveOccurred())
		})

		It("should apply environment overrides", func() {
			GinkgoT().Setenv("SCENARIO_BASE_URL", "http://staging:9000")
			GinkgoT().Setenv("SCENARIO_HEADLESS", "false")

			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "minimal.yaml"), false)
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Target.BaseURL).To(Equal("http://staging:9000"))
			Expect(cfg.Browser.IsHeadless()).To(BeFalse())
		})
	})

	Describe("DefaultConfig", func() {
		It("should return config with sensible defaults", func() {
			cfg := config.DefaultConfig()
			Expect(cfg.Input.Directories).To(ContainElement("scenarios"))
			Expect(cfg.Input.Include).To(ContainElement("*.md"))
			Expect(*cfg.Input.Recursive).To(BeTrue())
			Expect(cfg.Browser.Engine).To(Equal("chromium"))
			Expect(cfg.Browser.IsHeadless()).To(BeTrue())
			Expect(cfg.Runner.WaitUntil).To(Equal("commit"))
			Expect(cfg.Runner.ReadinessState).To(Equal("domcontentloaded"))
			Expect(cfg.Runner.NavigationTimeout).To(Equal("10s"))
			Expect(cfg.Runner.ReadinessTimeout).To(Equal("3s"))
			Expect(cfg.Runner.OnAmbiguous).To(Equal("warn"))
			Expect(cfg.Logging.Level).To(Equal("info"))
			Expect(config.Validate(cfg)).To(Succeed())
		})
	})

	Describe("Validate", func() {
		It("should pass for valid config", func() {
			cfg, err := config.Load(filepath.Join("..", "..", "testdata", "configs", "full.yaml"), false)
			Expect(err).ToNot(HaveOccurred())
			Expect(config.Validate(cfg)).To(Succeed())
		})

		It("should fail if directories are empty", func() {
			cfg := config.DefaultConfig()
			cfg.Input.Directories = nil
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("input.directories"))
		})

		It("should fail if scenario_tags are empty", func() {
			cfg := config.DefaultConfig()
			cfg.Tags.ScenarioTags = nil
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("tags.scenario_tags"))
		})

		It("should fail for a relative base_url", func() {
			cfg := config.DefaultConfig()
			cfg.Target.BaseURL = "/pos"
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("target.base_url"))
		})

		It("should fail for an invalid duration", func() {
			cfg := config.DefaultConfig()
			cfg.Runner.ActionTimeout = "soon"
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("runner.action_timeout"))
		})

		It("should fail for an unknown ambiguity policy", func() {
			cfg := config.DefaultConfig()
			cfg.Runner.OnAmbiguous = "guess"
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("runner.on_ambiguous"))
		})

		It("should fail for zero parallelism", func() {
			cfg := config.DefaultConfig()
			cfg.Runner.Parallel = 0
			Expect(config.Validate(cfg)).ToNot(Succeed())
		})

		It("should fail for an unknown report format", func() {
			cfg := config.DefaultConfig()
			cfg.Output.Formats = []string{"html"}
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("output.formats"))
		})

		It("should fail for a filter that does not compile", func() {
			cfg := config.DefaultConfig()
			cfg.Filter = "(["
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("filter"))
		})

		It("should fail for invalid log level", func() {
			cfg := config.DefaultConfig()
			cfg.Logging.Level = "verbose"
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logging.level"))
		})

		It("should report every problem at once", func() {
			cfg := config.DefaultConfig()
			cfg.Output.Directory = ""
			cfg.Browser.Engine = "ie"
			err := config.Validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("output.directory"))
			Expect(err.Error()).To(ContainSubstring("browser.engine"))
		})
	})

	Describe("ParseDuration", func() {
		It("should parse Go durations", func() {
			d, err := config.ParseDuration("1500ms")
			Expect(err).ToNot(HaveOccurred())
			Expect(d).To(Equal(1500 * time.Millisecond))
		})

		It("should read bare integers as milliseconds", func() {
			d, err := config.ParseDuration("3000")
			Expect(err).ToNot(HaveOccurred())
			Expect(d).To(Equal(3 * time.Second))
		})

		It("should treat empty as zero", func() {
			d, err := config.ParseDuration("")
			Expect(err).ToNot(HaveOccurred())
			Expect(d).To(BeZero())
		})

		It("should reject negative values", func() {
			_, err := config.ParseDuration("-2s")
			Expect(err).To(HaveOccurred())
		})
	})
})
