package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
)

var _ = Describe("run flags", func() {
	AfterEach(func() {
		runBaseURL, runParallel, runHeaded, runDryRun, runFormats, runFilter = "", 1, false, false, nil, ""
		Expect(runCmd.Flags().Set("parallel", "1")).To(Succeed())
		runCmd.Flags().Lookup("parallel").Changed = false
		runCmd.Flags().Lookup("format").Changed = false
	})

	It("should leave the config alone when no flag is set", func() {
		cfg := config.DefaultConfig()
		applyRunFlags(runCmd, cfg, nil)
		Expect(cfg).To(Equal(config.DefaultConfig()))
	})

	It("should overlay explicit flags", func() {
		Expect(runCmd.Flags().Set("parallel", "4")).To(Succeed())
		Expect(runCmd.Flags().Set("format", "junit,json")).To(Succeed())
		runBaseURL = "http://staging.pos.test"
		runHeaded = true
		runDryRun = true
		runFilter = "^Login"

		cfg := config.DefaultConfig()
		applyRunFlags(runCmd, cfg, []string{"scenarios/login.md"})

		Expect(cfg.Input.Directories).To(Equal([]string{"scenarios/login.md"}))
		Expect(cfg.Target.BaseURL).To(Equal("http://staging.pos.test"))
		Expect(cfg.Runner.Parallel).To(Equal(4))
		Expect(cfg.Browser.IsHeadless()).To(BeFalse())
		Expect(cfg.DryRun).To(BeTrue())
		Expect(cfg.Output.Formats).To(Equal([]string{"junit", "json"}))
		Expect(cfg.Filter).To(Equal("^Login"))
	})
})

var _ = Describe("configureLogging", func() {
	AfterEach(func() {
		verbose = false
		closeLogFile()
		log = logrus.New()
	})

	It("should apply level and format", func() {
		Expect(configureLogging(config.LoggingConfig{Level: "warn", Format: "json"})).To(Succeed())
		Expect(log.GetLevel()).To(Equal(logrus.WarnLevel))
		Expect(log.Formatter).To(BeAssignableToTypeOf(&logrus.JSONFormatter{}))
	})

	It("should keep debug when verbose", func() {
		verbose = true
		log.SetLevel(logrus.DebugLevel)
		Expect(configureLogging(config.LoggingConfig{Level: "error"})).To(Succeed())
		Expect(log.GetLevel()).To(Equal(logrus.DebugLevel))
	})

	It("should write to the configured file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "runner.log")
		Expect(configureLogging(config.LoggingConfig{Level: "info", File: path})).To(Succeed())
		log.Info("hello")
		Expect(path).To(BeARegularFile())
	})

	It("should reject an unknown level", func() {
		Expect(configureLogging(config.LoggingConfig{Level: "loud"})).ToNot(Succeed())
	})
})

var _ = Describe("validate command", func() {
	It("should load the bundled example scenarios", func() {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"validate", "-c", filepath.Join("..", "..", "scenario-runner.yaml"),
			filepath.Join("..", "..", "scenarios")})
		Expect(rootCmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("scenario(s) are valid"))
	})
})

var _ = Describe("Execute", func() {
	It("should close the log file when the command fails", func() {
		dir := GinkgoT().TempDir()
		logPath := filepath.Join(dir, "runner.log")
		cfgPath := filepath.Join(dir, "scenario-runner.yaml")
		Expect(os.WriteFile(cfgPath, []byte("logging:\n  level: debug\n  file: "+logPath+"\n"), 0o644)).To(Succeed())

		rootCmd.SetOut(io.Discard)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs([]string{"validate", "-c", cfgPath, filepath.Join(dir, "missing")})
		Expect(Execute()).ToNot(Succeed())

		Expect(logFile).To(BeNil())
		Expect(logPath).To(BeARegularFile())
	})
})
