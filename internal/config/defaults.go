package config

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	recursive := true
	headless := true
	return &Config{
		Input: InputConfig{
			Directories: []string{"scenarios"},
			Include:     []string{"*.md", "*.adoc", "*.scenario.yaml", "*.scenario.yml"},
			Exclude:     []string{"vendor/**", "node_modules/**"},
			Recursive:   &recursive,
		},
		Tags: TagConfig{
			ScenarioTags: []string{"ui-scenario"},
			ScenarioStart: MarkerConfig{
				CommentMarkers: []string{
					"<!-- scenario-start:",
					"// scenario-start:",
				},
			},
			ScenarioEnd: MarkerConfig{
				CommentMarkers: []string{
					"<!-- scenario-end",
					"// scenario-end",
				},
			},
			Attributes: map[string][]string{
				"name":     {"name", "scenario"},
				"timeout":  {"timeout"},
				"base_url": {"base-url", "base_url"},
				"skip":     {"skip"},
				"tags":     {"tags"},
			},
		},
		Target: TargetConfig{
			BaseURL: "http://localhost:3000",
			BlockedPatterns: []string{
				"javascript:",
				"file://",
				"data:",
			},
		},
		Browser: BrowserConfig{
			Engine:   "chromium",
			Headless: &headless,
			Args: []string{
				"--window-size=1280,720",
				"--disable-dev-shm-usage",
			},
			ViewportWidth:  1280,
			ViewportHeight: 720,
			DefaultTimeout: "5s",
		},
		Runner: RunnerConfig{
			ActionTimeout:     "5s",
			NavigationTimeout: "10s",
			ReadinessTimeout:  "3s",
			WaitUntil:         "commit",
			ReadinessState:    "domcontentloaded",
			SettleDelay:       "0s",
			OnAmbiguous:       "warn",
			Parallel:          1,
		},
		Output: OutputConfig{
			Directory: "reports",
			Formats:   []string{"text", "junit"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		DryRun: false,
	}
}
