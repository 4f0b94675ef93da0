package converter_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/converter"
)

var _ = Describe("URL policy", func() {
	var target *config.TargetConfig

	BeforeEach(func() {
		target = &config.TargetConfig{
			BaseURL:         "http://localhost:3000",
			AllowedHosts:    []string{"sso.example.com"},
			BlockedPatterns: []string{"javascript:", "file://"},
		}
	})

	DescribeTable("ValidateURL",
		func(raw string, ok bool) {
			err := converter.ValidateURL(raw, target.BaseURL, target)
			if ok {
				Expect(err).ToNot(HaveOccurred())
			} else {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("relative path", "/login", true),
		Entry("same host", "http://localhost:3000/pos", true),
		Entry("allowed host", "https://sso.example.com/auth", true),
		Entry("foreign host", "https://elsewhere.example.com/", false),
		Entry("blocked scheme", "javascript:alert(1)", false),
		Entry("blocked scheme in upper case", "JAVASCRIPT:alert(1)", false),
		Entry("file URL", "file:///etc/passwd", false),
		Entry("ftp URL", "ftp://localhost/file", false),
	)

	Describe("ValidateBaseURL", func() {
		It("should accept absolute http URLs", func() {
			Expect(converter.ValidateBaseURL("https://staging.example.com", nil)).To(Succeed())
		})

		It("should reject relative URLs", func() {
			Expect(converter.ValidateBaseURL("/app", nil)).ToNot(Succeed())
		})
	})
})
