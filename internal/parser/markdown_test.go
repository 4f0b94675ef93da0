package parser_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/parser"
)

var _ = Describe("MarkdownParser", func() {
	var p *parser.MarkdownParser

	BeforeEach(func() {
		p = parser.NewMarkdownParser(parser.DefaultMarkers())
	})

	Describe("SupportedExtensions", func() {
		It("should support .md and .markdown", func() {
			Expect(p.SupportedExtensions()).To(ContainElements(".md", ".markdown"))
		})
	})

	Describe("Parse login.md", func() {
		var content []byte

		BeforeEach(func() {
			var err error
			content, err = os.ReadFile(filepath.Join("..", "..", "testdata", "markdown", "login.md"))
			Expect(err).ToNot(HaveOccurred())
		})

		It("should extract the two scenario blocks", func() {
			doc, err := p.Parse("login.md", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Blocks).To(HaveLen(2))
			Expect(doc.FileType).To(Equal("markdown"))
		})

		It("should extract info string attributes", func() {
			doc, err := p.Parse("login.md", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Blocks[0].Attributes).To(HaveKeyWithValue("name", "Login success"))
			Expect(doc.Blocks[0].Attributes).To(HaveKeyWithValue("timeout", "5s"))
			Expect(doc.Blocks[1].Attributes).To(HaveKeyWithValue("skip", "true"))
			Expect(doc.Blocks[0].Attributes).ToNot(HaveKey("_tag"))
		})

		It("should keep the YAML body and its line number", func() {
			doc, err := p.Parse("login.md", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Blocks[0].Content).To(HavePrefix("vars:"))
			Expect(doc.Blocks[0].Content).To(ContainSubstring(`click: "button[type=submit]"`))
			Expect(doc.Blocks[0].LineNumber).To(Equal(8))
		})

		It("should extract headings and context", func() {
			doc, err := p.Parse("login.md", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Headings[0].Text).To(Equal("Point of Sale Login"))
			Expect(doc.Headings[0].Level).To(Equal(1))
			Expect(doc.Blocks[0].Context).To(Equal("Sign in"))
		})

		It("should not extract blocks with non-matching tags", func() {
			doc, err := p.Parse("login.md", content, []string{"other-tag"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Blocks).To(BeEmpty())
		})
	})

	Describe("Parse checkout.md", func() {
		var content []byte

		BeforeEach(func() {
			var err error
			content, err = os.ReadFile(filepath.Join("..", "..", "testdata", "markdown", "checkout.md"))
			Expect(err).ToNot(HaveOccurred())
		})

		It("should assign the group from scenario-start markers", func() {
			doc, err := p.Parse("checkout.md", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Blocks).To(HaveLen(4))
			for _, b := range doc.Blocks[:3] {
				Expect(b.Group).To(Equal("Checkout single item"))
			}
			Expect(doc.Metadata["scenario-start"]).To(Equal("Checkout single item"))
		})

		It("should clear the group after scenario-end", func() {
			doc, err := p.Parse("checkout.md", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Blocks[3].Group).To(BeEmpty())
			Expect(doc.Blocks[3].Context).To(Equal("Refunds"))
		})
	})
})
