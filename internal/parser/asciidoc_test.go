package parser_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/parser"
)

var _ = Describe("AsciiDocParser", func() {
	var p *parser.AsciiDocParser

	BeforeEach(func() {
		p = parser.NewAsciiDocParser(parser.DefaultMarkers())
	})

	It("should support .adoc and .asciidoc", func() {
		Expect(p.SupportedExtensions()).To(ContainElements(".adoc", ".asciidoc"))
	})

	Describe("Parse reports.adoc", func() {
		var content []byte

		BeforeEach(func() {
			var err error
			content, err = os.ReadFile(filepath.Join("..", "..", "testdata", "asciidoc", "reports.adoc"))
			Expect(err).ToNot(HaveOccurred())
		})

		It("should extract the tagged listing blocks only", func() {
			doc, err := p.Parse("reports.adoc", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.FileType).To(Equal("asciidoc"))
			Expect(doc.Blocks).To(HaveLen(4))
		})

		It("should extract attributes", func() {
			doc, err := p.Parse("reports.adoc", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Blocks[3].Attributes).To(HaveKeyWithValue("name", "Report title"))
		})

		It("should group blocks between scenario markers", func() {
			doc, err := p.Parse("reports.adoc", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Blocks[0].Group).To(Equal("Generate sales report"))
			Expect(doc.Blocks[2].Group).To(Equal("Generate sales report"))
			Expect(doc.Blocks[3].Group).To(BeEmpty())
		})

		It("should extract headings with levels", func() {
			doc, err := p.Parse("reports.adoc", content, []string{"ui-scenario"})
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Headings).To(HaveLen(2))
			Expect(doc.Headings[0].Level).To(Equal(1))
			Expect(doc.Headings[1].Text).To(Equal("Sales report"))
			Expect(doc.Blocks[0].Context).To(Equal("Sales report"))
		})
	})

	It("should fail on an unterminated listing", func() {
		content := []byte("[source,ui-scenario]\n----\n- navigate: /\n")
		_, err := p.Parse("broken.adoc", content, []string{"ui-scenario"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unterminated"))
	})
})
