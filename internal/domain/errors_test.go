package domain_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

var _ = Describe("Errors", func() {
	Describe("RunnerError", func() {
		It("should format phase, file, line and cause", func() {
			err := domain.NewError("parse", "login.md", 12, "bad block", errors.New("boom"))
			Expect(err.Error()).To(Equal("[parse] login.md:12: bad block: boom"))
		})

		It("should append the suggestion", func() {
			err := domain.NewErrorWithSuggestion("config", "", 0, "missing base_url", "set target.base_url", nil)
			Expect(err.Error()).To(Equal("[config]: missing base_url (hint: set target.base_url)"))
		})

		It("should unwrap to the cause", func() {
			cause := errors.New("root")
			err := domain.NewError("scan", "docs", 0, "failed", cause)
			Expect(errors.Is(err, cause)).To(BeTrue())
		})
	})

	Describe("StepError", func() {
		It("should match its kind sentinel", func() {
			err := &domain.StepError{Kind: domain.KindElementNotFound, Index: 3, Step: "click #x"}
			Expect(errors.Is(err, domain.ErrElementNotFound)).To(BeTrue())
			Expect(errors.Is(err, domain.ErrActionTimeout)).To(BeFalse())
		})

		It("should also match its cause", func() {
			err := &domain.StepError{Kind: domain.KindCancelled, Index: 0, Cause: context.Canceled}
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(errors.Is(err, domain.ErrCancelled)).To(BeTrue())
		})

		It("should include expected and actual for assertion failures", func() {
			err := &domain.StepError{Kind: domain.KindAssertionFailed, Index: 4, Expected: "Home", Actual: "Login"}
			Expect(err.Error()).To(ContainSubstring(`expected "Home", got "Login"`))
			Expect(err.Error()).To(ContainSubstring("at step 4"))
		})
	})

	Describe("KindOf", func() {
		It("should classify wrapped sentinels", func() {
			err := fmt.Errorf("click: %w", domain.ErrActionTimeout)
			Expect(domain.KindOf(err)).To(Equal(domain.KindActionTimeout))
		})

		It("should prefer the StepError kind", func() {
			err := fmt.Errorf("wrapped: %w", &domain.StepError{Kind: domain.KindUnexpectedReauth})
			Expect(domain.KindOf(err)).To(Equal(domain.KindUnexpectedReauth))
		})

		It("should fall back to ActionFailed", func() {
			Expect(domain.KindOf(errors.New("detached"))).To(Equal(domain.KindActionFailed))
		})
	})
})

var _ = Describe("Scenario", func() {
	It("should report an outcome check for terminal assertions", func() {
		sc := domain.Scenario{Assertions: []domain.Assertion{{Kind: domain.AssertVisible, Locator: "text=Home"}}}
		Expect(sc.HasOutcomeCheck()).To(BeTrue())
	})

	It("should report an outcome check for inline assert steps", func() {
		sc := domain.Scenario{Steps: []domain.Step{{Kind: domain.StepAssert, Assertion: &domain.Assertion{Kind: domain.AssertHidden}}}}
		Expect(sc.HasOutcomeCheck()).To(BeTrue())
	})

	It("should report no outcome check for bare steps", func() {
		sc := domain.Scenario{Steps: []domain.Step{{Kind: domain.StepWait}}}
		Expect(sc.HasOutcomeCheck()).To(BeFalse())
	})
})

var _ = Describe("SuiteResult", func() {
	It("should tally statuses", func() {
		s := &domain.SuiteResult{Results: []domain.Result{
			{Status: domain.StatusPassed},
			{Status: domain.StatusFailed},
			{Status: domain.StatusSkipped},
			{Status: domain.StatusPassed},
		}}
		s.Tally()
		Expect(s.Passed).To(Equal(2))
		Expect(s.Failed).To(Equal(1))
		Expect(s.Skipped).To(Equal(1))
		Expect(s.OK()).To(BeFalse())
	})
})
