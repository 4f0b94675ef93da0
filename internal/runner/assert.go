package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

const absent = "<absent>"

// assert evaluates a once against the current page. There is no retrying;
// a read that does not match fails immediately with AssertionFailed.
func (ex *execution) assert(ctx context.Context, a domain.Assertion) error {
	var expected, actual string
	var ok bool

	switch a.Kind {
	case domain.AssertVisible, domain.AssertHidden:
		state, err := ex.visibility(ctx, a.Locator)
		if err != nil {
			return err
		}
		if a.Kind == domain.AssertVisible {
			expected, ok = "visible", state == "visible"
		} else {
			expected, ok = "hidden", state != "visible"
		}
		actual = state

	case domain.AssertEnabled, domain.AssertDisabled:
		els, err := ex.sess.Query(ctx, a.Locator)
		if err != nil {
			return err
		}
		actual = absent
		if els.Count() > 0 {
			enabled, err := els.Nth(0).Enabled(ctx, ex.opts.ActionTimeout)
			if err != nil {
				return err
			}
			actual = "disabled"
			if enabled {
				actual = "enabled"
			}
		}
		expected = string(a.Kind)
		ok = actual == expected

	case domain.AssertTitleEquals:
		title, err := ex.sess.Title(ctx)
		if err != nil {
			return err
		}
		expected, actual = a.Expected, title
		ok = title == a.Expected

	case domain.AssertTextEquals, domain.AssertTextContains:
		text, found, err := ex.text(ctx, a.Locator)
		if err != nil {
			return err
		}
		expected, actual = a.Expected, text
		if !found {
			actual = absent
		} else if a.Kind == domain.AssertTextEquals {
			ok = text == a.Expected
		} else {
			ok = strings.Contains(text, a.Expected)
		}

	case domain.AssertCountAtLeast:
		els, err := ex.sess.Query(ctx, a.Locator)
		if err != nil {
			return err
		}
		expected = fmt.Sprintf(">= %d", a.Count)
		actual = strconv.Itoa(els.Count())
		ok = els.Count() >= a.Count

	default:
		return &domain.StepError{Kind: domain.KindInvalidStep, Message: fmt.Sprintf("unknown assertion %q", a.Kind)}
	}

	if ok {
		return nil
	}
	msg := a.Message
	if msg == "" {
		msg = assertionLabel(a)
	}
	return &domain.StepError{
		Kind:     domain.KindAssertionFailed,
		Message:  msg,
		Expected: expected,
		Actual:   actual,
	}
}

// visibility returns "visible", "hidden" or absent for the first match.
func (ex *execution) visibility(ctx context.Context, locator string) (string, error) {
	els, err := ex.sess.Query(ctx, locator)
	if err != nil {
		return "", err
	}
	if els.Count() == 0 {
		return absent, nil
	}
	v, err := els.Nth(0).Visible(ctx)
	if err != nil {
		return "", err
	}
	if v {
		return "visible", nil
	}
	return "hidden", nil
}

func (ex *execution) text(ctx context.Context, locator string) (string, bool, error) {
	els, err := ex.sess.Query(ctx, locator)
	if err != nil {
		return "", false, err
	}
	if els.Count() == 0 {
		return "", false, nil
	}
	t, err := els.Nth(0).Text(ctx, ex.opts.ActionTimeout)
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(t), true, nil
}

func assertionLabel(a domain.Assertion) string {
	switch a.Kind {
	case domain.AssertTitleEquals:
		return fmt.Sprintf("title equals %q", a.Expected)
	case domain.AssertTextEquals:
		return fmt.Sprintf("text of %s equals %q", a.Locator, a.Expected)
	case domain.AssertTextContains:
		return fmt.Sprintf("text of %s contains %q", a.Locator, a.Expected)
	case domain.AssertCountAtLeast:
		return fmt.Sprintf("%s matches at least %d", a.Locator, a.Count)
	}
	return fmt.Sprintf("%s is %s", a.Locator, a.Kind)
}
