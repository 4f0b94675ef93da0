// Package runner executes a single Scenario against a browser Session.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/browser"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// Runner executes scenarios. It holds no state between runs and is safe for
// concurrent use; each Run gets its own Session.
type Runner struct {
	launcher browser.Launcher
	opts     Options
	log      *logrus.Logger
}

// New creates a Runner.
func New(launcher browser.Launcher, opts Options, log *logrus.Logger) *Runner {
	return &Runner{
		launcher: launcher,
		opts:     opts.withDefaults(),
		log:      log,
	}
}

// Run executes s and returns its result. The session is created at most once
// and, once created, closed exactly once on every exit path. Teardown errors
// are recorded as diagnostics and never change the outcome.
func (r *Runner) Run(ctx context.Context, s domain.Scenario) (res domain.Result) {
	res = domain.Result{
		Scenario:   s.Name,
		SourceFile: s.SourceFile,
		Describe:   s.Describe,
		RunID:      uuid.NewString(),
		FailedStep: -1,
		Started:    time.Now(),
	}
	log := r.log.WithFields(logrus.Fields{
		"scenario": s.Name,
		"run_id":   res.RunID,
	})
	defer func() {
		res.Duration = time.Since(res.Started)
		entry := log.WithFields(logrus.Fields{"status": res.Status, "duration": res.Duration.Round(time.Millisecond)})
		if res.Status == domain.StatusFailed {
			entry.WithField("kind", res.Kind).Warn(res.Message)
		} else {
			entry.Info("Scenario finished")
		}
	}()

	if s.Skip {
		res.Status = domain.StatusSkipped
		return res
	}

	if r.opts.ScenarioTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ScenarioTimeout)
		defer cancel()
	}

	log.Debug("Launching browser session")
	sess, err := r.launcher.Launch(ctx, r.opts.Launch)
	if err != nil {
		r.fail(ctx, &res, &domain.StepError{Kind: classify(ctx, err, domain.KindSessionStart), Index: -1, Cause: err})
		return res
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.WithError(err).Warn("Session teardown failed")
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("%s: %v", domain.KindSessionTeardown, err))
		}
	}()

	ex := &execution{
		Runner:   r,
		scenario: s,
		sess:     sess,
		log:      log,
		res:      &res,
		armed:    make(map[string]bool),
	}
	if err := ex.run(ctx); err != nil {
		r.fail(ctx, &res, err)
		if r.opts.ScreenshotOnFailure {
			ex.captureFailure(ctx)
		}
		return res
	}
	res.Status = domain.StatusPassed
	return res
}

// fail records err as the scenario outcome.
func (r *Runner) fail(ctx context.Context, res *domain.Result, err error) {
	res.Status = domain.StatusFailed
	var se *domain.StepError
	if !errors.As(err, &se) {
		se = &domain.StepError{Kind: classify(ctx, err, domain.KindActionFailed), Index: -1, Cause: err}
	}
	res.Kind = se.Kind
	res.FailedStep = se.Index
	res.Message = se.Error()
	res.Expected = se.Expected
	res.Actual = se.Actual
}

// classify picks the error kind, preferring cancellation when the governing
// context is done.
func classify(ctx context.Context, err error, fallback domain.ErrorKind) domain.ErrorKind {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.KindCancelled
	}
	kind := domain.KindOf(err)
	if kind == domain.KindActionFailed {
		return fallback
	}
	return kind
}

// execution is the state of one scenario run.
type execution struct {
	*Runner
	scenario  domain.Scenario
	sess      browser.Session
	log       *logrus.Entry
	res       *domain.Result
	armed     map[string]bool // reauth guards seen absent at least once
	navigated bool
}

func (ex *execution) run(ctx context.Context) error {
	for i, step := range ex.scenario.Steps {
		if err := ctx.Err(); err != nil {
			return ex.stepErr(ctx, i, step.Label(), browser.Cancelled(err))
		}
		started := time.Now()
		stepLog := ex.log.WithFields(logrus.Fields{"step": i, "name": step.Label()})
		stepLog.Debug("Executing step")

		value, err := ex.step(ctx, step)
		sr := domain.StepResult{
			Index:    i,
			Name:     step.Label(),
			Kind:     step.Kind,
			Status:   domain.StatusPassed,
			Value:    value,
			Duration: time.Since(started),
		}
		if err != nil {
			serr := ex.stepErr(ctx, i, step.Label(), err)
			sr.Status = domain.StatusFailed
			sr.Error = serr.Error()
			ex.res.Steps = append(ex.res.Steps, sr)
			return serr
		}
		ex.res.Steps = append(ex.res.Steps, sr)
	}

	for j, a := range ex.scenario.Assertions {
		idx := len(ex.scenario.Steps) + j
		name := assertionLabel(a)
		started := time.Now()
		if err := ctx.Err(); err != nil {
			return ex.stepErr(ctx, idx, name, browser.Cancelled(err))
		}
		err := ex.assert(ctx, a)
		sr := domain.StepResult{
			Index:    idx,
			Name:     name,
			Kind:     domain.StepAssert,
			Status:   domain.StatusPassed,
			Duration: time.Since(started),
		}
		if err != nil {
			serr := ex.stepErr(ctx, idx, name, err)
			sr.Status = domain.StatusFailed
			sr.Error = serr.Error()
			ex.res.Steps = append(ex.res.Steps, sr)
			return serr
		}
		ex.res.Steps = append(ex.res.Steps, sr)
	}
	return nil
}

// stepErr attaches the step position to err.
func (ex *execution) stepErr(ctx context.Context, index int, name string, err error) *domain.StepError {
	var se *domain.StepError
	if errors.As(err, &se) {
		se.Index = index
		se.Step = name
		if ctx.Err() != nil && se.Kind != domain.KindAssertionFailed {
			se.Kind = domain.KindCancelled
		}
		return se
	}
	return &domain.StepError{
		Kind:  classify(ctx, err, domain.KindActionFailed),
		Index: index,
		Step:  name,
		Cause: err,
	}
}

func (ex *execution) step(ctx context.Context, step domain.Step) (string, error) {
	switch step.Kind {
	case domain.StepNavigate:
		return "", ex.navigate(ctx, step)
	case domain.StepAct:
		return ex.act(ctx, step)
	case domain.StepWait:
		return "", sleep(ctx, step.Duration)
	case domain.StepResize:
		return "", ex.sess.SetViewport(ctx, step.Width, step.Height)
	case domain.StepScroll:
		return "", ex.sess.Scroll(ctx, step.DeltaX, step.DeltaY)
	case domain.StepAssert:
		if step.Assertion == nil {
			return "", &domain.StepError{Kind: domain.KindInvalidStep, Message: "assert step without assertion"}
		}
		return "", ex.assert(ctx, *step.Assertion)
	case domain.StepScreenshot:
		path := step.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(ex.opts.ArtifactsDir, path)
		}
		if err := ex.sess.Screenshot(ctx, path); err != nil {
			return "", err
		}
		ex.res.Artifacts = append(ex.res.Artifacts, path)
		return path, nil
	}
	return "", &domain.StepError{Kind: domain.KindInvalidStep, Message: fmt.Sprintf("unknown step kind %q", step.Kind)}
}

// navigate loads the target URL. Readiness failures are logged and
// swallowed; later steps check element presence themselves.
func (ex *execution) navigate(ctx context.Context, step domain.Step) error {
	target, err := ex.resolveURL(step.URL)
	if err != nil {
		return &domain.StepError{Kind: domain.KindInvalidStep, Message: err.Error()}
	}
	waitUntil := step.WaitUntil
	if waitUntil == "" {
		waitUntil = ex.opts.WaitUntil
	}

	if err := ex.sess.Navigate(ctx, target, waitUntil, ex.opts.NavigationTimeout); err != nil {
		if ctx.Err() != nil {
			return err
		}
		ex.swallow(err, "Navigation did not complete, continuing")
	}
	if err := ex.sess.WaitForReady(ctx, ex.opts.ReadinessState, ex.opts.ReadinessTimeout); err != nil {
		if ctx.Err() != nil {
			return err
		}
		ex.swallow(err, "Page not ready, continuing")
	}
	ex.navigated = true
	return nil
}

func (ex *execution) swallow(err error, msg string) {
	ex.log.WithError(err).Warn(msg)
	ex.res.Diagnostics = append(ex.res.Diagnostics, fmt.Sprintf("%s: %v", domain.KindNavigationError, err))
}

func (ex *execution) resolveURL(raw string) (string, error) {
	base := ex.scenario.BaseURL
	if base == "" {
		base = ex.opts.BaseURL
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if ref.IsAbs() || base == "" {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	// Keep a base path prefix such as http://host/app when joining /login.
	if strings.HasPrefix(raw, "/") && b.Path != "" && b.Path != "/" {
		ref.Path = strings.TrimSuffix(b.Path, "/") + ref.Path
	}
	return b.ResolveReference(ref).String(), nil
}

func (ex *execution) act(ctx context.Context, step domain.Step) (string, error) {
	settle := ex.opts.SettleDelay
	if step.Settle != nil {
		settle = *step.Settle
	}
	if err := sleep(ctx, settle); err != nil {
		return "", err
	}
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = ex.opts.ActionTimeout
	}

	if err := ex.checkReauth(ctx, step.Locator); err != nil {
		return "", err
	}
	el, err := ex.locate(ctx, step.Locator, step.Nth, timeout)
	if err != nil {
		return "", err
	}

	switch step.Action {
	case domain.ActionFill:
		return "", el.Fill(ctx, step.Text, timeout)
	case domain.ActionClick:
		return "", el.Click(ctx, timeout)
	case domain.ActionReadText:
		return el.Text(ctx, timeout)
	case domain.ActionReadVisible:
		v, err := el.Visible(ctx)
		return strconv.FormatBool(v), err
	case domain.ActionReadEnabled:
		v, err := el.Enabled(ctx, timeout)
		return strconv.FormatBool(v), err
	}
	return "", &domain.StepError{Kind: domain.KindInvalidStep, Message: fmt.Sprintf("unknown action %q", step.Action)}
}

// locate polls until locator has a match at the wanted index or timeout
// elapses. Without an explicit index, multiple matches are handled by the
// ambiguity policy and the first match is used.
func (ex *execution) locate(ctx context.Context, locator string, nth *int, timeout time.Duration) (browser.Element, error) {
	want := 0
	if nth != nil {
		want = *nth
	}
	deadline := time.Now().Add(timeout)
	count := 0
	for {
		els, err := ex.sess.Query(ctx, locator)
		if err != nil {
			return nil, err
		}
		count = els.Count()
		if count > want {
			if nth == nil && count > 1 {
				if err := ex.ambiguous(locator, count); err != nil {
					return nil, err
				}
			}
			return els.Nth(want), nil
		}
		if !time.Now().Before(deadline) {
			break
		}
		wait := min(ex.opts.PollInterval, time.Until(deadline))
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	msg := fmt.Sprintf("no element matches %q within %s", locator, timeout)
	if nth != nil && count > 0 {
		msg = fmt.Sprintf("%q has %d matches, index %d requested", locator, count, want)
	}
	return nil, &domain.StepError{Kind: domain.KindElementNotFound, Message: msg}
}

func (ex *execution) ambiguous(locator string, count int) error {
	msg := fmt.Sprintf("locator %q matched %d elements, using the first", locator, count)
	switch ex.opts.OnAmbiguous {
	case AmbiguousFail:
		return &domain.StepError{
			Kind:    domain.KindAmbiguousLocator,
			Message: fmt.Sprintf("locator %q matched %d elements; add nth to pick one", locator, count),
		}
	case AmbiguousWarn:
		ex.log.WithField("locator", locator).Warn(msg)
		ex.res.Diagnostics = append(ex.res.Diagnostics, fmt.Sprintf("%s: %s", domain.KindAmbiguousLocator, msg))
	}
	return nil
}

// checkReauth fails when a login prompt that was gone comes back.
func (ex *execution) checkReauth(ctx context.Context, target string) error {
	if !ex.navigated {
		return nil
	}
	for _, guard := range ex.guards() {
		visible, err := ex.isVisible(ctx, guard)
		if err != nil {
			return err
		}
		switch {
		case !visible:
			ex.armed[guard] = true
		case ex.armed[guard] && guard != target:
			return &domain.StepError{
				Kind:    domain.KindUnexpectedReauth,
				Message: fmt.Sprintf("login prompt %q reappeared", guard),
			}
		}
	}
	return nil
}

func (ex *execution) guards() []string {
	if len(ex.scenario.ReauthGuards) == 0 {
		return ex.opts.ReauthGuards
	}
	return append(append([]string(nil), ex.opts.ReauthGuards...), ex.scenario.ReauthGuards...)
}

// isVisible reads the visibility of the first match without waiting.
func (ex *execution) isVisible(ctx context.Context, locator string) (bool, error) {
	els, err := ex.sess.Query(ctx, locator)
	if err != nil {
		return false, err
	}
	if els.Count() == 0 {
		return false, nil
	}
	return els.Nth(0).Visible(ctx)
}

// captureFailure writes a full-page screenshot before teardown. Errors are
// diagnostics only.
func (ex *execution) captureFailure(ctx context.Context) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ex.opts.ActionTimeout)
	defer cancel()
	path := filepath.Join(ex.opts.ArtifactsDir, fmt.Sprintf("%s-%s.png", slug(ex.scenario.Name), ex.res.RunID[:8]))
	if err := ex.sess.Screenshot(sctx, path); err != nil {
		ex.log.WithError(err).Warn("Failure screenshot not captured")
		ex.res.Diagnostics = append(ex.res.Diagnostics, fmt.Sprintf("screenshot: %v", err))
		return
	}
	ex.res.Artifacts = append(ex.res.Artifacts, path)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "scenario"
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return browser.Cancelled(ctx.Err())
	case <-t.C:
		return nil
	}
}
