package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// PlaywrightLauncher launches sessions through playwright-go. The driver
// process is started lazily on the first Launch and shared by every
// session; each session still gets its own browser process.
type PlaywrightLauncher struct {
	engine string
	log    *logrus.Logger

	once sync.Once
	pw   *playwright.Playwright
	err  error
}

// NewPlaywrightLauncher creates a launcher for the given engine
// (chromium, firefox or webkit).
func NewPlaywrightLauncher(engine string, log *logrus.Logger) *PlaywrightLauncher {
	return &PlaywrightLauncher{engine: engine, log: log}
}

// Install downloads the playwright driver and the browser for engine.
func Install(engine string) error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{engine},
	})
}

func (l *PlaywrightLauncher) driver() (*playwright.Playwright, error) {
	l.once.Do(func() {
		l.pw, l.err = playwright.Run()
		if l.err != nil {
			l.err = fmt.Errorf("start playwright driver (run `scenario-runner install` first?): %w", l.err)
		}
	})
	return l.pw, l.err
}

func (l *PlaywrightLauncher) browserType(pw *playwright.Playwright) (playwright.BrowserType, error) {
	switch l.engine {
	case "", "chromium":
		return pw.Chromium, nil
	case "firefox":
		return pw.Firefox, nil
	case "webkit":
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("unsupported browser engine %q", l.engine)
}

// Launch starts a browser process, opens an isolated context and a page.
// Partially created resources are released when a later stage fails.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	pw, err := l.driver()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionStart, err)
	}
	bt, err := l.browserType(pw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionStart, err)
	}

	return awaitSession(ctx, func() (Session, error) {
		launch := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
		}
		if bt.Name() == "chromium" {
			launch.Args = opts.Args
		}
		b, err := bt.Launch(launch)
		if err != nil {
			return nil, fmt.Errorf("%w: launch %s: %w", domain.ErrSessionStart, bt.Name(), err)
		}

		ctxOpts := playwright.BrowserNewContextOptions{}
		if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
			ctxOpts.Viewport = &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
		}
		bc, err := b.NewContext(ctxOpts)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("%w: new context: %w", domain.ErrSessionStart, err)
		}
		if opts.DefaultTimeout > 0 {
			bc.SetDefaultTimeout(ms(opts.DefaultTimeout))
		}
		page, err := bc.NewPage()
		if err != nil {
			_ = bc.Close()
			_ = b.Close()
			return nil, fmt.Errorf("%w: new page: %w", domain.ErrSessionStart, err)
		}
		if err := ctx.Err(); err != nil {
			// Caller has already given up on this launch.
			_ = bc.Close()
			_ = b.Close()
			return nil, Cancelled(err)
		}

		l.log.WithFields(logrus.Fields{
			"engine":   bt.Name(),
			"headless": opts.Headless,
		}).Debug("Browser session started")
		return &playwrightSession{browser: b, context: bc, page: page}, nil
	})
}

// Shutdown stops the shared driver process if it was started.
func (l *PlaywrightLauncher) Shutdown() error {
	if l.pw == nil {
		return nil
	}
	return l.pw.Stop()
}

type playwrightSession struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	closeOnce sync.Once
	closeErr  error
}

// current returns the newest page of the context, so a popup or tab opened
// by a click becomes the document later steps act on.
func (s *playwrightSession) current() playwright.Page {
	if pages := s.context.Pages(); len(pages) > 0 {
		return pages[len(pages)-1]
	}
	return s.page
}

func (s *playwrightSession) Navigate(ctx context.Context, url, waitUntil string, timeout time.Duration) error {
	return awaitErr(ctx, func() error {
		_, err := s.current().Goto(url, playwright.PageGotoOptions{
			WaitUntil: waitUntilState(waitUntil),
			Timeout:   playwright.Float(ms(timeout)),
		})
		if err != nil {
			return fmt.Errorf("%w: goto %s: %w", domain.ErrNavigation, url, err)
		}
		return nil
	})
}

func (s *playwrightSession) WaitForReady(ctx context.Context, state string, timeout time.Duration) error {
	return awaitErr(ctx, func() error {
		ls := loadState(state)
		page := s.current()
		var errs []error
		if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   ls,
			Timeout: playwright.Float(ms(timeout)),
		}); err != nil {
			errs = append(errs, fmt.Errorf("page: %w", err))
		}
		main := page.MainFrame()
		for _, f := range page.Frames() {
			if f == main {
				continue
			}
			if err := f.WaitForLoadState(playwright.FrameWaitForLoadStateOptions{
				State:   ls,
				Timeout: playwright.Float(ms(timeout)),
			}); err != nil {
				errs = append(errs, fmt.Errorf("frame %s: %w", f.URL(), err))
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("%w: readiness %s: %w", domain.ErrNavigation, state, errors.Join(errs...))
		}
		return nil
	})
}

func (s *playwrightSession) Query(ctx context.Context, locator string) (Elements, error) {
	return await(ctx, func() (Elements, error) {
		page := s.current()
		main := page.MainFrame()
		frames := append([]playwright.Frame{main}, page.Frames()...)
		for i, f := range frames {
			if i > 0 && f == main {
				continue
			}
			loc := f.Locator(locator)
			n, err := loc.Count()
			if err != nil {
				return nil, fmt.Errorf("%w: query %q: %w", domain.ErrActionFailed, locator, err)
			}
			if n > 0 {
				return &playwrightElements{loc: loc, count: n}, nil
			}
		}
		return &playwrightElements{}, nil
	})
}

func (s *playwrightSession) SetViewport(ctx context.Context, width, height int) error {
	return awaitErr(ctx, func() error {
		return classify("resize viewport", s.current().SetViewportSize(width, height))
	})
}

func (s *playwrightSession) Scroll(ctx context.Context, dx, dy float64) error {
	return awaitErr(ctx, func() error {
		return classify("scroll", s.current().Mouse().Wheel(dx, dy))
	})
}

func (s *playwrightSession) Title(ctx context.Context) (string, error) {
	return await(ctx, func() (string, error) {
		t, err := s.current().Title()
		return t, classify("read title", err)
	})
}

func (s *playwrightSession) Screenshot(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot directory: %w", err)
	}
	return awaitErr(ctx, func() error {
		_, err := s.current().Screenshot(playwright.PageScreenshotOptions{
			Path:     playwright.String(path),
			FullPage: playwright.Bool(true),
		})
		return classify("screenshot", err)
	})
}

// Close releases the context and the browser process. Only the first call
// does any work.
func (s *playwrightSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if len(errs) > 0 {
			s.closeErr = fmt.Errorf("%w: %w", domain.ErrSessionTeardown, errors.Join(errs...))
		}
	})
	return s.closeErr
}

type playwrightElements struct {
	loc   playwright.Locator
	count int
}

func (e *playwrightElements) Count() int { return e.count }

func (e *playwrightElements) Nth(i int) Element {
	return &playwrightElement{loc: e.loc.Nth(i)}
}

type playwrightElement struct {
	loc playwright.Locator
}

func (e *playwrightElement) Fill(ctx context.Context, text string, timeout time.Duration) error {
	return awaitErr(ctx, func() error {
		return classify("fill", e.loc.Fill(text, playwright.LocatorFillOptions{
			Timeout: playwright.Float(ms(timeout)),
		}))
	})
}

func (e *playwrightElement) Click(ctx context.Context, timeout time.Duration) error {
	return awaitErr(ctx, func() error {
		return classify("click", e.loc.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(ms(timeout)),
		}))
	})
}

func (e *playwrightElement) Text(ctx context.Context, timeout time.Duration) (string, error) {
	return await(ctx, func() (string, error) {
		t, err := e.loc.TextContent(playwright.LocatorTextContentOptions{
			Timeout: playwright.Float(ms(timeout)),
		})
		return t, classify("read text", err)
	})
}

func (e *playwrightElement) Visible(ctx context.Context) (bool, error) {
	return await(ctx, func() (bool, error) {
		v, err := e.loc.IsVisible()
		return v, classify("read visibility", err)
	})
}

func (e *playwrightElement) Enabled(ctx context.Context, timeout time.Duration) (bool, error) {
	return await(ctx, func() (bool, error) {
		v, err := e.loc.IsEnabled(playwright.LocatorIsEnabledOptions{
			Timeout: playwright.Float(ms(timeout)),
		})
		return v, classify("read enabled state", err)
	})
}

// classify maps playwright errors onto the domain sentinels.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %s: %w", domain.ErrActionTimeout, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrActionFailed, op, err)
	}
}

func waitUntilState(s string) *playwright.WaitUntilState {
	switch s {
	case "domcontentloaded":
		return playwright.WaitUntilStateDomcontentloaded
	case "load":
		return playwright.WaitUntilStateLoad
	case "networkidle":
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateCommit
	}
}

func loadState(s string) *playwright.LoadState {
	switch s {
	case "load":
		return playwright.LoadStateLoad
	case "networkidle":
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateDomcontentloaded
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
