// Package browsertest provides a scripted, in-memory browser.Launcher for
// tests that must not start a real browser.
package browsertest

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/browser"
	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// Element scripts how one locator behaves on a page.
type Element struct {
	Text     string
	Matches  int // number of matching nodes; zero means one
	Hidden   bool
	Disabled bool

	// VisibleAt overrides Hidden when set, making visibility depend on the
	// current viewport.
	VisibleAt func(width, height int) bool

	// AppearAfter keeps the element detached until this long after the
	// page was loaded.
	AppearAfter time.Duration

	// ActionDelay is how long fill and click take to complete.
	ActionDelay time.Duration

	// OnClick runs after a successful click, typically to navigate.
	OnClick func(s *Session)
}

// Page is one scripted document, keyed by path in Launcher.Pages.
type Page struct {
	Title    string
	Elements map[string]*Element
}

// Launcher hands out scripted sessions and counts lifecycle calls.
type Launcher struct {
	Pages map[string]*Page

	LaunchErr   error
	CloseErr    error
	NavigateErr error
	ReadyErr    error

	mu       sync.Mutex
	launches int
	sessions []*Session
}

// NewLauncher returns a launcher serving pages.
func NewLauncher(pages map[string]*Page) *Launcher {
	return &Launcher{Pages: pages}
}

// Launch implements browser.Launcher.
func (l *Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	if err := ctx.Err(); err != nil {
		return nil, browser.Cancelled(err)
	}
	if l.LaunchErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionStart, l.LaunchErr)
	}
	s := &Session{
		launcher: l,
		Width:    opts.ViewportWidth,
		Height:   opts.ViewportHeight,
		Filled:   make(map[string]string),
	}
	l.sessions = append(l.sessions, s)
	return s, nil
}

// Launches returns how many times Launch was called.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// Sessions returns every session launched so far.
func (l *Launcher) Sessions() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Session(nil), l.sessions...)
}

// Closes returns the total number of Close calls across all sessions.
func (l *Launcher) Closes() int {
	n := 0
	for _, s := range l.Sessions() {
		n += s.Closes()
	}
	return n
}

// Session is a scripted browser.Session. Its exported fields are safe to
// read once the run that owns it has finished.
type Session struct {
	launcher *Launcher

	mu          sync.Mutex
	page        *Page
	URL         string
	Width       int
	Height      int
	ScrollX     float64
	ScrollY     float64
	Filled      map[string]string
	Clicked     []string
	Screenshots []string
	Tabs        []string // path of every open tab, newest last
	Calls       []string // every driver call in order
	loadedAt    time.Time
	closes      int
	afterClose  int
}

// Closes returns how many times Close was called.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// CallsAfterClose counts driver calls made after Close.
func (s *Session) CallsAfterClose() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.afterClose
}

// Goto loads path into the newest tab without going through Navigate.
func (s *Session) Goto(path string) {
	s.page = s.launcher.Pages[path]
	s.URL = path
	s.loadedAt = time.Now()
	if len(s.Tabs) == 0 {
		s.Tabs = append(s.Tabs, path)
		return
	}
	s.Tabs[len(s.Tabs)-1] = path
}

// Open simulates a click that opens a popup or new tab with path. Every
// later call acts on the new tab.
func (s *Session) Open(path string) {
	s.Tabs = append(s.Tabs, path)
	s.Goto(path)
}

func (s *Session) record(call string) error {
	s.Calls = append(s.Calls, call)
	if s.closes > 0 {
		s.afterClose++
		return fmt.Errorf("%w: session closed", domain.ErrActionFailed)
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, rawURL, _ string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("navigate " + rawURL); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return browser.Cancelled(err)
	}
	if s.launcher.NavigateErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrNavigation, s.launcher.NavigateErr)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNavigation, err)
	}
	s.Goto(u.Path)
	s.URL = rawURL
	return nil
}

func (s *Session) WaitForReady(ctx context.Context, state string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ready " + state); err != nil {
		return err
	}
	if s.launcher.ReadyErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrNavigation, s.launcher.ReadyErr)
	}
	return nil
}

func (s *Session) Query(ctx context.Context, locator string) (browser.Elements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("query " + locator); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, browser.Cancelled(err)
	}
	if s.page == nil {
		return elements{}, nil
	}
	el, ok := s.page.Elements[locator]
	if !ok || time.Since(s.loadedAt) < el.AppearAfter {
		return elements{}, nil
	}
	n := el.Matches
	if n == 0 {
		n = 1
	}
	return elements{s: s, locator: locator, el: el, n: n}, nil
}

func (s *Session) SetViewport(ctx context.Context, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(fmt.Sprintf("resize %dx%d", width, height)); err != nil {
		return err
	}
	s.Width, s.Height = width, height
	return nil
}

func (s *Session) Scroll(ctx context.Context, dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(fmt.Sprintf("scroll %g,%g", dx, dy)); err != nil {
		return err
	}
	s.ScrollX += dx
	s.ScrollY += dy
	return nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("title"); err != nil {
		return "", err
	}
	if s.page == nil {
		return "", nil
	}
	return s.page.Title, nil
}

func (s *Session) Screenshot(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("screenshot " + path); err != nil {
		return err
	}
	s.Screenshots = append(s.Screenshots, path)
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "close")
	s.closes++
	if s.launcher.CloseErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrSessionTeardown, s.launcher.CloseErr)
	}
	return nil
}

type elements struct {
	s       *Session
	locator string
	el      *Element
	n       int
}

func (e elements) Count() int { return e.n }

func (e elements) Nth(i int) browser.Element {
	return &element{elements: e, index: i}
}

type element struct {
	elements
	index int
}

func (e *element) visible() bool {
	if e.el.VisibleAt != nil {
		return e.el.VisibleAt(e.s.Width, e.s.Height)
	}
	return !e.el.Hidden
}

// act simulates an actionability wait bounded by timeout.
func (e *element) act(ctx context.Context, timeout time.Duration) error {
	if e.el.ActionDelay == 0 {
		return nil
	}
	if timeout > 0 && e.el.ActionDelay > timeout {
		select {
		case <-ctx.Done():
			return browser.Cancelled(ctx.Err())
		case <-time.After(timeout):
			return fmt.Errorf("%w: %s did not become actionable within %s", domain.ErrActionTimeout, e.locator, timeout)
		}
	}
	select {
	case <-ctx.Done():
		return browser.Cancelled(ctx.Err())
	case <-time.After(e.el.ActionDelay):
		return nil
	}
}

func (e *element) Fill(ctx context.Context, text string, timeout time.Duration) error {
	e.s.mu.Lock()
	err := e.s.record("fill " + e.locator)
	e.s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := e.act(ctx, timeout); err != nil {
		return err
	}
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.Filled[e.locator] = text
	return nil
}

func (e *element) Click(ctx context.Context, timeout time.Duration) error {
	e.s.mu.Lock()
	err := e.s.record(fmt.Sprintf("click %s[%d]", e.locator, e.index))
	e.s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := e.act(ctx, timeout); err != nil {
		return err
	}
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.Clicked = append(e.s.Clicked, e.locator)
	if e.el.OnClick != nil {
		e.el.OnClick(e.s)
	}
	return nil
}

func (e *element) Text(ctx context.Context, timeout time.Duration) (string, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.s.record("text " + e.locator); err != nil {
		return "", err
	}
	return e.el.Text, nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.s.record("visible " + e.locator); err != nil {
		return false, err
	}
	return e.visible(), nil
}

func (e *element) Enabled(ctx context.Context, timeout time.Duration) (bool, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if err := e.s.record("enabled " + e.locator); err != nil {
		return false, err
	}
	return !e.el.Disabled, nil
}
