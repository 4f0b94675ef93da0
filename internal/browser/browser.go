// Package browser abstracts the browser automation protocol behind a small
// Session interface so the runner can be exercised without a real browser.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// LaunchOptions configures one browser process and its isolated context.
type LaunchOptions struct {
	Headless       bool
	Args           []string
	ViewportWidth  int
	ViewportHeight int
	DefaultTimeout time.Duration
}

// Launcher starts a fresh Session. Every call creates a new browser process
// and context; nothing is pooled.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one browser process plus one isolated browsing context. It is
// owned by a single scenario run and must be closed exactly once.
//
// Implementations wrap failures with the domain sentinels
// (domain.ErrActionTimeout, domain.ErrNavigation, domain.ErrCancelled, ...)
// so callers can classify them with errors.Is.
type Session interface {
	// Navigate loads url and returns once the waitUntil condition is met.
	Navigate(ctx context.Context, url, waitUntil string, timeout time.Duration) error
	// WaitForReady waits for the load state on the page and every frame.
	WaitForReady(ctx context.Context, state string, timeout time.Duration) error
	// Query resolves locator against the current document first and then
	// each embedded frame enumerated at call time. The current document is
	// the most recently opened page, so popups and new tabs are followed.
	// Zero matches is not an error.
	Query(ctx context.Context, locator string) (Elements, error)
	SetViewport(ctx context.Context, width, height int) error
	Scroll(ctx context.Context, dx, dy float64) error
	Title(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Elements is the ordered set of matches for one locator.
type Elements interface {
	Count() int
	Nth(i int) Element
}

// Element is one resolved match.
type Element interface {
	Fill(ctx context.Context, text string, timeout time.Duration) error
	Click(ctx context.Context, timeout time.Duration) error
	Text(ctx context.Context, timeout time.Duration) (string, error)
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context, timeout time.Duration) (bool, error)
}

// Cancelled wraps a context error so it classifies as domain.KindCancelled.
func Cancelled(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrCancelled, err)
}

// await runs fn on its own goroutine and returns early if ctx ends first.
// Drivers without native context support use it so cancellation never
// waits on a stuck protocol call.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, Cancelled(err)
	}
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		return zero, Cancelled(ctx.Err())
	case r := <-ch:
		return r.v, r.err
	}
}

// awaitSession is await for Launch. A session that finishes starting after
// ctx ended is closed rather than dropped, so no browser process outlives
// a cancelled launch.
func awaitSession(ctx context.Context, fn func() (Session, error)) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, Cancelled(err)
	}
	type result struct {
		s   Session
		err error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := fn()
		ch <- result{s, err}
	}()
	select {
	case r := <-ch:
		return r.s, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.s != nil {
				_ = r.s.Close()
			}
		}()
		return nil, Cancelled(ctx.Err())
	}
}

func awaitErr(ctx context.Context, fn func() error) error {
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
