//go:build browser

package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// Run with: go test -tags browser ./internal/browser/...
// Requires `scenario-runner install` (or playwright's own installer) first.

var pages = map[string]string{
	"/": `<html><head><title>Home</title></head><body>
<h1>Home</h1>
<button id="locked" disabled>Locked</button>
<a id="open-report" href="/report" target="_blank">Report</a>
<iframe src="/frame"></iframe>
</body></html>`,
	"/frame":  `<html><body><button id="inner">Inner</button></body></html>`,
	"/report": `<html><head><title>Sales Report</title></head><body><p id="summary">Total: 42</p></body></html>`,
}

var (
	server   *httptest.Server
	launcher *PlaywrightLauncher
)

var _ = BeforeSuite(func() {
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	log := logrus.New()
	log.SetOutput(GinkgoWriter)
	launcher = NewPlaywrightLauncher("chromium", log)
})

var _ = AfterSuite(func() {
	if launcher != nil {
		Expect(launcher.Shutdown()).To(Succeed())
	}
	if server != nil {
		server.Close()
	}
})

var _ = Describe("PlaywrightLauncher", func() {
	var (
		ctx  context.Context
		sess Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		sess, err = launcher.Launch(ctx, LaunchOptions{
			Headless:       true,
			Args:           []string{"--disable-dev-shm-usage"},
			ViewportWidth:  1280,
			ViewportHeight: 720,
			DefaultTimeout: 5 * time.Second,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(sess.Navigate(ctx, server.URL+"/", "commit", 10*time.Second)).To(Succeed())
		Expect(sess.WaitForReady(ctx, "load", 5*time.Second)).To(Succeed())
	})

	AfterEach(func() {
		Expect(sess.Close()).To(Succeed())
	})

	It("should find elements inside frames", func() {
		els, err := sess.Query(ctx, "#inner")
		Expect(err).ToNot(HaveOccurred())
		Expect(els.Count()).To(Equal(1))
		Expect(els.Nth(0).Click(ctx, time.Second)).To(Succeed())
	})

	It("should report zero matches without an error", func() {
		els, err := sess.Query(ctx, "#does-not-exist")
		Expect(err).ToNot(HaveOccurred())
		Expect(els.Count()).To(BeZero())
	})

	It("should classify an action that never becomes possible as a timeout", func() {
		els, err := sess.Query(ctx, "#locked")
		Expect(err).ToNot(HaveOccurred())
		err = els.Nth(0).Click(ctx, 300*time.Millisecond)
		Expect(errors.Is(err, domain.ErrActionTimeout)).To(BeTrue(), "%v", err)

		enabled, err := els.Nth(0).Enabled(ctx, time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(enabled).To(BeFalse())
	})

	It("should follow a tab opened by a click", func() {
		els, err := sess.Query(ctx, "#open-report")
		Expect(err).ToNot(HaveOccurred())
		Expect(els.Nth(0).Click(ctx, time.Second)).To(Succeed())

		Eventually(func() int {
			els, err := sess.Query(ctx, "#summary")
			if err != nil {
				return -1
			}
			return els.Count()
		}, 5*time.Second, 100*time.Millisecond).Should(Equal(1))
		Eventually(func() (string, error) { return sess.Title(ctx) }, 5*time.Second).Should(Equal("Sales Report"))
	})

	It("should stop waiting when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := sess.Query(cctx, "h1")
		Expect(errors.Is(err, domain.ErrCancelled)).To(BeTrue())
	})

	It("should close only once", func() {
		Expect(sess.Close()).To(Succeed())
		Expect(sess.Close()).To(Succeed())
	})
})
