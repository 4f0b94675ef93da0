package browser

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/domain"
)

// closeCounter is a Session that only counts Close calls.
type closeCounter struct {
	Session
	closes atomic.Int32
}

func (c *closeCounter) Close() error {
	c.closes.Add(1)
	return nil
}

var _ = Describe("await", func() {
	It("should return the result when fn finishes first", func() {
		v, err := await(context.Background(), func() (int, error) { return 7, nil })
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(7))
	})

	It("should return early with a cancellation when ctx ends first", func() {
		ctx, cancel := context.WithCancel(context.Background())
		release := make(chan struct{})
		defer close(release)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		err := awaitErr(ctx, func() error {
			<-release
			return nil
		})
		Expect(errors.Is(err, domain.ErrCancelled)).To(BeTrue())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("should not call fn when ctx is already done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		_, err := await(ctx, func() (int, error) {
			called = true
			return 0, nil
		})
		Expect(errors.Is(err, domain.ErrCancelled)).To(BeTrue())
		Expect(called).To(BeFalse())
	})
})

var _ = Describe("awaitSession", func() {
	It("should close a session that starts after the launch was cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{})
		release := make(chan struct{})
		sess := &closeCounter{}

		go func() {
			<-started
			cancel()
		}()
		got, err := awaitSession(ctx, func() (Session, error) {
			close(started)
			<-release
			return sess, nil
		})
		Expect(got).To(BeNil())
		Expect(errors.Is(err, domain.ErrCancelled)).To(BeTrue())

		close(release)
		Eventually(sess.closes.Load).Should(Equal(int32(1)))
	})

	It("should hand over a session that starts in time", func() {
		sess := &closeCounter{}
		got, err := awaitSession(context.Background(), func() (Session, error) { return sess, nil })
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(BeIdenticalTo(sess))
		Consistently(sess.closes.Load, 50*time.Millisecond).Should(BeZero())
	})

	It("should pass launch errors through", func() {
		_, err := awaitSession(context.Background(), func() (Session, error) {
			return nil, domain.ErrSessionStart
		})
		Expect(errors.Is(err, domain.ErrSessionStart)).To(BeTrue())
	})
})
