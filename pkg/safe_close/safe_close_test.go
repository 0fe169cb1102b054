package safe_close

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSafeCloseWaitsForAttachments(t *testing.T) {
	sc := NewSafeClose()
	var stopped atomic.Int32

	for i := 0; i < 3; i++ {
		sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			<-closeSignal
			time.Sleep(10 * time.Millisecond)
			stopped.Add(1)
		})
	}

	first := errors.New("listener failed")
	sc.SendCloseSignal(first)
	sc.SendCloseSignal(errors.New("second"))

	if err := sc.WaitClosed(); !errors.Is(err, first) {
		t.Fatalf("WaitClosed() = %v, want first error", err)
	}
	if got := stopped.Load(); got != 3 {
		t.Errorf("stopped = %d, want 3", got)
	}
}

func TestSafeCloseDoneTwice(t *testing.T) {
	sc := NewSafeClose()
	sc.Attach(func(done func(), _ <-chan struct{}) {
		done()
		done()
	})
	sc.SendCloseSignal(nil)
	if err := sc.WaitClosed(); err != nil {
		t.Fatalf("WaitClosed() = %v", err)
	}
}
