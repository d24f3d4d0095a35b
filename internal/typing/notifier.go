package typing

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultIdleTimeout is how long after the last keystroke a stop signal
// is emitted.
const DefaultIdleTimeout = 2 * time.Second

// Notifier debounces the local user's typing signals. It moves between
// idle and signaling: the first input from idle emits start, every input
// restarts the countdown, and the countdown elapsing emits stop exactly
// once. Sending a message short-circuits the countdown and emits stop
// immediately.
//
// The emit callback runs either on the caller's goroutine (InputChanged,
// MessageSent) or on the timer's goroutine (countdown elapse); it must be
// safe for both.
type Notifier struct {
	clk     clock.Clock
	timeout time.Duration
	emit    func(typing bool)

	mu        sync.Mutex
	timer     *clock.Timer
	signaling bool
	closed    bool
}

// NewNotifier builds a notifier that calls emit with true on typing start
// and false on typing stop. A zero timeout falls back to
// DefaultIdleTimeout. Pass clock.New() outside tests.
func NewNotifier(clk clock.Clock, timeout time.Duration, emit func(typing bool)) *Notifier {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Notifier{clk: clk, timeout: timeout, emit: emit}
}

// InputChanged records a qualifying keystroke. The countdown restarts on
// every call; start is only emitted when entering signaling from idle.
func (n *Notifier) InputChanged() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	wasIdle := !n.signaling
	n.signaling = true
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = n.clk.AfterFunc(n.timeout, n.elapsed)
	n.mu.Unlock()

	if wasIdle {
		n.emit(true)
	}
}

// MessageSent cancels any pending countdown and, if signaling, emits stop
// synchronously so the stop rides out with the send action.
func (n *Notifier) MessageSent() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	wasSignaling := n.signaling
	n.signaling = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.mu.Unlock()

	if wasSignaling {
		n.emit(false)
	}
}

// Close cancels any pending countdown without emitting. Used on room
// change, where a late stop would target a connection being torn down.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.signaling = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) elapsed() {
	n.mu.Lock()
	if n.closed || !n.signaling {
		n.mu.Unlock()
		return
	}
	n.signaling = false
	n.timer = nil
	n.mu.Unlock()

	n.emit(false)
}
