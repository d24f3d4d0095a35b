package typing

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Roster tracks which remote users are currently typing. A start signal
// inserts the sender, a stop signal removes them; users are listed in the
// order they started typing.
//
// The protocol has no receiver-side expiry: a sender that disconnects
// without emitting stop would stay forever. An optional TTL guards
// against that: entries not refreshed by a start within the TTL are
// pruned on read. TTL 0 disables pruning and reproduces the plain
// protocol semantics.
type Roster struct {
	clk clock.Clock
	ttl time.Duration

	mu     sync.Mutex
	order  []string
	seenAt map[string]time.Time
}

// NewRoster builds a roster. ttl <= 0 disables expiry.
func NewRoster(clk clock.Clock, ttl time.Duration) *Roster {
	return &Roster{clk: clk, ttl: ttl, seenAt: make(map[string]time.Time)}
}

// Set applies one typing signal for sender.
func (r *Roster) Set(sender string, typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if typing {
		if _, ok := r.seenAt[sender]; !ok {
			r.order = append(r.order, sender)
		}
		r.seenAt[sender] = r.clk.Now()
		return
	}
	r.remove(sender)
}

// Users returns senders currently typing, oldest first. Expired entries
// are pruned before the snapshot is taken.
func (r *Roster) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ttl > 0 {
		cutoff := r.clk.Now().Add(-r.ttl)
		for _, sender := range append([]string(nil), r.order...) {
			if at, ok := r.seenAt[sender]; ok && at.Before(cutoff) {
				r.remove(sender)
			}
		}
	}
	return append([]string(nil), r.order...)
}

// Clear drops every entry. Called on reconnect, since stop signals sent
// while the connection was down were never received.
func (r *Roster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.seenAt = make(map[string]time.Time)
}

func (r *Roster) remove(sender string) {
	if _, ok := r.seenAt[sender]; !ok {
		return
	}
	delete(r.seenAt, sender)
	for i, s := range r.order {
		if s == sender {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
