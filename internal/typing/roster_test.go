package typing

import (
	"reflect"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestRosterStartStop(t *testing.T) {
	r := NewRoster(clock.NewMock(), 0)

	r.Set("alice", true)
	r.Set("bob", true)
	r.Set("alice", true) // refresh must not duplicate or reorder

	if got := r.Users(); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Fatalf("unexpected roster: %v", got)
	}

	r.Set("alice", false)
	if got := r.Users(); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("unexpected roster after stop: %v", got)
	}

	r.Set("carol", false) // stop for an unknown sender is a no-op
	if got := r.Users(); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("unexpected roster: %v", got)
	}
}

func TestRosterTTLPrunesStaleEntries(t *testing.T) {
	mock := clock.NewMock()
	r := NewRoster(mock, 5*time.Second)

	r.Set("alice", true)
	mock.Add(3 * time.Second)
	r.Set("bob", true)
	mock.Add(3 * time.Second)

	// alice is 6s old without a refreshing start; bob is 3s old.
	if got := r.Users(); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("expected stale alice pruned, got %v", got)
	}
}

func TestRosterZeroTTLNeverExpires(t *testing.T) {
	mock := clock.NewMock()
	r := NewRoster(mock, 0)

	r.Set("alice", true)
	mock.Add(time.Hour)

	if got := r.Users(); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("TTL disabled, alice should persist: %v", got)
	}
}

func TestRosterClear(t *testing.T) {
	r := NewRoster(clock.NewMock(), 0)
	r.Set("alice", true)
	r.Set("bob", true)

	r.Clear()
	if got := r.Users(); len(got) != 0 {
		t.Fatalf("expected empty roster, got %v", got)
	}

	// Entries added after a clear behave normally.
	r.Set("carol", true)
	if got := r.Users(); !reflect.DeepEqual(got, []string{"carol"}) {
		t.Fatalf("unexpected roster: %v", got)
	}
}
