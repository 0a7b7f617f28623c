package core

import (
	"testing"

	"github.com/lomeet/relay/internal/domain"
)

func TestRoomRegistry_CreateJoinLeave(t *testing.T) {
	r := NewRoomRegistry()
	r.Create("abc-def-123", "a")

	peers, err := r.Join("abc-def-123", "b")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(peers) != 1 || peers[0] != "a" {
		t.Fatalf("peers=%v, want [a]", peers)
	}

	deps := r.Leave("a")
	if len(deps) != 1 {
		t.Fatalf("departures=%v, want one", deps)
	}
	if deps[0].Room != "abc-def-123" {
		t.Fatalf("room=%s, want abc-def-123", deps[0].Room)
	}
	if len(deps[0].RemainingPeers) != 1 || deps[0].RemainingPeers[0] != "b" {
		t.Fatalf("remaining=%v, want [b]", deps[0].RemainingPeers)
	}

	// b is now the sole member; leaving deletes the room and reports nothing.
	deps = r.Leave("b")
	if len(deps) != 0 {
		t.Fatalf("departures=%v, want none", deps)
	}
	if _, err := r.Join("abc-def-123", "c"); err != ErrRoomNotFound {
		t.Fatalf("join deleted room: err=%v, want ErrRoomNotFound", err)
	}
}

func TestRoomRegistry_JoinMissingRoom(t *testing.T) {
	r := NewRoomRegistry()
	if _, err := r.Join("nope", "a"); err != ErrRoomNotFound {
		t.Fatalf("err=%v, want ErrRoomNotFound", err)
	}
	if got := r.Members("nope"); got != nil {
		t.Fatalf("members=%v, want nil (no membership mutation)", got)
	}
}

func TestRoomRegistry_CreateIsLastWriterWins(t *testing.T) {
	r := NewRoomRegistry()
	r.Create("room", "a")
	if _, err := r.Join("room", "b"); err != nil {
		t.Fatalf("join: %v", err)
	}

	r.Create("room", "c")
	members := r.Members("room")
	if len(members) != 1 || members[0] != "c" {
		t.Fatalf("members=%v, want [c]", members)
	}
}

func TestRoomRegistry_MembershipInvariant(t *testing.T) {
	r := NewRoomRegistry()
	conns := []domain.ConnID{"a", "b", "c"}
	r.Create("one", conns[0])
	r.Create("two", conns[1])
	if _, err := r.Join("one", conns[1]); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := r.Join("two", conns[2]); err != nil {
		t.Fatalf("join: %v", err)
	}

	for _, c := range conns {
		r.Leave(c)
		for _, info := range r.Snapshot() {
			if info.MemberCount < 1 {
				t.Fatalf("room %s has %d members, invariant broken", info.ID, info.MemberCount)
			}
		}
	}
	if left := r.Snapshot(); len(left) != 0 {
		t.Fatalf("rooms=%v, want none after all members left", left)
	}
}

func TestRoomRegistry_LeaveRemovesFromEveryRoom(t *testing.T) {
	r := NewRoomRegistry()
	r.Create("one", "a")
	r.Create("two", "b")
	if _, err := r.Join("two", "a"); err != nil {
		t.Fatalf("join: %v", err)
	}

	deps := r.Leave("a")
	// "one" is deleted silently, "two" reports b as remaining.
	if len(deps) != 1 || deps[0].Room != "two" {
		t.Fatalf("departures=%v, want only room two", deps)
	}
	if r.Contains("two", "a") {
		t.Fatalf("a still member of two after leave")
	}
}
