package realtime

import "testing"

func TestRoomSetDedup(t *testing.T) {
	s := newRoomSet()
	r := Room{Type: RoomVenue, ID: "v1"}

	if !s.join(r, true) {
		t.Fatalf("first join should emit")
	}
	if s.join(r, true) {
		t.Fatalf("second join must not emit")
	}
	if s.join(r, false) {
		t.Fatalf("queueing a joined room must not happen")
	}
}

func TestRoomSetQueueAndFlush(t *testing.T) {
	s := newRoomSet()
	a := Room{Type: RoomOrganization, ID: "o1"}
	b := Room{Type: RoomVenue, ID: "v1"}

	if s.join(a, false) || s.join(b, false) {
		t.Fatalf("joins before live must queue, not emit")
	}
	if s.join(a, false) {
		t.Fatalf("queued room queued twice")
	}

	flushed := s.flush()
	if len(flushed) != 2 || flushed[0] != a || flushed[1] != b {
		t.Fatalf("unexpected flush: %v", flushed)
	}
	if len(s.flush()) != 0 {
		t.Fatalf("second flush must be empty")
	}
	if s.join(a, true) {
		t.Fatalf("flushed room is joined, must not emit again")
	}
}

func TestRoomSetLeave(t *testing.T) {
	s := newRoomSet()
	joined := Room{Type: RoomTable, ID: "t1"}
	queued := Room{Type: RoomOrder, ID: "ord1"}
	s.join(joined, true)
	s.join(queued, false)

	if !s.leave(joined) {
		t.Fatalf("leaving a joined room must emit")
	}
	if s.leave(joined) {
		t.Fatalf("leaving twice must not emit")
	}
	// A queued join was never sent, so no leave is sent either.
	if s.leave(queued) {
		t.Fatalf("leaving a queued room must not emit")
	}
	if len(s.flush()) != 0 {
		t.Fatalf("left queued room still pending")
	}
}

func TestRoomSetResetRequeue(t *testing.T) {
	s := newRoomSet()
	a := Room{Type: RoomVenue, ID: "v1"}
	b := Room{Type: RoomTable, ID: "t1"}
	s.join(a, true)
	s.join(b, false)

	s.reset(true)

	flushed := s.flush()
	if len(flushed) != 2 {
		t.Fatalf("expected both rooms requeued, got %v", flushed)
	}

	s.reset(false)
	if len(s.flush()) != 0 {
		t.Fatalf("reset without requeue must clear pending")
	}
}
