package realtime

import "sync"

// roomSet tracks which logical rooms the session has joined and which
// joins are queued waiting for the session to become live. A pair is
// tracked at most once, so duplicate join requests are never emitted.
type roomSet struct {
	mu      sync.Mutex
	joined  map[Room]struct{}
	pending []Room
}

func newRoomSet() *roomSet {
	return &roomSet{joined: make(map[Room]struct{})}
}

// join records intent to join. It reports whether a join request must
// be emitted now; when live is false the room is queued for flush.
func (s *roomSet) join(r Room, live bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trackedLocked(r) {
		return false
	}
	if live {
		s.joined[r] = struct{}{}
		return true
	}
	s.pending = append(s.pending, r)
	return false
}

// leave forgets the room and reports whether a leave request must be
// emitted: only rooms whose join was actually sent get one.
func (s *roomSet) leave(r Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.joined[r]; ok {
		delete(s.joined, r)
		return true
	}
	for i, p := range s.pending {
		if p == r {
			s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
			return false
		}
	}
	return false
}

// flush promotes every queued room to joined and returns them, in the
// order they were requested, for emission. Called once per
// connection-ready transition.
func (s *roomSet) flush() []Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	for _, r := range out {
		s.joined[r] = struct{}{}
	}
	return out
}

// reset clears membership on teardown. With requeue, previously
// joined rooms become pending again so a managed reconnect restores
// them once the new session is live.
func (s *roomSet) reset(requeue bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if requeue {
		seen := make(map[Room]struct{}, len(s.pending))
		for _, r := range s.pending {
			seen[r] = struct{}{}
		}
		for r := range s.joined {
			if _, ok := seen[r]; !ok {
				s.pending = append(s.pending, r)
			}
		}
	} else {
		s.pending = nil
	}
	s.joined = make(map[Room]struct{})
}

func (s *roomSet) trackedLocked(r Room) bool {
	if _, ok := s.joined[r]; ok {
		return true
	}
	for _, p := range s.pending {
		if p == r {
			return true
		}
	}
	return false
}
