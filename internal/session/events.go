package session

import (
	"time"

	"github.com/claude/repcoach/internal/cue"
	"github.com/claude/repcoach/internal/engine"
)

// EventKind tags the typed events the pipeline emits for UI and reporting
// layers. The UI never touches session state directly — it consumes these.
type EventKind string

const (
	EventPoseDetected     EventKind = "pose_detected"
	EventPhaseChanged     EventKind = "phase_changed"
	EventRepCompleted     EventKind = "rep_completed"
	EventCueAccepted      EventKind = "cue_accepted"
	EventSessionFinalized EventKind = "session_finalized"
)

// PhaseChange is the payload of a phase_changed event.
type PhaseChange struct {
	Activity  engine.Activity `json:"activity"`
	From      engine.Phase    `json:"from"`
	To        engine.Phase    `json:"to"`
	Timestamp time.Time       `json:"timestamp"`
}

// Event is one pipeline event. Exactly one payload field is set, matching
// Kind.
type Event struct {
	Kind         EventKind        `json:"kind"`
	Timestamp    time.Time        `json:"timestamp"`
	PoseDetected *bool            `json:"poseDetected,omitempty"`
	Phase        *PhaseChange     `json:"phase,omitempty"`
	Rep          *RepRecord       `json:"rep,omitempty"`
	Cue          *cue.Cue         `json:"cue,omitempty"`
	Session      *CoachingSession `json:"session,omitempty"`
}

// Subscribe registers an event channel with the given buffer. Delivery is
// best-effort: a subscriber that falls behind loses events rather than
// stalling the pipeline. The returned cancel function unregisters and
// closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// emitLocked fans an event out to every subscriber, dropping for any whose
// buffer is full. Caller holds s.mu.
func (s *Session) emitLocked(ev Event) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Slow consumer: drop, never queue, never block the pipeline.
		}
	}
}
