package cue

import (
	"strings"
	"sync"
	"time"
)

// Gate policy constants. All three checks run against the session's already
// accepted cue log.
const (
	// MinSpacing is the global floor between any two accepted cues.
	MinSpacing = 3000 * time.Millisecond
	// ExactDupWindow rejects identical text repeated within this window.
	ExactDupWindow = 20000 * time.Millisecond
	// NearDupWindow rejects similar text repeated within this window.
	NearDupWindow = 15000 * time.Millisecond
	// NearDupThreshold is the word-overlap similarity above which two
	// messages count as near-duplicates.
	NearDupThreshold = 0.6
	// DedupDepth is how many recent accepted cues the duplicate checks scan.
	DedupDepth = 10
)

// Gate throttles and de-duplicates candidate cues. Acceptance is atomic: a
// cue that passes all checks is appended to the log under the same lock, so
// two cues offered in the same tick can never both pass the rate limit
// against a stale timestamp.
type Gate struct {
	mu           sync.Mutex
	accepted     []Cue
	lastAccepted time.Time
}

// NewGate returns an empty gate.
func NewGate() *Gate {
	return &Gate{}
}

// Offer evaluates a candidate cue at its own timestamp. It returns true and
// records the cue when it passes the rate limit, the exact-duplicate check,
// and the near-duplicate check; otherwise the cue is dropped and never
// recorded anywhere.
func (g *Gate) Offer(c Cue) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastAccepted.IsZero() && c.Timestamp.Sub(g.lastAccepted) < MinSpacing {
		return false
	}

	start := len(g.accepted) - DedupDepth
	if start < 0 {
		start = 0
	}
	for _, prev := range g.accepted[start:] {
		age := c.Timestamp.Sub(prev.Timestamp)
		if prev.Message == c.Message && age < ExactDupWindow {
			return false
		}
		if age < NearDupWindow && similarity(prev.Message, c.Message) > NearDupThreshold {
			return false
		}
	}

	g.accepted = append(g.accepted, c)
	g.lastAccepted = c.Timestamp
	return true
}

// Accepted returns a copy of the accepted-cue log in acceptance order.
func (g *Gate) Accepted() []Cue {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Cue, len(g.accepted))
	copy(out, g.accepted)
	return out
}

// similarity is the word-overlap ratio of two messages: the size of the
// intersection of their lowercase word sets over the size of the larger
// set. 1.0 means the same word set, 0.0 means disjoint.
func similarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	larger := len(wa)
	if len(wb) > larger {
		larger = len(wb)
	}
	common := 0
	for w := range wa {
		if wb[w] {
			common++
		}
	}
	return float64(common) / float64(larger)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?:;\"'()")
		if w != "" {
			set[w] = true
		}
	}
	return set
}
