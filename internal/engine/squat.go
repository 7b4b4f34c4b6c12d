package engine

import (
	"time"

	"github.com/claude/repcoach/internal/feature"
)

// Squat phases.
const (
	squatStanding   Phase = "standing"
	squatDescending Phase = "descending"
	squatBottom     Phase = "bottom"
	squatAscending  Phase = "ascending"
)

// Squat thresholds, all on the smoothed hip-knee vertical difference
// (positive: hips above knees; negative: hips below knees). The knee-angle
// thresholds are a secondary entry condition for cameras where the hip-knee
// signal is weak (side-on framing at distance).
const (
	squatDescendStart = 0.02  // diff below this: descent has begun
	squatBottomDepth  = -0.08 // diff below this: full depth reached
	squatDeepDepth    = -0.15 // bonus-scoring depth
	squatAscendRise   = 0.03  // rise above min depth that marks the ascent
	squatStandReturn  = 0.05  // diff above this: back to standing
	squatDescendAngle = 150.0 // knee angle below this also starts the descent
	squatBottomAngle  = 120.0 // knee angle below this also counts as bottom
)

// squatMachine tracks one full standing → descending → bottom → ascending →
// standing cycle. The rep completes on the ascending → standing edge (or
// bottom → standing when the ascent was too fast to observe); the form score
// is derived from the deepest point of the path, so a shortcut that skipped
// the bottom scores low instead of being discarded.
type squatMachine struct {
	phase     Phase
	minDepth  float64
	hitBottom bool
}

func newSquatMachine() *squatMachine {
	return &squatMachine{phase: squatStanding}
}

func (m *squatMachine) Activity() Activity       { return Squat }
func (m *squatMachine) Phase() Phase             { return m.phase }
func (m *squatMachine) RequiredLandmarks() []int { return squatLandmarks }

func (m *squatMachine) Reset() {
	m.phase = squatStanding
	m.minDepth = 0
	m.hitBottom = false
}

func (m *squatMachine) Transition(fs feature.Set, _ time.Time) Result {
	if !fs.Has(feature.HipKneeDiff) {
		return noChange(m.phase)
	}
	diff := fs[feature.HipKneeDiff]
	kneeAngle, haveAngle := fs[feature.KneeAngle], fs.Has(feature.KneeAngle)

	switch m.phase {
	case squatStanding:
		if diff < squatDescendStart || (haveAngle && kneeAngle < squatDescendAngle) {
			m.phase = squatDescending
			m.minDepth = diff
			m.hitBottom = false
			return changed(squatStanding, squatDescending)
		}

	case squatDescending:
		if diff < m.minDepth {
			m.minDepth = diff
		}
		if diff < squatBottomDepth || (haveAngle && kneeAngle < squatBottomAngle) {
			m.phase = squatBottom
			m.hitBottom = true
			return changed(squatDescending, squatBottom)
		}
		if diff > squatDescendStart {
			// Turned around without reaching depth.
			m.phase = squatAscending
			return changed(squatDescending, squatAscending)
		}

	case squatBottom:
		if diff < m.minDepth {
			m.minDepth = diff
		}
		if diff > m.minDepth+squatAscendRise {
			m.phase = squatAscending
			return changed(squatBottom, squatAscending)
		}

	case squatAscending:
		if diff > squatStandReturn {
			return m.complete(squatAscending)
		}
	}

	return noChange(m.phase)
}

// complete finishes the rep on return to standing and resets rep-scoped
// tracking for the next cycle.
func (m *squatMachine) complete(from Phase) Result {
	score := m.score()
	m.phase = squatStanding
	m.minDepth = 0
	m.hitBottom = false
	return Result{From: from, To: squatStanding, Changed: true, RepCompleted: true, FormScore: score}
}

// score grades the rep by the deepest hip position reached. Full depth
// starts at 90 and gains up to 10 for depth beyond the threshold; a shallow
// rep scores well under 60 so the cue tiers tell the user to slow down.
func (m *squatMachine) score() int {
	if m.hitBottom || m.minDepth <= squatBottomDepth {
		extra := (squatBottomDepth - m.minDepth) / (squatBottomDepth - squatDeepDepth) * 10
		if extra < 0 {
			extra = 0
		}
		return clampScore(90 + int(extra))
	}
	// Shallow rep: scale 40..55 by how close to depth it got.
	frac := -m.minDepth / -squatBottomDepth
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return clampScore(40 + int(frac*15))
}
