package engine

import (
	"time"

	"github.com/claude/repcoach/internal/feature"
)

// Push-up phases.
const (
	pushUpUp         Phase = "up"
	pushUpDescending Phase = "descending"
	pushUpBottom     Phase = "bottom"
	pushUpAscending  Phase = "ascending"
)

// Push-up thresholds. Depth is tracked on the mean elbow angle; the lockout
// also checks the wrist/shoulder vertical ordering so a collapsed plank
// cannot register as the up position.
const (
	pushUpDescendAngle  = 150.0 // elbow angle below this: descent begun
	pushUpBottomAngle   = 95.0  // elbow angle below this: full depth
	pushUpDeepAngle     = 80.0  // bonus-scoring depth
	pushUpAscendRise    = 15.0  // degrees above min angle that mark the ascent
	pushUpLockoutAngle  = 160.0 // elbow angle for the finished up position
	pushUpShoulderAbove = 0.05  // shoulders this far above wrists in the up position
	pushUpConfirmFrames = 2
)

// pushUpMachine tracks up → descending → bottom → ascending → up. The rep
// completes on the ascending → up edge, scored by the deepest elbow angle
// reached so a half rep still completes but scores low.
type pushUpMachine struct {
	phase     Phase
	minAngle  float64
	hitBottom bool
	toUp      debounce
}

func newPushUpMachine() *pushUpMachine {
	return &pushUpMachine{
		phase: pushUpUp,
		toUp:  debounce{need: pushUpConfirmFrames},
	}
}

func (m *pushUpMachine) Activity() Activity       { return PushUp }
func (m *pushUpMachine) Phase() Phase             { return m.phase }
func (m *pushUpMachine) RequiredLandmarks() []int { return pushUpLandmarks }

func (m *pushUpMachine) Reset() {
	m.phase = pushUpUp
	m.minAngle = 180
	m.hitBottom = false
	m.toUp.reset()
}

func (m *pushUpMachine) Transition(fs feature.Set, _ time.Time) Result {
	if !fs.Has(feature.ElbowAngle) || !fs.Has(feature.ShoulderWristDiff) {
		return noChange(m.phase)
	}
	angle := fs[feature.ElbowAngle]
	lockedOut := angle > pushUpLockoutAngle && fs[feature.ShoulderWristDiff] > pushUpShoulderAbove

	switch m.phase {
	case pushUpUp:
		if angle < pushUpDescendAngle {
			m.phase = pushUpDescending
			m.minAngle = angle
			m.hitBottom = false
			return changed(pushUpUp, pushUpDescending)
		}

	case pushUpDescending:
		if angle < m.minAngle {
			m.minAngle = angle
		}
		if angle < pushUpBottomAngle {
			m.phase = pushUpBottom
			m.hitBottom = true
			return changed(pushUpDescending, pushUpBottom)
		}
		if angle > m.minAngle+pushUpAscendRise {
			m.phase = pushUpAscending
			return changed(pushUpDescending, pushUpAscending)
		}

	case pushUpBottom:
		if angle < m.minAngle {
			m.minAngle = angle
		}
		if angle > m.minAngle+pushUpAscendRise {
			m.phase = pushUpAscending
			return changed(pushUpBottom, pushUpAscending)
		}

	case pushUpAscending:
		if m.toUp.check(lockedOut) {
			m.toUp.reset()
			score := m.score()
			m.phase = pushUpUp
			m.minAngle = 180
			m.hitBottom = false
			return Result{From: pushUpAscending, To: pushUpUp, Changed: true, RepCompleted: true, FormScore: score}
		}
	}

	return noChange(m.phase)
}

// score grades depth by the minimum elbow angle of the rep.
func (m *pushUpMachine) score() int {
	if m.hitBottom {
		extra := (pushUpBottomAngle - m.minAngle) / (pushUpBottomAngle - pushUpDeepAngle) * 10
		if extra < 0 {
			extra = 0
		}
		return clampScore(90 + int(extra))
	}
	// Partial range of motion: scale 40..55 by how far down they got.
	frac := (pushUpDescendAngle - m.minAngle) / (pushUpDescendAngle - pushUpBottomAngle)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return clampScore(40 + int(frac*15))
}
