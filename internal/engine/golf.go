package engine

import (
	"time"

	"github.com/claude/repcoach/internal/feature"
)

// Golf swing phases.
const (
	golfReady         Phase = "ready"
	golfBackswing     Phase = "backswing"
	golfDownswing     Phase = "downswing"
	golfFollowThrough Phase = "follow_through"
)

// Golf swing thresholds. Hand speed is the wrist-midpoint displacement per
// frame in normalized image units from the extractor's velocity window.
const (
	golfIdleSpeed      = 0.008 // below this the hands are static
	golfSwingSpeed     = 0.025 // above this the club is being swung
	golfPowerSpeed     = 0.05  // bonus-scoring peak speed
	golfHandsAtAddress = 0.25  // wrist-hip gap below this: hands at address
	golfStanceMin      = 0.7   // ankle/shoulder span ratio for a playable stance
	golfStanceMax      = 1.6
	golfConfirmFrames  = 2
)

// golfMachine tracks ready → backswing → downswing → follow_through and
// resets to ready, which is the completion edge. Scoring rewards a real
// speed peak through the ball and a held follow-through; the stance check
// at address feeds the score rather than blocking the swing.
type golfMachine struct {
	phase       Phase
	peakSpeed   float64
	stanceOK    bool
	reachedHigh bool
	toReady     debounce
}

func newGolfMachine() *golfMachine {
	return &golfMachine{
		phase:   golfReady,
		toReady: debounce{need: golfConfirmFrames},
	}
}

func (m *golfMachine) Activity() Activity       { return GolfSwing }
func (m *golfMachine) Phase() Phase             { return m.phase }
func (m *golfMachine) RequiredLandmarks() []int { return golfLandmarks }

func (m *golfMachine) Reset() {
	m.phase = golfReady
	m.peakSpeed = 0
	m.stanceOK = false
	m.reachedHigh = false
	m.toReady.reset()
}

func (m *golfMachine) Transition(fs feature.Set, _ time.Time) Result {
	if !fs.Has(feature.WristHipGap) || !fs.Has(feature.ShoulderWristDiff) {
		return noChange(m.phase)
	}
	speed := fs[feature.HandSpeed] // zero until the velocity window fills
	handsLow := fs[feature.WristHipGap] < golfHandsAtAddress
	// ShoulderWristDiff is wristY - shoulderY; negative means the hands are
	// above the shoulders, which only happens at the top of the swing.
	handsHigh := fs[feature.ShoulderWristDiff] < 0

	switch m.phase {
	case golfReady:
		if fs.Has(feature.StanceRatio) {
			r := fs[feature.StanceRatio]
			m.stanceOK = r >= golfStanceMin && r <= golfStanceMax
		}
		if handsHigh || (speed > golfIdleSpeed && !handsLow) {
			m.phase = golfBackswing
			m.peakSpeed = speed
			m.reachedHigh = handsHigh
			return changed(golfReady, golfBackswing)
		}

	case golfBackswing:
		if handsHigh {
			m.reachedHigh = true
		}
		if speed > golfSwingSpeed {
			m.phase = golfDownswing
			m.peakSpeed = speed
			return changed(golfBackswing, golfDownswing)
		}
		// Aborted takeaway: hands settle back to address with no swing.
		if handsLow && speed < golfIdleSpeed {
			m.phase = golfReady
			return changed(golfBackswing, golfReady)
		}

	case golfDownswing:
		if speed > m.peakSpeed {
			m.peakSpeed = speed
		}
		if handsHigh && speed < golfSwingSpeed {
			m.phase = golfFollowThrough
			return changed(golfDownswing, golfFollowThrough)
		}

	case golfFollowThrough:
		if m.toReady.check(handsLow && speed < golfIdleSpeed) {
			m.toReady.reset()
			score := m.score()
			m.phase = golfReady
			m.peakSpeed = 0
			m.reachedHigh = false
			return Result{From: golfFollowThrough, To: golfReady, Changed: true, RepCompleted: true, FormScore: score}
		}
	}

	return noChange(m.phase)
}

// score grades swing speed, a full backswing, and the setup stance.
func (m *golfMachine) score() int {
	score := 70
	if m.peakSpeed >= golfPowerSpeed {
		score += 15
	} else if m.peakSpeed >= golfSwingSpeed {
		score += 8
	}
	if m.reachedHigh {
		score += 10
	}
	if m.stanceOK {
		score += 5
	}
	return clampScore(score)
}
