package engine

import (
	"time"

	"github.com/claude/repcoach/internal/feature"
)

// Jumping jack phases.
const (
	jjDown Phase = "down"
	jjUp   Phase = "up"
)

// Jumping jack thresholds on the ankle-span / shoulder-span ratio.
const (
	jjLegsWideRatio     = 1.5 // legs count as wide above this
	jjLegsTogetherRatio = 1.2 // legs count as together below this
	jjFullSpreadRatio   = 1.7 // bonus-scoring spread
	jjConfirmFrames     = 2   // frames a target condition must hold
)

// jumpingJackMachine is a two-phase cycle: down (arms low, legs together)
// and up (arms overhead, legs wide). The rep completes on the up → down
// edge. Transitions require the target condition on jjConfirmFrames
// consecutive frames so one flickering detection cannot flip the phase.
type jumpingJackMachine struct {
	phase     Phase
	toUp      debounce
	toDown    debounce
	maxSpread float64
	armsHeld  bool
}

func newJumpingJackMachine() *jumpingJackMachine {
	return &jumpingJackMachine{
		phase:  jjDown,
		toUp:   debounce{need: jjConfirmFrames},
		toDown: debounce{need: jjConfirmFrames},
	}
}

func (m *jumpingJackMachine) Activity() Activity       { return JumpingJacks }
func (m *jumpingJackMachine) Phase() Phase             { return m.phase }
func (m *jumpingJackMachine) RequiredLandmarks() []int { return jumpingJackLandmarks }

func (m *jumpingJackMachine) Reset() {
	m.phase = jjDown
	m.toUp.reset()
	m.toDown.reset()
	m.maxSpread = 0
	m.armsHeld = false
}

func (m *jumpingJackMachine) Transition(fs feature.Set, _ time.Time) Result {
	if !fs.Has(feature.StanceRatio) || !fs.Has(feature.ArmsUp) {
		return noChange(m.phase)
	}
	ratio := fs[feature.StanceRatio]
	armsUp := fs.Bool(feature.ArmsUp)

	switch m.phase {
	case jjDown:
		if m.toUp.check(armsUp && ratio > jjLegsWideRatio) {
			m.phase = jjUp
			m.toUp.reset()
			m.maxSpread = ratio
			m.armsHeld = true
			return changed(jjDown, jjUp)
		}

	case jjUp:
		if ratio > m.maxSpread {
			m.maxSpread = ratio
		}
		// Dropping the arms while the legs are still wide is sloppy timing;
		// remember it for the score.
		if !armsUp && ratio > jjLegsWideRatio {
			m.armsHeld = false
		}
		if m.toDown.check(!armsUp && ratio < jjLegsTogetherRatio) {
			m.phase = jjDown
			m.toDown.reset()
			score := m.score()
			m.maxSpread = 0
			m.armsHeld = true
			return Result{From: jjUp, To: jjDown, Changed: true, RepCompleted: true, FormScore: score}
		}
	}

	return noChange(m.phase)
}

// score grades range of motion and arm/leg coordination.
func (m *jumpingJackMachine) score() int {
	score := 85
	if m.maxSpread >= jjFullSpreadRatio {
		score += 10
	} else if m.maxSpread >= jjLegsWideRatio {
		score += 5
	}
	if !m.armsHeld {
		score -= 20
	}
	return clampScore(score)
}
