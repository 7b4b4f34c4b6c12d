package engine

import (
	"testing"

	"github.com/claude/repcoach/internal/feature"
)

func jjSet(armsUp bool, ratio float64) feature.Set {
	arms := 0.0
	if armsUp {
		arms = 1.0
	}
	return feature.Set{feature.ArmsUp: arms, feature.StanceRatio: ratio}
}

// TestJumpingJackFullRep drives one down → up → down cycle and verifies the
// rep completes on the return to down with a full-spread score.
func TestJumpingJackFullRep(t *testing.T) {
	m := New(JumpingJacks)

	// Up condition must hold for two consecutive frames.
	if res := step(m, jjSet(true, 1.8)); res.Changed {
		t.Fatal("transitioned on a single up frame")
	}
	res := step(m, jjSet(true, 1.8))
	if !res.Changed || res.To != jjUp {
		t.Fatalf("transition = %+v, want change to %q", res, jjUp)
	}

	// Same for the return: one frame is not enough.
	if res := step(m, jjSet(false, 1.0)); res.RepCompleted {
		t.Fatal("rep completed on a single down frame")
	}
	res = step(m, jjSet(false, 1.0))
	if !res.RepCompleted {
		t.Fatalf("rep not completed: %+v", res)
	}
	if res.FormScore < 90 {
		t.Errorf("full-spread score = %d, want >= 90", res.FormScore)
	}
	if m.Phase() != jjDown {
		t.Errorf("phase = %q, want %q", m.Phase(), jjDown)
	}
}

// TestJumpingJackFlickerSuppression verifies alternating detections never
// flip the phase.
func TestJumpingJackFlickerSuppression(t *testing.T) {
	m := New(JumpingJacks)
	for i := 0; i < 10; i++ {
		step(m, jjSet(true, 1.8))
		step(m, jjSet(false, 1.0))
	}
	if m.Phase() != jjDown {
		t.Errorf("phase = %q after flicker, want %q", m.Phase(), jjDown)
	}
}

// TestJumpingJackArmsDroppedEarly verifies dropping the arms while the legs
// are still wide costs the coordination penalty.
func TestJumpingJackArmsDroppedEarly(t *testing.T) {
	m := New(JumpingJacks)
	step(m, jjSet(true, 1.8))
	step(m, jjSet(true, 1.8)) // now up
	step(m, jjSet(false, 1.6))
	step(m, jjSet(false, 1.6)) // arms down, legs still wide: sloppy
	step(m, jjSet(false, 1.0))
	res := step(m, jjSet(false, 1.0))
	if !res.RepCompleted {
		t.Fatalf("rep not completed: %+v", res)
	}
	if res.FormScore >= 85 {
		t.Errorf("score = %d, want the arms-dropped penalty to apply", res.FormScore)
	}
}

// TestJumpingJackHalfSpread verifies a rep that never fully spreads scores
// below the full-spread bonus ceiling.
func TestJumpingJackHalfSpread(t *testing.T) {
	m := New(JumpingJacks)
	step(m, jjSet(true, 1.55))
	step(m, jjSet(true, 1.55))
	step(m, jjSet(false, 1.0))
	res := step(m, jjSet(false, 1.0))
	if !res.RepCompleted {
		t.Fatalf("rep not completed: %+v", res)
	}
	if res.FormScore != 90 {
		t.Errorf("score = %d, want 90 (base 85 + partial spread 5)", res.FormScore)
	}
}
