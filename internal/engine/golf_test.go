package engine

import (
	"testing"

	"github.com/claude/repcoach/internal/feature"
)

// golfSet builds the feature view of a swing instant. wristHipGap and
// shoulderWristDiff position the hands; speed is the wrist-midpoint
// velocity.
func golfSet(wristHipGap, shoulderWristDiff, speed float64) feature.Set {
	return feature.Set{
		feature.WristHipGap:       wristHipGap,
		feature.ShoulderWristDiff: shoulderWristDiff,
		feature.HandSpeed:         speed,
		feature.StanceRatio:       1.1,
	}
}

// TestGolfFullSwing drives ready → backswing → downswing → follow_through →
// ready and verifies the swing counts once with the full set of bonuses.
func TestGolfFullSwing(t *testing.T) {
	m := New(GolfSwing)

	// Address: hands low and still, stance playable.
	if res := step(m, golfSet(0.10, 0.15, 0.0)); res.Changed {
		t.Fatal("transitioned at address")
	}

	// Takeaway to the top: hands above the shoulders.
	res := step(m, golfSet(0.50, -0.10, 0.015))
	if !res.Changed || res.To != golfBackswing {
		t.Fatalf("transition = %+v, want change to %q", res, golfBackswing)
	}

	// Downswing: hand speed spikes past the power threshold.
	res = step(m, golfSet(0.40, 0.05, 0.06))
	if !res.Changed || res.To != golfDownswing {
		t.Fatalf("transition = %+v, want change to %q", res, golfDownswing)
	}

	// Finish: hands back up high, speed bleeding off.
	res = step(m, golfSet(0.45, -0.08, 0.01))
	if !res.Changed || res.To != golfFollowThrough {
		t.Fatalf("transition = %+v, want change to %q", res, golfFollowThrough)
	}

	// Settle back to address, confirmed over two frames.
	if res := step(m, golfSet(0.10, 0.15, 0.002)); res.RepCompleted {
		t.Fatal("swing counted on a single settled frame")
	}
	res = step(m, golfSet(0.10, 0.15, 0.002))
	if !res.RepCompleted {
		t.Fatalf("swing not counted: %+v", res)
	}
	// 70 base + 15 power + 10 full backswing + 5 stance.
	if res.FormScore != 100 {
		t.Errorf("score = %d, want 100", res.FormScore)
	}
	if m.Phase() != golfReady {
		t.Errorf("phase = %q, want %q", m.Phase(), golfReady)
	}
}

// TestGolfAbortedTakeaway verifies settling back to address from the
// backswing returns to ready without counting a swing.
func TestGolfAbortedTakeaway(t *testing.T) {
	m := New(GolfSwing)
	step(m, golfSet(0.10, 0.15, 0.0))
	step(m, golfSet(0.50, -0.10, 0.015)) // backswing
	if m.Phase() != golfBackswing {
		t.Fatalf("setup failed, phase = %q", m.Phase())
	}
	res := step(m, golfSet(0.10, 0.15, 0.002))
	if res.RepCompleted {
		t.Fatal("aborted takeaway counted as a swing")
	}
	if m.Phase() != golfReady {
		t.Errorf("phase = %q, want %q", m.Phase(), golfReady)
	}
}

// TestGolfSlowSwingScoresLower verifies a swing that never reaches the
// power threshold loses the speed bonuses.
func TestGolfSlowSwingScoresLower(t *testing.T) {
	m := New(GolfSwing)
	step(m, golfSet(0.10, 0.15, 0.0))
	step(m, golfSet(0.50, -0.10, 0.015)) // backswing, reached high
	step(m, golfSet(0.40, 0.05, 0.03))   // downswing, modest speed
	step(m, golfSet(0.45, -0.08, 0.01))  // follow-through
	step(m, golfSet(0.10, 0.15, 0.002))
	res := step(m, golfSet(0.10, 0.15, 0.002))
	if !res.RepCompleted {
		t.Fatalf("swing not counted: %+v", res)
	}
	// 70 base + 8 modest speed + 10 backswing + 5 stance.
	if res.FormScore != 93 {
		t.Errorf("score = %d, want 93", res.FormScore)
	}
}
