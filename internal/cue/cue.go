// Package cue turns state-machine context into coaching messages and decides
// which of them actually reach the user.
//
// Generation is deterministic by default: a local message table keyed by
// activity, phase, and form-score bucket. An optional external feedback
// source is preferred when configured and reachable, but the local table is
// a pure lookup that can never block or fail. Delivery runs through the Gate
// in gate.go.
package cue

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/repcoach/internal/engine"
	"github.com/claude/repcoach/internal/landmark"
)

// Type categorizes a cue for the UI and the speech channel.
type Type string

const (
	Good        Type = "good"
	Warning     Type = "warning"
	Tip         Type = "tip"
	RepComplete Type = "rep_complete"
)

// Cue is one coaching message. RepNumber and FormScore are set only on
// rep-scoped cues. Cues are immutable once accepted by the gate.
type Cue struct {
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RepNumber int       `json:"repNumber,omitempty"`
	FormScore int       `json:"formScore,omitempty"`
}

// Source is an external feedback capability consulted for rep-completion
// cues. Implementations own their timeout; a returned error means
// "unavailable this time" and the caller falls back to the local table.
type Source interface {
	RepFeedback(ctx context.Context, activity string, frame landmark.Frame, repNumber, formScore int) (string, error)
}

// Form-score tiers. These exact thresholds are part of the contract.
const (
	tierExcellent = 90
	tierGood      = 75
	tierFocus     = 60
)

// scoreBucket names the tier a score falls into.
func scoreBucket(score int) string {
	switch {
	case score >= tierExcellent:
		return "excellent"
	case score >= tierGood:
		return "good"
	case score >= tierFocus:
		return "focus"
	default:
		return "slow"
	}
}

// typeForScore maps a tier to a cue type: the top two tiers are praise, the
// lower two are corrections.
func typeForScore(score int) Type {
	if score >= tierGood {
		return Good
	}
	return Warning
}

// repMessages is the local fallback table for completed reps, keyed by
// activity then score bucket. Unlisted activities use genericRepMessages.
var repMessages = map[engine.Activity]map[string]string{
	engine.Squat: {
		"excellent": "Excellent depth! Hips below the knees and a strong drive back up.",
		"good":      "Good squat. Sit back a touch more to hit full depth every rep.",
		"focus":     "Focus on your form: slow the descent and keep your chest up.",
		"slow":      "Slow down. That rep was shallow — squat deeper before the next one.",
	},
	engine.JumpingJacks: {
		"excellent": "Excellent jack! Full extension overhead and feet wide.",
		"good":      "Good rhythm. Reach all the way up on the next one.",
		"focus":     "Focus on your form: sync your arms and legs together.",
		"slow":      "Slow down and finish each jack — arms overhead, feet wide.",
	},
	engine.PushUp: {
		"excellent": "Excellent push-up! Full range and a clean lockout.",
		"good":      "Good rep. Lower your chest a little further next time.",
		"focus":     "Focus on your form: keep your body in one straight line.",
		"slow":      "Slow down. Cut the bounce and use the full range of motion.",
	},
	engine.GolfSwing: {
		"excellent": "Excellent swing! Full turn and a balanced finish.",
		"good":      "Good tempo. Hold your finish a beat longer.",
		"focus":     "Focus on your form: complete the backswing before firing down.",
		"slow":      "Slow down your transition — let the backswing finish first.",
	},
}

var genericRepMessages = map[string]string{
	"excellent": "Excellent rep! Keep exactly that form.",
	"good":      "Good rep. Stay controlled through the whole movement.",
	"focus":     "Focus on your form through the full range of motion.",
	"slow":      "Slow down and reset your form before the next rep.",
}

// phaseTips are occasional mid-rep pointers keyed by activity then phase.
// Only phases worth talking about are listed.
var phaseTips = map[engine.Activity]map[engine.Phase]string{
	engine.Squat: {
		"descending": "Control the way down — don't drop into the hole.",
		"bottom":     "Nice depth. Drive up through your heels.",
	},
	engine.PushUp: {
		"descending": "Elbows about forty-five degrees from your body.",
		"bottom":     "Chest low — now press away from the floor.",
	},
	engine.GolfSwing: {
		"backswing":      "Smooth takeaway. Turn your shoulders fully.",
		"follow_through": "Hold that finish, weight on the front foot.",
	},
	engine.JumpingJacks: {
		"up": "Reach tall — hands all the way overhead.",
	},
}

// setupMessages greet the user on the first processed frame of a session.
var setupMessages = map[engine.Activity]string{
	engine.Squat:        "Stand side-on to the camera, feet shoulder width apart. Let's squat.",
	engine.JumpingJacks: "Face the camera with your whole body in frame. Ready for jumping jacks.",
	engine.PushUp:       "Set up side-on in a straight plank, hands under shoulders.",
	engine.GolfSwing:    "Take your address with the full swing arc in frame.",
	engine.Generic:      "I can see you. Move naturally and I'll watch your posture.",
}

// Generator produces candidate cues for one session. It is not safe for
// concurrent use except through the owning session's pipeline.
type Generator struct {
	activity engine.Activity
	remote   Source // nil when no external feedback capability is configured
}

// NewGenerator builds a generator for the activity. remote may be nil.
func NewGenerator(activity engine.Activity, remote Source) *Generator {
	return &Generator{activity: activity, remote: remote}
}

// Setup returns the one-time session setup cue.
func (g *Generator) Setup(now time.Time) Cue {
	msg, ok := setupMessages[g.activity]
	if !ok {
		msg = setupMessages[engine.Generic]
	}
	return Cue{Message: msg, Type: Tip, Timestamp: now}
}

// PhaseTip returns a candidate cue for entering a phase, or false when the
// table has nothing to say about it.
func (g *Generator) PhaseTip(phase engine.Phase, now time.Time) (Cue, bool) {
	tips, ok := phaseTips[g.activity]
	if !ok {
		return Cue{}, false
	}
	msg, ok := tips[phase]
	if !ok {
		return Cue{}, false
	}
	return Cue{Message: msg, Type: Tip, Timestamp: now}, true
}

// LocalRepCue is the pure-lookup rep-completion cue. It never blocks and
// never fails.
func (g *Generator) LocalRepCue(repNumber, formScore int, now time.Time) Cue {
	bucket := scoreBucket(formScore)
	msgs, ok := repMessages[g.activity]
	if !ok {
		msgs = genericRepMessages
	}
	msg, ok := msgs[bucket]
	if !ok {
		msg = genericRepMessages[bucket]
	}
	return Cue{
		Message:   fmt.Sprintf("Rep %d: %s", repNumber, msg),
		Type:      RepComplete,
		Timestamp: now,
		RepNumber: repNumber,
		FormScore: formScore,
	}
}

// RepCue produces the rep-completion cue, preferring the external source
// when one is configured and answers within its own timeout. Any source
// failure falls back to the local table; the error is reported so the
// caller can log it, but the returned cue is always usable.
func (g *Generator) RepCue(ctx context.Context, frame landmark.Frame, repNumber, formScore int, now time.Time) (Cue, error) {
	if g.remote == nil {
		return g.LocalRepCue(repNumber, formScore, now), nil
	}
	text, err := g.remote.RepFeedback(ctx, string(g.activity), frame, repNumber, formScore)
	if err != nil || text == "" {
		return g.LocalRepCue(repNumber, formScore, now), err
	}
	return Cue{
		Message:   text,
		Type:      RepComplete,
		Timestamp: now,
		RepNumber: repNumber,
		FormScore: formScore,
	}, nil
}

// Interval is the minimum spacing between phase-tip cues for the activity.
// Rep-completion cues are governed only by the gate's global rate limit.
func Interval(a engine.Activity) time.Duration {
	switch a {
	case engine.GolfSwing:
		return 5 * time.Second
	case engine.Squat, engine.PushUp, engine.JumpingJacks:
		return 2500 * time.Millisecond
	default:
		return 3 * time.Second
	}
}
