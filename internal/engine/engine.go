// Package engine classifies continuous motion into discrete phases and
// detects full-cycle repetitions, one finite-state machine per activity.
//
// Each machine owns its phase enum, its transition table over the feature
// set, and the activity-specific thresholds those transitions use. Machines
// never share state: switching activity means constructing a fresh machine.
// A frame whose features cannot satisfy any transition leaves the state
// unchanged — missing landmarks are expected, not an error.
package engine

import (
	"strings"
	"time"

	"github.com/claude/repcoach/internal/feature"
	"github.com/claude/repcoach/internal/landmark"
)

// Activity is the closed set of supported activities.
type Activity string

const (
	JumpingJacks Activity = "jumping_jacks"
	Squat        Activity = "squat"
	PushUp       Activity = "pushup"
	GolfSwing    Activity = "golf_swing"
	Generic      Activity = "generic"
)

// Phase is a named discrete stage within one repetition. Each machine
// defines its own phase values.
type Phase string

// Result describes the outcome of feeding one feature set to a machine.
// Changed is true when the phase transitioned this frame; RepCompleted is
// true only on the activity's completion edge, with FormScore in [0,100].
type Result struct {
	From         Phase
	To           Phase
	Changed      bool
	RepCompleted bool
	FormScore    int
}

// Machine is the shared contract every activity state machine implements.
type Machine interface {
	// Activity identifies which machine this is.
	Activity() Activity
	// Phase returns the current phase.
	Phase() Phase
	// RequiredLandmarks lists the landmark indices ingest must validate
	// before a frame reaches this machine.
	RequiredLandmarks() []int
	// Transition consumes one feature set and advances the machine.
	Transition(fs feature.Set, now time.Time) Result
	// Reset returns the machine to its initial phase and clears rep-scoped
	// tracking.
	Reset()
}

// Info describes an activity for catalogs and API responses.
type Info struct {
	Activity     Activity `json:"activity"`
	InitialPhase Phase    `json:"initialPhase"`
	Phases       []Phase  `json:"phases"`
	CountsReps   bool     `json:"countsReps"`
}

// New constructs a fresh machine for the activity, starting at its initial
// phase. Unknown activities get the generic posture machine.
func New(a Activity) Machine {
	switch a {
	case JumpingJacks:
		return newJumpingJackMachine()
	case Squat:
		return newSquatMachine()
	case PushUp:
		return newPushUpMachine()
	case GolfSwing:
		return newGolfMachine()
	default:
		return newGenericMachine()
	}
}

// Detect maps a free-form activity name to a known Activity by keyword,
// mirroring how user-entered names like "squat form check" should reach the
// squat machine. Names with no known keyword get Generic — a recognized
// mode with posture-only feedback and no rep counting.
func Detect(name string) Activity {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "jumping jack") || strings.Contains(n, "jumping_jack"):
		return JumpingJacks
	case strings.Contains(n, "squat"):
		return Squat
	case strings.Contains(n, "pushup") || strings.Contains(n, "push-up") || strings.Contains(n, "push up"):
		return PushUp
	case strings.Contains(n, "golf"):
		return GolfSwing
	default:
		return Generic
	}
}

// Catalog lists every supported activity with its phase enum.
func Catalog() []Info {
	return []Info{
		{Activity: JumpingJacks, InitialPhase: jjDown, Phases: []Phase{jjDown, jjUp}, CountsReps: true},
		{Activity: Squat, InitialPhase: squatStanding, Phases: []Phase{squatStanding, squatDescending, squatBottom, squatAscending}, CountsReps: true},
		{Activity: PushUp, InitialPhase: pushUpUp, Phases: []Phase{pushUpUp, pushUpDescending, pushUpBottom, pushUpAscending}, CountsReps: true},
		{Activity: GolfSwing, InitialPhase: golfReady, Phases: []Phase{golfReady, golfBackswing, golfDownswing, golfFollowThrough}, CountsReps: true},
		{Activity: Generic, InitialPhase: genericMonitoring, Phases: []Phase{genericMonitoring}, CountsReps: false},
	}
}

// clampScore bounds a form score to [0,100]. Score clamping happens at this
// boundary so no RepRecord can ever carry an out-of-range value.
func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// debounce requires a condition to hold for n consecutive frames before it
// fires, suppressing single-frame flicker from a noisy detector.
type debounce struct {
	need  int
	count int
}

func (d *debounce) check(cond bool) bool {
	if !cond {
		d.count = 0
		return false
	}
	d.count++
	return d.count >= d.need
}

func (d *debounce) reset() { d.count = 0 }

// noChange is the Result for a frame that did not move the machine.
func noChange(p Phase) Result {
	return Result{From: p, To: p}
}

// changed builds a Result for a plain phase transition.
func changed(from, to Phase) Result {
	return Result{From: from, To: to, Changed: true}
}

// shared landmark requirement sets

var squatLandmarks = []int{
	landmark.LeftHip, landmark.RightHip,
	landmark.LeftKnee, landmark.RightKnee,
	landmark.LeftAnkle, landmark.RightAnkle,
}

var jumpingJackLandmarks = []int{
	landmark.LeftShoulder, landmark.RightShoulder,
	landmark.LeftWrist, landmark.RightWrist,
	landmark.LeftAnkle, landmark.RightAnkle,
}

var pushUpLandmarks = []int{
	landmark.LeftShoulder, landmark.RightShoulder,
	landmark.LeftElbow, landmark.RightElbow,
	landmark.LeftWrist, landmark.RightWrist,
}

var golfLandmarks = []int{
	landmark.LeftShoulder, landmark.RightShoulder,
	landmark.LeftWrist, landmark.RightWrist,
	landmark.LeftHip, landmark.RightHip,
	landmark.LeftAnkle, landmark.RightAnkle,
}

var genericLandmarks = []int{
	landmark.LeftShoulder, landmark.RightShoulder,
	landmark.LeftHip, landmark.RightHip,
}
