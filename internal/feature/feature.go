// Package feature derives scalar and boolean features from landmark frames.
//
// The extractor is a pure function of the current frame plus a bounded
// history window — no other state, no side effects — so every feature can be
// unit-tested with literal landmark fixtures. A feature is only present in
// the resulting Set when the landmarks it needs are present in the frame;
// consumers treat an absent feature as "condition not satisfied".
package feature

import (
	"math"

	"github.com/claude/repcoach/internal/landmark"
)

// Feature keys. Boolean features are stored as 0/1.
const (
	ArmsUp            = "arms_up"             // both wrists above their shoulders
	ShoulderSpan      = "shoulder_span"       // horizontal shoulder distance
	AnkleSpan         = "ankle_span"          // horizontal ankle distance
	StanceRatio       = "stance_ratio"        // ankle span / shoulder span
	HipKneeDiff       = "hip_knee_diff"       // knee Y minus hip Y, smoothed over the window
	HipKneeDiffRaw    = "hip_knee_diff_raw"   // same, current frame only
	KneeAngle         = "knee_angle"          // mean hip-knee-ankle angle, degrees
	ElbowAngle        = "elbow_angle"         // mean shoulder-elbow-wrist angle, degrees
	ShoulderWristDiff = "shoulder_wrist_diff" // wrist Y minus shoulder Y (positive: shoulders above wrists)
	WristHipGap       = "wrist_hip_gap"       // |wrist Y - hip Y|
	HandSpeed         = "hand_speed"          // mean wrist-midpoint displacement per frame over the window
	ShoulderTilt      = "shoulder_tilt"       // |left shoulder Y - right shoulder Y|
)

// HistorySize is the number of recent frames retained for smoothing and
// velocity estimation.
const HistorySize = 5

// Set is a flat mapping from feature name to value, recomputed every frame.
type Set map[string]float64

// Has reports whether the named feature could be computed for this frame.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Bool reads a boolean feature. Absent features read as false.
func (s Set) Bool(name string) bool {
	return s[name] >= 0.5
}

// Extractor computes a Set per frame, retaining the last HistorySize frames
// for smoothing and velocity. It is not safe for concurrent use; each
// session owns its own extractor.
type Extractor struct {
	history []landmark.Frame
}

// NewExtractor returns an extractor with an empty history window.
func NewExtractor() *Extractor {
	return &Extractor{history: make([]landmark.Frame, 0, HistorySize)}
}

// Reset discards the history window. Called when the pose is lost so frames
// from before the tracking gap do not poison the smoothing after it.
func (e *Extractor) Reset() {
	e.history = e.history[:0]
}

// Extract computes the feature set for f and appends f to the history
// window, evicting the oldest frame beyond HistorySize.
func (e *Extractor) Extract(f landmark.Frame) Set {
	e.history = append(e.history, f)
	if len(e.history) > HistorySize {
		e.history = e.history[1:]
	}

	fs := make(Set, 12)
	const conf = landmark.MinConfidence

	haveShoulders := f.Has(landmark.LeftShoulder, conf) && f.Has(landmark.RightShoulder, conf)
	haveWrists := f.Has(landmark.LeftWrist, conf) && f.Has(landmark.RightWrist, conf)
	haveHips := f.Has(landmark.LeftHip, conf) && f.Has(landmark.RightHip, conf)
	haveKnees := f.Has(landmark.LeftKnee, conf) && f.Has(landmark.RightKnee, conf)
	haveAnkles := f.Has(landmark.LeftAnkle, conf) && f.Has(landmark.RightAnkle, conf)
	haveElbows := f.Has(landmark.LeftElbow, conf) && f.Has(landmark.RightElbow, conf)

	if haveShoulders {
		ls, rs := f.At(landmark.LeftShoulder), f.At(landmark.RightShoulder)
		fs[ShoulderSpan] = math.Abs(ls.X - rs.X)
		fs[ShoulderTilt] = math.Abs(ls.Y - rs.Y)
	}
	if haveAnkles {
		fs[AnkleSpan] = math.Abs(f.At(landmark.LeftAnkle).X - f.At(landmark.RightAnkle).X)
	}
	if haveShoulders && haveAnkles && fs[ShoulderSpan] > 0 {
		fs[StanceRatio] = fs[AnkleSpan] / fs[ShoulderSpan]
	}
	if haveShoulders && haveWrists {
		// Image Y grows downward: a wrist above its shoulder has smaller Y.
		lw, rw := f.At(landmark.LeftWrist), f.At(landmark.RightWrist)
		ls, rs := f.At(landmark.LeftShoulder), f.At(landmark.RightShoulder)
		fs[ArmsUp] = boolVal(lw.Y < ls.Y && rw.Y < rs.Y)
		fs[ShoulderWristDiff] = meanY(lw, rw) - meanY(ls, rs)
	}
	if haveHips && haveKnees {
		diff := meanY(f.At(landmark.LeftKnee), f.At(landmark.RightKnee)) -
			meanY(f.At(landmark.LeftHip), f.At(landmark.RightHip))
		fs[HipKneeDiffRaw] = diff
		fs[HipKneeDiff] = e.smoothedHipKneeDiff()
	}
	if haveHips && haveKnees && haveAnkles {
		left := Angle(f.At(landmark.LeftHip), f.At(landmark.LeftKnee), f.At(landmark.LeftAnkle))
		right := Angle(f.At(landmark.RightHip), f.At(landmark.RightKnee), f.At(landmark.RightAnkle))
		fs[KneeAngle] = (left + right) / 2
	}
	if haveShoulders && haveElbows && haveWrists {
		left := Angle(f.At(landmark.LeftShoulder), f.At(landmark.LeftElbow), f.At(landmark.LeftWrist))
		right := Angle(f.At(landmark.RightShoulder), f.At(landmark.RightElbow), f.At(landmark.RightWrist))
		fs[ElbowAngle] = (left + right) / 2
	}
	if haveWrists && haveHips {
		fs[WristHipGap] = math.Abs(meanY(f.At(landmark.LeftWrist), f.At(landmark.RightWrist)) -
			meanY(f.At(landmark.LeftHip), f.At(landmark.RightHip)))
	}
	if haveWrists {
		if speed, ok := e.handSpeed(); ok {
			fs[HandSpeed] = speed
		}
	}

	return fs
}

// smoothedHipKneeDiff averages the raw hip-knee difference over every frame
// in the window that has both landmark pairs.
func (e *Extractor) smoothedHipKneeDiff() float64 {
	var sum float64
	var n int
	const conf = landmark.MinConfidence
	for _, h := range e.history {
		if !h.Has(landmark.LeftHip, conf) || !h.Has(landmark.RightHip, conf) ||
			!h.Has(landmark.LeftKnee, conf) || !h.Has(landmark.RightKnee, conf) {
			continue
		}
		sum += meanY(h.At(landmark.LeftKnee), h.At(landmark.RightKnee)) -
			meanY(h.At(landmark.LeftHip), h.At(landmark.RightHip))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// handSpeed is the mean frame-to-frame displacement of the wrist midpoint
// across the history window. Requires at least two frames with both wrists.
func (e *Extractor) handSpeed() (float64, bool) {
	const conf = landmark.MinConfidence
	var prev landmark.Point
	havePrev := false
	var total float64
	var steps int
	for _, h := range e.history {
		if !h.Has(landmark.LeftWrist, conf) || !h.Has(landmark.RightWrist, conf) {
			havePrev = false
			continue
		}
		mid := midpoint(h.At(landmark.LeftWrist), h.At(landmark.RightWrist))
		if havePrev {
			total += Distance(prev, mid)
			steps++
		}
		prev, havePrev = mid, true
	}
	if steps == 0 {
		return 0, false
	}
	return total / float64(steps), true
}

// Angle returns the angle at vertex b formed by points a and c, in degrees.
// The cosine argument is clamped to [-1, 1] so floating-point overshoot on
// near-collinear points never produces a NaN.
func Angle(a, b, c landmark.Point) float64 {
	abX, abY := a.X-b.X, a.Y-b.Y
	cbX, cbY := c.X-b.X, c.Y-b.Y
	magAB := math.Hypot(abX, abY)
	magCB := math.Hypot(cbX, cbY)
	if magAB == 0 || magCB == 0 {
		return 0
	}
	cos := (abX*cbX + abY*cbY) / (magAB * magCB)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Distance is the Euclidean distance between two landmarks.
func Distance(a, b landmark.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func midpoint(a, b landmark.Point) landmark.Point {
	return landmark.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func meanY(a, b landmark.Point) float64 {
	return (a.Y + b.Y) / 2
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
