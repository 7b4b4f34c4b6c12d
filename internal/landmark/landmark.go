// Package landmark defines the pose landmark frame model and ingest validation.
//
// Frames arrive from an external pose detector using the standard 33-point
// body layout with normalized [0,1] image coordinates. Missing or
// low-confidence landmarks are an expected, frequent condition — validation
// reports them as a boolean outcome, never as an error.
package landmark

// Indices into the 33-point pose layout.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28

	// NumPoints is the full landmark count delivered by the detector.
	NumPoints = 33
)

// MinConfidence is the default visibility threshold below which a reported
// landmark is treated as absent.
const MinConfidence = 0.5

// Point is a single labeled 2-D body keypoint in normalized image space.
// Visibility is optional: a zero or negative value means the detector did
// not report confidence for this point.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Frame is one immutable set of landmarks captured at a monotonic
// millisecond timestamp. Points are indexed by the layout constants above;
// a frame may carry fewer than NumPoints entries when the detector loses
// part of the body.
type Frame struct {
	Points    []Point `json:"landmarks"`
	Timestamp int64   `json:"timestamp"`
}

// Has reports whether the landmark at idx is present and, when the detector
// provided a confidence, whether it clears minConfidence.
func (f Frame) Has(idx int, minConfidence float64) bool {
	if idx < 0 || idx >= len(f.Points) {
		return false
	}
	p := f.Points[idx]
	if p.Visibility > 0 && p.Visibility < minConfidence {
		return false
	}
	return true
}

// At returns the landmark at idx. Callers must check Has first; out-of-range
// access returns the zero point.
func (f Frame) At(idx int) Point {
	if idx < 0 || idx >= len(f.Points) {
		return Point{}
	}
	return f.Points[idx]
}

// Validate reports whether every required landmark is present in the frame
// with sufficient confidence. A false result means the pose was lost for the
// current activity and the frame must not be processed further.
func Validate(f Frame, required []int, minConfidence float64) bool {
	for _, idx := range required {
		if !f.Has(idx, minConfidence) {
			return false
		}
	}
	return true
}
