// Package session owns the per-session coaching pipeline.
//
// Frames flow through a single-consumer queue into a synchronous reducer:
// ingest validation, feature extraction, the activity state machine, cue
// generation, the throttle gate, and aggregation all run to completion for
// one frame before the next is touched. Long-running work (remote feedback,
// speech) is dispatched to goroutines guarded by the session's epoch
// context, so a late response for a finished session is discarded instead
// of mutating state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/repcoach/internal/cue"
	"github.com/claude/repcoach/internal/engine"
	"github.com/claude/repcoach/internal/feature"
	"github.com/claude/repcoach/internal/landmark"
	"github.com/claude/repcoach/internal/speech"
	"github.com/google/uuid"
)

// ErrFinalized is returned by Submit after the session has ended.
var ErrFinalized = errors.New("session: already finalized")

// PhaseSpan records one phase occupancy within a rep.
type PhaseSpan struct {
	Phase engine.Phase `json:"phase"`
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`
}

// RepRecord is one completed repetition. Sealed when the rep completes; the
// only later mutation is a remote rep cue appended to Cues when its response
// lands after the record was built.
type RepRecord struct {
	Number    int         `json:"number"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	FormScore int         `json:"formScore"`
	Cues      []cue.Cue   `json:"cues,omitempty"`
	Phases    []PhaseSpan `json:"phases,omitempty"`
}

// CoachingSession is the session-level record: every completed rep, the
// full accepted-cue log, and the derived aggregates.
type CoachingSession struct {
	ID               uuid.UUID       `json:"id"`
	Activity         engine.Activity `json:"activity"`
	ActivityName     string          `json:"activityName"`
	StartTime        time.Time       `json:"startTime"`
	EndTime          time.Time       `json:"endTime,omitzero"`
	Reps             []RepRecord     `json:"reps"`
	Cues             []cue.Cue       `json:"cues"`
	TotalReps        int             `json:"totalReps"`
	AverageFormScore float64         `json:"averageFormScore"`
	Finalized        bool            `json:"finalized"`
}

// FrameResult is what one processed frame reports back to the caller.
type FrameResult struct {
	PoseDetected      bool         `json:"poseDetected"`
	Phase             engine.Phase `json:"phase"`
	RepCount          int          `json:"repCount"`
	MovementCompleted bool         `json:"movementCompleted"`
	FormScore         int          `json:"formScore,omitempty"`
}

// Options configures a session's external capabilities. All fields are
// optional; zero values mean local-only operation.
type Options struct {
	// Feedback is the remote rep-feedback source, nil for local cues only.
	Feedback cue.Source
	// Speaker renders accepted cues, nil to skip speech entirely.
	Speaker speech.Speaker
	// Log defaults to slog.Default().
	Log *slog.Logger
}

// exerciseState holds the rep-scoped mutable state the reducer maintains
// between frames. Reset (rep fields only) when a rep completes.
type exerciseState struct {
	repStart       time.Time
	phaseStart     time.Time
	lastTransition time.Time
	repCues        []cue.Cue
	repPhases      []PhaseSpan
}

type frameReq struct {
	frame landmark.Frame
	reply chan FrameResult
}

// Session is one live coaching session. All pipeline state is owned by the
// run goroutine; other goroutines interact through Submit, Snapshot,
// Subscribe, and Finalize.
type Session struct {
	ID       uuid.UUID
	activity engine.Activity

	machine   engine.Machine
	extractor *feature.Extractor
	gen       *cue.Generator
	gate      *cue.Gate

	speaker  speech.Speaker
	feedback cue.Source
	log      *slog.Logger

	reqs   chan frameReq
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	coaching  *CoachingSession
	state     exerciseState
	subs      map[int]chan Event
	nextSub   int
	havePose  bool
	lastPose  bool
	setupSent bool
	lastTip   time.Time
}

// New creates a session for the named activity and starts its frame loop.
// Unrecognized names run in the generic posture-feedback mode.
func New(activityName string, opts Options) *Session {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	activity := engine.Detect(activityName)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID:        uuid.New(),
		activity:  activity,
		machine:   engine.New(activity),
		extractor: feature.NewExtractor(),
		gen:       cue.NewGenerator(activity, opts.Feedback),
		gate:      cue.NewGate(),
		speaker:   opts.Speaker,
		feedback:  opts.Feedback,
		reqs:      make(chan frameReq),
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[int]chan Event),
	}
	s.log = opts.Log.With("session", s.ID.String(), "activity", string(activity))
	s.coaching = &CoachingSession{
		ID:           s.ID,
		Activity:     activity,
		ActivityName: activityName,
		StartTime:    time.Now(),
		Reps:         []RepRecord{},
		Cues:         []cue.Cue{},
	}

	go s.run()
	return s
}

// Activity returns the resolved activity for this session.
func (s *Session) Activity() engine.Activity { return s.activity }

func (s *Session) run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case req := <-s.reqs:
			req.reply <- s.process(req.frame)
		}
	}
}

// Submit queues one frame and waits for its result. Frames are processed
// strictly one at a time in submission order.
func (s *Session) Submit(ctx context.Context, f landmark.Frame) (FrameResult, error) {
	req := frameReq{frame: f, reply: make(chan FrameResult, 1)}
	select {
	case s.reqs <- req:
	case <-s.ctx.Done():
		return FrameResult{}, ErrFinalized
	case <-ctx.Done():
		return FrameResult{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return FrameResult{}, ctx.Err()
	}
}

// process is the per-frame reducer. It runs only on the session's run
// goroutine; the lock protects readers (Snapshot, Subscribe) not writers.
func (s *Session) process(f landmark.Frame) FrameResult {
	now := time.UnixMilli(f.Timestamp)

	detected := landmark.Validate(f, s.machine.RequiredLandmarks(), landmark.MinConfidence)
	s.emitPose(detected, now)
	if !detected {
		// Expected condition: no state change, no further processing. The
		// smoothing window is dropped so frames from before the tracking gap
		// never blend with frames after it.
		s.extractor.Reset()
		s.mu.Lock()
		repCount := len(s.coaching.Reps)
		s.mu.Unlock()
		return FrameResult{PoseDetected: false, Phase: s.machine.Phase(), RepCount: repCount}
	}

	fs := s.extractor.Extract(f)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.repStart.IsZero() {
		s.state.repStart = now
		s.state.phaseStart = now
	}
	if !s.setupSent {
		s.setupSent = true
		s.offerLocked(s.gen.Setup(now), true)
	}

	res := s.machine.Transition(fs, now)
	result := FrameResult{PoseDetected: true, Phase: res.To, RepCount: len(s.coaching.Reps)}

	if res.Changed {
		s.state.repPhases = append(s.state.repPhases, PhaseSpan{Phase: res.From, Start: s.state.phaseStart, End: now})
		s.state.phaseStart = now
		s.state.lastTransition = now
		s.emitLocked(Event{Kind: EventPhaseChanged, Timestamp: now, Phase: &PhaseChange{
			Activity: s.activity, From: res.From, To: res.To, Timestamp: now,
		}})
	}

	if res.RepCompleted {
		rec := s.completeRepLocked(res, now, f)
		result.RepCount = len(s.coaching.Reps)
		result.MovementCompleted = true
		result.FormScore = rec.FormScore
	} else if res.Changed {
		if tip, ok := s.gen.PhaseTip(res.To, now); ok && now.Sub(s.lastTip) >= cue.Interval(s.activity) {
			if s.offerLocked(tip, true) {
				s.lastTip = now
			}
		}
	}

	return result
}

// completeRepLocked builds the immutable RepRecord, appends it in order,
// emits the event, generates the rep cue, and resets rep-scoped state.
func (s *Session) completeRepLocked(res engine.Result, now time.Time, f landmark.Frame) RepRecord {
	phases := append([]PhaseSpan{}, s.state.repPhases...)

	number := len(s.coaching.Reps) + 1
	score := res.FormScore
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	var repCues []cue.Cue
	if s.feedback == nil {
		// Deterministic local path: generate and gate the rep cue before the
		// record is sealed so it lands inside the rep it describes.
		c := s.gen.LocalRepCue(number, score, now)
		if s.offerLocked(c, false) {
			repCues = append(repCues, c)
		}
	}

	rec := RepRecord{
		Number:    number,
		StartTime: s.state.repStart,
		EndTime:   now,
		FormScore: score,
		Cues:      append(append([]cue.Cue{}, s.state.repCues...), repCues...),
		Phases:    phases,
	}
	s.coaching.Reps = append(s.coaching.Reps, rec)

	s.emitLocked(Event{Kind: EventRepCompleted, Timestamp: now, Rep: &rec})
	s.log.Info("rep completed", "rep", rec.Number, "score", rec.FormScore)

	if s.feedback != nil {
		go s.remoteRepCue(number, score, f, now)
	}

	// Reset rep-scoped fields only.
	s.state.repStart = now
	s.state.phaseStart = now
	s.state.repCues = nil
	s.state.repPhases = nil

	return rec
}

// remoteRepCue fetches external feedback off the pipeline goroutine. The
// epoch context discards responses that arrive after the session ended. The
// cue is stamped on the frame clock — the completing frame's time plus the
// wall time the call took — so the gate never compares across clock domains.
func (s *Session) remoteRepCue(number, score int, f landmark.Frame, now time.Time) {
	ctx := s.ctx
	started := time.Now()
	c, err := s.gen.RepCue(ctx, f, number, score, now)
	if err != nil {
		s.log.Warn("remote feedback unavailable, using local cue", "error", err)
	}
	if ctx.Err() != nil {
		return // stale: session finalized while the call was in flight
	}
	c.Timestamp = now.Add(time.Since(started))
	s.mu.Lock()
	if s.offerLocked(c, false) {
		s.attachRepCueLocked(c)
	}
	s.mu.Unlock()
}

// attachRepCueLocked records a late-arriving rep cue on the completed rep it
// describes. Snapshots taken before the cue landed keep their own copy.
func (s *Session) attachRepCueLocked(c cue.Cue) {
	i := c.RepNumber - 1
	if i < 0 || i >= len(s.coaching.Reps) {
		return
	}
	s.coaching.Reps[i].Cues = append(s.coaching.Reps[i].Cues, c)
}

// offerLocked runs a candidate cue through the gate; on acceptance it is
// appended to the session log, recorded against the current rep when one is
// open, emitted, and spoken. Returns whether the cue was accepted.
func (s *Session) offerLocked(c cue.Cue, attachToRep bool) bool {
	if !s.gate.Offer(c) {
		return false
	}
	s.coaching.Cues = append(s.coaching.Cues, c)
	if attachToRep {
		s.state.repCues = append(s.state.repCues, c)
	}
	s.emitLocked(Event{Kind: EventCueAccepted, Timestamp: c.Timestamp, Cue: &c})
	s.speak(c)
	return true
}

// speak dispatches speech without blocking the pipeline.
func (s *Session) speak(c cue.Cue) {
	if s.speaker == nil {
		return
	}
	ctx := s.ctx
	name := s.coaching.ActivityName
	go func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.speaker.Speak(ctx, c.Message, name, string(c.Type)); err != nil {
			s.log.Warn("speech failed", "error", err)
		}
	}()
}

func (s *Session) emitPose(detected bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.havePose && s.lastPose == detected {
		return
	}
	s.havePose = true
	s.lastPose = detected
	d := detected
	s.emitLocked(Event{Kind: EventPoseDetected, Timestamp: now, PoseDetected: &d})
}

// Snapshot returns a copy of the session record with live aggregates.
func (s *Session) Snapshot() CoachingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() CoachingSession {
	out := *s.coaching
	out.Reps = append([]RepRecord{}, s.coaching.Reps...)
	out.Cues = append([]cue.Cue{}, s.coaching.Cues...)
	out.TotalReps = len(out.Reps)
	out.AverageFormScore = averageScore(out.Reps)
	return out
}

// Finalize ends the session: it cancels the epoch (stopping the frame loop
// and invalidating in-flight external calls), stamps the end time, and
// computes the aggregates. Calling it again is a no-op returning the same
// result.
func (s *Session) Finalize() CoachingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coaching.Finalized {
		return s.snapshotLocked()
	}
	s.cancel()
	s.coaching.EndTime = time.Now()
	s.coaching.TotalReps = len(s.coaching.Reps)
	s.coaching.AverageFormScore = averageScore(s.coaching.Reps)
	s.coaching.Finalized = true

	snap := s.snapshotLocked()
	s.emitLocked(Event{Kind: EventSessionFinalized, Timestamp: s.coaching.EndTime, Session: &snap})
	s.log.Info("session finalized", "reps", snap.TotalReps, "avgScore", snap.AverageFormScore)
	return snap
}

// Finalized reports whether Finalize has run.
func (s *Session) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coaching.Finalized
}

func averageScore(reps []RepRecord) float64 {
	if len(reps) == 0 {
		return 0
	}
	var sum int
	for _, r := range reps {
		sum += r.FormScore
	}
	return float64(sum) / float64(len(reps))
}
