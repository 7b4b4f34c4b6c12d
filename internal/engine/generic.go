package engine

import (
	"time"

	"github.com/claude/repcoach/internal/feature"
)

// The generic machine's single phase.
const genericMonitoring Phase = "monitoring"

// genericMachine handles activities with no mapped state machine. It never
// counts reps and never changes phase; the cue layer uses its posture
// features for feedback instead. This is a recognized mode, not an error.
type genericMachine struct{}

func newGenericMachine() *genericMachine { return &genericMachine{} }

func (m *genericMachine) Activity() Activity       { return Generic }
func (m *genericMachine) Phase() Phase             { return genericMonitoring }
func (m *genericMachine) RequiredLandmarks() []int { return genericLandmarks }
func (m *genericMachine) Reset()                   {}

func (m *genericMachine) Transition(_ feature.Set, _ time.Time) Result {
	return noChange(genericMonitoring)
}
