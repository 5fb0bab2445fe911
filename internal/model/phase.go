package model

// Phase is a stage of the curriculum that controls learner scaffolding.
type Phase string

const (
	Phase1 Phase = "phase1"
	Phase2 Phase = "phase2"
	Phase3 Phase = "phase3"
)

const (
	lastPhase1Week = 17
	lastPhase2Week = 35

	examTimerMinutes = 60
)

// PhaseConfig describes which study aids a week offers.
type PhaseConfig struct {
	Phase                 Phase `json:"phase"`
	ShowHintBox           bool  `json:"showHintBox"`
	EnableSimilarityCheck bool  `json:"enableSimilarityCheck"`
	EnableTimer           bool  `json:"enableTimer"`
	TimerDurationMinutes  int   `json:"timerDurationMinutes,omitempty"`
}

// PhaseFor returns the phase configuration of a week.
// Weeks 1-17 show hints, 18-35 drop hints and check answer similarity,
// and later weeks add a timed exam mode.
func PhaseFor(week int) PhaseConfig {
	switch {
	case week <= lastPhase1Week:
		return PhaseConfig{Phase: Phase1, ShowHintBox: true}
	case week <= lastPhase2Week:
		return PhaseConfig{Phase: Phase2, EnableSimilarityCheck: true}
	default:
		return PhaseConfig{
			Phase:                 Phase3,
			EnableSimilarityCheck: true,
			EnableTimer:           true,
			TimerDurationMinutes:  examTimerMinutes,
		}
	}
}
