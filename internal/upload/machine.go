package upload

import (
	"fmt"

	"github.com/yokitheyo/formupload/internal/model"
)

var transitions = map[model.Phase][]model.Phase{
	model.PhaseNotStarted: {model.PhaseInProgress},
	model.PhaseInProgress: {
		model.PhaseSucceededRedirect,
		model.PhaseSucceededNoRedirect,
		model.PhaseFailedStatus,
		model.PhaseTimedOut,
		model.PhaseErrored,
	},
}

// machine holds the lifecycle phase of one upload. Terminal phases are
// absorbing: every transition out of them fails with ErrTerminal.
type machine struct {
	phase model.Phase
}

func newMachine() machine {
	return machine{phase: model.PhaseNotStarted}
}

func (m *machine) to(next model.Phase) error {
	if m.phase.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrTerminal, m.phase, next)
	}
	for _, p := range transitions[m.phase] {
		if p == next {
			m.phase = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.phase, next)
}

// accepting reports whether intermediate events such as progress may
// still be applied.
func (m *machine) accepting() bool {
	return m.phase == model.PhaseInProgress
}
