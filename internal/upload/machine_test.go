package upload

import (
	"errors"
	"testing"

	"github.com/yokitheyo/formupload/internal/model"
)

var terminals = []model.Phase{
	model.PhaseSucceededRedirect,
	model.PhaseSucceededNoRedirect,
	model.PhaseFailedStatus,
	model.PhaseTimedOut,
	model.PhaseErrored,
}

func TestMachineHappyPath(t *testing.T) {
	for _, end := range terminals {
		t.Run(string(end), func(t *testing.T) {
			m := newMachine()
			if m.accepting() {
				t.Fatal("not_started must not accept progress")
			}
			if err := m.to(model.PhaseInProgress); err != nil {
				t.Fatalf("start: %v", err)
			}
			if !m.accepting() {
				t.Fatal("in_progress must accept progress")
			}
			if err := m.to(end); err != nil {
				t.Fatalf("finish: %v", err)
			}
			if !m.phase.Terminal() || m.accepting() {
				t.Fatalf("%s should be terminal", m.phase)
			}
		})
	}
}

func TestMachineTerminalIsAbsorbing(t *testing.T) {
	all := append([]model.Phase{model.PhaseNotStarted, model.PhaseInProgress}, terminals...)
	for _, end := range terminals {
		for _, next := range all {
			m := machine{phase: end}
			err := m.to(next)
			if !errors.Is(err, ErrTerminal) {
				t.Errorf("%s -> %s: err = %v, want ErrTerminal", end, next, err)
			}
			if m.phase != end {
				t.Errorf("%s -> %s changed phase to %s", end, next, m.phase)
			}
		}
	}
}

func TestMachineInvalidTransitions(t *testing.T) {
	tests := []struct {
		from, to model.Phase
	}{
		{model.PhaseNotStarted, model.PhaseSucceededRedirect},
		{model.PhaseNotStarted, model.PhaseErrored},
		{model.PhaseNotStarted, model.PhaseNotStarted},
		{model.PhaseInProgress, model.PhaseInProgress},
		{model.PhaseInProgress, model.PhaseNotStarted},
	}
	for _, tt := range tests {
		m := machine{phase: tt.from}
		if err := m.to(tt.to); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: err = %v, want ErrInvalidTransition", tt.from, tt.to, err)
		}
	}
}

func TestPhaseSucceeded(t *testing.T) {
	if !model.PhaseSucceededRedirect.Succeeded() || !model.PhaseSucceededNoRedirect.Succeeded() {
		t.Error("success phases must report Succeeded")
	}
	for _, p := range []model.Phase{model.PhaseFailedStatus, model.PhaseTimedOut, model.PhaseErrored, model.PhaseInProgress} {
		if p.Succeeded() {
			t.Errorf("%s reported Succeeded", p)
		}
	}
}
