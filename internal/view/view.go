package view

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/yokitheyo/formupload/internal/model"
)

// View is the progress readout an upload drives: a container that starts
// hidden, a bar and a status line.
type View interface {
	ShowProgress()
	SetBar(percent float64)
	SetStatus(text string)
}

const (
	barWidth = 30
	// barMax counts tenths of a percent.
	barMax = 1000
)

// Terminal draws the readout as a progress bar with the status text as its
// description. Nothing is written until ShowProgress.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	bar     *progressbar.ProgressBar
	readout model.Readout
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) ShowProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar != nil {
		return
	}
	t.readout.Visible = true
	t.bar = progressbar.NewOptions64(barMax,
		progressbar.OptionSetWriter(t.w),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetDescription(t.readout.Text),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetRenderBlankState(true),
	)
	t.setBar()
}

func (t *Terminal) SetBar(percent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readout.Percent = percent
	t.setBar()
}

func (t *Terminal) SetStatus(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readout.Text = text
	if t.bar != nil {
		t.bar.Describe(text)
	}
}

// Finish stops redrawing and prints the final status on its own line. A
// full bar stops taking description updates, so the terminal text would
// otherwise be lost.
func (t *Terminal) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar == nil {
		return
	}
	_ = t.bar.Exit()
	fmt.Fprintf(t.w, "\n%s\n", t.readout.Text)
}

func (t *Terminal) Readout() model.Readout {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readout
}

func (t *Terminal) setBar() {
	if t.bar == nil {
		return
	}
	pct := math.Max(0, math.Min(100, t.readout.Percent))
	_ = t.bar.Set64(int64(math.Round(pct * barMax / 100)))
}

// Call is one recorded View method invocation.
type Call struct {
	Method string
	Value  string
}

// Recorder keeps every call and the resulting readout.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	readout model.Readout
}

func (r *Recorder) ShowProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "ShowProgress"})
	r.readout.Visible = true
}

func (r *Recorder) SetBar(percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "SetBar", Value: fmt.Sprintf("%g", percent)})
	r.readout.Percent = percent
}

func (r *Recorder) SetStatus(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "SetStatus", Value: text})
	r.readout.Text = text
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Recorder) Readout() model.Readout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readout
}

// Count returns how many times method was called.
func (r *Recorder) Count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}
