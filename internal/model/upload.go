package model

import (
	"math"
	"time"
)

type Phase string

const (
	PhaseNotStarted          Phase = "not_started"
	PhaseInProgress          Phase = "in_progress"
	PhaseSucceededRedirect   Phase = "succeeded_redirect"
	PhaseSucceededNoRedirect Phase = "succeeded_no_redirect"
	PhaseFailedStatus        Phase = "failed_status"
	PhaseTimedOut            Phase = "timed_out"
	PhaseErrored             Phase = "errored"
)

// Terminal reports whether no transition may leave p.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseSucceededRedirect, PhaseSucceededNoRedirect, PhaseFailedStatus, PhaseTimedOut, PhaseErrored:
		return true
	}
	return false
}

// Succeeded reports whether p is one of the two success phases.
func (p Phase) Succeeded() bool {
	return p == PhaseSucceededRedirect || p == PhaseSucceededNoRedirect
}

// DefaultTimeout is the hard limit for one upload.
const DefaultTimeout = 300000 * time.Millisecond

// UploadInfo is a snapshot of one upload request.
type UploadInfo struct {
	ID         string        `json:"id"`
	Action     string        `json:"action"`
	Timeout    time.Duration `json:"timeout"`
	Phase      Phase         `json:"phase"`
	StatusCode int           `json:"status_code,omitempty"`
	Redirect   string        `json:"redirect,omitempty"`
	BytesSent  int64         `json:"bytes_sent"`
	BytesTotal int64         `json:"bytes_total"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Readout is the user-visible progress state.
type Readout struct {
	Percent float64 `json:"percent"`
	Text    string  `json:"text"`
	Visible bool    `json:"visible"`
}

func (r Readout) Rounded() int {
	return int(math.Round(r.Percent))
}

// Response is the body the receiving system returns with HTTP 200.
type Response struct {
	Redirect string `json:"redirect,omitempty"`
}
