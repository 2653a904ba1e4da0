package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yokitheyo/formupload/internal/model"
	"github.com/yokitheyo/formupload/internal/navigate"
	"github.com/yokitheyo/formupload/internal/progress"
	"github.com/yokitheyo/formupload/internal/view"
)

// Upload is one in-flight submission. It is never reused.
type Upload struct {
	mu      sync.Mutex
	info    model.UploadInfo
	m       machine
	err     error
	readout model.Readout
	done    chan struct{}

	view   view.View
	msgs   view.Messages
	nav    navigate.Navigator
	logger *slog.Logger
}

func (u *Upload) ID() string { return u.info.ID }

func (u *Upload) Info() model.UploadInfo {
	u.mu.Lock()
	defer u.mu.Unlock()
	info := u.info
	info.Phase = u.m.phase
	if u.err != nil {
		info.Error = u.err.Error()
	}
	return info
}

func (u *Upload) Phase() model.Phase {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.m.phase
}

// Err is nil for the success phases and describes the failure otherwise.
// A failed navigation after a successful upload is reported here too.
func (u *Upload) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// Done is closed once the upload reached a terminal phase and any
// navigation finished.
func (u *Upload) Done() <-chan struct{} { return u.done }

// Wait blocks until Done or ctx ends.
func (u *Upload) Wait(ctx context.Context) (model.UploadInfo, error) {
	select {
	case <-u.done:
		return u.Info(), u.Err()
	case <-ctx.Done():
		return u.Info(), ctx.Err()
	}
}

func (u *Upload) start() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.m.to(model.PhaseInProgress); err != nil {
		return err
	}
	u.info.StartedAt = time.Now()
	return nil
}

// onProgress applies an upload progress event.
func (u *Upload) onProgress(sent, total int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.m.accepting() {
		return
	}
	u.info.BytesSent = sent
	pct, ok := progress.Percent(sent, total)
	if !ok || pct < u.readout.Percent {
		return
	}
	u.readout.Percent = pct
	u.view.SetBar(pct)
	u.view.SetStatus(u.msgs.ProgressText(u.readout.Rounded()))
}

// onLoad applies a received response. It returns the redirect target to
// follow, if any.
func (u *Upload) onLoad(status int, body []byte) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.info.StatusCode = status

	if status != http.StatusOK {
		u.finish(model.PhaseFailedStatus, u.msgs.Failed, fmt.Errorf("%w: HTTP %d", ErrStatus, status))
		return ""
	}

	var resp model.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		u.logger.Warn("malformed upload response", "upload_id", u.info.ID, "error", err)
		u.finish(model.PhaseErrored, u.msgs.Error, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
		return ""
	}
	if resp.Redirect == "" {
		u.finish(model.PhaseSucceededNoRedirect, "", nil)
		return ""
	}
	u.info.Redirect = resp.Redirect
	u.finish(model.PhaseSucceededRedirect, "", nil)
	return resp.Redirect
}

func (u *Upload) onTimeout(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.finish(model.PhaseTimedOut, u.msgs.Timeout, fmt.Errorf("%w: %v", ErrTimeout, err))
}

func (u *Upload) onError(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.finish(model.PhaseErrored, u.msgs.Error, fmt.Errorf("%w: %v", ErrTransport, err))
}

// finish moves to a terminal phase. An empty status leaves the readout
// text as it is. Must be called with mu held.
func (u *Upload) finish(phase model.Phase, status string, err error) {
	if terr := u.m.to(phase); terr != nil {
		u.logger.Debug("event dropped", "upload_id", u.info.ID, "error", terr)
		return
	}
	u.info.FinishedAt = time.Now()
	u.err = err
	if status != "" {
		u.view.SetStatus(status)
	}
}

func (u *Upload) navigate(ctx context.Context, target string) {
	if err := u.nav.Navigate(ctx, target); err != nil {
		u.logger.Warn("navigation failed", "upload_id", u.info.ID, "target", target, "error", err)
		u.mu.Lock()
		u.err = fmt.Errorf("navigate %s: %w", target, err)
		u.mu.Unlock()
	}
}
