// Package upload submits a form as a streamed multipart POST, drives a
// progress view and follows the redirect the receiving system returns.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yokitheyo/formupload/internal/form"
	"github.com/yokitheyo/formupload/internal/model"
	"github.com/yokitheyo/formupload/internal/navigate"
	"github.com/yokitheyo/formupload/internal/progress"
	"github.com/yokitheyo/formupload/internal/view"
)

// maxResponseSize bounds the JSON body read from the receiving system.
const maxResponseSize = 1 << 20

// Options tunes a Handler. Zero values select the defaults.
type Options struct {
	// Timeout defaults to model.DefaultTimeout.
	Timeout  time.Duration
	Messages view.Messages
	Logger   *slog.Logger
}

// Handler handles submissions of one form. At most one upload is in
// flight; further submissions are rejected until it is terminal.
type Handler struct {
	client *http.Client
	view   view.View
	nav    navigate.Navigator
	opts   Options

	mu      sync.Mutex
	current *Upload

	// beforeStream runs on the writer goroutine ahead of the payload.
	beforeStream func()
}

// NewHandler returns a Handler that posts with client, draws on v and
// follows redirects with nav. A nil client uses http.DefaultClient; a nil
// nav leaves redirects unfollowed.
func NewHandler(client *http.Client, v view.View, nav navigate.Navigator, opts Options) *Handler {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = model.DefaultTimeout
	}
	if opts.Messages == (view.Messages{}) {
		opts.Messages = view.DefaultMessages()
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	return &Handler{client: client, view: v, nav: nav, opts: opts}
}

// HandleSubmit takes over a submission. The default submission is always
// prevented. A nil event or an event without a form is a no-op and returns
// a nil Upload. On success the request is running when HandleSubmit
// returns; use the Upload to observe it.
func (h *Handler) HandleSubmit(ctx context.Context, ev *form.SubmitEvent) (*Upload, error) {
	if ev == nil {
		return nil, nil
	}
	ev.PreventDefault()
	if ev.Form == nil {
		return nil, nil
	}
	f := ev.Form

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil && !h.current.Phase().Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrInFlight, h.current.ID())
	}

	if err := validateAction(f.Action); err != nil {
		return nil, err
	}
	payload, err := form.NewPayload(f)
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}

	h.view.ShowProgress()

	u := &Upload{
		info: model.UploadInfo{
			ID:         uuid.New().String(),
			Action:     f.Action,
			Timeout:    h.opts.Timeout,
			BytesTotal: payload.Size(),
		},
		m:      newMachine(),
		done:   make(chan struct{}),
		view:   h.view,
		msgs:   h.opts.Messages,
		nav:    h.nav,
		logger: h.opts.Logger,
	}
	if err := u.start(); err != nil {
		return nil, err
	}
	h.current = u

	h.opts.Logger.Info("upload started",
		"upload_id", u.info.ID,
		"action", f.Action,
		"bytes", payload.Size(),
		"files", len(f.Files),
		"timeout", h.opts.Timeout,
	)
	go h.run(ctx, u, payload)
	return u, nil
}

// Binding is a Handler attached to the form found at startup.
type Binding struct {
	h    *Handler
	form *form.Form
}

// Bind attaches h to f. f may be nil when there is no form to submit.
func (h *Handler) Bind(f *form.Form) *Binding {
	return &Binding{h: h, form: f}
}

// Submit delivers a submission of the bound form. Without a form it
// returns nil, nil and touches neither the view nor the network.
func (b *Binding) Submit(ctx context.Context) (*Upload, error) {
	if b.form == nil {
		return nil, nil
	}
	return b.h.HandleSubmit(ctx, form.NewSubmitEvent(b.form))
}

// Current returns the most recent upload, or nil.
func (h *Handler) Current() *Upload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *Handler) run(ctx context.Context, u *Upload, payload *form.Payload) {
	defer close(u.done)

	target := h.exchange(ctx, u, payload)

	info := u.Info()
	h.opts.Logger.Info("upload finished",
		"upload_id", info.ID,
		"phase", info.Phase,
		"status", info.StatusCode,
		"bytes_sent", info.BytesSent,
		"duration", info.FinishedAt.Sub(info.StartedAt),
		"error", info.Error,
	)

	if target != "" && h.nav != nil {
		u.navigate(ctx, target)
	}
}

// exchange performs the request and delivers its terminal event. It
// returns the redirect target on success.
func (h *Handler) exchange(ctx context.Context, u *Upload, payload *form.Payload) string {
	ctx, cancel := context.WithTimeout(ctx, h.opts.Timeout)
	defer cancel()

	pr, pw := io.Pipe()
	body := progress.NewReader(pr, payload.Size(), u.onProgress)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.info.Action, body)
	if err != nil {
		pr.Close()
		u.onError(err)
		return ""
	}
	req.ContentLength = payload.Size()
	req.Header.Set("Content-Type", payload.ContentType())
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", u.info.ID)
	req.Header.Set("Accept", "application/json")

	var g errgroup.Group
	g.Go(func() error {
		if h.beforeStream != nil {
			h.beforeStream()
		}
		_, err := payload.WriteTo(pw)
		pw.CloseWithError(err)
		return err
	})

	resp, err := h.client.Do(req)
	// Unblocks the writer if the exchange ended before the body was consumed.
	pr.CloseWithError(io.ErrClosedPipe)
	if werr := g.Wait(); werr != nil && !errors.Is(werr, io.ErrClosedPipe) {
		h.opts.Logger.Warn("payload stream failed", "upload_id", u.info.ID, "error", werr)
	}
	if err != nil {
		h.fail(u, err)
		return ""
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		h.fail(u, err)
		return ""
	}
	return u.onLoad(resp.StatusCode, data)
}

func (h *Handler) fail(u *Upload, err error) {
	if isTimeout(err) {
		u.onTimeout(err)
		return
	}
	u.onError(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validateAction(action string) error {
	if action == "" {
		return ErrNoAction
	}
	u, err := url.Parse(action)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}
	return nil
}

var (
	ErrInFlight          = errors.New("upload already in flight")
	ErrNoAction          = errors.New("form has no action url")
	ErrInvalidAction     = errors.New("invalid action url")
	ErrTerminal          = errors.New("upload already terminal")
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrStatus            = errors.New("upload failed")
	ErrTimeout           = errors.New("upload timed out")
	ErrTransport         = errors.New("upload error")
	ErrMalformedResponse = errors.New("malformed upload response")
)
