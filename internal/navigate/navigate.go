// Package navigate follows the redirect instruction returned by a
// successful upload.
package navigate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
)

type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// Resolve interprets target relative to base, the way a browser resolves
// a location assignment against the current page.
func Resolve(base, target string) (string, error) {
	t, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid redirect %q: %w", target, err)
	}
	if base == "" {
		return t.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base %q: %w", base, err)
	}
	return b.ResolveReference(t).String(), nil
}

// HTTPNavigator loads the target page with the client that performed the
// upload, so cookies set by the receiving system are sent along.
type HTTPNavigator struct {
	Client *http.Client
	Base   string
	Out    io.Writer
	Logger *slog.Logger
}

func (n *HTTPNavigator) Navigate(ctx context.Context, target string) error {
	u, err := Resolve(n.Base, target)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", u, err)
	}
	defer resp.Body.Close()

	if n.Logger != nil {
		n.Logger.Info("navigated", "url", u, "status", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("navigate %s: HTTP %d", u, resp.StatusCode)
	}
	if n.Out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if _, err := io.Copy(n.Out, resp.Body); err != nil {
		return fmt.Errorf("navigate %s: %w", u, err)
	}
	return nil
}

// Recorder remembers every target and returns Err.
type Recorder struct {
	Err error

	mu      sync.Mutex
	targets []string
}

func (r *Recorder) Navigate(_ context.Context, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, target)
	return r.Err
}

func (r *Recorder) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}
