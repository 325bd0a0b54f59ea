// Package smoke loads a served dashboard in headless Chrome and reports which
// state its render script settled in.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// States written by the shared client core to <body data-state>.
const (
	StateLoading = "loading"
	StateLoaded  = "loaded"
	StateError   = "error"
)

// ErrStillLoading is returned when the page never left the loading state.
var ErrStillLoading = errors.New("dashboard still loading")

type Options struct {
	// Bin is the Chrome binary; empty lets the launcher find or download one.
	Bin string
	// DebuggerURL attaches to a running Chrome instead of launching one.
	DebuggerURL string
	Timeout     time.Duration
	Poll        time.Duration
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Poll <= 0 {
		o.Poll = 200 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Report is the outcome of one smoke check.
type Report struct {
	URL      string        `json:"url"`
	State    string        `json:"state"`
	Message  string        `json:"message,omitempty"`
	Title    string        `json:"title,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the dashboard rendered its payload.
func (r *Report) OK() bool {
	return r.State == StateLoaded
}

// Check opens url and waits until the render script reports loaded or error.
func Check(ctx context.Context, url string, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.Named("smoke")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	controlURL := opts.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(true).Context(ctx)
		if opts.Bin != "" {
			l = l.Bin(opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		defer l.Kill()
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer browser.Close()

	start := time.Now()
	logger.Info("opening dashboard", zap.String("url", url))
	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}

	report := &Report{URL: url, State: StateLoading}
	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()
	for {
		state, message, err := readState(page)
		if err != nil {
			return nil, err
		}
		report.State = state
		report.Message = message
		if state == StateLoaded || state == StateError {
			break
		}
		select {
		case <-ctx.Done():
			report.Duration = time.Since(start)
			return report, fmt.Errorf("%w after %s", ErrStillLoading, report.Duration.Round(time.Millisecond))
		case <-ticker.C:
		}
	}

	report.Duration = time.Since(start)
	if info, err := page.Info(); err == nil {
		report.Title = info.Title
	}
	logger.Info("dashboard settled",
		zap.String("url", url),
		zap.String("state", report.State),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func readState(page *rod.Page) (string, string, error) {
	res, err := page.Eval(`() => {
		const status = document.getElementById('status');
		return {
			state: document.body ? (document.body.getAttribute('data-state') || '') : '',
			message: status ? status.textContent : ''
		};
	}`)
	if err != nil {
		return "", "", fmt.Errorf("read dashboard state: %w", err)
	}
	return Normalize(res.Value.Get("state").Str()), res.Value.Get("message").Str(), nil
}

// Normalize maps an unset or unknown data-state to loading.
func Normalize(state string) string {
	switch state {
	case StateLoaded, StateError:
		return state
	default:
		return StateLoading
	}
}
