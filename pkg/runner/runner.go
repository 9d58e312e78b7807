// Package runner executes chromosomes against a live browser. Each
// execution owns an isolated Chrome session; JS exceptions, console
// errors, server errors and crashes are captured into the trace, and an
// action failure ends the execution without ever propagating to the
// engine.
package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/genome"
	"github.com/uievolve/uievolve/pkg/logging"
	"github.com/uievolve/uievolve/pkg/trace"
)

// Config holds browser session configuration.
type Config struct {
	// StartURL is the page every execution begins from.
	StartURL string `yaml:"start_url"`

	// Headless runs Chrome without a window. Disable for debugging.
	Headless bool `yaml:"headless"`

	// ChromePath overrides the Chrome binary discovery.
	ChromePath string `yaml:"chrome_path,omitempty"`

	// NoSandbox disables the Chrome sandbox, required in most containers.
	NoSandbox bool `yaml:"no_sandbox"`

	// StepTimeout bounds how long a single action may wait for its
	// target before the execution is considered crashed.
	StepTimeout time.Duration `yaml:"step_timeout"`
}

// DefaultConfig returns browser defaults suitable for unattended runs.
func DefaultConfig(startURL string) *Config {
	return &Config{
		StartURL:    startURL,
		Headless:    true,
		NoSandbox:   true,
		StepTimeout: 3 * time.Second,
	}
}

// Runner drives Chrome sessions via chromedp.
type Runner struct {
	config *Config
}

// New creates a runner. Sessions are created per execution, not here.
func New(cfg *Config) *Runner {
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 3 * time.Second
	}
	return &Runner{config: cfg}
}

// errorSink collects error signatures from the browser's event loop.
// Page events arrive on chromedp's handler goroutine while the main
// execution goroutine is stepping through actions, so access is locked.
type errorSink struct {
	mu         sync.Mutex
	signatures []string
	crashed    bool
}

func (s *errorSink) record(signature string) {
	s.mu.Lock()
	s.signatures = append(s.signatures, signature)
	s.mu.Unlock()
}

func (s *errorSink) markCrashed() {
	s.mu.Lock()
	s.crashed = true
	s.mu.Unlock()
}

func (s *errorSink) isCrashed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crashed
}

func (s *errorSink) drainInto(tr *trace.Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sig := range s.signatures {
		tr.RecordError(sig)
	}
	s.signatures = s.signatures[:0]
}

// Execute runs the chromosome in a fresh browser session and returns its
// trace. The context carries the execution's wall-clock deadline; when it
// expires the returned trace is marked timed-out with whatever partial
// record was collected. Execute never returns an error for anything that
// happened inside the page.
func (r *Runner) Execute(ctx context.Context, chromosome *genome.Chromosome) (*trace.Trace, error) {
	logger := logging.GetLogger()
	tr := trace.New()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !r.config.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if r.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.config.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	var sink errorSink
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventExceptionThrown:
			sink.record(exceptionSignature(e))
		case *runtime.EventConsoleAPICalled:
			if e.Type == runtime.APITypeError {
				sink.record(consoleSignature(e))
			}
		case *network.EventResponseReceived:
			if e.Response != nil && e.Response.Status >= 500 {
				sink.record(fmt.Sprintf("http %d on %s", e.Response.Status, e.Response.URL))
			}
		case *inspector.EventTargetCrashed:
			sink.record("browser target crashed")
			sink.markCrashed()
		}
	})

	// finish releases the session first so no further events race the
	// trace, then folds collected error signatures in.
	finish := func() *trace.Trace {
		browserCancel()
		allocCancel()
		sink.drainInto(tr)
		return tr
	}

	// Open the session and record the initial page state.
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(r.config.StartURL),
	)
	if err != nil {
		r.stampFailure(ctx, tr, err)
		if fr := logging.GlobalFlightRecorder(); fr != nil {
			_ = fr.SnapshotOnError(err, "uievolve_session.trace")
		}
		logger.Warn(ctx, "Session setup failed: %v", err)
		return finish(), nil
	}
	r.recordState(browserCtx, tr)

	for i := 0; i < chromosome.Len(); i++ {
		if sink.isCrashed() {
			tr.Status = trace.StatusCrashed
			return finish(), nil
		}

		action := chromosome.Action(i)
		if err := r.step(browserCtx, action); err != nil {
			// Target missing, detached node, expired deadline: the
			// sequence is invalid from here on. The partial trace keeps
			// whatever it earned.
			r.stampFailure(ctx, tr, err)
			logger.Debug(ctx, "Action %d failed (%s): %v", i, action, err)
			return finish(), nil
		}
		r.recordState(browserCtx, tr)
	}

	return finish(), nil
}

// step performs one action with a bounded wait for its target.
func (r *Runner) step(ctx context.Context, action catalog.Action) error {
	stepCtx, cancel := context.WithTimeout(ctx, r.config.StepTimeout)
	defer cancel()

	query, textSearch := action.Target.Query()
	opt := chromedp.ByQuery
	if textSearch {
		opt = chromedp.BySearch
	}

	switch action.Kind {
	case catalog.Click:
		return chromedp.Run(stepCtx, chromedp.Click(query, opt))
	case catalog.Fill, catalog.Select:
		return chromedp.Run(stepCtx, chromedp.SetValue(query, action.Value, opt))
	case catalog.Scroll:
		if !action.Target.Identifiable() {
			return chromedp.Run(stepCtx, chromedp.Evaluate(`window.scrollBy(0, 500)`, nil))
		}
		return chromedp.Run(stepCtx, chromedp.ScrollIntoView(query, opt))
	default:
		return fmt.Errorf("unhandled action kind %q", action.Kind)
	}
}

// recordState captures the current URL and a DOM digest into the trace.
func (r *Runner) recordState(ctx context.Context, tr *trace.Trace) {
	var url, dom string
	err := chromedp.Run(ctx,
		chromedp.Location(&url),
		chromedp.OuterHTML("html", &dom, chromedp.ByQuery),
	)
	if err != nil {
		return
	}
	tr.RecordVisit(url, trace.Signature(url, dom))
}

// stampFailure sets the terminal status for a failed execution:
// timed-out when the execution's wall-clock deadline expired, crashed
// otherwise. A step that merely exhausted its own per-action wait counts
// as crashed; only the run deadline makes a timeout. Timeouts also leave
// an error signature so the trace records why it ended.
func (r *Runner) stampFailure(ctx context.Context, tr *trace.Trace, err error) {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		tr.Status = trace.StatusTimedOut
		tr.RecordError("timeout: " + err.Error())
		return
	}
	tr.Status = trace.StatusCrashed
}

func exceptionSignature(ev *runtime.EventExceptionThrown) string {
	if ev.ExceptionDetails == nil {
		return "js exception"
	}
	d := ev.ExceptionDetails
	if d.Exception != nil && d.Exception.Description != "" {
		return "js exception: " + firstLine(d.Exception.Description)
	}
	return "js exception: " + d.Text
}

func consoleSignature(ev *runtime.EventConsoleAPICalled) string {
	parts := make([]string, 0, len(ev.Args))
	for _, arg := range ev.Args {
		if arg == nil {
			continue
		}
		if arg.Value != nil {
			parts = append(parts, strings.Trim(string(arg.Value), `"`))
		} else if arg.Description != "" {
			parts = append(parts, firstLine(arg.Description))
		}
	}
	if len(parts) == 0 {
		return "console error"
	}
	return "console error: " + strings.Join(parts, " ")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
