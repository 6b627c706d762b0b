package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dispatchy/internal/log"
	"github.com/zjrosen/dispatchy/internal/presentation"
	"github.com/zjrosen/dispatchy/internal/pubsub"
	"github.com/zjrosen/dispatchy/internal/scenario"
	"github.com/zjrosen/dispatchy/internal/watcher"
)

// ErrScenariosFailed is returned when at least one scenario did not pass.
var ErrScenariosFailed = errors.New("scenarios failed")

var (
	runWatch   bool
	runMetrics bool
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run <path>...",
	Short: "Run scenario files against a fresh registry",
	Long: `Run each scenario file, or every *.yaml and *.yml file in a directory, and
report whether the listener calls matched the expect steps.

Each scenario runs against its own registry configured from the config file:
tracing, the parse cache and feature flags apply. The command exits non-zero
when any scenario fails.

With --watch, scenarios are re-run whenever a watched file changes. When
metrics.listen_addr is set, watch mode also serves Prometheus metrics on
that address under /metrics.

Examples:
  dispatchy run scenarios/
  dispatchy run once.yaml lifecycle.yaml --metrics
  dispatchy run scenarios/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScenarios,
}

func init() {
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "re-run scenarios when files change")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "print registry metrics after the run (also metrics.enabled)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(runCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cfg)
	if err != nil {
		return err
	}
	defer e.close()

	f := newFormatter(cmd, runJSON)
	if runWatch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return watchScenarios(ctx, e, f, args)
	}

	scenarios, err := scenario.LoadPaths(args)
	if err != nil {
		return err
	}
	summary, err := runBatch(cmd.Context(), e, f, scenarios, true)
	if err != nil {
		return err
	}
	if runMetrics || cfg.Metrics.Enabled {
		if err := e.printMetrics(f, cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	return summary.err()
}

type batchSummary struct {
	passed, failed int
}

func (s batchSummary) err() error {
	if s.failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrScenariosFailed, s.failed, s.passed+s.failed)
	}
	return nil
}

// runBatch runs scenarios in order and writes each result.
func runBatch(ctx context.Context, e *env, f *presentation.Formatter, scenarios []*scenario.Scenario, withFlags bool) (batchSummary, error) {
	var summary batchSummary
	for _, sc := range scenarios {
		res, err := scenario.Run(ctx, sc, e.scenarioOptions(withFlags)...)
		if err != nil {
			summary.failed++
			if ferr := f.FormatError(sc.DisplayName(), err); ferr != nil {
				return summary, ferr
			}
			continue
		}
		if res.Passed() {
			summary.passed++
		} else {
			summary.failed++
		}
		if err := f.FormatResult(presentation.FromResult(res)); err != nil {
			return summary, err
		}
	}
	return summary, f.FormatSummary(summary.passed, summary.failed)
}

// runReport is the payload of watch-mode events.
type runReport struct {
	Name   string
	Result *scenario.Result
	Err    error
	Passed int
	Failed int
}

// publishBatch loads and runs paths, publishing one event per scenario
// between a StartedEvent and a FinishedEvent.
func publishBatch(ctx context.Context, e *env, broker pubsub.Publisher[runReport], paths []string) error {
	if err := broker.PublishWait(ctx, pubsub.StartedEvent, runReport{}); err != nil {
		return err
	}

	var done runReport
	scenarios, err := scenario.LoadPaths(paths)
	if err != nil {
		done.Failed++
		if err := broker.PublishWait(ctx, pubsub.ErrorEvent, runReport{Err: err}); err != nil {
			return err
		}
	}
	for _, sc := range scenarios {
		res, err := scenario.Run(ctx, sc, e.scenarioOptions(true)...)
		report := runReport{Name: sc.DisplayName(), Result: res, Err: err}
		eventType := pubsub.ResultEvent
		switch {
		case err != nil:
			eventType = pubsub.ErrorEvent
			done.Failed++
		case res.Passed():
			done.Passed++
		default:
			done.Failed++
		}
		if err := broker.PublishWait(ctx, eventType, report); err != nil {
			return err
		}
	}
	return broker.PublishWait(ctx, pubsub.FinishedEvent, done)
}

// reporter writes watch-mode events as they arrive.
func reporter(f *presentation.Formatter) func(pubsub.Event[runReport]) {
	return func(ev pubsub.Event[runReport]) {
		var err error
		switch ev.Type {
		case pubsub.StartedEvent:
			log.Debug(log.CatScenario, "Batch started")
		case pubsub.ResultEvent:
			err = f.FormatResult(presentation.FromResult(ev.Payload.Result))
		case pubsub.ErrorEvent:
			name := ev.Payload.Name
			if name == "" {
				name = "scenarios"
			}
			err = f.FormatError(name, ev.Payload.Err)
		case pubsub.FinishedEvent:
			err = f.FormatSummary(ev.Payload.Passed, ev.Payload.Failed)
		}
		if err != nil {
			log.ErrorErr(log.CatScenario, "Writing report failed", err)
		}
	}
}

func watchScenarios(ctx context.Context, e *env, f *presentation.Formatter, paths []string) error {
	w, err := watcher.New(watcher.Config{
		Paths:       paths,
		DebounceDur: cfg.Watch.Debounce,
		Match:       scenario.IsScenarioFile,
	})
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	defer func() { _ = w.Stop() }()

	if cfg.Metrics.ListenAddr != "" {
		srv, err := serveMetrics(e, cfg.Metrics.ListenAddr)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Close() }()
	}

	broker := pubsub.NewBroker[runReport]()
	defer broker.Close()

	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	reported := make(chan struct{})
	sub := broker.Subscribe(listenCtx)
	go func() {
		defer close(reported)
		_ = pubsub.Listen(listenCtx, sub, reporter(f))
	}()

	return watchLoop(ctx, changes, func() error {
		return publishBatch(ctx, e, broker, paths)
	}, func() {
		cancel()
		<-reported
	})
}

// watchLoop runs batch once and again after every change until ctx is done,
// then calls stop.
func watchLoop(ctx context.Context, changes <-chan []string, batch func() error, stop func()) error {
	defer stop()
	if err := batch(); err != nil && ctx.Err() == nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-changes:
			if !ok {
				return nil
			}
			log.Info(log.CatWatcher, "Scenario files changed", "paths", changed)
			if err := batch(); err != nil && ctx.Err() == nil {
				return err
			}
		}
	}
}

func serveMetrics(e *env, addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening for metrics on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorErr(log.CatScenario, "Metrics server stopped", err)
		}
	}()
	log.Info(log.CatConfig, "Serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
