package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/zjrosen/dispatchy/internal/cachemanager"
	"github.com/zjrosen/dispatchy/internal/config"
	"github.com/zjrosen/dispatchy/internal/dispatch"
	"github.com/zjrosen/dispatchy/internal/flags"
	"github.com/zjrosen/dispatchy/internal/log"
	"github.com/zjrosen/dispatchy/internal/metrics"
	"github.com/zjrosen/dispatchy/internal/presentation"
	"github.com/zjrosen/dispatchy/internal/scenario"
	"github.com/zjrosen/dispatchy/internal/tracing"
)

var _ dispatch.ParseCache = (*cachemanager.InMemoryCacheManager[string, []dispatch.Spec])(nil)

// env holds the services shared by every dispatcher a command creates.
type env struct {
	provider  *tracing.Provider
	collector *metrics.Collector
	cache     *cachemanager.InMemoryCacheManager[string, []dispatch.Spec]
	cacheTTL  time.Duration
	flags     *flags.Registry
}

func newEnv(c config.Config) (*env, error) {
	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	e := &env{
		provider:  provider,
		collector: metrics.NewCollector(),
		flags:     flags.New(c.Flags),
	}
	if c.Cache.Enabled {
		e.cache = cachemanager.NewInMemoryCacheManager[string, []dispatch.Spec](
			"parse", c.Cache.TTL, c.Cache.CleanupInterval)
		e.cacheTTL = c.Cache.TTL
	}
	return e, nil
}

// baseOptions wires tracing, metrics and the parse cache, ignoring feature
// flags.
func (e *env) baseOptions() []dispatch.Option {
	opts := []dispatch.Option{
		dispatch.WithTracer(e.provider.Tracer()),
		dispatch.WithObserver(e.collector),
	}
	if e.cache != nil {
		opts = append(opts, dispatch.WithParseCache(e.cache, e.cacheTTL))
	}
	return opts
}

// dispatchOptions is baseOptions plus the options enabled by feature flags.
func (e *env) dispatchOptions() []dispatch.Option {
	return append(e.baseOptions(), e.flags.DispatchOptions()...)
}

func (e *env) scenarioOptions(withFlags bool) []scenario.Option {
	opts := e.baseOptions()
	if withFlags {
		opts = e.dispatchOptions()
	}
	return []scenario.Option{
		scenario.WithDispatchOptions(opts...),
		scenario.WithTracer(e.provider.Tracer()),
	}
}

// printMetrics writes the collector's samples and, when the parse cache is
// on, its hit counts.
func (e *env) printMetrics(f *presentation.Formatter, w io.Writer) error {
	samples, err := e.collector.Snapshot()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	if err := f.FormatMetrics(presentation.FromSamples(samples)); err != nil {
		return err
	}
	if e.cache != nil && !f.JSON() {
		stats := e.cache.Stats()
		_, err = fmt.Fprintf(w, "  parse cache: %d hits, %d misses, %d items\n", stats.Hits, stats.Misses, stats.Items)
	}
	return err
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.provider.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "Tracer shutdown failed", err)
	}
}
