// Package telemetry provides the logging and metrics primitives shared by
// the disk and spatialindex packages: a single package-level default
// zap logger plus a Named constructor, mirroring zycbobby-tile38's
// controller/log.go convention of a package-level default logger with an
// explicit constructor for callers that want a scoped one, but backed by
// go.uber.org/zap instead of a hand-rolled logger, plus a small
// prometheus registration helper.
//
// Grounded on sushant-115-gojodb/pkg/logger/logger.go's zap setup and on
// its Prometheus exporter usage elsewhere in that repo.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Logger is a thin alias so callers depend on this package, not directly
// on zap's import path, for their logging type.
type Logger = zap.SugaredLogger

var (
	base    *zap.Logger
	baseErr error
	once    sync.Once
)

func defaultLogger() *zap.Logger {
	once.Do(func() {
		base, baseErr = zap.NewProduction()
		if baseErr != nil {
			base = zap.NewNop()
		}
	})
	return base
}

// Named returns a SugaredLogger scoped to name, e.g. "disk" or
// "spatialindex". Safe to call before any explicit configuration; it
// lazily builds a production zap.Logger on first use.
func Named(name string) *Logger {
	return defaultLogger().Named(name).Sugar()
}

// SetLogger replaces the package-level base logger, for hosts that want
// their own zap configuration (level, encoding, output) instead of the
// lazy production default.
func SetLogger(l *zap.Logger) {
	once.Do(func() {})
	base = l
}

var registry = prometheus.NewRegistry()

// Registry returns the shared Urbis collector registry, for a host process
// to expose via an HTTP handler.
func Registry() *prometheus.Registry {
	return registry
}

// MustRegisterCounter registers (or, on a duplicate name, reuses) a
// prometheus.Counter with the given name and help text against the shared
// registry.
func MustRegisterCounter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	if err := registry.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

// MustRegisterGauge registers (or reuses) a prometheus.Gauge by name.
func MustRegisterGauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	if err := registry.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge)
		}
		panic(err)
	}
	return g
}
