// Package trace is a small leveled, tagged tracer wrapping logrus. It
// replaces the hierarchical log-type enum of the source implementation
// (parent/child log categories) with a flat "component" tag plus logrus's
// standard levels, configured from the CLI's verbosity flags.
package trace

import (
	"github.com/sirupsen/logrus"
)

// Tracer emits component-tagged trace lines. The zero value is a no-op
// tracer so callers never need a nil check.
type Tracer struct {
	log *logrus.Logger
}

// New wraps an existing logrus logger.
func New(log *logrus.Logger) Tracer {
	return Tracer{log: log}
}

// Nop returns a tracer that discards everything, for callers (such as
// library consumers and most tests) that don't want solver tracing.
func Nop() Tracer {
	log := logrus.New()
	log.SetOutput(discard{})
	return Tracer{log: log}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func (t Tracer) Debugf(component, format string, args ...interface{}) {
	if t.log == nil {
		return
	}
	t.log.WithField("component", component).Debugf(format, args...)
}

func (t Tracer) Infof(component, format string, args ...interface{}) {
	if t.log == nil {
		return
	}
	t.log.WithField("component", component).Infof(format, args...)
}

func (t Tracer) Warnf(component, format string, args ...interface{}) {
	if t.log == nil {
		return
	}
	t.log.WithField("component", component).Warnf(format, args...)
}

func (t Tracer) Errorf(component, format string, args ...interface{}) {
	if t.log == nil {
		return
	}
	t.log.WithField("component", component).Errorf(format, args...)
}
