package encoder

import (
	"github.com/pion/logging"

	"github.com/thesyncim/hwenc/pkg/metrics"
)

// Option configures a Session at creation.
type Option func(*options)

type options struct {
	loggerFactory logging.LoggerFactory
	stats         *metrics.Stats
	engineFactory EngineFactory
}

func defaultOptions() options {
	return options{
		loggerFactory: logging.NewDefaultLoggerFactory(),
		engineFactory: NewAMFEngine,
	}
}

// WithLoggerFactory sets the factory session loggers are created from.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(o *options) {
		if f != nil {
			o.loggerFactory = f
		}
	}
}

// WithStats makes the session record its counters into s.
func WithStats(s *metrics.Stats) Option {
	return func(o *options) {
		o.stats = s
	}
}

// WithEngineFactory replaces the libavcodec engine, e.g. with a software
// stand-in for tests.
func WithEngineFactory(f EngineFactory) Option {
	return func(o *options) {
		if f != nil {
			o.engineFactory = f
		}
	}
}
