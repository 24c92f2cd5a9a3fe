package ml

import (
	"github.com/drakos74/free-ml/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures a trainer.
type Option func(c *config)

type config struct {
	run      string
	name     string
	registry storage.Registry
	logger   zerolog.Logger
}

func newConfig(kind string, opts ...Option) config {
	c := config{
		run:      uuid.New().String(),
		name:     kind,
		registry: storage.NewVoidRegistry(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = c.logger.With().
		Str("trainer", c.name).
		Str("kind", kind).
		Str("run", c.run).
		Logger()
	return c
}

// WithName names the trainer in logs, metrics and storage keys.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithRegistry appends an event to the given registry for every completed round.
func WithRegistry(registry storage.Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithLogger overrides the global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRun sets the run id, instead of a random one.
func WithRun(run string) Option {
	return func(c *config) {
		c.run = run
	}
}

// RoundEvent is the event log entry for a completed round.
type RoundEvent struct {
	Run      string  `json:"run"`
	Round    int     `json:"round"`
	Duration float64 `json:"duration"`
	Movement float64 `json:"movement,omitempty"`
	Norm     float64 `json:"norm,omitempty"`
}

func (c config) key(kind string) storage.K {
	return storage.K{
		Pair:  c.name,
		Label: kind,
	}
}
