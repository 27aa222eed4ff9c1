package transfer

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables for an Engine. The zero value is not valid;
// use DefaultConfig and override fields, or apply Options to New.
type Config struct {
	// CommandBufferCount is the size of the command-buffer/fence
	// rotation (N). It bounds how many transfers may be inflight on the
	// GPU at once; additional submissions queue until a slot frees up.
	CommandBufferCount int `yaml:"command_buffer_count"`

	// QueueDepth is the initial capacity of the bounded request queue.
	// The queue grows past this under sustained backlog (see
	// requestqueue.go), so this is a sizing hint, not a hard cap.
	QueueDepth int `yaml:"queue_depth"`

	// HandlePoolInitialCapacity is the initial number of handle slots
	// preallocated at Init. The pool grows on demand past this.
	HandlePoolInitialCapacity int `yaml:"handle_pool_initial_capacity"`

	// ShutdownDrainTimeoutMS bounds how long Shutdown waits for the GPU
	// to go idle before giving up on a graceful fence wait. Zero means
	// no bound (wait indefinitely).
	ShutdownDrainTimeoutMS int `yaml:"shutdown_drain_timeout_ms"`

	// logger is not YAML-configurable; it is set via WithLogger and left
	// nil otherwise, in which case New installs the default logger.
	logger Logger
}

// DefaultConfig returns the engine's baseline tuning. The rotation size,
// queue depth and handle-pool capacity mirror the sizes the reference C
// implementation ships: a handful of inflight command buffers is enough
// to keep a single transfer queue saturated without over-committing GPU
// memory to idle rotation slots.
func DefaultConfig() Config {
	return Config{
		CommandBufferCount:        5,
		QueueDepth:                100,
		HandlePoolInitialCapacity: 50,
		ShutdownDrainTimeoutMS:    5000,
	}
}

// LoadConfig reads a YAML-encoded Config from path. Any field absent from
// the file keeps DefaultConfig's value; a field set explicitly (including
// to zero) takes the file's value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "transfer: read config %q", path)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "transfer: parse config %q", path)
	}

	return cfg, validateConfig(cfg)
}

func validateConfig(cfg Config) error {
	if cfg.CommandBufferCount < 1 {
		return errors.Errorf("transfer: command_buffer_count must be >= 1, got %d", cfg.CommandBufferCount)
	}
	if cfg.QueueDepth < 1 {
		return errors.Errorf("transfer: queue_depth must be >= 1, got %d", cfg.QueueDepth)
	}
	if cfg.HandlePoolInitialCapacity < 1 {
		return errors.Errorf("transfer: handle_pool_initial_capacity must be >= 1, got %d", cfg.HandlePoolInitialCapacity)
	}
	return nil
}

// Option mutates a Config at Engine construction time.
type Option func(*Config)

// WithCommandBufferCount overrides the rotation size.
func WithCommandBufferCount(n int) Option {
	return func(c *Config) { c.CommandBufferCount = n }
}

// WithQueueDepth overrides the request queue's initial capacity.
func WithQueueDepth(n int) Option {
	return func(c *Config) { c.QueueDepth = n }
}

// WithHandlePoolInitialCapacity overrides the handle pool's initial size.
func WithHandlePoolInitialCapacity(n int) Option {
	return func(c *Config) { c.HandlePoolInitialCapacity = n }
}

// WithShutdownDrainTimeout overrides how long Shutdown waits for the GPU
// to idle, in milliseconds. Zero disables the bound.
func WithShutdownDrainTimeout(ms int) Option {
	return func(c *Config) { c.ShutdownDrainTimeoutMS = ms }
}

// WithLogger overrides the engine's logger.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.logger = l }
}
