package watcher

import (
	"fmt"
	"log"
	"sync"

	"github.com/vanderheijden86/reliefplan/pkg/config"
	"github.com/vanderheijden86/reliefplan/pkg/debug"
)

// ConfigReloader re-reads a config file whenever it changes and hands each
// valid result to apply. Invalid edits are logged and skipped, so the last
// good config stays in effect.
type ConfigReloader struct {
	path   string
	apply  func(config.Config)
	logger *log.Logger
	w      *Watcher

	mu      sync.Mutex
	current config.Config
}

// NewConfigReloader watches path. initial is the config already in use.
func NewConfigReloader(path string, initial config.Config, apply func(config.Config), logger *log.Logger, opts ...Option) (*ConfigReloader, error) {
	if logger == nil {
		logger = log.Default()
	}
	r := &ConfigReloader{path: path, apply: apply, logger: logger, current: initial}
	opts = append(opts,
		WithOnChange(r.reload),
		WithOnError(func(err error) { logger.Printf("config watch %s: %v", path, err) }),
	)
	w, err := New(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	r.w = w
	return r, nil
}

// Start begins watching.
func (r *ConfigReloader) Start() error {
	if err := r.w.Start(); err != nil {
		return err
	}
	debug.Log("config reloader: watching %s (polling=%v, fs=%s)", r.w.Path(), r.w.IsPolling(), r.w.FilesystemType())
	return nil
}

// Stop ends watching.
func (r *ConfigReloader) Stop() {
	r.w.Stop()
}

// Current returns the config most recently applied.
func (r *ConfigReloader) Current() config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *ConfigReloader) reload() {
	cfg, err := config.LoadFrom(r.path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		r.logger.Printf("config reload %s: %v (keeping previous config)", r.path, err)
		return
	}

	r.mu.Lock()
	r.current = cfg
	r.mu.Unlock()

	r.logger.Printf("config reloaded from %s", r.path)
	r.apply(cfg)
}
