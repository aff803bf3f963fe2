package pollpool

import (
	"fmt"
	"os"
	"time"

	"github.com/ygrebnov/errorc"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the option surface for hosts that keep pool settings in
// a YAML file. Durations are Go duration strings ("5m", "1s"). Zero values
// leave the corresponding default untouched.
type FileConfig struct {
	MaxConcurrency int    `yaml:"max_concurrency"`
	IdleInterval   string `yaml:"idle_interval"`
	BusyInterval   string `yaml:"busy_interval"`
	ExitTimeout    string `yaml:"exit_timeout"`
	Disabled       bool   `yaml:"disabled"`
	FixedWorkers   bool   `yaml:"fixed_workers"`
	EventsBuffer   int    `yaml:"events_buffer"`
}

// LoadConfigFile reads a FileConfig from a YAML file.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
	}
	return &fc, nil
}

// Options converts the file settings into pool options. Fields left at their
// zero value produce no option.
func (fc *FileConfig) Options() ([]Option, error) {
	var opts []Option

	if fc.MaxConcurrency != 0 {
		opts = append(opts, WithMaxConcurrency(fc.MaxConcurrency))
	}
	for _, d := range []struct {
		raw   string
		field string
		opt   func(time.Duration) Option
	}{
		{fc.IdleInterval, "idle_interval", WithIdleInterval},
		{fc.BusyInterval, "busy_interval", WithBusyInterval},
		{fc.ExitTimeout, "exit_timeout", WithExitTimeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, errorc.With(ErrInvalidConfig,
				errorc.String(d.field, d.raw))
		}
		opts = append(opts, d.opt(parsed))
	}
	if fc.Disabled {
		opts = append(opts, WithDisabled())
	}
	if fc.FixedWorkers {
		opts = append(opts, WithFixedWorkers())
	}
	if fc.EventsBuffer != 0 {
		opts = append(opts, WithEventsBuffer(fc.EventsBuffer))
	}
	return opts, nil
}
