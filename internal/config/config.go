// Package config loads procrun's settings file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/procrun/procrun/internal/filelock"
	"github.com/procrun/procrun/internal/process"
)

// Duration wraps time.Duration so YAML values like "250ms" parse directly.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a textual duration, accepting empty strings.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// File mirrors the procrun.yaml document structure.
type File struct {
	Runner RunnerConfig `yaml:"runner"`
	Lock   LockConfig   `yaml:"lock"`
	Kill   KillConfig   `yaml:"kill"`
}

// RunnerConfig holds the streaming runner defaults.
type RunnerConfig struct {
	TailLines   int      `yaml:"tail_lines"`
	ReadPoll    Duration `yaml:"read_poll"`
	WaitPoll    Duration `yaml:"wait_poll"`
	JoinTimeout Duration `yaml:"join_timeout"`
	StopGrace   Duration `yaml:"stop_grace"`
	PrefixPID   bool     `yaml:"prefix_pid"`
}

// LockConfig holds the file-lock acquisition defaults.
type LockConfig struct {
	Timeout Duration `yaml:"timeout"`
	Poll    Duration `yaml:"poll"`
}

// KillConfig holds the process-tree termination defaults.
type KillConfig struct {
	Grace Duration `yaml:"grace"`
}

// Default returns the built-in settings.
func Default() File {
	return File{
		Runner: RunnerConfig{
			TailLines:   10,
			ReadPoll:    Duration{100 * time.Millisecond},
			WaitPoll:    Duration{time.Second},
			JoinTimeout: Duration{time.Second},
			StopGrace:   Duration{5 * time.Second},
		},
		Lock: LockConfig{
			Timeout: Duration{filelock.DefaultTimeout},
			Poll:    Duration{filelock.DefaultPoll},
		},
		Kill: KillConfig{
			Grace: Duration{process.DefaultKillGrace},
		},
	}
}

// Load reads settings from path, layering them over the defaults. A
// missing file is not an error; the defaults are returned unchanged.
func Load(path string) (File, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("%s: decode: %w", path, err)
	}
	return cfg, nil
}

// RunnerOptions converts the runner section into process.Options.
func (f File) RunnerOptions() process.Options {
	return process.Options{
		TailLines:   f.Runner.TailLines,
		ReadPoll:    f.Runner.ReadPoll.Duration,
		WaitPoll:    f.Runner.WaitPoll.Duration,
		JoinTimeout: f.Runner.JoinTimeout.Duration,
		StopGrace:   f.Runner.StopGrace.Duration,
		PrefixPID:   f.Runner.PrefixPID,
	}
}
