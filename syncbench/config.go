//go:build !solution

package syncbench

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Виды сценариев.
const (
	KindMutex     = "mutex"
	KindSemaphore = "semaphore"
	KindLatch     = "latch"
	KindRWMutex   = "rwmutex"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Config is the scenario file.
type Config struct {
	// Listen is the address of the metrics endpoint; empty disables it.
	Listen    string     `yaml:"listen"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario describes one stress run.
type Scenario struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"`
	Goroutines int           `yaml:"goroutines"`
	Iterations int           `yaml:"iterations"`
	Fair       bool          `yaml:"fair"`
	Hold       time.Duration `yaml:"hold"`
	Timeout    time.Duration `yaml:"timeout"`

	// Permits is the semaphore size.
	Permits int64 `yaml:"permits"`
	// Writers is the number of writer goroutines of an rwmutex scenario.
	Writers int `yaml:"writers"`
	// Waiters is the number of goroutines awaiting a latch.
	Waiters int `yaml:"waiters"`
}

// LoadConfig загружает сценарии из YAML файла
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if len(data) == 0 {
		return &config, nil
	}

	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range config.Scenarios {
		if err := config.Scenarios[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// Validate fills defaults and checks the scenario.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		s.Name = s.Kind
	}
	if s.Iterations == 0 {
		s.Iterations = 1
	}

	switch {
	case s.Goroutines <= 0:
		return fmt.Errorf("%w %q: goroutines must be positive", ErrInvalidScenario, s.Name)
	case s.Iterations < 0:
		return fmt.Errorf("%w %q: iterations must not be negative", ErrInvalidScenario, s.Name)
	case s.Hold < 0 || s.Timeout < 0:
		return fmt.Errorf("%w %q: durations must not be negative", ErrInvalidScenario, s.Name)
	}

	switch s.Kind {
	case KindMutex, KindLatch:
	case KindSemaphore:
		if s.Permits <= 0 {
			return fmt.Errorf("%w %q: permits must be positive", ErrInvalidScenario, s.Name)
		}
	case KindRWMutex:
		if s.Writers < 0 || s.Writers > s.Goroutines {
			return fmt.Errorf("%w %q: writers must be within [0, goroutines]", ErrInvalidScenario, s.Name)
		}
	default:
		return fmt.Errorf("%w %q: unknown kind %q", ErrInvalidScenario, s.Name, s.Kind)
	}
	return nil
}
