// Package config is the explicit, injectable configuration value passed
// into a check — no package-level globals, so a worker pool (§5) can
// hand each worker its own Config without risk of one worker's flags
// leaking into another's.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tri is a three-state knob: enabled, disabled, or "leave current state"
// (the grouping/pruning toggles' None per §6). The zero value is Unset,
// matching the safest default — a caller must opt into a concrete state.
type Tri int

const (
	Unset Tri = iota
	Enabled
	Disabled
)

func (t Tri) String() string {
	switch t {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	default:
		return "unset"
	}
}

func (t *Tri) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "true", "enabled":
		*t = Enabled
	case "false", "disabled":
		*t = Disabled
	case "", "unset", "none":
		*t = Unset
	default:
		return fmt.Errorf("config: unrecognized tri-state value %q", s)
	}
	return nil
}

func (t Tri) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// Config is every knob a single `check` invocation needs, mirroring the
// parameters threaded through Controller.check in the original: which
// optimizations to apply, the checker's wall-clock budget, and whether
// to request bounded model checking.
type Config struct {
	Custom   Tri           `yaml:"custom"`
	Grouping Tri           `yaml:"grouping"`
	Pruning  Tri           `yaml:"pruning"`
	Timeout  time.Duration `yaml:"timeout"`
	BMC      bool          `yaml:"bmc"`

	CheckerPath string `yaml:"checkerPath"`
}

// Default returns the conservative baseline: every optimization off, a
// generous timeout, no bounded model checking.
func Default() Config {
	return Config{
		Custom:      Disabled,
		Grouping:    Disabled,
		Pruning:     Disabled,
		Timeout:     5 * time.Minute,
		BMC:         false,
		CheckerPath: "NuSMV",
	}
}

// Load reads a YAML configuration file, starting from Default() so any
// field the file omits keeps its conservative value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
