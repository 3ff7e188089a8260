package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// deviceSpec names one device instance and the channel kind it's an
// instance of, the minimal information needed to compile its catalogue
// and add it to a Controller.
type deviceSpec struct {
	Name    string `yaml:"name"`
	Channel string `yaml:"channel"`
}

// scenario is the device manifest: every device instance a check's
// rules and policy may reference.
type scenario struct {
	Devices []deviceSpec `yaml:"devices"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	var s scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: parse %s: %w", path, err)
	}
	if len(s.Devices) == 0 {
		return nil, fmt.Errorf("scenario: %s declares no devices", path)
	}
	return &s, nil
}

// channels returns the distinct channel kinds the scenario references,
// so the caller knows which catalogue JSON files it needs to load.
func (s *scenario) channels() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range s.Devices {
		if !seen[d.Channel] {
			seen[d.Channel] = true
			out = append(out, d.Channel)
		}
	}
	return out
}

// devicesByChannel groups device names by the channel kind they
// instantiate, used to resolve a rules-corpus row's channel references
// to concrete device names.
func (s *scenario) devicesByChannel() map[string][]string {
	out := map[string][]string{}
	for _, d := range s.Devices {
		out[d.Channel] = append(out[d.Channel], d.Name)
	}
	return out
}
