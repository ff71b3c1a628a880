// Package plan loads YAML step plans: ordered lists of labeled commands
// that the runner executes one at a time, aborting on the first failure.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step is one supervised command in a plan.
type Step struct {
	Label        string   `yaml:"label"`
	Command      []string `yaml:"command"`
	AllowFailure bool     `yaml:"allow_failure"`
}

// Plan is an ordered sequence of steps with an optional display name.
type Plan struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(data)
}

// Parse validates a plan document.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}
	for i, step := range p.Steps {
		if len(step.Command) == 0 || step.Command[0] == "" {
			return nil, fmt.Errorf("step %d (%q): no command", i+1, step.Label)
		}
		if step.Label == "" {
			p.Steps[i].Label = step.Command[0]
		}
	}
	return &p, nil
}
