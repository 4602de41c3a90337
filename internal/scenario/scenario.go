// Package scenario loads scripted pipeline runs used by the demo gateway
// and the replay command.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"agentdeck/internal/activity"
)

// Step is one scripted agent event.
type Step struct {
	Agent   string        `yaml:"agent"`
	Status  string        `yaml:"status"`
	Message string        `yaml:"message,omitempty"`
	Delay   time.Duration `yaml:"delay,omitempty"` // wait before emitting
}

// Event converts the step to an activity event.
func (s Step) Event() (activity.Event, error) {
	agent, err := activity.ParseAgent(s.Agent)
	if err != nil {
		return activity.Event{}, err
	}
	status, err := activity.ParseStatus(s.Status)
	if err != nil {
		return activity.Event{}, err
	}
	return activity.Event{Agent: agent, Status: status, Message: s.Message}, nil
}

// Scenario is a full scripted run.
type Scenario struct {
	Name  string `yaml:"name"`
	Reply string `yaml:"reply,omitempty"`
	Model string `yaml:"model,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Events converts every step. Validate must have passed.
func (s *Scenario) Events() []activity.Event {
	out := make([]activity.Event, 0, len(s.Steps))
	for _, step := range s.Steps {
		e, err := step.Event()
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Validate checks every step.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("scenario name is required")
	}
	for i, step := range s.Steps {
		if _, err := step.Event(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Delay < 0 {
			return fmt.Errorf("step %d: negative delay %s", i+1, step.Delay)
		}
	}
	return nil
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	return &s, nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Default is the built-in scenario: a full pipeline pass that includes a
// duplicated completion and a late running event from the quality checker.
func Default() *Scenario {
	const pause = 400 * time.Millisecond
	return &Scenario{
		Name:  "default",
		Model: "demo",
		Reply: "Here is what the pipeline came up with. The plan was rewritten, executed, checked and summarized.",
		Steps: []Step{
			{Agent: "coordinator", Status: "running", Message: "planning", Delay: pause},
			{Agent: "coordinator", Status: "completed", Message: "plan ready", Delay: pause},
			{Agent: "prompt_rewriter", Status: "running", Message: "tightening the prompt", Delay: pause},
			{Agent: "prompt_rewriter", Status: "completed", Delay: pause},
			{Agent: "executor", Status: "running", Message: "step 1 of 2", Delay: pause},
			{Agent: "executor", Status: "running", Message: "step 2 of 2", Delay: pause},
			{Agent: "executor", Status: "completed", Message: "2 steps done", Delay: pause},
			{Agent: "quality_checker", Status: "running", Message: "reviewing", Delay: pause},
			{Agent: "quality_checker", Status: "completed", Message: "pass", Delay: pause},
			{Agent: "quality_checker", Status: "completed", Message: "pass"},
			{Agent: "quality_checker", Status: "running", Message: "re-checking", Delay: pause},
			{Agent: "summarizer", Status: "running", Message: "summarizing", Delay: pause},
			{Agent: "summarizer", Status: "completed", Delay: pause},
			{Agent: "responder", Status: "running", Message: "writing reply", Delay: pause},
			{Agent: "responder", Status: "completed", Delay: pause},
		},
	}
}
