package activity

import (
	"errors"
	"fmt"
	"strings"
)

// Agent identifies the pipeline role that produced an activity event.
type Agent int

const (
	AgentCoordinator Agent = iota + 1
	AgentPromptRewriter
	AgentExecutor
	AgentQualityChecker
	AgentSummarizer
	AgentResponder
)

var (
	// ErrUnknownAgent is returned when a wire name does not map to a known role.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrUnknownStatus is returned when a wire status is neither running nor completed.
	ErrUnknownStatus = errors.New("unknown status")
)

var agentNames = map[Agent]string{
	AgentCoordinator:    "coordinator",
	AgentPromptRewriter: "prompt_rewriter",
	AgentExecutor:       "executor",
	AgentQualityChecker: "quality_checker",
	AgentSummarizer:     "summarizer",
	AgentResponder:      "responder",
}

var agentDisplayNames = map[Agent]string{
	AgentCoordinator:    "Coordinator",
	AgentPromptRewriter: "Prompt Rewriter",
	AgentExecutor:       "Executor",
	AgentQualityChecker: "Quality Checker",
	AgentSummarizer:     "Summarizer",
	AgentResponder:      "Responder",
}

// agentAliases maps names older gateways still emit.
var agentAliases = map[string]Agent{
	"planner":  AgentCoordinator,
	"rewriter": AgentPromptRewriter,
	"qa":       AgentQualityChecker,
}

// AllAgents returns every known agent in canonical pipeline order.
func AllAgents() []Agent {
	return []Agent{
		AgentCoordinator,
		AgentPromptRewriter,
		AgentExecutor,
		AgentQualityChecker,
		AgentSummarizer,
		AgentResponder,
	}
}

// ParseAgent maps a wire name to an Agent.
func ParseAgent(name string) (Agent, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for agent, wire := range agentNames {
		if wire == key {
			return agent, nil
		}
	}
	if agent, ok := agentAliases[key]; ok {
		return agent, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
}

// Valid reports whether a is one of the known agents.
func (a Agent) Valid() bool {
	_, ok := agentNames[a]
	return ok
}

// String returns the wire name.
func (a Agent) String() string {
	if name, ok := agentNames[a]; ok {
		return name
	}
	return fmt.Sprintf("agent(%d)", int(a))
}

// DisplayName returns the label shown in the pipeline panel.
func (a Agent) DisplayName() string {
	if name, ok := agentDisplayNames[a]; ok {
		return name
	}
	return a.String()
}

// Status is the lifecycle phase of an agent within a run.
type Status int

const (
	StatusRunning Status = iota + 1
	StatusCompleted
)

// ParseStatus maps a wire status to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running", "started", "start":
		return StatusRunning, nil
	case "completed", "complete", "done":
		return StatusCompleted, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}
