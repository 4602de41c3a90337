package activity

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

func TestConsolidationFeatures(t *testing.T) {
	options := godog.Options{
		Format:    "progress",
		Paths:     []string{filepath.Join("testdata", "consolidation.feature")},
		Output:    io.Discard,
		TestingT:  t,
		Randomize: 0,
	}

	suite := godog.TestSuite{
		Name:                "activity-consolidation",
		ScenarioInitializer: initializeConsolidationScenario,
		Options:             &options,
	}

	if suite.Run() != 0 {
		t.Fatalf("consolidation features failed")
	}
}

type consolidationState struct {
	tracker *Tracker
}

func initializeConsolidationScenario(ctx *godog.ScenarioContext) {
	state := &consolidationState{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		state.tracker = NewTracker()
		return ctx, nil
	})

	ctx.Step(`^a new run$`, state.aNewRun)
	ctx.Step(`^the (\w+) agent is (running|completed) with "([^"]*)"$`, state.agentReports)
	ctx.Step(`^the (\w+) agent is (running|completed)$`, state.agentReportsSilently)
	ctx.Step(`^the stream closes$`, state.theStreamCloses)
	ctx.Step(`^no agent is highlighted$`, state.noAgentIsHighlighted)
	ctx.Step(`^the highlighted agent is (\w+) with "([^"]*)"$`, state.theHighlightedAgentIs)
	ctx.Step(`^the completed agents are "([^"]*)"$`, state.theCompletedAgentsAre)
	ctx.Step(`^(\w+) is completed with "([^"]*)"$`, state.agentIsCompletedWith)
}

func (s *consolidationState) aNewRun() error {
	s.tracker.StartRun("feature-run")
	return nil
}

func (s *consolidationState) agentReports(agentName, statusName, message string) error {
	agent, err := ParseAgent(agentName)
	if err != nil {
		return err
	}
	status, err := ParseStatus(statusName)
	if err != nil {
		return err
	}
	s.tracker.Append(Event{Agent: agent, Status: status, Message: message})
	return nil
}

func (s *consolidationState) agentReportsSilently(agentName, statusName string) error {
	return s.agentReports(agentName, statusName, "")
}

func (s *consolidationState) theStreamCloses() error {
	s.tracker.Close()
	return nil
}

func (s *consolidationState) noAgentIsHighlighted() error {
	if current := s.tracker.View().Current; current != nil {
		return fmt.Errorf("expected no highlighted agent, got %s (%q)", current.Agent, current.Message)
	}
	return nil
}

func (s *consolidationState) theHighlightedAgentIs(agentName, message string) error {
	current := s.tracker.View().Current
	if current == nil {
		return fmt.Errorf("expected %s to be highlighted, got nothing", agentName)
	}
	if current.Agent.String() != agentName || current.Message != message {
		return fmt.Errorf("expected %s (%q), got %s (%q)", agentName, message, current.Agent, current.Message)
	}
	return nil
}

func (s *consolidationState) theCompletedAgentsAre(list string) error {
	var want []string
	if list != "" {
		want = strings.Split(list, ",")
	}
	var got []string
	for _, e := range s.tracker.View().Completed {
		got = append(got, e.Agent.String())
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected completed agents %v, got %v", want, got)
	}
	return nil
}

func (s *consolidationState) agentIsCompletedWith(agentName, message string) error {
	agent, err := ParseAgent(agentName)
	if err != nil {
		return err
	}
	e, ok := s.tracker.View().CompletedFor(agent)
	if !ok {
		return fmt.Errorf("%s is not completed", agentName)
	}
	if e.Message != message {
		return fmt.Errorf("%s completed with %q, want %q", agentName, e.Message, message)
	}
	return nil
}
