package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"agentdeck/internal/activity"
)

// PipelineModel renders the consolidated agent activity of the current run
// as a side panel. It holds no activity state of its own; callers pass the
// freshly consolidated view on every render.
type PipelineModel struct {
	Spinner spinner.Model
	Width   int
	Height  int
	Styles  Styles
}

// NewPipelineModel creates the pipeline panel
func NewPipelineModel(styles Styles) PipelineModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.PipelineRunning
	return PipelineModel{
		Spinner: sp,
		Width:   36,
		Styles:  styles,
	}
}

// SetStyles swaps the style set after a theme change
func (p *PipelineModel) SetStyles(styles Styles) {
	p.Styles = styles
	p.Spinner.Style = styles.PipelineRunning
}

// Tick returns the command that starts the spinner animation.
func (p PipelineModel) Tick() tea.Cmd {
	return p.Spinner.Tick
}

// Update advances the spinner. The returned command keeps it ticking only
// while something is running.
func (p PipelineModel) Update(msg spinner.TickMsg, view activity.View) (PipelineModel, tea.Cmd) {
	var cmd tea.Cmd
	p.Spinner, cmd = p.Spinner.Update(msg)
	if view.Current == nil {
		cmd = nil
	}
	return p, cmd
}

// TotalWidth is the horizontal space the panel takes for view, zero when
// there is nothing to show.
func (p PipelineModel) TotalWidth(view activity.View) int {
	if view.IsEmpty() {
		return 0
	}
	return p.Width + 3 // border + padding
}

// View renders view. An empty view renders nothing at all.
func (p PipelineModel) View(view activity.View) string {
	if view.IsEmpty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(p.Styles.PipelineTitle.Render("Pipeline"))
	sb.WriteString("\n")

	textWidth := p.Width - 4
	for _, e := range view.Completed {
		line := p.Styles.PipelineCompleted.Render("✓ " + e.Agent.DisplayName())
		sb.WriteString(line + "\n")
		if e.Message != "" {
			sb.WriteString(p.Styles.PipelineMessage.Render("  "+truncate(e.Message, textWidth)) + "\n")
		}
	}
	if view.Current != nil {
		line := p.Spinner.View() + " " + p.Styles.PipelineRunning.Render(view.Current.Agent.DisplayName())
		sb.WriteString(line + "\n")
		if view.Current.Message != "" {
			sb.WriteString(p.Styles.PipelineMessage.Render("  "+truncate(view.Current.Message, textWidth)) + "\n")
		}
	}

	return p.Styles.PipelineBorder.
		Width(p.Width).
		Height(p.Height).
		Render(sb.String())
}

// RenderPlain renders view without styling, one line per entry, for logs
// and the replay command. Completed entries come first in first-seen
// order, followed by the running entry if any.
func RenderPlain(view activity.View) []string {
	lines := make([]string, 0, len(view.Completed)+1)
	for _, e := range view.Completed {
		lines = append(lines, plainLine("[x]", e))
	}
	if view.Current != nil {
		lines = append(lines, plainLine("[>]", *view.Current))
	}
	return lines
}

func plainLine(marker string, e activity.Event) string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s", marker, e.Agent.DisplayName())
	}
	return fmt.Sprintf("%s %s: %s", marker, e.Agent.DisplayName(), e.Message)
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
