package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
)

// ChatBubble represents a single transcript entry
type ChatBubble struct {
	Role      string // "user", "assistant", "system"
	Content   string
	Timestamp time.Time
}

// ChatViewModel manages the transcript viewport
type ChatViewModel struct {
	Messages      []ChatBubble
	Viewport      viewport.Model
	Width         int
	Height        int
	Streaming     bool
	StreamBuf     strings.Builder
	Styles        Styles
	AssistantName string
	UserName      string
	Location      *time.Location
	ThinkingFrame int
}

// NewChatViewModel creates a new chat view
func NewChatViewModel(styles Styles, assistantName string, location *time.Location) ChatViewModel {
	vp := viewport.New(80, 20)
	vp.SetContent("")
	if assistantName == "" {
		assistantName = "Assistant"
	}
	return ChatViewModel{
		Viewport:      vp,
		Styles:        styles,
		AssistantName: assistantName,
		Location:      location,
	}
}

// SetSize updates the viewport dimensions
func (c *ChatViewModel) SetSize(width, height int) {
	c.Width = width
	c.Height = height
	c.Viewport.Width = width
	c.Viewport.Height = height
	c.refreshContent()
}

// SetStyles swaps the style set after a theme change
func (c *ChatViewModel) SetStyles(styles Styles) {
	c.Styles = styles
	c.refreshContent()
}

// AddMessage adds a complete message to the transcript
func (c *ChatViewModel) AddMessage(role, content string) {
	c.Messages = append(c.Messages, ChatBubble{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// StartStreaming begins a streaming reply
func (c *ChatViewModel) StartStreaming() {
	c.Streaming = true
	c.StreamBuf.Reset()
	c.ThinkingFrame = 0
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// AppendDelta appends streamed text to the current reply
func (c *ChatViewModel) AppendDelta(delta string) {
	c.StreamBuf.WriteString(delta)
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// EndStreaming finalizes the streaming reply. An empty finalContent keeps
// whatever was streamed so far, which is what an aborted run leaves.
func (c *ChatViewModel) EndStreaming(finalContent string) {
	content := finalContent
	if content == "" {
		content = c.StreamBuf.String()
	}
	c.Streaming = false
	if content != "" {
		c.Messages = append(c.Messages, ChatBubble{
			Role:      "assistant",
			Content:   content,
			Timestamp: time.Now(),
		})
	}
	c.StreamBuf.Reset()
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// ThinkingTick advances the scanner animation by one frame.
func (c *ChatViewModel) ThinkingTick() {
	c.ThinkingFrame++
	c.refreshContent()
	c.Viewport.GotoBottom()
}

// renderKITTBar renders a bouncing scanner bar for the thinking indicator.
func (c *ChatViewModel) renderKITTBar() string {
	const trackWidth = 16
	const barWidth = 3

	maxPos := trackWidth - barWidth
	cycle := 2 * maxPos
	pos := c.ThinkingFrame % cycle
	if pos > maxPos {
		pos = cycle - pos
	}

	label := c.Styles.Muted.Render(fmt.Sprintf("  %s is thinking  ", c.AssistantName))

	var track strings.Builder
	track.WriteString(c.Styles.ThinkingTrack.Render("["))
	for i := 0; i < trackWidth; i++ {
		if i >= pos && i < pos+barWidth {
			track.WriteString(c.Styles.ThinkingBar.Render("="))
		} else {
			track.WriteString(c.Styles.ThinkingTrack.Render(" "))
		}
	}
	track.WriteString(c.Styles.ThinkingTrack.Render("]"))

	return label + track.String()
}

// SetAssistantName updates the displayed assistant name
func (c *ChatViewModel) SetAssistantName(name string) {
	c.AssistantName = name
	c.refreshContent()
}

// SetUserName updates the displayed user name
func (c *ChatViewModel) SetUserName(name string) {
	c.UserName = name
	c.refreshContent()
}

func (c *ChatViewModel) formatTimestamp(t time.Time) string {
	if c.Location != nil {
		return t.In(c.Location).Format("15:04")
	}
	return t.Format("15:04")
}

// refreshContent rebuilds the viewport content from messages
func (c *ChatViewModel) refreshContent() {
	var sb strings.Builder
	maxWidth := c.Width - 6
	if maxWidth < 20 {
		maxWidth = 20
	}

	for i, msg := range c.Messages {
		if i > 0 {
			sb.WriteString(c.Styles.Divider.Render(strings.Repeat("─", maxWidth)))
			sb.WriteString("\n")
		}
		sb.WriteString(c.renderMessage(msg, maxWidth))
		sb.WriteString("\n")
	}

	if c.Streaming {
		if streamed := c.StreamBuf.String(); streamed != "" {
			sb.WriteString(c.Styles.AssistantLabel.Render(c.AssistantName) + "\n")
			sb.WriteString(c.Styles.AssistantBubble.Render(wrapText(streamed, maxWidth)))
			sb.WriteString(" _\n")
		} else {
			sb.WriteString(c.renderKITTBar() + "\n")
		}
	}

	c.Viewport.SetContent(sb.String())
}

func (c *ChatViewModel) renderMessage(msg ChatBubble, maxWidth int) string {
	var sb strings.Builder

	switch msg.Role {
	case "user":
		name := c.UserName
		if name == "" {
			name = "You"
		}
		ts := c.Styles.Muted.Render(c.formatTimestamp(msg.Timestamp))
		sb.WriteString(fmt.Sprintf("%s %s\n", c.Styles.UserLabel.Render(name), ts))
		sb.WriteString(c.Styles.UserBubble.Render(wrapText(msg.Content, maxWidth)))

	case "assistant":
		ts := c.Styles.Muted.Render(c.formatTimestamp(msg.Timestamp))
		sb.WriteString(fmt.Sprintf("%s %s\n", c.Styles.AssistantLabel.Render(c.AssistantName), ts))
		sb.WriteString(c.Styles.AssistantBubble.Render(wrapText(msg.Content, maxWidth)))

	case "system":
		sb.WriteString(c.Styles.SystemBubble.Render(msg.Content))
	}

	return sb.String()
}

// View renders the chat viewport
func (c ChatViewModel) View() string {
	return c.Viewport.View()
}

// wrapText wraps text to fit within maxWidth
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		if len(line) <= maxWidth {
			result.WriteString(line)
			continue
		}

		current := ""
		for _, word := range strings.Fields(line) {
			switch {
			case current == "":
				current = word
			case len(current)+1+len(word) <= maxWidth:
				current += " " + word
			default:
				result.WriteString(current + "\n")
				current = word
			}
		}
		result.WriteString(current)
	}
	return result.String()
}
