// ABOUTME: Event browser component listing campus events
// ABOUTME: Supports filtering by name and cursor navigation

package eventsview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbrow221/UniMeet/internal/api"
	"github.com/dbrow221/UniMeet/internal/tui/styles"
)

// LoadedMsg delivers the event list fetch result
type LoadedMsg struct {
	Events []api.Event
	Err    error
}

// Browser lists events with an inline name filter
type Browser struct {
	client  *api.Client
	events  []api.Event
	cursor  int
	filter  textinput.Model
	loading bool
	err     error
	width   int
	height  int
}

// New creates the event browser
func New(client *api.Client) *Browser {
	ti := textinput.New()
	ti.Placeholder = "Filter events"
	ti.CharLimit = 50
	return &Browser{
		client:  client,
		filter:  ti,
		loading: true,
	}
}

// Init kicks off the initial fetch
func (b *Browser) Init() tea.Cmd {
	return b.Load()
}

// Load fetches the event list off the UI loop
func (b *Browser) Load() tea.Cmd {
	return func() tea.Msg {
		events, err := b.client.ListEvents(context.Background())
		return LoadedMsg{Events: events, Err: err}
	}
}

// FilterFocused reports whether the filter input is capturing keystrokes
func (b *Browser) FilterFocused() bool {
	return b.filter.Focused()
}

// SetSize updates the browser dimensions
func (b *Browser) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Update implements the component's message handling
func (b *Browser) Update(msg tea.Msg) (*Browser, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		b.loading = false
		b.err = msg.Err
		if msg.Err == nil {
			b.events = msg.Events
		}
		b.clampCursor()
		return b, nil

	case tea.KeyMsg:
		if b.filter.Focused() {
			switch msg.String() {
			case "enter", "esc":
				b.filter.Blur()
				return b, nil
			default:
				var cmd tea.Cmd
				b.filter, cmd = b.filter.Update(msg)
				b.clampCursor()
				return b, cmd
			}
		}

		switch msg.String() {
		case "up", "k":
			if b.cursor > 0 {
				b.cursor--
			}
		case "down", "j":
			if b.cursor < len(b.visible())-1 {
				b.cursor++
			}
		case "/":
			b.filter.Focus()
			return b, textinput.Blink
		case "r":
			b.loading = true
			return b, b.Load()
		}
	}

	return b, nil
}

// visible returns the events matching the current filter
func (b *Browser) visible() []api.Event {
	query := strings.ToLower(strings.TrimSpace(b.filter.Value()))
	if query == "" {
		return b.events
	}

	var out []api.Event
	for _, e := range b.events {
		if strings.Contains(strings.ToLower(e.Name), query) ||
			strings.Contains(strings.ToLower(e.LocationDetails.Name), query) {
			out = append(out, e)
		}
	}
	return out
}

func (b *Browser) clampCursor() {
	visible := len(b.visible())
	if b.cursor >= visible {
		b.cursor = visible - 1
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
}

// View renders the browser
func (b *Browser) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render("Campus Events"))
	sb.WriteString("\n")
	sb.WriteString(b.filter.View())
	sb.WriteString("\n\n")

	if b.loading {
		sb.WriteString("Loading events...\n")
		return sb.String()
	}

	if b.err != nil {
		sb.WriteString(styles.StatusCritical.Render("Error: " + b.err.Error()))
		sb.WriteString("\n")
		return sb.String()
	}

	visible := b.visible()
	if len(visible) == 0 {
		sb.WriteString(styles.Dimmed.Render("No events found"))
		sb.WriteString("\n")
		return sb.String()
	}

	for i, e := range visible {
		line := fmt.Sprintf("%s  %s", e.Name, styles.Dimmed.Render("@ "+e.LocationDetails.Name))
		if i == b.cursor {
			line = styles.Selected.Render("> "+e.Name) + "  " + styles.Dimmed.Render("@ "+e.LocationDetails.Name)
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")

		if i == b.cursor && e.Details != "" {
			detail := e.Details
			if len(detail) > 70 {
				detail = detail[:67] + "..."
			}
			sb.WriteString(styles.Dimmed.Render("    " + detail))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
