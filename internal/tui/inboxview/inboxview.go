// ABOUTME: Inbox drawer component rendering the merged notification feed
// ABOUTME: Routes per-item action keys to the aggregator and shows results

package inboxview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbrow221/UniMeet/internal/api"
	"github.com/dbrow221/UniMeet/internal/inbox"
	"github.com/dbrow221/UniMeet/internal/tui/styles"
)

// SnapshotMsg delivers an applied aggregator cycle to the drawer
type SnapshotMsg struct {
	Snapshot inbox.Snapshot
}

// actionDoneMsg is sent when a mutating command has settled
type actionDoneMsg struct {
	snapshot inbox.Snapshot
	errText  string
}

// Drawer is the inbox surface. Its open/closed state is owned by the parent
// app, which starts and stops polling accordingly.
type Drawer struct {
	agg     *inbox.Aggregator
	snap    inbox.Snapshot
	cursor  int
	loading bool
	spin    spinner.Model
	errText string
	width   int
	height  int
}

// New creates the drawer over the shared aggregator
func New(agg *inbox.Aggregator) *Drawer {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &Drawer{
		agg:     agg,
		loading: true,
		spin:    s,
	}
}

// Init starts the loading spinner
func (d *Drawer) Init() tea.Cmd {
	return d.spin.Tick
}

// SetSize updates the drawer dimensions
func (d *Drawer) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// Badge returns the current aggregate count for the parent's header
func (d *Drawer) Badge() int {
	return d.snap.Badge
}

// Update implements the component's message handling
func (d *Drawer) Update(msg tea.Msg) (*Drawer, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		d.snap = msg.Snapshot
		d.loading = false
		d.errText = msg.Snapshot.Err
		d.clampCursor()
		return d, nil

	case actionDoneMsg:
		d.snap = msg.snapshot
		d.loading = false
		d.errText = msg.errText
		d.clampCursor()
		return d, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spin, cmd = d.spin.Update(msg)
		return d, cmd

	case tea.KeyMsg:
		return d.handleKey(msg)
	}

	return d, nil
}

func (d *Drawer) handleKey(msg tea.KeyMsg) (*Drawer, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
	case "down", "j":
		if d.cursor < len(d.snap.Items)-1 {
			d.cursor++
		}
	case "r":
		d.loading = true
		d.errText = ""
		return d, tea.Batch(d.spin.Tick, d.refresh())
	case "a":
		return d.act(positiveAction)
	case "d":
		return d.act(negativeAction)
	case "enter", "m":
		return d.act(readAction)
	}
	return d, nil
}

// Action selectors per item kind. Join and friend requests pair an
// approve-style and a deny-style command; conversations and notifications
// only support mark-read.
func positiveAction(k inbox.Kind) (inbox.Action, bool) {
	switch k {
	case inbox.KindJoinRequest:
		return inbox.ActionApprove, true
	case inbox.KindFriendRequest:
		return inbox.ActionAccept, true
	default:
		return "", false
	}
}

func negativeAction(k inbox.Kind) (inbox.Action, bool) {
	switch k {
	case inbox.KindJoinRequest:
		return inbox.ActionDeny, true
	case inbox.KindFriendRequest:
		return inbox.ActionDecline, true
	default:
		return "", false
	}
}

func readAction(k inbox.Kind) (inbox.Action, bool) {
	switch k {
	case inbox.KindConversation, inbox.KindNotification:
		return inbox.ActionMarkRead, true
	default:
		return "", false
	}
}

func (d *Drawer) act(pick func(inbox.Kind) (inbox.Action, bool)) (*Drawer, tea.Cmd) {
	if d.cursor >= len(d.snap.Items) {
		return d, nil
	}
	item := d.snap.Items[d.cursor]
	action, ok := pick(item.Kind)
	if !ok {
		return d, nil
	}

	d.loading = true
	d.errText = ""
	return d, tea.Batch(d.spin.Tick, d.apply(item.Kind, item.ID, action))
}

// refresh issues one aggregator cycle off the UI loop
func (d *Drawer) refresh() tea.Cmd {
	return func() tea.Msg {
		snap, err := d.agg.Refresh(context.Background())
		if err != nil {
			return actionDoneMsg{snapshot: snap, errText: snap.Err}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// apply sends the mutating command and reports the refreshed snapshot. A
// validation message from the server is shown verbatim; anything else falls
// back to a generic string.
func (d *Drawer) apply(kind inbox.Kind, id int, action inbox.Action) tea.Cmd {
	return func() tea.Msg {
		snap, err := d.agg.Apply(context.Background(), kind, id, action)
		if err != nil {
			var vErr *api.ValidationError
			text := inbox.FallbackActionError(kind, action)
			if errors.As(err, &vErr) {
				text = vErr.Message
			}
			return actionDoneMsg{snapshot: snap, errText: text}
		}
		return actionDoneMsg{snapshot: snap}
	}
}

func (d *Drawer) clampCursor() {
	if d.cursor >= len(d.snap.Items) {
		d.cursor = len(d.snap.Items) - 1
	}
	if d.cursor < 0 {
		d.cursor = 0
	}
}

var sectionTitles = map[inbox.Kind]string{
	inbox.KindConversation:  "Messages",
	inbox.KindNotification:  "Event Reminders",
	inbox.KindFriendRequest: "Friend Requests",
	inbox.KindJoinRequest:   "Event Join Requests",
}

// View renders the drawer contents
func (d *Drawer) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render("Notifications"))
	sb.WriteString("\n")

	if d.loading {
		sb.WriteString(d.spin.View() + " Loading...\n")
		return sb.String()
	}

	if d.errText != "" {
		sb.WriteString(styles.StatusCritical.Render(d.errText))
		sb.WriteString("\n\n")
	}

	if len(d.snap.Items) == 0 {
		sb.WriteString(styles.Dimmed.Render("No new notifications"))
		sb.WriteString("\n")
		return sb.String()
	}

	var lastKind inbox.Kind = -1
	for i, item := range d.snap.Items {
		if item.Kind != lastKind {
			if lastKind != -1 {
				sb.WriteString("\n")
			}
			sb.WriteString(styles.SectionTitle.Render(sectionTitles[item.Kind]))
			sb.WriteString("\n")
			lastKind = item.Kind
		}

		line := itemLine(item)
		if i == d.cursor {
			line = styles.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if !d.snap.FetchedAt.IsZero() {
		sb.WriteString("\n")
		sb.WriteString(styles.Dimmed.Render("Updated " + d.snap.FetchedAt.Local().Format("15:04:05")))
		sb.WriteString("\n")
	}

	return sb.String()
}

func itemLine(item inbox.Item) string {
	when := ""
	if !item.CreatedAt.IsZero() {
		when = " " + formatWhen(item.CreatedAt)
	}

	switch item.Kind {
	case inbox.KindConversation:
		preview := item.Preview
		if len(preview) > 40 {
			preview = preview[:37] + "..."
		}
		return fmt.Sprintf("%s (%d unread): %s%s", item.Actor.Username, item.Unread, preview, when)
	case inbox.KindNotification:
		if item.Event != nil {
			return fmt.Sprintf("%s: %s%s", item.Message, item.Event.Name, when)
		}
		return item.Message + when
	case inbox.KindFriendRequest:
		return fmt.Sprintf("%s wants to be your friend%s", item.Actor.Username, when)
	case inbox.KindJoinRequest:
		event := ""
		if item.Event != nil {
			event = item.Event.Name
		}
		return fmt.Sprintf("%s wants to join: %s%s", item.Actor.Username, event, when)
	default:
		return ""
	}
}

func formatWhen(t time.Time) string {
	return styles.Dimmed.Render("(" + t.Local().Format("Jan 2 15:04") + ")")
}
