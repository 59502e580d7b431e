// ABOUTME: Root bubbletea model for the unimeet TUI
// ABOUTME: Routes input between the event browser and the inbox drawer

package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dbrow221/UniMeet/internal/api"
	"github.com/dbrow221/UniMeet/internal/config"
	"github.com/dbrow221/UniMeet/internal/inbox"
	"github.com/dbrow221/UniMeet/internal/tui/eventsview"
	"github.com/dbrow221/UniMeet/internal/tui/inboxview"
	"github.com/dbrow221/UniMeet/internal/tui/styles"
	"github.com/dbrow221/UniMeet/internal/tui/widgets"
)

// StartScreen selects which surface the TUI opens on
type StartScreen int

const (
	StartOnEvents StartScreen = iota
	StartOnInbox
)

// Layout constants
const (
	minTerminalWidth = 60
	panelPadding     = 4
)

// App is the root model. The inbox drawer's open/closed state lives here;
// opening starts the poller with an immediate refresh and closing stops it,
// so fetches only run while the surface is visible.
type App struct {
	client *api.Client
	agg    *inbox.Aggregator
	poller *inbox.Poller

	drawer  *inboxview.Drawer
	browser *eventsview.Browser

	drawerOpen bool
	badge      int
	width      int
	height     int
}

// New creates the root model
func New(client *api.Client, agg *inbox.Aggregator, start StartScreen) *App {
	return &App{
		client:     client,
		agg:        agg,
		drawer:     inboxview.New(agg),
		browser:    eventsview.New(client),
		drawerOpen: start == StartOnInbox,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.browser.Init()}
	if a.drawerOpen {
		a.poller.Start()
		cmds = append(cmds, a.drawer.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.drawer.SetSize(a.contentWidth(), a.contentHeight())
		a.browser.SetSize(a.contentWidth(), a.contentHeight())
		return a, nil

	case inboxview.SnapshotMsg:
		a.badge = msg.Snapshot.Badge
		drawer, cmd := a.drawer.Update(msg)
		a.drawer = drawer
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.poller.Stop()
			return a, tea.Quit
		case "q":
			// The filter input owns plain keys while focused
			if !a.drawerOpen && a.browser.FilterFocused() {
				break
			}
			a.poller.Stop()
			return a, tea.Quit
		case "i", "tab":
			if !a.drawerOpen && a.browser.FilterFocused() {
				break
			}
			return a.toggleDrawer()
		}

		if a.drawerOpen {
			drawer, cmd := a.drawer.Update(msg)
			a.drawer = drawer
			a.badge = a.drawer.Badge()
			return a, cmd
		}
		browser, cmd := a.browser.Update(msg)
		a.browser = browser
		return a, cmd

	default:
		// Spinner ticks, fetch results, and the like go to both children;
		// each ignores what it does not understand
		var cmds []tea.Cmd
		drawer, cmd := a.drawer.Update(msg)
		a.drawer = drawer
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		a.badge = a.drawer.Badge()
		browser, cmd := a.browser.Update(msg)
		a.browser = browser
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)
	}
}

// toggleDrawer flips the inbox surface and its polling lifecycle
func (a *App) toggleDrawer() (tea.Model, tea.Cmd) {
	a.drawerOpen = !a.drawerOpen
	if a.drawerOpen {
		a.poller.Start()
		return a, a.drawer.Init()
	}
	a.poller.Stop()
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	var content string
	if a.drawerOpen {
		content = styles.ActivePanel.Width(a.contentWidth()).Render(a.drawer.View())
	} else {
		content = styles.Panel.Width(a.contentWidth()).Render(a.browser.View())
	}

	return a.renderHeader() + "\n" + content + "\n" + a.renderFooter()
}

// renderHeader shows the app name and the aggregate unread badge
func (a *App) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("UniMeet")
	badge := widgets.UnreadBadge(a.badge)
	label := "Inbox"
	if a.drawerOpen {
		label = "Events"
	}
	hint := styles.Dimmed.Render("  i " + label)
	return " " + title + "  " + badge + hint
}

// renderFooter shows keyboard shortcuts for the active surface
func (a *App) renderFooter() string {
	var shortcuts []string
	if a.drawerOpen {
		shortcuts = []string{"↑↓ Navigate", "a Approve/Accept", "d Deny/Decline", "m Mark read", "r Refresh", "i Close", "q Quit"}
	} else {
		shortcuts = []string{"↑↓ Navigate", "/ Filter", "r Refresh", "i Inbox", "q Quit"}
	}

	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	var styled []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styled = append(styled, s)
		}
	}
	return " " + strings.Join(styled, "  ")
}

func (a *App) contentWidth() int {
	if a.width < minTerminalWidth {
		return minTerminalWidth - panelPadding
	}
	return a.width - panelPadding
}

func (a *App) contentHeight() int {
	// Header, footer, panel borders and padding
	return a.height - 8
}

// Run starts the TUI. The poller delivers snapshots into the program's
// message loop; it is stopped on exit so an in-flight fetch can never touch
// a torn-down surface.
func Run(client *api.Client, agg *inbox.Aggregator, cfg *config.Config, start StartScreen) error {
	app := New(client, agg, start)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)

	interval := time.Duration(cfg.PollInterval) * time.Second
	app.poller = inbox.NewPoller(agg, interval, func(snap inbox.Snapshot) {
		p.Send(inboxview.SnapshotMsg{Snapshot: snap})
	})
	defer app.poller.Stop()

	_, err := p.Run()
	return err
}
