// ABOUTME: Unread-count badge widget for the inbox toggle
// ABOUTME: Renders a colored pill with the aggregate notification count

package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	badgeBg = lipgloss.Color("#EF4444")
	badgeFg = lipgloss.Color("#FFFFFF")

	badgeStyle = lipgloss.NewStyle().
			Background(badgeBg).
			Foreground(badgeFg).
			Padding(0, 1).
			Bold(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// UnreadBadge renders the aggregate count as a pill. Zero renders a muted
// placeholder instead of a red badge; counts above 99 clamp to "99+".
func UnreadBadge(count int) string {
	if count <= 0 {
		return emptyStyle.Render("0")
	}
	label := fmt.Sprintf("%d", count)
	if count > 99 {
		label = "99+"
	}
	return badgeStyle.Render(label)
}
