// ABOUTME: Tests for the unread badge widget
// ABOUTME: Covers zero, normal, and clamped counts

package widgets

import (
	"strings"
	"testing"
)

func TestUnreadBadge(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "0"},
		{-1, "0"},
		{5, "5"},
		{99, "99"},
		{100, "99+"},
		{2500, "99+"},
	}
	for _, tt := range tests {
		if got := UnreadBadge(tt.count); !strings.Contains(got, tt.want) {
			t.Errorf("UnreadBadge(%d) = %q, want it to contain %q", tt.count, got, tt.want)
		}
	}
}
