package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/streak"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAddHabit, StateEditReminder:
		content = m.form.View()
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = m.habitsModel.View()
	}

	parts := []string{m.viewHeader()}
	if m.auth == reminder.Undetermined && m.state == StateHabits {
		parts = append(parts, bannerStyle.Render("🔔 Enable reminders: press n"))
	}
	parts = append(parts, content)
	if m.status != "" {
		parts = append(parts, warningStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) viewHeader() string {
	all := m.store.List()
	done := streak.CompletedToday(all, m.today)
	date := m.today.In(m.store.Location()).Format("Monday, Jan 2")
	stats := fmt.Sprintf("%d active · %d/%d done today", len(all), done, len(all))
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("habitual")+"  "+statsStyle.Render(date),
		statsStyle.Render(stats),
	)
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, max(m.height-headerHeight, 0),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q?", m.deleteName)),
			"This removes its whole history.",
			"",
			"[y] Yes    [n] No",
		),
	)
}
