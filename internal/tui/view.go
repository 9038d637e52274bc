package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hkevin01/poe-search-sub001/internal/store"
)

// ─── Logo ────────────────────────────────────────────────────────────────────

func renderLogo() string {
	logoText := []string{
		`    ____  ____  ______   _____ _________    ____  ______ __ __`,
		`   / __ \/ __ \/ ____/  / ___// ____/   |  / __ \/ ____// // /`,
		`  / /_/ / / / / __/     \__ \/ __/ / /| | / /_/ / /    / // /_`,
		` / ____/ /_/ / /___    ___/ / /___/ ___ |/ _, _/ /___ /__  __/`,
		`/_/    \____/_____/   /____/_____/_/  |_/_/ |_|\____/   /_/   `,
	}

	frameStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorOverlay).
		Padding(0, 1).
		MarginBottom(1)

	textStyle := lipgloss.NewStyle().Foreground(colorText).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	taglineStyle := lipgloss.NewStyle().Foreground(colorSubtext).Italic(true)

	var b strings.Builder

	// Header line inside box
	b.WriteString(accentStyle.Render(" ⚡ ARCHIVE ONLINE ") + strings.Repeat(" ", 28) + accentStyle.Render(" DB: OK ") + "\n\n")

	// Logo body
	for _, line := range logoText {
		b.WriteString(" " + textStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	// Footer inside box
	b.WriteString(taglineStyle.Render(" > poesearch — every conversation, findable"))

	return frameStyle.Render(b.String()) + "\n"
}

// ─── View (main router) ─────────────────────────────────────────────────────

func (m Model) View() string {
	var content string

	switch m.Screen {
	case ScreenDashboard:
		content = m.viewDashboard()
	case ScreenSearch:
		content = m.viewSearch()
	case ScreenSearchResults:
		content = m.viewSearchResults()
	case ScreenConversations:
		content = m.viewConversations()
	case ScreenConversationDetail:
		content = m.viewConversationDetail()
	case ScreenBots:
		content = m.viewBots()
	case ScreenAnalytics:
		content = m.viewAnalytics()
	default:
		content = "Unknown screen"
	}

	// Show error if present
	if m.ErrorMsg != "" {
		content += "\n" + errorStyle.Render("Error: "+m.ErrorMsg)
	}

	return appStyle.Render(content)
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

func (m Model) viewDashboard() string {
	var b strings.Builder

	// Logo header
	b.WriteString(renderLogo())
	b.WriteString("\n")

	// Stats card
	if m.Stats != nil {
		statsContent := fmt.Sprintf(
			"%s %s\n%s %s\n%s %s",
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.TotalConversations)),
			statLabelStyle.Render("conversations"),
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.TotalMessages)),
			statLabelStyle.Render("messages"),
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.TotalBots)),
			statLabelStyle.Render("bots"),
		)
		b.WriteString(statCardStyle.Render(statsContent))
		b.WriteString("\n")

		if len(m.Stats.Bots) > 0 {
			b.WriteString(titleStyle.Render("  Bots"))
			b.WriteString("\n")

			limit := 5
			for i, bot := range m.Stats.Bots {
				if i >= limit {
					break
				}
				b.WriteString(listItemStyle.Render("• " + bot))
				b.WriteString("\n")
			}

			if len(m.Stats.Bots) > limit {
				remaining := len(m.Stats.Bots) - limit
				b.WriteString(fmt.Sprintf("    %s\n", timestampStyle.Render(fmt.Sprintf("...and %d more bots", remaining))))
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString(statCardStyle.Render("Loading stats..."))
		b.WriteString("\n")
	}

	// Menu
	b.WriteString(titleStyle.Render("  Actions"))
	b.WriteString("\n")

	for i, item := range dashboardMenuItems {
		if i == m.Cursor {
			b.WriteString(menuSelectedStyle.Render("▸ " + item))
		} else {
			b.WriteString(menuItemStyle.Render("  " + item))
		}
		b.WriteString("\n")
	}

	// Help
	b.WriteString(helpStyle.Render("\n  j/k navigate • enter select • s search • q quit"))

	return b.String()
}

// ─── Search ──────────────────────────────────────────────────────────────────

func (m Model) viewSearch() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Search Conversations"))
	b.WriteString("\n\n")

	b.WriteString(searchInputStyle.Render(m.SearchInput.View()))
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render("  Type a query and press enter • esc go back"))

	return b.String()
}

// ─── Search Results ──────────────────────────────────────────────────────────

func (m Model) viewSearchResults() string {
	var b strings.Builder

	resultCount := len(m.SearchResults)
	header := fmt.Sprintf("  Search: %q — %d result", m.SearchQuery, resultCount)
	if resultCount != 1 {
		header += "s"
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if resultCount == 0 {
		b.WriteString(noResultsStyle.Render("No conversations found. Try a different query."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  / new search • esc back"))
		return b.String()
	}

	visibleItems := (m.Height - 10) / 2 // 2 lines per result item
	if visibleItems < 3 {
		visibleItems = 3
	}

	end := m.Scroll + visibleItems
	if end > resultCount {
		end = resultCount
	}

	for i := m.Scroll; i < end; i++ {
		r := m.SearchResults[i]
		cursor := "  "
		style := listItemStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		title := r.Title
		if title == "" {
			title = "(untitled)"
		}

		b.WriteString(fmt.Sprintf("%s%s %s  %s  %s\n",
			cursor,
			botBadgeStyle.Render(fmt.Sprintf("[%-14s]", r.Bot)),
			style.Render(truncateStr(title, 45)),
			scoreStyle.Render(fmt.Sprintf("%.1f", r.Score)),
			timestampStyle.Render(r.Date)))
		b.WriteString(contentPreviewStyle.Render(truncateStr(r.Preview, 80)) + "\n")
	}

	// Scroll indicator
	if resultCount > visibleItems {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, resultCount))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter open • / search • esc back"))

	return b.String()
}

// ─── Conversation List ───────────────────────────────────────────────────────

func (m Model) viewConversations() string {
	var b strings.Builder

	count := len(m.Conversations)
	header := fmt.Sprintf("  Conversations — %d total", count)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if count == 0 {
		b.WriteString(noResultsStyle.Render("No conversations archived yet."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  esc back"))
		return b.String()
	}

	visibleItems := (m.Height - 8) / 2 // 2 lines per conversation item
	if visibleItems < 3 {
		visibleItems = 3
	}

	end := m.Scroll + visibleItems
	if end > count {
		end = count
	}

	for i := m.Scroll; i < end; i++ {
		c := m.Conversations[i]
		b.WriteString(m.renderConversationListItem(i, c))
	}

	if count > visibleItems {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, count))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter open • esc back"))

	return b.String()
}

// ─── Conversation Detail ─────────────────────────────────────────────────────

func (m Model) viewConversationDetail() string {
	var b strings.Builder

	if m.SelectedConversation == nil {
		b.WriteString(headerStyle.Render("  Conversation"))
		b.WriteString("\n")
		b.WriteString(noResultsStyle.Render("Loading..."))
		return b.String()
	}

	conv := m.SelectedConversation

	title := conv.Title
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(headerStyle.Render("  " + truncateStr(title, 70)))
	b.WriteString("\n")

	// Metadata rows
	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("ID:"),
		idStyle.Render(conv.ID)))

	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("Bot:"),
		botBadgeStyle.Render(conv.Bot)))

	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("Messages:"),
		detailValueStyle.Render(fmt.Sprintf("%d", conv.MessageCount))))

	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("Updated:"),
		timestampStyle.Render(conv.UpdatedAt)))

	// Transcript section
	b.WriteString("\n")
	b.WriteString(sectionHeadingStyle.Render("  Transcript"))
	b.WriteString("\n")

	// Flatten the transcript into lines, then apply scroll
	var transcriptLines []string
	for _, msg := range conv.Messages {
		marker := userRoleStyle.Render("you")
		if msg.Role == store.RoleBot {
			marker = botRoleStyle.Render(conv.Bot)
		} else if msg.Role == store.RoleOther {
			marker = timestampStyle.Render("other")
		}
		transcriptLines = append(transcriptLines, fmt.Sprintf("%s  %s", marker, timestampStyle.Render(msg.Timestamp)))
		for _, line := range strings.Split(msg.Content, "\n") {
			transcriptLines = append(transcriptLines, messageBodyStyle.Render(line))
		}
		transcriptLines = append(transcriptLines, "")
	}

	maxLines := m.Height - 14
	if maxLines < 5 {
		maxLines = 5
	}

	// Clamp scroll
	maxScroll := len(transcriptLines) - maxLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.DetailScroll > maxScroll {
		m.DetailScroll = maxScroll
	}

	end := m.DetailScroll + maxLines
	if end > len(transcriptLines) {
		end = len(transcriptLines)
	}

	for i := m.DetailScroll; i < end; i++ {
		b.WriteString(transcriptLines[i])
		b.WriteString("\n")
	}

	if len(transcriptLines) > maxLines {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("line %d-%d of %d", m.DetailScroll+1, end, len(transcriptLines)))))
	}

	b.WriteString(helpStyle.Render("\n  j/k scroll • esc back"))

	return b.String()
}

// ─── Bots ────────────────────────────────────────────────────────────────────

func (m Model) viewBots() string {
	var b strings.Builder

	count := len(m.Bots)
	header := fmt.Sprintf("  Bots — %d total", count)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if count == 0 {
		b.WriteString(noResultsStyle.Render("No bots yet."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  esc back"))
		return b.String()
	}

	visibleItems := m.Height - 8
	if visibleItems < 5 {
		visibleItems = 5
	}

	end := m.Scroll + visibleItems
	if end > count {
		end = count
	}

	for i := m.Scroll; i < end; i++ {
		bot := m.Bots[i]
		cursor := "  "
		style := listItemStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		line := fmt.Sprintf("%s%s  %s convs  %s msgs  %s",
			cursor,
			style.Render(fmt.Sprintf("%-24s", bot.DisplayName)),
			statNumberStyle.Render(fmt.Sprintf("%d", bot.ConversationCount)),
			statNumberStyle.Render(fmt.Sprintf("%d", bot.MessageCount)),
			timestampStyle.Render(bot.LastUsed))

		b.WriteString(line)
		b.WriteString("\n")
	}

	if count > visibleItems {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, count))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • esc back"))

	return b.String()
}

// ─── Analytics ───────────────────────────────────────────────────────────────

func (m Model) viewAnalytics() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Analytics"))
	b.WriteString("\n")

	// Period selector row
	var periods []string
	for _, p := range analyticsPeriods {
		if p == m.AnalyticsPeriod {
			periods = append(periods, menuSelectedStyle.Render("["+p+"]"))
		} else {
			periods = append(periods, menuItemStyle.Render(p))
		}
	}
	b.WriteString("  " + strings.Join(periods, " ") + "\n\n")

	if m.Analytics == nil {
		b.WriteString(noResultsStyle.Render("Loading..."))
		return b.String()
	}

	a := m.Analytics
	statsContent := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s\n%s %s",
		statNumberStyle.Render(fmt.Sprintf("%d", a.TotalConversations)),
		statLabelStyle.Render("conversations"),
		statNumberStyle.Render(fmt.Sprintf("%d", a.ActiveBots)),
		statLabelStyle.Render("active bots"),
		statNumberStyle.Render(fmt.Sprintf("%d", a.MessagesSent)),
		statLabelStyle.Render("messages sent"),
		statNumberStyle.Render(fmt.Sprintf("%.1f", a.AvgConversationLength)),
		statLabelStyle.Render("avg conversation length"),
	)
	b.WriteString(statCardStyle.Render(statsContent))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("  %s %s\n",
		detailLabelStyle.Render("Since:"),
		timestampStyle.Render(a.StartDate)))

	b.WriteString(helpStyle.Render("\n  h/l change period • esc back"))

	return b.String()
}

// ─── Shared Renderers ────────────────────────────────────────────────────────

func (m Model) renderConversationListItem(index int, c store.Conversation) string {
	cursor := "  "
	style := listItemStyle
	if index == m.Cursor {
		cursor = "▸ "
		style = listSelectedStyle
	}

	title := c.Title
	if title == "" {
		title = "(untitled)"
	}

	line := fmt.Sprintf("%s%s %s  %s\n",
		cursor,
		botBadgeStyle.Render(fmt.Sprintf("[%-14s]", c.Bot)),
		style.Render(truncateStr(title, 50)),
		timestampStyle.Render(c.UpdatedAt))

	line += contentPreviewStyle.Render(fmt.Sprintf("%s • %d messages", idStyle.Render(c.ID), c.MessageCount)) + "\n"

	return line
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func truncateStr(s string, max int) string {
	// Remove newlines for single-line display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
