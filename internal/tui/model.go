// Package tui implements the Bubbletea terminal UI for poesearch.
//
// Following the Gentleman Bubbletea patterns:
// - Screen constants as iota
// - Single Model struct holds ALL state
// - Update() with type switch
// - Per-screen key handlers returning (tea.Model, tea.Cmd)
// - Vim keys (j/k) for navigation
// - PrevScreen for back navigation
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hkevin01/poe-search-sub001/internal/search"
	"github.com/hkevin01/poe-search-sub001/internal/store"
)

// ─── Screens ─────────────────────────────────────────────────────────────────

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenSearch
	ScreenSearchResults
	ScreenConversations
	ScreenConversationDetail
	ScreenBots
	ScreenAnalytics
)

// ─── Custom Messages ─────────────────────────────────────────────────────────

type statsLoadedMsg struct {
	stats *store.Stats
	err   error
}

type searchResultsMsg struct {
	results []search.Result
	query   string
	err     error
}

type conversationsMsg struct {
	conversations []store.Conversation
	err           error
}

type conversationDetailMsg struct {
	conversation *store.Conversation
	err          error
}

type botsMsg struct {
	bots []store.Bot
	err  error
}

type analyticsMsg struct {
	analytics *store.Analytics
	err       error
}

// ─── Model ───────────────────────────────────────────────────────────────────

type Model struct {
	store      *store.Store
	engine     *search.Engine
	Version    string
	Screen     Screen
	PrevScreen Screen
	Width      int
	Height     int
	Cursor     int
	Scroll     int

	// Error display
	ErrorMsg string

	// Dashboard
	Stats *store.Stats

	// Search
	SearchInput   textinput.Model
	SearchQuery   string
	SearchResults []search.Result

	// Conversation list
	Conversations []store.Conversation

	// Conversation detail
	SelectedConversation *store.Conversation
	DetailScroll         int

	// Bots
	Bots []store.Bot

	// Analytics
	Analytics       *store.Analytics
	AnalyticsPeriod string
}

// New creates a new TUI model connected to the given store.
func New(s *store.Store, version string) Model {
	ti := textinput.New()
	ti.Placeholder = "Search conversations..."
	ti.CharLimit = 256
	ti.Width = 60

	return Model{
		store:           s,
		engine:          search.NewEngine(s),
		Version:         version,
		Screen:          ScreenDashboard,
		SearchInput:     ti,
		AnalyticsPeriod: "month",
	}
}

// Init loads initial data (stats for the dashboard).
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadStats(m.store),
		tea.EnterAltScreen,
	)
}

// ─── Commands (data loading) ─────────────────────────────────────────────────

func loadStats(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		stats, err := s.Stats()
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func searchConversations(engine *search.Engine, query string) tea.Cmd {
	return func() tea.Msg {
		results, err := engine.Search(query, search.Options{Limit: 50})
		return searchResultsMsg{results: results, query: query, err: err}
	}
}

func loadConversations(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		convs, err := s.GetConversations(store.ListOptions{Limit: 50})
		return conversationsMsg{conversations: convs, err: err}
	}
}

func loadConversationDetail(s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		conv, err := s.GetConversation(id)
		return conversationDetailMsg{conversation: conv, err: err}
	}
}

func loadBots(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		bots, err := s.GetBots()
		return botsMsg{bots: bots, err: err}
	}
}

func loadAnalytics(s *store.Store, period string) tea.Cmd {
	return func() tea.Msg {
		analytics, err := s.GetAnalytics(period)
		return analyticsMsg{analytics: analytics, err: err}
	}
}
