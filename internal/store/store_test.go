package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func strPtr(s string) *string { return &s }

func sampleConversation(id, bot string, contents ...string) Conversation {
	c := Conversation{
		ID:        id,
		Bot:       bot,
		Title:     "Sample " + id,
		CreatedAt: Now(),
		UpdatedAt: Now(),
	}
	for i, content := range contents {
		role := RoleUser
		if i%2 == 1 {
			role = RoleBot
		}
		c.Messages = append(c.Messages, Message{
			ID:        fmt.Sprintf("%s-m%d", id, i),
			Role:      role,
			Content:   content,
			Timestamp: Now(),
			Bot:       strPtr(bot),
		})
	}
	return c
}

func TestSaveAndGetConversationRoundTrip(t *testing.T) {
	s := newTestStore(t)

	conv := sampleConversation("c1", "claude_instant",
		"How do I deploy FastAPI with Docker?",
		"Use a multi-stage Dockerfile with uvicorn as the entrypoint.",
		"What about health checks?",
	)
	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("save conversation: %v", err)
	}

	got, err := s.GetConversation("c1")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got == nil {
		t.Fatal("expected conversation, got nil")
	}
	if got.Bot != "claude_instant" {
		t.Fatalf("expected bot claude_instant, got %q", got.Bot)
	}
	if got.MessageCount != 3 {
		t.Fatalf("expected message_count=3, got %d", got.MessageCount)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}
	for i, m := range got.Messages {
		if m.ID != fmt.Sprintf("c1-m%d", i) {
			t.Fatalf("message %d out of order: got id %q", i, m.ID)
		}
	}
	if got.Messages[0].Role != RoleUser || got.Messages[1].Role != RoleBot {
		t.Fatalf("roles not preserved: %q, %q", got.Messages[0].Role, got.Messages[1].Role)
	}
}

func TestGetConversationAbsentIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetConversation("nope")
	if err != nil {
		t.Fatalf("expected nil error for unknown id, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil conversation, got %+v", got)
	}
}

func TestConversationExists(t *testing.T) {
	s := newTestStore(t)

	exists, err := s.ConversationExists("c1")
	if err != nil {
		t.Fatalf("exists before save: %v", err)
	}
	if exists {
		t.Fatal("expected missing conversation to not exist")
	}

	if err := s.SaveConversation(sampleConversation("c1", "gpt4", "hello")); err != nil {
		t.Fatalf("save conversation: %v", err)
	}

	exists, err = s.ConversationExists("c1")
	if err != nil {
		t.Fatalf("exists after save: %v", err)
	}
	if !exists {
		t.Fatal("expected saved conversation to exist")
	}
}

func TestSaveConversationReplacesMessages(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveConversation(sampleConversation("c1", "gpt4", "first", "second", "third")); err != nil {
		t.Fatalf("initial save: %v", err)
	}

	// Re-save with a shorter message set; old rows must be gone.
	if err := s.SaveConversation(sampleConversation("c1", "gpt4", "only one now")); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	got, err := s.GetConversation("c1")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("expected 1 message after replace, got %d", len(got.Messages))
	}
	if got.MessageCount != 1 {
		t.Fatalf("expected message_count=1, got %d", got.MessageCount)
	}

	// The index must shrink with the message table.
	if n := countFTSRows(t, s, "c1"); n != 1 {
		t.Fatalf("expected 1 index row, got %d", n)
	}

	// Stale content must no longer be findable.
	hits, err := s.SearchMessages("third", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits for replaced content, got %d", len(hits))
	}
}

func TestSaveConversationIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	conv := sampleConversation("c1", "gpt4", "alpha", "beta")
	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.GetConversation("c1")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if n := countFTSRows(t, s, "c1"); n != 2 {
		t.Fatalf("expected 2 index rows, got %d", n)
	}
}

func TestIndexRowsMatchMessageRows(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveConversation(sampleConversation("c1", "gpt4", "a", "b", "c")); err != nil {
		t.Fatalf("save c1: %v", err)
	}
	if err := s.SaveConversation(sampleConversation("c2", "claude", "d", "e")); err != nil {
		t.Fatalf("save c2: %v", err)
	}

	var msgs, fts int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&msgs); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&fts); err != nil {
		t.Fatalf("count index: %v", err)
	}
	if msgs != fts {
		t.Fatalf("index out of sync: %d messages, %d index rows", msgs, fts)
	}
}

func TestSaveConversationValidation(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		name string
		conv Conversation
	}{
		{"missing id", Conversation{Bot: "gpt4"}},
		{"missing bot", Conversation{ID: "c1"}},
		{"bad role", Conversation{
			ID: "c1", Bot: "gpt4",
			Messages: []Message{{ID: "m1", Role: "assistant", Content: "x", Timestamp: Now()}},
		}},
		{"message without id", Conversation{
			ID: "c1", Bot: "gpt4",
			Messages: []Message{{Role: RoleUser, Content: "x", Timestamp: Now()}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.SaveConversation(tc.conv)
			if !errors.Is(err, ErrInvalidConversation) {
				t.Fatalf("expected ErrInvalidConversation, got %v", err)
			}
		})
	}

	// Rejected saves must leave nothing behind.
	exists, err := s.ConversationExists("c1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("rejected conversation should not be stored")
	}
}

func TestGetConversationsOrderingAndFilters(t *testing.T) {
	s := newTestStore(t)

	old := sampleConversation("old", "gpt4", "ancient history")
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -60).Format(time.RFC3339)
	old.UpdatedAt = time.Now().UTC().AddDate(0, 0, -60).Format(time.RFC3339)

	mid := sampleConversation("mid", "claude", "somewhat recent")
	mid.UpdatedAt = time.Now().UTC().AddDate(0, 0, -3).Format(time.RFC3339)

	fresh := sampleConversation("fresh", "gpt4", "hot off the press")

	for _, c := range []Conversation{old, mid, fresh} {
		if err := s.SaveConversation(c); err != nil {
			t.Fatalf("save %s: %v", c.ID, err)
		}
	}

	all, err := s.GetConversations(ListOptions{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(all))
	}
	if all[0].ID != "fresh" || all[2].ID != "old" {
		t.Fatalf("wrong order: %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}
	if len(all[0].Messages) != 0 {
		t.Fatal("summaries should not carry messages")
	}

	byBot, err := s.GetConversations(ListOptions{Bot: "gpt4"})
	if err != nil {
		t.Fatalf("list by bot: %v", err)
	}
	if len(byBot) != 2 {
		t.Fatalf("expected 2 gpt4 conversations, got %d", len(byBot))
	}

	recent, err := s.GetConversations(ListOptions{Days: 7})
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 conversations in last 7 days, got %d", len(recent))
	}
	for _, c := range recent {
		if c.ID == "old" {
			t.Fatal("60-day-old conversation leaked into 7-day window")
		}
	}

	limited, err := s.GetConversations(ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "fresh" {
		t.Fatalf("limit=1 should return just the newest, got %+v", limited)
	}
}

func TestSearchMessages(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveConversation(sampleConversation("c1", "claude",
		"How do I deploy FastAPI behind nginx?",
		"Point nginx at the uvicorn socket.",
	)); err != nil {
		t.Fatalf("save c1: %v", err)
	}
	if err := s.SaveConversation(sampleConversation("c2", "gpt4",
		"Tell me about Django ORM internals.",
	)); err != nil {
		t.Fatalf("save c2: %v", err)
	}

	hits, err := s.SearchMessages("fastapi", "", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].ConversationID != "c1" {
		t.Fatalf("expected hit in c1, got %s", hits[0].ConversationID)
	}
	if hits[0].ConversationTitle == "" || hits[0].ConversationBot != "claude" {
		t.Fatalf("hit missing conversation context: %+v", hits[0])
	}

	byBot, err := s.SearchMessages("nginx", "gpt4", 10)
	if err != nil {
		t.Fatalf("search with bot filter: %v", err)
	}
	if len(byBot) != 0 {
		t.Fatalf("bot filter should exclude claude hits, got %d", len(byBot))
	}
}

func TestSearchMessagesBlankAndSpecialChars(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveConversation(sampleConversation("c1", "gpt4", "plain content")); err != nil {
		t.Fatalf("save: %v", err)
	}

	blank, err := s.SearchMessages("   ", "", 10)
	if err != nil {
		t.Fatalf("blank query should not error: %v", err)
	}
	if len(blank) != 0 {
		t.Fatalf("blank query should return nothing, got %d", len(blank))
	}

	// FTS5 operator soup must degrade, not fail.
	for _, q := range []string{`plain OR "`, `content*`, `NEAR(x y)`, `"""`} {
		if _, err := s.SearchMessages(q, "", 10); err != nil {
			t.Fatalf("query %q should not error: %v", q, err)
		}
	}
}

func TestEmptyStoreIsSafe(t *testing.T) {
	s := newTestStore(t)

	if convs, err := s.GetConversations(ListOptions{}); err != nil || len(convs) != 0 {
		t.Fatalf("list on empty store: %v / %d", err, len(convs))
	}
	if hits, err := s.SearchMessages("anything", "", 10); err != nil || len(hits) != 0 {
		t.Fatalf("search on empty store: %v / %d", err, len(hits))
	}
	if bots, err := s.GetBots(); err != nil || len(bots) != 0 {
		t.Fatalf("bots on empty store: %v / %d", err, len(bots))
	}
	a, err := s.GetAnalytics("month")
	if err != nil {
		t.Fatalf("analytics on empty store: %v", err)
	}
	if a.TotalConversations != 0 || a.AvgConversationLength != 0 {
		t.Fatalf("analytics on empty store should be zero: %+v", a)
	}
}

func TestGetBotsAggregates(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveConversation(sampleConversation("c1", "claude_instant", "a", "b")); err != nil {
		t.Fatalf("save c1: %v", err)
	}
	if err := s.SaveConversation(sampleConversation("c2", "claude_instant", "c")); err != nil {
		t.Fatalf("save c2: %v", err)
	}
	if err := s.SaveConversation(sampleConversation("c3", "gpt4", "d")); err != nil {
		t.Fatalf("save c3: %v", err)
	}

	bots, err := s.GetBots()
	if err != nil {
		t.Fatalf("get bots: %v", err)
	}
	if len(bots) != 2 {
		t.Fatalf("expected 2 bots, got %d", len(bots))
	}

	byID := map[string]Bot{}
	for _, b := range bots {
		byID[b.ID] = b
	}

	ci := byID["claude_instant"]
	if ci.ConversationCount != 2 || ci.MessageCount != 3 {
		t.Fatalf("claude_instant aggregates wrong: %+v", ci)
	}
	if ci.DisplayName != "Claude Instant" {
		t.Fatalf("expected display name Claude Instant, got %q", ci.DisplayName)
	}
	if byID["gpt4"].ConversationCount != 1 {
		t.Fatalf("gpt4 aggregates wrong: %+v", byID["gpt4"])
	}
}

func TestGetAnalytics(t *testing.T) {
	s := newTestStore(t)

	recent := sampleConversation("recent", "claude", "q1", "a1", "q2", "a2")
	ancient := sampleConversation("ancient", "gpt4", "very old question")
	past := time.Now().UTC().AddDate(-1, 0, -10).Format(time.RFC3339)
	ancient.CreatedAt = past
	ancient.UpdatedAt = past
	for i := range ancient.Messages {
		ancient.Messages[i].Timestamp = past
	}

	for _, c := range []Conversation{recent, ancient} {
		if err := s.SaveConversation(c); err != nil {
			t.Fatalf("save %s: %v", c.ID, err)
		}
	}

	a, err := s.GetAnalytics("week")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.Period != "week" {
		t.Fatalf("expected period week, got %q", a.Period)
	}
	if a.TotalConversations != 1 {
		t.Fatalf("expected 1 conversation in window, got %d", a.TotalConversations)
	}
	if a.ActiveBots != 1 {
		t.Fatalf("expected 1 active bot, got %d", a.ActiveBots)
	}
	if a.MessagesSent != 2 {
		t.Fatalf("expected 2 user messages in window, got %d", a.MessagesSent)
	}
	if a.AvgConversationLength != 4 {
		t.Fatalf("expected avg length 4, got %f", a.AvgConversationLength)
	}

	year, err := s.GetAnalytics("year")
	if err != nil {
		t.Fatalf("analytics year: %v", err)
	}
	if year.TotalConversations != 1 {
		t.Fatalf("375-day-old conversation should fall outside year window, got %d", year.TotalConversations)
	}

	fallback, err := s.GetAnalytics("bogus")
	if err != nil {
		t.Fatalf("analytics fallback: %v", err)
	}
	if fallback.Period != "month" {
		t.Fatalf("unknown period should fall back to month, got %q", fallback.Period)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestStore(t)

	if err := src.SaveConversation(sampleConversation("c1", "claude", "export me", "ok")); err != nil {
		t.Fatalf("save c1: %v", err)
	}
	if err := src.SaveConversation(sampleConversation("c2", "gpt4", "me too")); err != nil {
		t.Fatalf("save c2: %v", err)
	}

	dump, err := src.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(dump.Conversations) != 2 {
		t.Fatalf("expected 2 exported conversations, got %d", len(dump.Conversations))
	}

	dst := newTestStore(t)
	result, err := dst.Import(dump)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.ConversationsImported != 2 || result.MessagesImported != 3 {
		t.Fatalf("unexpected import counts: %+v", result)
	}

	got, err := dst.GetConversation("c1")
	if err != nil {
		t.Fatalf("get imported: %v", err)
	}
	if got == nil || len(got.Messages) != 2 {
		t.Fatalf("imported conversation incomplete: %+v", got)
	}

	// Re-import must not duplicate anything.
	if _, err := dst.Import(dump); err != nil {
		t.Fatalf("second import: %v", err)
	}
	stats, err := dst.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalConversations != 2 || stats.TotalMessages != 3 {
		t.Fatalf("re-import duplicated rows: %+v", stats)
	}
}

func TestTimestampNormalization(t *testing.T) {
	s := newTestStore(t)

	conv := sampleConversation("c1", "gpt4", "when")
	conv.CreatedAt = "2026-03-15 08:30:00"
	conv.UpdatedAt = "2026-03-15T09:00:00"
	conv.Messages[0].Timestamp = "2026-03-15"

	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetConversation("c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, ts := range []string{got.CreatedAt, got.UpdatedAt, got.Messages[0].Timestamp} {
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			t.Fatalf("timestamp %q not normalized to RFC3339: %v", ts, err)
		}
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = dir

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.SaveConversation(sampleConversation("c1", "gpt4", "durable")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := filepath.Glob(filepath.Join(dir, "poesearch.db*")); err != nil {
		t.Fatalf("glob: %v", err)
	}

	reopened, err := New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetConversation("c1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got == nil || !strings.Contains(got.Messages[0].Content, "durable") {
		t.Fatalf("conversation lost across reopen: %+v", got)
	}
}

func countFTSRows(t *testing.T, s *Store, conversationID string) int {
	t.Helper()
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM messages_fts WHERE conversation_id = ?", conversationID,
	).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		t.Fatalf("count index rows: %v", err)
	}
	return n
}
