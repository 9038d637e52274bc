// Package store implements the persistent conversation archive for poesearch.
//
// It uses SQLite with an FTS5 full-text index over message content to store
// and retrieve chat conversations synced from Poe. This is the core of the
// application — every other surface (HTTP server, MCP server, CLI, TUI)
// talks to this.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Role is the closed set of message author kinds.
type Role string

const (
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
	RoleOther Role = "other"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleBot, RoleOther:
		return true
	}
	return false
}

type Message struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Role           Role              `json:"role"`
	Content        string            `json:"content"`
	Timestamp      string            `json:"timestamp"`
	Bot            *string           `json:"bot,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type Conversation struct {
	ID           string            `json:"id"`
	Bot          string            `json:"bot"`
	Title        string            `json:"title"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	MessageCount int               `json:"message_count"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Messages     []Message         `json:"messages,omitempty"`
}

type Bot struct {
	ID                string `json:"id"`
	DisplayName       string `json:"display_name"`
	FirstSeen         string `json:"first_seen"`
	LastUsed          string `json:"last_used"`
	ConversationCount int    `json:"conversation_count"`
	MessageCount      int    `json:"message_count"`
}

// MessageHit is one raw full-text index hit, carrying enough conversation
// context for display without a second lookup.
type MessageHit struct {
	MessageID         string  `json:"message_id"`
	ConversationID    string  `json:"conversation_id"`
	Role              Role    `json:"role"`
	Content           string  `json:"content"`
	Timestamp         string  `json:"timestamp"`
	Bot               *string `json:"bot,omitempty"`
	ConversationTitle string  `json:"conversation_title"`
	ConversationBot   string  `json:"conversation_bot"`
}

type Analytics struct {
	Period                string  `json:"period"`
	StartDate             string  `json:"start_date"`
	TotalConversations    int     `json:"total_conversations"`
	ActiveBots            int     `json:"active_bots"`
	MessagesSent          int     `json:"messages_sent"`
	AvgConversationLength float64 `json:"avg_conversation_length"`
}

type Stats struct {
	TotalConversations int      `json:"total_conversations"`
	TotalMessages      int      `json:"total_messages"`
	TotalBots          int      `json:"total_bots"`
	Bots               []string `json:"bots"`
}

// ListOptions narrows GetConversations. Zero values mean "no filter".
type ListOptions struct {
	Bot   string `json:"bot,omitempty"`
	Days  int    `json:"days,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ExportData is the full serializable dump of the archive.
type ExportData struct {
	Version       string         `json:"version"`
	ExportedAt    string         `json:"exported_at"`
	Conversations []Conversation `json:"conversations"`
}

type ImportResult struct {
	ConversationsImported int `json:"conversations_imported"`
	MessagesImported      int `json:"messages_imported"`
}

// ─── Validation ──────────────────────────────────────────────────────────────

/// ErrInvalidConversation marks input rejected at the store boundary:
// missing ids, missing bot, roles outside the user/bot/other set.
var ErrInvalidConversation = errors.New("invalid conversation")

func (c *Conversation) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing conversation id", ErrInvalidConversation)
	}
	if strings.TrimSpace(c.Bot) == "" {
		return fmt.Errorf("%w: conversation %q has no bot", ErrInvalidConversation, c.ID)
	}
	for i, m := range c.Messages {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("%w: message %d of conversation %q has no id", ErrInvalidConversation, i, c.ID)
		}
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message %q has role %q (want user, bot, or other)", ErrInvalidConversation, m.ID, m.Role)
		}
	}
	return nil
}

// ─── Config ──────────────────────────────────────────────────────────────────

type Config struct {
	DataDir          string
	MaxSearchResults int
}

func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".poesearch"),
		MaxSearchResults: 100,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

type Store struct {
	db  *sql.DB
	cfg Config
}

func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("poesearch: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "poesearch.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("poesearch: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("poesearch: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("poesearch: migration: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id            TEXT PRIMARY KEY,
			bot           TEXT NOT NULL,
			title         TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0,
			metadata      TEXT
		);

		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			seq             INTEGER NOT NULL DEFAULT 0,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL DEFAULT '',
			timestamp       TEXT NOT NULL,
			bot             TEXT,
			metadata        TEXT,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);

		CREATE TABLE IF NOT EXISTS bots (
			id                 TEXT PRIMARY KEY,
			display_name       TEXT NOT NULL,
			first_seen         TEXT NOT NULL,
			last_used          TEXT,
			conversation_count INTEGER NOT NULL DEFAULT 0,
			message_count      INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_conv_bot     ON conversations(bot);
		CREATE INDEX IF NOT EXISTS idx_conv_updated ON conversations(updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_msg_conv     ON messages(conversation_id, seq);
		CREATE INDEX IF NOT EXISTS idx_msg_time     ON messages(timestamp);
		CREATE INDEX IF NOT EXISTS idx_msg_bot      ON messages(bot);

		CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
			content,
			message_id      UNINDEXED,
			conversation_id UNINDEXED,
			bot             UNINDEXED
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before the seq column existed relied on insertion
	// order; the column default keeps their ORDER BY seq stable.
	if err := s.addColumnIfNotExists("messages", "seq", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	if err := s.addColumnIfNotExists("messages", "metadata", "TEXT"); err != nil {
		return err
	}
	if err := s.addColumnIfNotExists("conversations", "metadata", "TEXT"); err != nil {
		return err
	}

	return nil
}

func (s *Store) addColumnIfNotExists(tableName, columnName, definition string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, typ string
		var notNull int
		var defaultValue any
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", tableName, columnName, definition))
	return err
}

// ─── Save / Replace ──────────────────────────────────────────────────────────

// SaveConversation upserts the conversation row and REPLACES its entire
// message set and index entries inside one transaction. message_count is
// recomputed from the supplied messages; the producer's value is ignored.
// Calling it twice with the same input leaves the same stored state.
func (s *Store) SaveConversation(c Conversation) error {
	if err := c.Validate(); err != nil {
		return err
	}

	now := Now()
	created := normalizeTime(c.CreatedAt, now)
	updated := normalizeTime(c.UpdatedAt, now)

	convMeta, err := marshalMetadata(c.Metadata)
	if err != nil {
		return fmt.Errorf("save conversation %s: metadata: %w", c.ID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save conversation %s: begin tx: %w", c.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO conversations (id, bot, title, created_at, updated_at, message_count, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 	bot = excluded.bot,
		 	title = excluded.title,
		 	created_at = excluded.created_at,
		 	updated_at = excluded.updated_at,
		 	message_count = excluded.message_count,
		 	metadata = excluded.metadata`,
		c.ID, c.Bot, c.Title, created, updated, len(c.Messages), convMeta,
	); err != nil {
		return fmt.Errorf("save conversation %s: upsert row: %w", c.ID, err)
	}

	// Replace, never merge: drop the old message set and its index entries,
	// then bulk-insert the new set. The index row count stays equal to the
	// message row count for this conversation on every exit path.
	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, c.ID); err != nil {
		return fmt.Errorf("save conversation %s: clear messages: %w", c.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM messages_fts WHERE conversation_id = ?`, c.ID); err != nil {
		return fmt.Errorf("save conversation %s: clear index: %w", c.ID, err)
	}

	for i, m := range c.Messages {
		msgMeta, err := marshalMetadata(m.Metadata)
		if err != nil {
			return fmt.Errorf("save conversation %s: message %s metadata: %w", c.ID, m.ID, err)
		}
		ts := normalizeTime(m.Timestamp, now)

		if _, err := tx.Exec(
			`INSERT INTO messages (id, conversation_id, seq, role, content, timestamp, bot, metadata)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, c.ID, i, string(m.Role), m.Content, ts, m.Bot, msgMeta,
		); err != nil {
			return fmt.Errorf("save conversation %s: insert message %s: %w", c.ID, m.ID, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO messages_fts (content, message_id, conversation_id, bot)
			 VALUES (?, ?, ?, ?)`,
			m.Content, m.ID, c.ID, derefString(m.Bot),
		); err != nil {
			return fmt.Errorf("save conversation %s: index message %s: %w", c.ID, m.ID, err)
		}
	}

	if err := upsertBot(tx, c.Bot, now); err != nil {
		return fmt.Errorf("save conversation %s: update bot %s: %w", c.ID, c.Bot, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save conversation %s: commit: %w", c.ID, err)
	}
	return nil
}

// UpdateConversation has the same replace semantics as SaveConversation;
// it exists to make caller intent explicit.
func (s *Store) UpdateConversation(c Conversation) error {
	return s.SaveConversation(c)
}

// upsertBot refreshes the bot's derived aggregates from the conversation
// and message rows. Bots only ever come into existence this way.
func upsertBot(tx *sql.Tx, botID, now string) error {
	if _, err := tx.Exec(
		`INSERT INTO bots (id, display_name, first_seen, last_used)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		botID, displayNameFor(botID), now, now,
	); err != nil {
		return err
	}

	_, err := tx.Exec(
		`UPDATE bots
		 SET conversation_count = (SELECT COUNT(*) FROM conversations WHERE bot = ?),
		     message_count      = (SELECT COUNT(*) FROM messages m JOIN conversations c ON c.id = m.conversation_id WHERE c.bot = ?),
		     last_used          = (SELECT MAX(updated_at) FROM conversations WHERE bot = ?)
		 WHERE id = ?`,
		botID, botID, botID, botID,
	)
	return err
}

// ─── Reads ───────────────────────────────────────────────────────────────────

func (s *Store) ConversationExists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM conversations WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetConversations returns conversation summaries (no messages) ordered by
// updated_at descending. Days restricts to conversations updated within
// that many days of now.
func (s *Store) GetConversations(opts ListOptions) ([]Conversation, error) {
	query := `
		SELECT id, bot, title, created_at, updated_at, message_count, metadata
		FROM conversations
		WHERE 1=1
	`
	args := []any{}

	if opts.Bot != "" {
		query += " AND bot = ?"
		args = append(args, opts.Bot)
	}
	if opts.Days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -opts.Days).Format(time.RFC3339)
		query += " AND updated_at >= ?"
		args = append(args, cutoff)
	}

	query += " ORDER BY updated_at DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// GetConversation returns the conversation with its ordered messages, or
// (nil, nil) if the id is unknown. Absence is not an error.
func (s *Store) GetConversation(id string) (*Conversation, error) {
	row := s.db.QueryRow(
		`SELECT id, bot, title, created_at, updated_at, message_count, metadata
		 FROM conversations WHERE id = ?`, id,
	)
	c, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, conversation_id, role, content, timestamp, bot, metadata
		 FROM messages
		 WHERE conversation_id = ?
		 ORDER BY seq ASC`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m Message
		var role string
		var meta sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.Timestamp, &m.Bot, &meta); err != nil {
			return nil, err
		}
		m.Role = Role(role)
		if m.Metadata, err = unmarshalMetadata(meta); err != nil {
			return nil, err
		}
		c.Messages = append(c.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &c, nil
}

// ─── Search (FTS5) ───────────────────────────────────────────────────────────

// SearchMessages runs a raw lexical lookup against the message index.
// Blank queries return an empty result set; queries containing FTS5 syntax
// (quotes, wildcards, operators) are sanitized so they degrade to
// zero-or-partial results instead of failing the call.
func (s *Store) SearchMessages(query, bot string, limit int) ([]MessageHit, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT m.id, m.conversation_id, m.role, m.content, m.timestamp, m.bot,
		       c.title AS conversation_title, c.bot AS conversation_bot
		FROM messages_fts fts
		JOIN messages m ON m.id = fts.message_id
		JOIN conversations c ON c.id = m.conversation_id
		WHERE messages_fts MATCH ?
	`
	args := []any{ftsQuery}

	if bot != "" {
		sqlQuery += " AND c.bot = ?"
		args = append(args, bot)
	}

	sqlQuery += " ORDER BY rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	var results []MessageHit
	for rows.Next() {
		var h MessageHit
		var role string
		if err := rows.Scan(
			&h.MessageID, &h.ConversationID, &role, &h.Content, &h.Timestamp,
			&h.Bot, &h.ConversationTitle, &h.ConversationBot,
		); err != nil {
			return nil, err
		}
		h.Role = Role(role)
		results = append(results, h)
	}
	return results, rows.Err()
}

// ─── Bots ────────────────────────────────────────────────────────────────────

func (s *Store) GetBots() ([]Bot, error) {
	rows, err := s.db.Query(
		`SELECT id, display_name, first_seen, last_used, conversation_count, message_count
		 FROM bots
		 ORDER BY last_used DESC, conversation_count DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Bot
	for rows.Next() {
		var b Bot
		var lastUsed sql.NullString
		if err := rows.Scan(&b.ID, &b.DisplayName, &b.FirstSeen, &lastUsed, &b.ConversationCount, &b.MessageCount); err != nil {
			return nil, err
		}
		b.LastUsed = lastUsed.String
		results = append(results, b)
	}
	return results, rows.Err()
}

// ─── Analytics ───────────────────────────────────────────────────────────────

// GetAnalytics computes period-scoped summary statistics from the current
// rows. Period is one of day/week/month/year; anything else falls back to
// month. The windows are trailing: month means the last 30 days, year the
// last 365.
func (s *Store) GetAnalytics(period string) (*Analytics, error) {
	now := time.Now().UTC()
	var start time.Time
	switch period {
	case "day":
		start = now.AddDate(0, 0, -1)
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, 0, -30)
	case "year":
		start = now.AddDate(0, 0, -365)
	default:
		period = "month"
		start = now.AddDate(0, 0, -30)
	}
	startStr := start.Format(time.RFC3339)

	a := &Analytics{Period: period, StartDate: startStr}

	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM conversations WHERE created_at >= ?`, startStr,
	).Scan(&a.TotalConversations); err != nil {
		return nil, fmt.Errorf("analytics: conversations: %w", err)
	}

	if err := s.db.QueryRow(
		`SELECT COUNT(DISTINCT bot) FROM conversations WHERE created_at >= ?`, startStr,
	).Scan(&a.ActiveBots); err != nil {
		return nil, fmt.Errorf("analytics: bots: %w", err)
	}

	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE role = 'user' AND timestamp >= ?`, startStr,
	).Scan(&a.MessagesSent); err != nil {
		return nil, fmt.Errorf("analytics: messages: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRow(
		`SELECT AVG(message_count) FROM conversations
		 WHERE created_at >= ? AND message_count > 0`, startStr,
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("analytics: average length: %w", err)
	}
	a.AvgConversationLength = avg.Float64

	return a, nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	s.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&stats.TotalConversations)
	s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&stats.TotalMessages)
	s.db.QueryRow("SELECT COUNT(*) FROM bots").Scan(&stats.TotalBots)

	rows, err := s.db.Query("SELECT id FROM bots ORDER BY last_used DESC")
	if err != nil {
		return stats, nil
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			stats.Bots = append(stats.Bots, id)
		}
	}

	return stats, nil
}

// ─── Export / Import ─────────────────────────────────────────────────────────

func (s *Store) Export() (*ExportData, error) {
	data := &ExportData{
		Version:    "0.1.0",
		ExportedAt: Now(),
	}

	summaries, err := s.GetConversations(ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("export: list conversations: %w", err)
	}

	for _, summary := range summaries {
		full, err := s.GetConversation(summary.ID)
		if err != nil {
			return nil, fmt.Errorf("export: conversation %s: %w", summary.ID, err)
		}
		if full == nil {
			continue
		}
		data.Conversations = append(data.Conversations, *full)
	}

	return data, nil
}

// Import replays each exported conversation through SaveConversation, so
// importing the same dump twice is a no-op beyond the first.
func (s *Store) Import(data *ExportData) (*ImportResult, error) {
	result := &ImportResult{}
	for _, c := range data.Conversations {
		if err := s.SaveConversation(c); err != nil {
			return nil, fmt.Errorf("import conversation %s: %w", c.ID, err)
		}
		result.ConversationsImported++
		result.MessagesImported += len(c.Messages)
	}
	return result, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (Conversation, error) {
	var c Conversation
	var meta sql.NullString
	if err := row.Scan(&c.ID, &c.Bot, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.MessageCount, &meta); err != nil {
		return Conversation{}, err
	}
	var err error
	if c.Metadata, err = unmarshalMetadata(meta); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

func marshalMetadata(m map[string]string) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func unmarshalMetadata(v sql.NullString) (map[string]string, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(v.String), &m); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return m, nil
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// sanitizeFTS wraps each term in quotes so FTS5 doesn't choke on special
// chars. `fastapi OR "` becomes `"fastapi" "OR"`. Returns "" for blank input.
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	sanitized := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		sanitized = append(sanitized, `"`+w+`"`)
	}
	return strings.Join(sanitized, " ")
}

// timeLayouts are the producer timestamp shapes seen in Poe exports.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeTime reformats ISO-8601-ish timestamps to RFC3339 UTC so that
// string comparison orders them correctly. Blank input gets the fallback;
// unparseable input is stored as given.
func normalizeTime(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}

// displayNameFor derives a human-readable name from a bot id:
// "claude_instant" → "Claude Instant".
func displayNameFor(id string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(id)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return id
	}
	return strings.Join(words, " ")
}

// Now returns the current time formatted for storage.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
