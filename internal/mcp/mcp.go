// Package mcp implements the Model Context Protocol server for poesearch.
//
// This exposes the conversation archive via MCP stdio transport so any
// agent (Claude Code, OpenCode, Cursor, Windsurf, etc.) can search and
// read archived Poe conversations just by adding it as an MCP server.
//
// Tool profiles allow clients to load only the tools they need:
//
//	poesearch mcp                      → all 7 tools (default)
//	poesearch mcp --tools=reader       → read-only tools
//	poesearch mcp --tools=writer       → archive-mutating tools
//	poesearch mcp --tools=conv_search,conv_get → individual tool names
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hkevin01/poe-search-sub001/internal/search"
	"github.com/hkevin01/poe-search-sub001/internal/store"
)

// ─── Tool Profiles ───────────────────────────────────────────────────────────

// ProfileReader contains the tools that only read the archive.
var ProfileReader = map[string]bool{
	"conv_search":    true,
	"conv_fuzzy":     true,
	"conv_list":      true,
	"conv_get":       true,
	"conv_bots":      true,
	"conv_analytics": true,
}

// ProfileWriter contains tools that mutate the archive.
var ProfileWriter = map[string]bool{
	"conv_save": true,
}

// Profiles maps profile names to their tool sets.
var Profiles = map[string]map[string]bool{
	"reader": ProfileReader,
	"writer": ProfileWriter,
}

// ResolveTools takes a comma-separated string of profile names and/or
// individual tool names and returns the set of tool names to register.
// An empty input means "all" — every tool is registered.
func ResolveTools(input string) map[string]bool {
	input = strings.TrimSpace(input)
	if input == "" || input == "all" {
		return nil // nil means register everything
	}

	result := make(map[string]bool)
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if token == "all" {
			return nil
		}
		if profile, ok := Profiles[token]; ok {
			for tool := range profile {
				result[tool] = true
			}
		} else {
			// Treat as individual tool name
			result[token] = true
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// NewServer creates an MCP server with ALL tools registered.
func NewServer(s *store.Store) *server.MCPServer {
	return NewServerWithTools(s, nil)
}

// serverInstructions tells MCP clients when to reach for these tools.
// This string is returned in the initialize response and may be added to
// the system prompt by clients.
const serverInstructions = `Poesearch is a local archive of Poe chat conversations. Search these ` +
	`tools when you need to: find past conversations about a topic; read a ` +
	`full conversation transcript; see which bots were used and how often; ` +
	`summarize recent chat activity. Key tools: conv_search, conv_get, ` +
	`conv_list.`

// NewServerWithTools creates an MCP server registering only the tools in
// the allowlist. If allowlist is nil, all tools are registered.
func NewServerWithTools(s *store.Store, allowlist map[string]bool) *server.MCPServer {
	srv := server.NewMCPServer(
		"poesearch",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	registerTools(srv, s, allowlist)
	return srv
}

// shouldRegister returns true if the tool should be registered given the
// allowlist. If allowlist is nil, everything is allowed.
func shouldRegister(name string, allowlist map[string]bool) bool {
	if allowlist == nil {
		return true
	}
	return allowlist[name]
}

func registerTools(srv *server.MCPServer, s *store.Store, allowlist map[string]bool) {
	engine := search.NewEngine(s)

	// ─── conv_search (profile: reader, core) ───────────────────────────
	if shouldRegister("conv_search", allowlist) {
		srv.AddTool(
			mcp.NewTool("conv_search",
				mcp.WithDescription("Search archived conversations by message content. Results are ranked per conversation with a preview of the best matching message."),
				mcp.WithTitleAnnotation("Search Conversations"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search query — keywords or a phrase"),
				),
				mcp.WithString("bot",
					mcp.Description("Filter by bot id (e.g. claude_instant, gpt4)"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Max conversations returned (default: 10)"),
				),
				mcp.WithNumber("days",
					mcp.Description("Only conversations active within the last N days"),
				),
				mcp.WithNumber("min_messages",
					mcp.Description("Only conversations with at least N matching messages"),
				),
			),
			handleSearch(engine),
		)
	}

	// ─── conv_fuzzy (profile: reader, deferred) ────────────────────────
	if shouldRegister("conv_fuzzy", allowlist) {
		srv.AddTool(
			mcp.NewTool("conv_fuzzy",
				mcp.WithDescription("Typo-tolerant conversation search. Retries the query under case and adjacent-character-swap variants. Use when conv_search finds nothing and the query might be misspelled."),
				mcp.WithDeferLoading(true),
				mcp.WithTitleAnnotation("Fuzzy Search"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search query, possibly containing typos"),
				),
				mcp.WithNumber("threshold",
					mcp.Description("Similarity threshold in [0,1]; lower keeps more results (default: 0.6)"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Max conversations returned (default: 10)"),
				),
			),
			handleFuzzySearch(engine),
		)
	}

	// ─── conv_list (profile: reader, core) ─────────────────────────────
	if shouldRegister("conv_list", allowlist) {
		srv.AddTool(
			mcp.NewTool("conv_list",
				mcp.WithDescription("List archived conversations, newest activity first. Returns summaries without message bodies; use conv_get for the full transcript."),
				mcp.WithTitleAnnotation("List Conversations"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("bot",
					mcp.Description("Filter by bot id"),
				),
				mcp.WithNumber("days",
					mcp.Description("Only conversations updated in the last N days"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Max conversations returned (default: 20)"),
				),
			),
			handleList(s),
		)
	}

	// ─── conv_get (profile: reader, core) ──────────────────────────────
	if shouldRegister("conv_get", allowlist) {
		srv.AddTool(
			mcp.NewTool("conv_get",
				mcp.WithDescription("Get the full transcript of a conversation by id, with all messages in order. Use after conv_search or conv_list."),
				mcp.WithTitleAnnotation("Get Conversation"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("The conversation id (from conv_search or conv_list results)"),
				),
			),
			handleGet(s),
		)
	}

	// ─── conv_save (profile: writer, deferred) ─────────────────────────
	if shouldRegister("conv_save", allowlist) {
		srv.AddTool(
			mcp.NewTool("conv_save",
				mcp.WithDescription(`Save a conversation to the archive. Re-saving an existing id replaces its stored messages entirely, so always pass the complete message list.

Messages use roles "user", "bot", or "other". Timestamps are ISO-8601; they are normalized on save.`),
				mcp.WithDeferLoading(true),
				mcp.WithTitleAnnotation("Save Conversation"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("id",
					mcp.Required(),
					mcp.Description("Stable conversation identifier"),
				),
				mcp.WithString("bot",
					mcp.Required(),
					mcp.Description("Bot id the conversation belongs to"),
				),
				mcp.WithString("title",
					mcp.Description("Conversation title"),
				),
				mcp.WithArray("messages",
					mcp.Description("Complete ordered message list; items have id, role, content, timestamp"),
				),
			),
			handleSave(s),
		)
	}

	// ─── conv_bots (profile: reader, deferred) ─────────────────────────
	if shouldRegister("conv_bots", allowlist) {
		srv.AddTool(
			mcp.NewTool("conv_bots",
				mcp.WithDescription("List every bot in the archive with conversation and message counts."),
				mcp.WithDeferLoading(true),
				mcp.WithTitleAnnotation("List Bots"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
			),
			handleBots(s),
		)
	}

	// ─── conv_analytics (profile: reader, deferred) ────────────────────
	if shouldRegister("conv_analytics", allowlist) {
		srv.AddTool(
			mcp.NewTool("conv_analytics",
				mcp.WithDescription("Summarize archive activity over a period: conversation count, active bots, messages sent, average conversation length."),
				mcp.WithDeferLoading(true),
				mcp.WithTitleAnnotation("Archive Analytics"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithDestructiveHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithOpenWorldHintAnnotation(false),
				mcp.WithString("period",
					mcp.Description("Window: day, week, month, or year (default: month)"),
				),
			),
			handleAnalytics(s),
		)
	}
}

// ─── Tool Handlers ───────────────────────────────────────────────────────────

func handleSearch(engine *search.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, _ := req.GetArguments()["query"].(string)

		results, err := engine.Search(query, search.Options{
			Bot:         stringArg(req, "bot"),
			Limit:       intArg(req, "limit", 10),
			Days:        intArg(req, "days", 0),
			MinMessages: intArg(req, "min_messages", 0),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Search error: %s. Try simpler keywords.", err)), nil
		}

		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No conversations found for: %q", query)), nil
		}

		return mcp.NewToolResultText(formatResults(results)), nil
	}
}

func handleFuzzySearch(engine *search.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, _ := req.GetArguments()["query"].(string)
		threshold := floatArg(req, "threshold", 0.6)
		if threshold < 0 || threshold > 1 {
			return mcp.NewToolResultError("threshold must be between 0 and 1"), nil
		}

		results, err := engine.FuzzySearch(query, threshold, search.Options{
			Limit: intArg(req, "limit", 10),
		})
		if err != nil {
			return mcp.NewToolResultError("Fuzzy search error: " + err.Error()), nil
		}

		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No conversations found for %q or its variants", query)), nil
		}

		return mcp.NewToolResultText(formatResults(results)), nil
	}
}

func handleList(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		convs, err := s.GetConversations(store.ListOptions{
			Bot:   stringArg(req, "bot"),
			Days:  intArg(req, "days", 0),
			Limit: intArg(req, "limit", 20),
		})
		if err != nil {
			return mcp.NewToolResultError("Failed to list conversations: " + err.Error()), nil
		}

		if len(convs) == 0 {
			return mcp.NewToolResultText("No conversations in the archive match those filters."), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d conversations:\n\n", len(convs))
		for i, c := range convs {
			title := c.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(&b, "[%d] %s — %s\n    bot: %s | messages: %d | updated: %s\n\n",
				i+1, c.ID, title, c.Bot, c.MessageCount, c.UpdatedAt)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleGet(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		if id == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		conv, err := s.GetConversation(id)
		if err != nil {
			return mcp.NewToolResultError("Failed to get conversation: " + err.Error()), nil
		}
		if conv == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Conversation %q not found", id)), nil
		}

		var b strings.Builder
		title := conv.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "%s\nid: %s | bot: %s | messages: %d\ncreated: %s | updated: %s\n\n",
			title, conv.ID, conv.Bot, conv.MessageCount, conv.CreatedAt, conv.UpdatedAt)
		for _, m := range conv.Messages {
			fmt.Fprintf(&b, "[%s] %s\n%s\n\n", m.Role, m.Timestamp, m.Content)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleSave(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		conv := store.Conversation{
			ID:    stringArg(req, "id"),
			Bot:   stringArg(req, "bot"),
			Title: stringArg(req, "title"),
		}

		if rawMessages, ok := req.GetArguments()["messages"].([]any); ok {
			for _, raw := range rawMessages {
				item, ok := raw.(map[string]any)
				if !ok {
					return mcp.NewToolResultError("each message must be an object with id, role, content, timestamp"), nil
				}
				msg := store.Message{
					ID:        asString(item["id"]),
					Role:      store.Role(asString(item["role"])),
					Content:   asString(item["content"]),
					Timestamp: asString(item["timestamp"]),
				}
				if bot := asString(item["bot"]); bot != "" {
					msg.Bot = &bot
				}
				conv.Messages = append(conv.Messages, msg)
			}
		}

		existed, err := s.ConversationExists(conv.ID)
		if err != nil {
			return mcp.NewToolResultError("Failed to check conversation: " + err.Error()), nil
		}

		if err := s.SaveConversation(conv); err != nil {
			return mcp.NewToolResultError("Failed to save: " + err.Error()), nil
		}

		verb := "saved"
		if existed {
			verb = "updated"
		}
		return mcp.NewToolResultText(fmt.Sprintf("Conversation %q %s with %d messages", conv.ID, verb, len(conv.Messages))), nil
	}
}

func handleBots(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		bots, err := s.GetBots()
		if err != nil {
			return mcp.NewToolResultError("Failed to get bots: " + err.Error()), nil
		}

		if len(bots) == 0 {
			return mcp.NewToolResultText("No bots in the archive yet."), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d bots in the archive:\n\n", len(bots))
		for _, bot := range bots {
			fmt.Fprintf(&b, "- %s (%s): %d conversations, %d messages, last used %s\n",
				bot.DisplayName, bot.ID, bot.ConversationCount, bot.MessageCount, bot.LastUsed)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleAnalytics(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		period := stringArg(req, "period")
		if period == "" {
			period = "month"
		}

		a, err := s.GetAnalytics(period)
		if err != nil {
			return mcp.NewToolResultError("Failed to get analytics: " + err.Error()), nil
		}

		result := fmt.Sprintf(
			"Archive activity (last %s, since %s):\n- Conversations: %d\n- Active bots: %d\n- Messages sent: %d\n- Avg conversation length: %.1f messages",
			a.Period, datePart(a.StartDate),
			a.TotalConversations, a.ActiveBots, a.MessagesSent, a.AvgConversationLength,
		)
		return mcp.NewToolResultText(result), nil
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func formatResults(results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d conversations:\n\n", len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "[%d] %s — %s (score %.1f)\n    %s\n    bot: %s | date: %s | matching messages: %d\n\n",
			i+1, r.ID, title, r.Score,
			truncate(r.Preview, 300),
			r.Bot, r.Date, len(r.Matches))
	}
	return b.String()
}

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return v
}

func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func datePart(timestamp string) string {
	if t, err := time.Parse(time.RFC3339, timestamp); err == nil {
		return t.Format("2006-01-02")
	}
	return timestamp
}
