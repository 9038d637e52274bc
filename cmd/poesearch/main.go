// Poesearch — Searchable archive for Poe conversations.
//
// Usage:
//
//	poesearch serve           Start HTTP API server
//	poesearch mcp             Start MCP server (stdio transport)
//	poesearch search <query>  Search conversations from CLI
//	poesearch list            List recent conversations
//	poesearch show <id>       Show a full conversation transcript
//	poesearch stats           Show archive stats
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hkevin01/poe-search-sub001/internal/mcp"
	"github.com/hkevin01/poe-search-sub001/internal/search"
	"github.com/hkevin01/poe-search-sub001/internal/server"
	"github.com/hkevin01/poe-search-sub001/internal/store"
	"github.com/hkevin01/poe-search-sub001/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := store.DefaultConfig()

	// Allow overriding data dir via env
	if dir := os.Getenv("POESEARCH_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(cfg)
	case "mcp":
		cmdMCP(cfg)
	case "tui":
		cmdTUI(cfg)
	case "search":
		cmdSearch(cfg)
	case "fuzzy":
		cmdFuzzy(cfg)
	case "list":
		cmdList(cfg)
	case "show":
		cmdShow(cfg)
	case "bots":
		cmdBots(cfg)
	case "analytics":
		cmdAnalytics(cfg)
	case "stats":
		cmdStats(cfg)
	case "export":
		cmdExport(cfg)
	case "import":
		cmdImport(cfg)
	case "version", "--version", "-v":
		fmt.Printf("poesearch %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// ─── Commands ────────────────────────────────────────────────────────────────

func cmdServe(cfg store.Config) {
	port := server.DefaultPort
	if p := os.Getenv("POESEARCH_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	// Allow: poesearch serve 8080
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil {
			port = n
		}
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	srv := server.New(s, port)
	if err := srv.Run(); err != nil {
		fatal(err)
	}
}

func cmdMCP(cfg store.Config) {
	tools := ""
	for i := 2; i < len(os.Args); i++ {
		if strings.HasPrefix(os.Args[i], "--tools=") {
			tools = strings.TrimPrefix(os.Args[i], "--tools=")
		} else if os.Args[i] == "--tools" && i+1 < len(os.Args) {
			tools = os.Args[i+1]
			i++
		}
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	mcpSrv := mcp.NewServerWithTools(s, mcp.ResolveTools(tools))
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		fatal(err)
	}
}

func cmdTUI(cfg store.Config) {
	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	model := tui.New(s, version)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fatal(err)
	}
}

func cmdSearch(cfg store.Config) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: poesearch search <query> [--bot BOT] [--days N] [--limit N]")
		os.Exit(1)
	}

	// Collect the query (everything that's not a flag)
	var queryParts []string
	opts := search.Options{Limit: 10}

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--bot":
			if i+1 < len(os.Args) {
				opts.Bot = os.Args[i+1]
				i++
			}
		case "--days":
			if i+1 < len(os.Args) {
				if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
					opts.Days = n
				}
				i++
			}
		case "--limit":
			if i+1 < len(os.Args) {
				if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
					opts.Limit = n
				}
				i++
			}
		default:
			queryParts = append(queryParts, os.Args[i])
		}
	}

	query := strings.Join(queryParts, " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "error: search query is required")
		os.Exit(1)
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	engine := search.NewEngine(s)
	results, err := engine.Search(query, opts)
	if err != nil {
		fatal(err)
	}

	printResults(query, results)
}

func cmdFuzzy(cfg store.Config) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: poesearch fuzzy <query> [--threshold F] [--limit N]")
		os.Exit(1)
	}

	var queryParts []string
	threshold := 0.6
	opts := search.Options{Limit: 10}

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--threshold":
			if i+1 < len(os.Args) {
				if f, err := strconv.ParseFloat(os.Args[i+1], 64); err == nil {
					threshold = f
				}
				i++
			}
		case "--limit":
			if i+1 < len(os.Args) {
				if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
					opts.Limit = n
				}
				i++
			}
		default:
			queryParts = append(queryParts, os.Args[i])
		}
	}

	query := strings.Join(queryParts, " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "error: search query is required")
		os.Exit(1)
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	engine := search.NewEngine(s)
	results, err := engine.FuzzySearch(query, threshold, opts)
	if err != nil {
		fatal(err)
	}

	printResults(query, results)
}

func cmdList(cfg store.Config) {
	opts := store.ListOptions{Limit: 20}

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--bot":
			if i+1 < len(os.Args) {
				opts.Bot = os.Args[i+1]
				i++
			}
		case "--days":
			if i+1 < len(os.Args) {
				if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
					opts.Days = n
				}
				i++
			}
		case "--limit":
			if i+1 < len(os.Args) {
				if n, err := strconv.Atoi(os.Args[i+1]); err == nil {
					opts.Limit = n
				}
				i++
			}
		}
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	convs, err := s.GetConversations(opts)
	if err != nil {
		fatal(err)
	}

	if len(convs) == 0 {
		fmt.Println("No conversations archived yet.")
		return
	}

	fmt.Printf("%d conversations:\n\n", len(convs))
	for _, c := range convs {
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s [%s] %s\n    %d messages | updated %s\n\n",
			c.ID, c.Bot, truncate(title, 60), c.MessageCount, c.UpdatedAt)
	}
}

func cmdShow(cfg store.Config) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: poesearch show <conversation_id>")
		os.Exit(1)
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	conv, err := s.GetConversation(os.Args[2])
	if err != nil {
		fatal(err)
	}
	if conv == nil {
		fmt.Fprintf(os.Stderr, "conversation %q not found\n", os.Args[2])
		os.Exit(1)
	}

	title := conv.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Printf("%s — %s\n", conv.ID, title)
	fmt.Printf("Bot: %s | %d messages | updated %s\n\n", conv.Bot, conv.MessageCount, conv.UpdatedAt)

	for _, m := range conv.Messages {
		who := "you"
		if m.Role == store.RoleBot {
			who = conv.Bot
		} else if m.Role == store.RoleOther {
			who = "other"
		}
		fmt.Printf("[%s] %s\n%s\n\n", who, m.Timestamp, m.Content)
	}
}

func cmdBots(cfg store.Config) {
	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	bots, err := s.GetBots()
	if err != nil {
		fatal(err)
	}

	if len(bots) == 0 {
		fmt.Println("No bots yet.")
		return
	}

	fmt.Printf("%d bots:\n\n", len(bots))
	for _, b := range bots {
		fmt.Printf("%-24s %4d conversations  %5d messages  last used %s\n",
			b.DisplayName, b.ConversationCount, b.MessageCount, b.LastUsed)
	}
}

func cmdAnalytics(cfg store.Config) {
	period := "month"
	if len(os.Args) > 2 {
		period = os.Args[2]
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	a, err := s.GetAnalytics(period)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Archive activity (last %s, since %s)\n", a.Period, a.StartDate)
	fmt.Printf("  Conversations: %d\n", a.TotalConversations)
	fmt.Printf("  Active bots:   %d\n", a.ActiveBots)
	fmt.Printf("  Messages sent: %d\n", a.MessagesSent)
	fmt.Printf("  Avg length:    %.1f messages\n", a.AvgConversationLength)
}

func cmdStats(cfg store.Config) {
	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	stats, err := s.Stats()
	if err != nil {
		fatal(err)
	}

	bots := "none yet"
	if len(stats.Bots) > 0 {
		bots = strings.Join(stats.Bots, ", ")
	}

	fmt.Printf("Poesearch Archive Stats\n")
	fmt.Printf("  Conversations: %d\n", stats.TotalConversations)
	fmt.Printf("  Messages:      %d\n", stats.TotalMessages)
	fmt.Printf("  Bots:          %s\n", bots)
	fmt.Printf("  Database:      %s/poesearch.db\n", cfg.DataDir)
}

func cmdExport(cfg store.Config) {
	outFile := "poesearch-export.json"
	if len(os.Args) > 2 {
		outFile = os.Args[2]
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	data, err := s.Export()
	if err != nil {
		fatal(err)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fatal(err)
	}

	if err := os.WriteFile(outFile, out, 0644); err != nil {
		fatal(err)
	}

	fmt.Printf("Exported to %s\n", outFile)
	fmt.Printf("  Conversations: %d\n", len(data.Conversations))
}

func cmdImport(cfg store.Config) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: poesearch import <file.json>")
		os.Exit(1)
	}

	inFile := os.Args[2]
	raw, err := os.ReadFile(inFile)
	if err != nil {
		fatal(fmt.Errorf("read %s: %w", inFile, err))
	}

	var data store.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		fatal(fmt.Errorf("parse %s: %w", inFile, err))
	}

	s, err := store.New(cfg)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	result, err := s.Import(&data)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Imported from %s\n", inFile)
	fmt.Printf("  Conversations: %d\n", result.ConversationsImported)
	fmt.Printf("  Messages:      %d\n", result.MessagesImported)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func printResults(query string, results []search.Result) {
	if len(results) == 0 {
		fmt.Printf("No conversations found for: %q\n", query)
		return
	}

	fmt.Printf("Found %d conversations:\n\n", len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("[%d] %s (%s) — %s\n    %s\n    %s | score %.1f | %d matching messages\n\n",
			i+1, r.ID, r.Bot, truncate(title, 60),
			truncate(r.Preview, 300),
			r.Date, r.Score, len(r.Matches))
	}
}

func printUsage() {
	fmt.Printf(`poesearch v%s — Searchable archive for Poe conversations

Usage:
  poesearch <command> [arguments]

Commands:
  serve [port]       Start HTTP API server (default: %d)
  mcp                Start MCP server (stdio transport, for any AI agent)
                       --tools reader|writer|name,...  Restrict registered tools
  tui                Launch interactive terminal UI
  search <query>     Search conversations [--bot BOT] [--days N] [--limit N]
  fuzzy <query>      Typo-tolerant search [--threshold F] [--limit N]
  list               List recent conversations [--bot BOT] [--days N] [--limit N]
  show <id>          Show a full conversation transcript
  bots               List bots with usage counts
  analytics [period] Show activity summary (day|week|month|year, default: month)
  stats              Show archive statistics
  export [file]      Export all conversations to JSON (default: poesearch-export.json)
  import <file>      Import conversations from a JSON export file
  version            Print version
  help               Show this help

Environment:
  POESEARCH_DATA_DIR Override data directory (default: ~/.poesearch)
  POESEARCH_PORT     Override HTTP server port (default: %d)

MCP Configuration (add to your agent's config):
  {
    "mcp": {
      "poesearch": {
        "type": "stdio",
        "command": "poesearch",
        "args": ["mcp"]
      }
    }
  }
`, version, server.DefaultPort, server.DefaultPort)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "poesearch: %s\n", err)
	os.Exit(1)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
