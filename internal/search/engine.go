// Package search ranks full-text index hits into conversation-level results.
//
// The store finds messages; this package groups them by conversation, scores
// them with a lexical heuristic, builds previews, and applies result filters.
package search

import (
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/hkevin01/poe-search-sub001/internal/store"
)

// previewLength caps preview snippets.
const previewLength = 100

// Result is one ranked conversation-level search result.
type Result struct {
	ID      string             `json:"id"`
	Bot     string             `json:"bot"`
	Title   string             `json:"title"`
	Preview string             `json:"preview"`
	Date    string             `json:"date"`
	Score   float64            `json:"score"`
	Matches []store.MessageHit `json:"matches,omitempty"`
}

// Options narrows a search. Zero values mean "not set".
type Options struct {
	Bot         string  `json:"bot,omitempty"`
	Limit       int     `json:"limit,omitempty"`
	Days        int     `json:"days,omitempty"`
	MinScore    float64 `json:"min_score,omitempty"`
	MinMessages int     `json:"min_messages,omitempty"`
}

func (o Options) limitOrDefault() int {
	if o.Limit > 0 {
		return o.Limit
	}
	return 10
}

type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// ─── Ranked search ───────────────────────────────────────────────────────────

// Search runs the full pipeline: lexical index lookup, grouping by
// conversation, relevance scoring with diminishing returns for repeat
// matches, preview generation, then filters and the result limit.
// A blank query returns no results.
func (e *Engine) Search(query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	limit := opts.limitOrDefault()

	// Over-fetch message hits; grouping collapses them per conversation.
	hits, err := e.store.SearchMessages(query, opts.Bot, limit*2)
	if err != nil {
		return nil, err
	}

	grouped := map[string]*Result{}
	var order []string

	for _, hit := range hits {
		if r, ok := grouped[hit.ConversationID]; ok {
			r.Matches = append(r.Matches, hit)
			// Repeat matches in the same conversation count for half.
			r.Score += relevanceScore(hit.Content, query) * 0.5
			continue
		}
		grouped[hit.ConversationID] = &Result{
			ID:      hit.ConversationID,
			Bot:     hit.ConversationBot,
			Title:   hit.ConversationTitle,
			Preview: generatePreview(hit.Content, query, previewLength),
			Date:    datePart(hit.Timestamp),
			Score:   relevanceScore(hit.Content, query),
			Matches: []store.MessageHit{hit},
		}
		order = append(order, hit.ConversationID)
	}

	results := make([]Result, 0, len(grouped))
	for _, id := range order {
		results = append(results, *grouped[id])
	}

	sortByScore(results)
	results = applyFilters(results, opts)

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchConversations matches against conversation titles and message
// content directly, without the full-text index. Title matches weigh 10,
// each matching message adds 1.
func (e *Engine) SearchConversations(query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	limit := opts.limitOrDefault()

	summaries, err := e.store.GetConversations(store.ListOptions{Bot: opts.Bot, Limit: limit * 5})
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var results []Result

	for _, summary := range summaries {
		score := 0.0
		matchCount := 0

		if strings.Contains(strings.ToLower(summary.Title), queryLower) {
			score += 10
		}

		full, err := e.store.GetConversation(summary.ID)
		if err != nil {
			return nil, err
		}
		if full != nil {
			for _, m := range full.Messages {
				if strings.Contains(strings.ToLower(m.Content), queryLower) {
					score++
					matchCount++
				}
			}
		}

		if score <= 0 {
			continue
		}

		preview := summary.Title
		if preview == "" {
			preview = "No title"
		}
		results = append(results, Result{
			ID:      summary.ID,
			Bot:     summary.Bot,
			Title:   summary.Title,
			Preview: preview,
			Date:    datePart(summary.CreatedAt),
			Score:   score,
			Matches: matchHitsFor(full, queryLower, matchCount),
		})
	}

	sortByScore(results)
	results = applyFilters(results, opts)

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FuzzySearch retries the query under case variants and adjacent-character
// swaps, merges the result sets, and keeps conversations whose title or
// preview clears the similarity threshold. threshold 0 keeps everything.
func (e *Engine) FuzzySearch(query string, threshold float64, opts Options) ([]Result, error) {
	variations := queryVariations(query)

	seen := map[string]bool{}
	var merged []Result

	for _, variation := range variations {
		results, err := e.Search(variation, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			merged = append(merged, r)
		}
	}

	if threshold <= 0 {
		return merged, nil
	}

	kept := merged[:0]
	for _, r := range merged {
		if wordSimilarity(query, r.Title+" "+r.Preview) >= threshold {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// SearchByDateRange returns conversations created inside [start, end],
// newest first, with title previews.
func (e *Engine) SearchByDateRange(start, end time.Time, opts Options) ([]Result, error) {
	limit := opts.limitOrDefault()

	summaries, err := e.store.GetConversations(store.ListOptions{Bot: opts.Bot, Limit: limit * 2})
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, summary := range summaries {
		created, err := time.Parse(time.RFC3339, summary.CreatedAt)
		if err != nil {
			continue
		}
		if created.Before(start) || created.After(end) {
			continue
		}

		preview := summary.Title
		if preview == "" {
			preview = "No title"
		}
		results = append(results, Result{
			ID:      summary.ID,
			Bot:     summary.Bot,
			Title:   summary.Title,
			Preview: preview,
			Date:    datePart(summary.CreatedAt),
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// ─── Scoring ─────────────────────────────────────────────────────────────────

// relevanceScore rates content against a query: 10 points for the query as
// a contiguous phrase, 2 per whole-word match, 0.5 per partial overlap,
// scaled down for long content so focused messages rank first.
func relevanceScore(content, query string) float64 {
	if content == "" || query == "" {
		return 0
	}

	contentLower := strings.ToLower(content)
	queryLower := strings.ToLower(query)

	score := 0.0

	if strings.Contains(contentLower, queryLower) {
		score += 10
	}

	queryWords := strings.Fields(queryLower)
	contentWords := strings.Fields(contentLower)
	contentWordSet := map[string]bool{}
	for _, w := range contentWords {
		contentWordSet[w] = true
	}

	for _, word := range queryWords {
		if contentWordSet[word] {
			score += 2
			continue
		}
		for _, contentWord := range contentWords {
			if strings.Contains(contentWord, word) || strings.Contains(word, contentWord) {
				score += 0.5
			}
		}
	}

	// Prefer short, focused content over sprawling messages.
	penalty := 1.0
	if len(content) > 100 {
		penalty = 100.0 / float64(len(content))
	}
	return score * penalty
}

// generatePreview cuts a window of content centered on the first
// case-insensitive occurrence of the query, with ellipses marking truncation.
func generatePreview(content, query string, maxLength int) string {
	if content == "" {
		return ""
	}
	if query == "" {
		return truncateWithEllipsis(content, maxLength)
	}

	pos := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if pos == -1 {
		return truncateWithEllipsis(content, maxLength)
	}

	context := (maxLength - len(query)) / 2
	start := pos - context
	if start < 0 {
		start = 0
	}
	end := pos + len(query) + context
	if end > len(content) {
		end = len(content)
	}

	preview := content[start:end]
	if start > 0 {
		preview = "..." + preview
	}
	if end < len(content) {
		preview = preview + "..."
	}
	return preview
}

func truncateWithEllipsis(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}

// ─── Filters ─────────────────────────────────────────────────────────────────

func applyFilters(results []Result, opts Options) []Result {
	filtered := results

	if opts.Days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -opts.Days).Format("2006-01-02")
		filtered = filterResults(filtered, func(r Result) bool {
			return r.Date >= cutoff
		})
	}

	if opts.MinScore > 0 {
		filtered = filterResults(filtered, func(r Result) bool {
			return r.Score >= opts.MinScore
		})
	}

	if opts.MinMessages > 0 {
		filtered = filterResults(filtered, func(r Result) bool {
			return len(r.Matches) >= opts.MinMessages
		})
	}

	return filtered
}

func filterResults(results []Result, keep func(Result) bool) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func sortByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// ─── Fuzzy helpers ───────────────────────────────────────────────────────────

// queryVariations produces the retry set for fuzzy search: case variants
// plus every adjacent-character swap for queries longer than three chars.
func queryVariations(query string) []string {
	seen := map[string]bool{}
	var variations []string
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		variations = append(variations, v)
	}

	add(query)
	add(strings.ToLower(query))
	add(strings.ToUpper(query))
	add(capitalize(query))

	if len(query) > 3 {
		runes := []rune(query)
		for i := 0; i < len(runes)-1; i++ {
			swapped := make([]rune, len(runes))
			copy(swapped, runes)
			swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
			add(string(swapped))
		}
	}

	return variations
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// wordSimilarity is the fraction of query words that fuzzy-match some word
// of the text, in [0, 1].
func wordSimilarity(query, text string) float64 {
	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return 0
	}
	textWords := strings.Fields(strings.ToLower(text))

	matched := 0
	for _, w := range queryWords {
		if len(fuzzy.Find(w, textWords)) > 0 {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// matchHitsFor converts matching messages to hit records so result shapes
// stay uniform across Search and SearchConversations.
func matchHitsFor(c *store.Conversation, queryLower string, matchCount int) []store.MessageHit {
	if c == nil || matchCount == 0 {
		return nil
	}
	hits := make([]store.MessageHit, 0, matchCount)
	for _, m := range c.Messages {
		if !strings.Contains(strings.ToLower(m.Content), queryLower) {
			continue
		}
		hits = append(hits, store.MessageHit{
			MessageID:         m.ID,
			ConversationID:    c.ID,
			Role:              m.Role,
			Content:           m.Content,
			Timestamp:         m.Timestamp,
			Bot:               m.Bot,
			ConversationTitle: c.Title,
			ConversationBot:   c.Bot,
		})
	}
	return hits
}

func datePart(timestamp string) string {
	if len(timestamp) >= 10 {
		return timestamp[:10]
	}
	return timestamp
}
