package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hkevin01/poe-search-sub001/internal/search"
	"github.com/hkevin01/poe-search-sub001/internal/store"
)

func newE2EServer(t *testing.T) (*store.Store, *httptest.Server) {
	t.Helper()
	cfg := store.DefaultConfig()
	cfg.DataDir = t.TempDir()

	s, err := store.New(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	httpServer := httptest.NewServer(New(s, 0).Handler())
	t.Cleanup(func() {
		httpServer.Close()
		_ = s.Close()
	})

	return s, httpServer
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return out
}

func sampleBody(id, bot string, contents ...string) map[string]any {
	messages := make([]map[string]any, 0, len(contents))
	for i, content := range contents {
		role := "user"
		if i%2 == 1 {
			role = "bot"
		}
		messages = append(messages, map[string]any{
			"id":        fmt.Sprintf("%s-m%d", id, i),
			"role":      role,
			"content":   content,
			"timestamp": store.Now(),
		})
	}
	return map[string]any{
		"id":       id,
		"bot":      bot,
		"title":    "Chat " + id,
		"messages": messages,
	}
}

func TestConversationLifecycleE2E(t *testing.T) {
	_, ts := newE2EServer(t)
	client := ts.Client()

	createResp := postJSON(t, client, ts.URL+"/conversations", sampleBody("c-e2e", "claude",
		"How do I configure FastAPI logging?",
		"Use the uvicorn log config.",
	))
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating conversation, got %d", createResp.StatusCode)
	}
	createResp.Body.Close()

	// Re-saving the same id is an update, not a second create.
	againResp := postJSON(t, client, ts.URL+"/conversations", sampleBody("c-e2e", "claude",
		"How do I configure FastAPI logging?",
	))
	if againResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 re-saving conversation, got %d", againResp.StatusCode)
	}
	againResp.Body.Close()

	getResp, err := client.Get(ts.URL + "/conversations/c-e2e")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 getting conversation, got %d", getResp.StatusCode)
	}
	conv := decodeJSON[store.Conversation](t, getResp)
	if len(conv.Messages) != 1 {
		t.Fatalf("expected re-save to replace messages, got %d", len(conv.Messages))
	}

	headReq, err := http.NewRequest(http.MethodHead, ts.URL+"/conversations/c-e2e", nil)
	if err != nil {
		t.Fatalf("build head request: %v", err)
	}
	headResp, err := client.Do(headReq)
	if err != nil {
		t.Fatalf("head conversation: %v", err)
	}
	headResp.Body.Close()
	if headResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for existing conversation, got %d", headResp.StatusCode)
	}

	missingResp, err := client.Get(ts.URL + "/conversations/nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	missingResp.Body.Close()
	if missingResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conversation, got %d", missingResp.StatusCode)
	}
}

func TestSaveRejectsInvalidConversationE2E(t *testing.T) {
	_, ts := newE2EServer(t)
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/conversations", map[string]any{
		"bot": "claude",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for conversation without id, got %d", resp.StatusCode)
	}
	body := decodeJSON[map[string]string](t, resp)
	if !strings.Contains(body["error"], "id") {
		t.Fatalf("error should mention the missing id, got %q", body["error"])
	}
}

func TestUpdateConversationPathIDE2E(t *testing.T) {
	_, ts := newE2EServer(t)
	client := ts.Client()

	createResp := postJSON(t, client, ts.URL+"/conversations", sampleBody("c1", "gpt4", "original"))
	createResp.Body.Close()

	body := sampleBody("c1", "gpt4", "updated content")
	delete(body, "id")
	payload, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/conversations/c1", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build put request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("put conversation: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 updating, got %d", resp.StatusCode)
	}

	getResp, err := client.Get(ts.URL + "/conversations/c1")
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	conv := decodeJSON[store.Conversation](t, getResp)
	if len(conv.Messages) != 1 || conv.Messages[0].Content != "updated content" {
		t.Fatalf("update did not take: %+v", conv.Messages)
	}
}

func TestListConversationsE2E(t *testing.T) {
	_, ts := newE2EServer(t)
	client := ts.Client()

	for _, body := range []map[string]any{
		sampleBody("c1", "claude", "alpha"),
		sampleBody("c2", "gpt4", "beta"),
	} {
		resp := postJSON(t, client, ts.URL+"/conversations", body)
		resp.Body.Close()
	}

	allResp, err := client.Get(ts.URL + "/conversations")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	all := decodeJSON[[]store.Conversation](t, allResp)
	if len(all) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(all))
	}

	filteredResp, err := client.Get(ts.URL + "/conversations?bot=claude")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	filtered := decodeJSON[[]store.Conversation](t, filteredResp)
	if len(filtered) != 1 || filtered[0].Bot != "claude" {
		t.Fatalf("bot filter failed: %+v", filtered)
	}
}

func TestSearchEndpointsE2E(t *testing.T) {
	_, ts := newE2EServer(t)
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/conversations", sampleBody("c1", "claude",
		"Explain docker networking basics.",
		"Bridge networks connect containers on one host.",
	))
	resp.Body.Close()

	searchResp, err := client.Get(ts.URL + "/search?q=docker")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	results := decodeJSON[[]search.Result](t, searchResp)
	if len(results) != 1 || results[0].ID != "c1" {
		t.Fatalf("expected 1 hit for docker, got %+v", results)
	}
	if results[0].Preview == "" {
		t.Fatal("search result missing preview")
	}

	// Special characters degrade instead of erroring.
	degradedResp, err := client.Get(ts.URL + `/search?q=docker%20OR%20%22`)
	if err != nil {
		t.Fatalf("degraded search: %v", err)
	}
	if degradedResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for special-char query, got %d", degradedResp.StatusCode)
	}
	degradedResp.Body.Close()

	fuzzyResp, err := client.Get(ts.URL + "/search/fuzzy?q=dokcer&threshold=0")
	if err != nil {
		t.Fatalf("fuzzy search: %v", err)
	}
	fuzzyResults := decodeJSON[[]search.Result](t, fuzzyResp)
	if len(fuzzyResults) != 1 {
		t.Fatalf("expected fuzzy hit for dokcer, got %d", len(fuzzyResults))
	}

	badThresholdResp, err := client.Get(ts.URL + "/search/fuzzy?q=x&threshold=7")
	if err != nil {
		t.Fatalf("bad threshold: %v", err)
	}
	badThresholdResp.Body.Close()
	if badThresholdResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range threshold, got %d", badThresholdResp.StatusCode)
	}

	convSearchResp, err := client.Get(ts.URL + "/search/conversations?q=docker")
	if err != nil {
		t.Fatalf("conversation search: %v", err)
	}
	convResults := decodeJSON[[]search.Result](t, convSearchResp)
	if len(convResults) != 1 {
		t.Fatalf("expected 1 conversation-level hit, got %d", len(convResults))
	}

	rangeResp, err := client.Get(ts.URL + "/search/range?start=2000-01-01&end=2100-01-01")
	if err != nil {
		t.Fatalf("range search: %v", err)
	}
	rangeResults := decodeJSON[[]search.Result](t, rangeResp)
	if len(rangeResults) != 1 {
		t.Fatalf("expected 1 result in wide range, got %d", len(rangeResults))
	}

	missingRangeResp, err := client.Get(ts.URL + "/search/range?start=2000-01-01")
	if err != nil {
		t.Fatalf("range without end: %v", err)
	}
	missingRangeResp.Body.Close()
	if missingRangeResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing end date, got %d", missingRangeResp.StatusCode)
	}
}

func TestBotsAnalyticsStatsE2E(t *testing.T) {
	_, ts := newE2EServer(t)
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/conversations", sampleBody("c1", "claude_instant", "hi", "hello"))
	resp.Body.Close()

	botsResp, err := client.Get(ts.URL + "/bots")
	if err != nil {
		t.Fatalf("bots: %v", err)
	}
	bots := decodeJSON[[]store.Bot](t, botsResp)
	if len(bots) != 1 || bots[0].DisplayName != "Claude Instant" {
		t.Fatalf("unexpected bots payload: %+v", bots)
	}

	analyticsResp, err := client.Get(ts.URL + "/analytics?period=week")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	analytics := decodeJSON[store.Analytics](t, analyticsResp)
	if analytics.Period != "week" || analytics.TotalConversations != 1 {
		t.Fatalf("unexpected analytics payload: %+v", analytics)
	}

	statsResp, err := client.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	stats := decodeJSON[store.Stats](t, statsResp)
	if stats.TotalConversations != 1 || stats.TotalMessages != 2 {
		t.Fatalf("unexpected stats payload: %+v", stats)
	}
}

func TestExportImportE2E(t *testing.T) {
	_, ts := newE2EServer(t)
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/conversations", sampleBody("c1", "claude", "export me"))
	resp.Body.Close()

	exportResp, err := client.Get(ts.URL + "/export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	dump := decodeJSON[store.ExportData](t, exportResp)
	if len(dump.Conversations) != 1 {
		t.Fatalf("expected 1 exported conversation, got %d", len(dump.Conversations))
	}

	_, dst := newE2EServer(t)
	importResp := postJSON(t, dst.Client(), dst.URL+"/import", dump)
	result := decodeJSON[store.ImportResult](t, importResp)
	if result.ConversationsImported != 1 {
		t.Fatalf("unexpected import result: %+v", result)
	}

	getResp, err := dst.Client().Get(dst.URL + "/conversations/c1")
	if err != nil {
		t.Fatalf("get imported: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("imported conversation missing, got %d", getResp.StatusCode)
	}
}
