package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ibra/centime/internal/config"
	"github.com/ibra/centime/internal/database"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return NewServer(db, config.Config{}, zerolog.Nop()).Router()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestCreateTransactionAppliesRules(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/keyword-rules", gin.H{
		"keyword": "starbucks", "category": "Dining Out", "tags": []string{"coffee"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"amount": -5.75, "description": "STARBUCKS #1234", "card_type": "Credit",
		"date": "2024-03-15", "bank": "TD",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	decode(t, w, &created)
	require.Equal(t, "Dining Out", created["category"])
	// tags on the wire are plain name strings, same shape as applied_rules[].tags
	require.Equal(t, []any{"coffee"}, created["tags"])
	applied, ok := created["applied_rules"].([]any)
	require.True(t, ok)
	require.Len(t, applied, 1)
	rule := applied[0].(map[string]any)
	require.Equal(t, "starbucks", rule["keyword"])
	require.Equal(t, []any{"coffee"}, rule["tags"])

	// no rule matches: category defaults and applied_rules is an empty array
	w = doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"amount": -12.00, "description": "LOCAL DINER", "date": "2024-03-16",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var plain map[string]any
	decode(t, w, &plain)
	require.Equal(t, "Uncategorized", plain["category"])
	require.Equal(t, []any{}, plain["tags"])
	require.Equal(t, []any{}, plain["applied_rules"])

	w = doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"description": "NO AMOUNT", "date": "2024-03-16",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"amount": -1.0, "description": "BAD DATE", "date": "16/03/2024",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuleEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/keyword-rules", gin.H{
		"keyword": "coffee", "category": "Dining Out", "tags": []string{"a", "b"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var createdBody map[string]any
	decode(t, w, &createdBody)
	require.Equal(t, "coffee", createdBody["keyword"])

	w = doJSON(t, r, http.MethodPost, "/api/keyword-rules", gin.H{"keyword": "coffee"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/keyword-rules", gin.H{"keyword": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/keyword-rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rules []struct {
		Keyword  string   `json:"keyword"`
		Category *string  `json:"category"`
		Tags     []string `json:"tags"`
	}
	decode(t, w, &rules)
	require.Len(t, rules, 1)
	require.Equal(t, "Dining Out", *rules[0].Category)
	require.ElementsMatch(t, []string{"a", "b"}, rules[0].Tags)

	w = doJSON(t, r, http.MethodPut, "/api/keyword-rules/coffee", gin.H{"category": "Cafe"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/keyword-rules/coffee", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/keyword-rules/nope", gin.H{"category": "X"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/keyword-rules/coffee", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/keyword-rules/coffee", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyKeywordTags(t *testing.T) {
	r := newTestRouter(t)

	for _, desc := range []string{"NETFLIX.COM", "Netflix Monthly", "NETFLIX *SUB", "GROCERY MART"} {
		w := doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
			"amount": -15.99, "description": desc, "date": "2024-05-01",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/apply-keyword-tags", gin.H{
		"keyword": "netflix", "tags": []string{"subscription", "streaming"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	decode(t, w, &body)
	require.EqualValues(t, 3, body["updatedTransactions"])
	require.Equal(t, true, body["ruleStored"])

	// the rule is persisted for future ingestion
	w = doJSON(t, r, http.MethodGet, "/api/keyword-rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rules []struct {
		Keyword string   `json:"keyword"`
		Tags    []string `json:"tags"`
	}
	decode(t, w, &rules)
	require.Len(t, rules, 1)
	require.Equal(t, "netflix", rules[0].Keyword)
	require.Equal(t, []string{"subscription", "streaming"}, rules[0].Tags)

	w = doJSON(t, r, http.MethodGet, "/api/transactions/tag/subscription", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tagged []map[string]any
	decode(t, w, &tagged)
	require.Len(t, tagged, 3)
	require.ElementsMatch(t, []any{"subscription", "streaming"}, tagged[0]["tags"])

	// reapplying is idempotent on links but still reports the matches
	w = doJSON(t, r, http.MethodPost, "/api/apply-keyword-tags", gin.H{
		"keyword": "netflix", "tags": []string{"subscription"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	require.EqualValues(t, 3, body["updatedTransactions"])
}

func TestApplyKeywordCategory(t *testing.T) {
	r := newTestRouter(t)

	for _, desc := range []string{"UBER TRIP 123", "UBER EATS", "CORNER STORE"} {
		w := doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
			"amount": -20.0, "description": desc, "date": "2024-05-02",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/apply-keyword-category", gin.H{
		"keyword": "uber", "category": "Transport",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	decode(t, w, &body)
	require.EqualValues(t, 2, body["updatedTransactions"])
	require.Equal(t, true, body["ruleStored"])

	w = doJSON(t, r, http.MethodGet, "/api/transactions/category/Transport", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txs []map[string]any
	decode(t, w, &txs)
	require.Len(t, txs, 2)

	w = doJSON(t, r, http.MethodPost, "/api/apply-keyword-category", gin.H{"keyword": "uber"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTagEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/tags", gin.H{"name": "recurring"})
	require.Equal(t, http.StatusCreated, w.Code)
	var tag map[string]any
	decode(t, w, &tag)
	require.Equal(t, "recurring", tag["name"])

	w = doJSON(t, r, http.MethodPost, "/api/tags", gin.H{"name": "recurring"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/tags/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats []map[string]any
	decode(t, w, &stats)
	require.Len(t, stats, 1)
	require.EqualValues(t, 0, stats[0]["transaction_count"])

	w = doJSON(t, r, http.MethodDelete, "/api/tags/recurring", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/tags/recurring", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/transactions", gin.H{
		"amount": -42.0, "description": "HARDWARE STORE", "date": "2024-04-10",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]any
	decode(t, w, &created)
	id := int64(created["id"].(float64))

	w = doJSON(t, r, http.MethodGet, "/api/transactions/42099", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/transactions/abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, txPath(id, "category"), gin.H{"category": "Home"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, txPath(id, "tags"), gin.H{"tag": "diy"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, txPath(id, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	decode(t, w, &got)
	require.Equal(t, "Home", got["category"])
	require.Equal(t, []any{"diy"}, got["tags"])

	w = doJSON(t, r, http.MethodDelete, txPath(id, ""), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, txPath(id, ""), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardEndpoints(t *testing.T) {
	r := newTestRouter(t)

	for _, tx := range []gin.H{
		{"amount": -15.99, "description": "NETFLIX.COM", "date": "2024-05-01", "category": "Entertainment"},
		{"amount": 2000.0, "description": "PAYROLL", "date": "2024-05-15", "category": "Income"},
		{"amount": -10.0, "description": "MYSTERY", "date": "2024-06-01"},
	} {
		w := doJSON(t, r, http.MethodPost, "/api/transactions", tx)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]any
	decode(t, w, &stats)
	require.EqualValues(t, 3, stats["total_transactions"])
	require.InDelta(t, -25.99, stats["total_spent"].(float64), 0.001)
	require.EqualValues(t, 1, stats["uncategorized"])

	w = doJSON(t, r, http.MethodGet, "/api/dashboard/monthly-spending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var months []map[string]any
	decode(t, w, &months)
	require.Len(t, months, 2)

	w = doJSON(t, r, http.MethodGet, "/api/analytics/category-breakdown?startDate=2024-05-01&endDate=2024-05-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var breakdown []map[string]any
	decode(t, w, &breakdown)
	require.Len(t, breakdown, 2)

	w = doJSON(t, r, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func txPath(id int64, suffix string) string {
	p := fmt.Sprintf("/api/transactions/%d", id)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}
