package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerperSearch(t *testing.T) {
	var gotKey, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		var req serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req.Query

		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "Paris Guide", "link": "https://example.com/paris", "snippet": "All about Paris."},
				{"title": "Top 10 Paris", "link": "https://example.com/top10", "snippet": "Attractions."},
			},
		})
	}))
	defer ts.Close()

	c := NewSerperClient("secret")
	c.baseURL = ts.URL

	results, err := c.Search(context.Background(), "Paris travel guide")

	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "Paris travel guide", gotQuery)
	require.Len(t, results, 2)
	assert.Equal(t, "Paris Guide", results[0].Title)
	assert.Equal(t, "https://example.com/paris", results[0].URL)
	assert.Equal(t, "All about Paris.", results[0].Snippet)
}

func TestSerperSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewSerperClient("bad-key")
	c.baseURL = ts.URL

	_, err := c.Search(context.Background(), "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestMockSearchReturnsResults(t *testing.T) {
	m := NewMockSearch()

	results, err := m.Search(context.Background(), "Paris hotels")

	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NotEmpty(t, r.Title)
		assert.NotEmpty(t, r.Snippet)
	}
}
