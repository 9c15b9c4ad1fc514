package search

import (
	"context"
	"fmt"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// MockSearch returns canned results derived from the query, for development
// and tests.
type MockSearch struct{}

func NewMockSearch() *MockSearch {
	return &MockSearch{}
}

func (m *MockSearch) Search(_ context.Context, query string) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, 3)
	for i := 1; i <= 3; i++ {
		results = append(results, domain.SearchResult{
			Title:   fmt.Sprintf("Result %d for %s", i, query),
			URL:     fmt.Sprintf("https://example.com/%d", i),
			Snippet: fmt.Sprintf("Snippet %d about %s.", i, query),
		})
	}
	return results, nil
}
