package domain

import "context"

// LLMClient defines how stages talk to a language-model service.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SearchClient defines how stages run web searches. An empty result list is
// a valid answer; search failures are never fatal to a run.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// TripArchive persists finished travel guides outside the session's
// lifetime. Saving is best-effort: a failed save never fails the session.
type TripArchive interface {
	SaveTrip(destination string, snapshot TripStore) error
	LoadTrip(destination string) (*TripStore, error)
}
