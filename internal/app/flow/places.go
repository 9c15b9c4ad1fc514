package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// IdentifyPlacesStage asks the model to pick the standout places mentioned
// in the gathered research. Non-critical: if the model keeps returning
// garbage the stage degrades to an empty list and the flow moves on.
type IdentifyPlacesStage struct {
	llm     domain.LLMClient
	retries int
}

func NewIdentifyPlacesStage(llm domain.LLMClient, retries int) *IdentifyPlacesStage {
	return &IdentifyPlacesStage{llm: llm, retries: retries}
}

func (s *IdentifyPlacesStage) Name() string { return StageIdentifyPlaces }

func (s *IdentifyPlacesStage) Prepare(store *domain.TripStore) (any, error) {
	var b strings.Builder
	writeCategory := func(name string, cats []domain.CategoryResult) {
		fmt.Fprintf(&b, "\n--- %s ---\n", strings.ToUpper(name))
		for _, cat := range cats {
			for _, r := range cat.Results {
				fmt.Fprintf(&b, "%s: %s\n", r.Title, r.Snippet)
			}
		}
	}
	writeCategory("accommodations", store.Accommodations)
	writeCategory("restaurants", store.Restaurants)
	writeCategory("activities", store.Activities)
	return b.String(), nil
}

type placesResult struct {
	Places []string `yaml:"places"`
}

func (s *IdentifyPlacesStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	ev.Thinking("Identifying standout places to review...")

	res, err := generateDecoded[placesResult](ctx, s.llm, buildIdentifyPlacesPrompt(in.(string)), s.retries)
	if err != nil {
		// Degraded default: reviews are an enrichment, not a prerequisite.
		return placesResult{}, nil
	}
	return res, nil
}

func (s *IdentifyPlacesStage) Finalize(store *domain.TripStore, ev Events, _, out any) (Action, error) {
	res := out.(placesResult)
	store.PlacesToReview = res.Places
	ev.Progress(fmt.Sprintf("Identified %d places to review", len(res.Places)), "identify")
	return ActionDefault, nil
}

// PlaceReviewsStage fans out a review lookup per identified place.
type PlaceReviewsStage struct {
	search domain.SearchClient
}

func NewPlaceReviewsStage(search domain.SearchClient) *PlaceReviewsStage {
	return &PlaceReviewsStage{search: search}
}

func (s *PlaceReviewsStage) Name() string { return StagePlaceReviews }

func (s *PlaceReviewsStage) Prepare(store *domain.TripStore) (any, error) {
	return append([]string(nil), store.PlacesToReview...), nil
}

func (s *PlaceReviewsStage) Units(in any) []any {
	places := in.([]string)
	units := make([]any, len(places))
	for i, p := range places {
		units[i] = p
	}
	return units
}

func (s *PlaceReviewsStage) ExecuteUnit(ctx context.Context, ev Events, unit any) (any, error) {
	name := unit.(string)
	query := fmt.Sprintf("latest reviews of %s positive negative", name)
	ev.Searching("Checking reviews for "+name, query)

	result := runSearch(ctx, s.search, query)
	var snippets []string
	for i, r := range result.Results {
		if i >= 3 {
			break
		}
		snippets = append(snippets, r.Snippet)
	}
	return domain.PlaceReview{Name: name, Snippets: snippets}, nil
}

func (s *PlaceReviewsStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	return nil, fmt.Errorf("place_reviews is a batch stage")
}

func (s *PlaceReviewsStage) Finalize(store *domain.TripStore, ev Events, _, out any) (Action, error) {
	results := out.([]any)
	store.PlaceReviews = store.PlaceReviews[:0]
	for _, r := range results {
		store.PlaceReviews = append(store.PlaceReviews, r.(domain.PlaceReview))
	}
	ev.Progress(fmt.Sprintf("Fetched reviews for %d places", len(results)), "reviews")
	return ActionDefault, nil
}
