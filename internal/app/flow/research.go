package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// ResearchStage fans out general destination searches. Search failures
// degrade to empty result lists; research is never fatal to the run.
type ResearchStage struct {
	search domain.SearchClient
}

func NewResearchStage(search domain.SearchClient) *ResearchStage {
	return &ResearchStage{search: search}
}

func (s *ResearchStage) Name() string { return StageResearch }

func (s *ResearchStage) Prepare(store *domain.TripStore) (any, error) {
	destination := store.Trip.Destination
	queries := []string{
		destination + " travel guide",
		destination + " top attractions",
		destination + " best time to visit",
	}
	interests := store.Trip.Interests
	if len(interests) > 2 {
		interests = interests[:2]
	}
	for _, interest := range interests {
		queries = append(queries, destination+" "+interest)
	}
	return queries, nil
}

func (s *ResearchStage) Units(in any) []any {
	queries := in.([]string)
	units := make([]any, len(queries))
	for i, q := range queries {
		units[i] = q
	}
	return units
}

func (s *ResearchStage) ExecuteUnit(ctx context.Context, ev Events, unit any) (any, error) {
	query := unit.(string)
	ev.Searching("Searching: "+query, query)
	return runSearch(ctx, s.search, query), nil
}

func (s *ResearchStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	return nil, fmt.Errorf("research is a batch stage")
}

func (s *ResearchStage) Finalize(store *domain.TripStore, ev Events, _, out any) (Action, error) {
	results := out.([]any)
	store.DestinationInfo = store.DestinationInfo[:0]
	for _, r := range results {
		store.DestinationInfo = append(store.DestinationInfo, r.(domain.CategoryResult))
	}
	ev.Progress(fmt.Sprintf("Completed %d searches", len(results)), "research")
	return ActionDefault, nil
}

// GatherDetailsStage fans out category-specific searches (hotels, transport,
// food, activities, safety, customs, weather) and files the results into the
// store by category.
type GatherDetailsStage struct {
	search domain.SearchClient
}

func NewGatherDetailsStage(search domain.SearchClient) *GatherDetailsStage {
	return &GatherDetailsStage{search: search}
}

func (s *GatherDetailsStage) Name() string { return StageGatherDetails }

func (s *GatherDetailsStage) Prepare(store *domain.TripStore) (any, error) {
	destination := store.Trip.Destination
	style := store.Trip.TravelStyle
	return []string{
		strings.TrimSpace(destination + " " + style + " hotels accommodations"),
		destination + " transportation getting around",
		destination + " restaurants food recommendations",
		destination + " activities things to do",
		destination + " safety tips",
		destination + " local customs",
		destination + " weather forecast",
	}, nil
}

func (s *GatherDetailsStage) Units(in any) []any {
	queries := in.([]string)
	units := make([]any, len(queries))
	for i, q := range queries {
		units[i] = q
	}
	return units
}

func (s *GatherDetailsStage) ExecuteUnit(ctx context.Context, ev Events, unit any) (any, error) {
	query := unit.(string)
	ev.Searching("Searching: "+query, query)
	return runSearch(ctx, s.search, query), nil
}

func (s *GatherDetailsStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	return nil, fmt.Errorf("gather_details is a batch stage")
}

func (s *GatherDetailsStage) Finalize(store *domain.TripStore, ev Events, _, out any) (Action, error) {
	results := out.([]any)
	for _, r := range results {
		item := r.(domain.CategoryResult)
		switch {
		case strings.Contains(item.Query, "hotel") || strings.Contains(item.Query, "accommodation"):
			store.Accommodations = append(store.Accommodations, item)
		case strings.Contains(item.Query, "transportation"):
			store.Transportation = item
		case strings.Contains(item.Query, "restaurant") || strings.Contains(item.Query, "food"):
			store.Restaurants = append(store.Restaurants, item)
		case strings.Contains(item.Query, "activities") || strings.Contains(item.Query, "things to do"):
			store.Activities = append(store.Activities, item)
		}
	}
	ev.Progress(fmt.Sprintf("Gathered travel details across %d categories", len(results)), "details")
	return ActionDefault, nil
}

// runSearch degrades a failed or canceled search to an empty result list.
func runSearch(ctx context.Context, search domain.SearchClient, query string) domain.CategoryResult {
	results, err := search.Search(ctx, query)
	if err != nil {
		results = nil
	}
	return domain.CategoryResult{Query: query, Results: results}
}
