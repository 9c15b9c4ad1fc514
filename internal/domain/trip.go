package domain

// TripAttributes holds the structured trip details extracted from the
// conversation. Zero values mean "not provided yet"; the analysis stage only
// overwrites a field when the model extracted a concrete value for it.
type TripAttributes struct {
	Destination         string   `json:"destination,omitempty" yaml:"destination"`
	TripType            string   `json:"trip_type,omitempty" yaml:"trip_type"`
	DurationDays        int      `json:"duration_days,omitempty" yaml:"duration_days"`
	Travelers           int      `json:"travelers,omitempty" yaml:"travelers"`
	Budget              string   `json:"budget,omitempty" yaml:"budget"`
	TravelStyle         string   `json:"travel_style,omitempty" yaml:"travel_style"`
	Interests           []string `json:"interests,omitempty" yaml:"interests"`
	StartDate           string   `json:"start_date,omitempty" yaml:"start_date"`
	SpecialRequirements string   `json:"special_requirements,omitempty" yaml:"special_requirements"`
}

// Missing returns the names of required attributes that are still unset,
// in a fixed order.
func (a TripAttributes) Missing() []string {
	var missing []string
	if a.Destination == "" {
		missing = append(missing, "destination")
	}
	if a.DurationDays == 0 {
		missing = append(missing, "duration_days")
	}
	if a.Travelers == 0 {
		missing = append(missing, "travelers")
	}
	if a.Budget == "" {
		missing = append(missing, "budget")
	}
	if a.TravelStyle == "" {
		missing = append(missing, "travel_style")
	}
	return missing
}

// SearchResult is one web-search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// CategoryResult groups the results of one search query.
type CategoryResult struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// PlaceReview holds review snippets gathered for one named place.
type PlaceReview struct {
	Name     string   `json:"name"`
	Snippets []string `json:"snippets"`
}

// DailyPlan is the itinerary for a single day of the trip.
type DailyPlan struct {
	Day       int    `json:"day"`
	Morning   string `json:"morning" yaml:"morning"`
	Afternoon string `json:"afternoon" yaml:"afternoon"`
	Evening   string `json:"evening" yaml:"evening"`
	Meals     string `json:"meals" yaml:"meals"`
	Tips      string `json:"tips" yaml:"tips"`
}

// TripStore is the per-session shared state the stage graph reads and
// writes. One store exists per session; stages borrow mutable access for
// the duration of a single invocation, and nothing else writes to it while
// a run is in flight.
type TripStore struct {
	UserRequest         string         `json:"user_request"`
	ConversationHistory []string       `json:"conversation_history"`
	Trip                TripAttributes `json:"trip_info"`
	MissingInfo         []string       `json:"missing_info,omitempty"`

	NeedsClarification     bool     `json:"-"`
	AnalysisReasoning      string   `json:"-"`
	DynamicQuestions       []string `json:"-"`
	ClarificationQuestions []string `json:"clarification_questions,omitempty"`
	ClarificationRound     int      `json:"clarification_round"`

	DestinationInfo []CategoryResult `json:"destination_info,omitempty"`
	Accommodations  []CategoryResult `json:"accommodations,omitempty"`
	Transportation  CategoryResult   `json:"transportation,omitzero"`
	Restaurants     []CategoryResult `json:"restaurants,omitempty"`
	Activities      []CategoryResult `json:"activities,omitempty"`

	PlacesToReview []string      `json:"places_to_review,omitempty"`
	PlaceReviews   []PlaceReview `json:"place_reviews,omitempty"`

	DailyPlans      []DailyPlan `json:"daily_plans,omitempty"`
	BudgetBreakdown string      `json:"budget_breakdown,omitempty"`
	FinalGuide      string      `json:"final_travel_guide,omitempty"`
	RevisionCount   int         `json:"plan_revision_count"`
	UserFeedback    string      `json:"-"`

	// PendingInput carries the user's answer into the stage that resumes a
	// suspended run. Cleared by that stage once consumed.
	PendingInput string `json:"-"`

	// PlanEmitted guards the final plan event so it is sent exactly once.
	PlanEmitted bool `json:"-"`
}

// NewTripStore returns an empty store ready for the first turn.
func NewTripStore() *TripStore {
	return &TripStore{}
}

// HasPlan reports whether a final guide has been synthesized.
func (s *TripStore) HasPlan() bool {
	return s.FinalGuide != ""
}

// Snapshot returns a copy safe to serialize while no run is in flight.
// Slices are copied so later stage mutations cannot race a reader.
func (s *TripStore) Snapshot() TripStore {
	cp := *s
	cp.ConversationHistory = append([]string(nil), s.ConversationHistory...)
	cp.MissingInfo = append([]string(nil), s.MissingInfo...)
	cp.ClarificationQuestions = append([]string(nil), s.ClarificationQuestions...)
	cp.DestinationInfo = append([]CategoryResult(nil), s.DestinationInfo...)
	cp.Accommodations = append([]CategoryResult(nil), s.Accommodations...)
	cp.Restaurants = append([]CategoryResult(nil), s.Restaurants...)
	cp.Activities = append([]CategoryResult(nil), s.Activities...)
	cp.PlacesToReview = append([]string(nil), s.PlacesToReview...)
	cp.PlaceReviews = append([]PlaceReview(nil), s.PlaceReviews...)
	cp.DailyPlans = append([]DailyPlan(nil), s.DailyPlans...)
	return cp
}
