package flow

import (
	"context"
	"fmt"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// defaultDurationDays is used when the user never pinned down a trip length
// and the clarification budget ran out.
const defaultDurationDays = 3

// PlanDaysStage fans out one itinerary generation per trip day and
// reassembles the plans in day order regardless of completion order. This
// stage is critical: without daily plans there is nothing to synthesize.
type PlanDaysStage struct {
	llm     domain.LLMClient
	retries int
}

func NewPlanDaysStage(llm domain.LLMClient, retries int) *PlanDaysStage {
	return &PlanDaysStage{llm: llm, retries: retries}
}

func (s *PlanDaysStage) Name() string { return StagePlanDays }

type planDaysInput struct {
	Trip     domain.TripAttributes
	Research []domain.CategoryResult
	Reviews  []domain.PlaceReview
}

func (s *PlanDaysStage) Prepare(store *domain.TripStore) (any, error) {
	if store.Trip.DurationDays == 0 {
		store.Trip.DurationDays = defaultDurationDays
	}
	return planDaysInput{
		Trip:     store.Trip,
		Research: append([]domain.CategoryResult(nil), store.DestinationInfo...),
		Reviews:  append([]domain.PlaceReview(nil), store.PlaceReviews...),
	}, nil
}

func (s *PlanDaysStage) Units(in any) []any {
	data := in.(planDaysInput)
	units := make([]any, 0, data.Trip.DurationDays)
	for day := 1; day <= data.Trip.DurationDays; day++ {
		units = append(units, dayUnit{Day: day, Input: data})
	}
	return units
}

type dayUnit struct {
	Day   int
	Input planDaysInput
}

type dayPlanResult struct {
	Morning   string `yaml:"morning"`
	Afternoon string `yaml:"afternoon"`
	Evening   string `yaml:"evening"`
	Meals     string `yaml:"meals"`
	Tips      string `yaml:"tips"`
}

func (s *PlanDaysStage) ExecuteUnit(ctx context.Context, ev Events, unit any) (any, error) {
	u := unit.(dayUnit)
	ev.Thinking(fmt.Sprintf("Planning day %d of %d...", u.Day, u.Input.Trip.DurationDays))

	prompt := buildDailyPlanPrompt(u.Day, u.Input.Trip, u.Input.Research, u.Input.Reviews)
	res, err := generateDecoded[dayPlanResult](ctx, s.llm, prompt, s.retries)
	if err != nil {
		return nil, fmt.Errorf("day %d: %w", u.Day, err)
	}

	return domain.DailyPlan{
		Day:       u.Day,
		Morning:   res.Morning,
		Afternoon: res.Afternoon,
		Evening:   res.Evening,
		Meals:     res.Meals,
		Tips:      res.Tips,
	}, nil
}

func (s *PlanDaysStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	return nil, fmt.Errorf("plan_days is a batch stage")
}

func (s *PlanDaysStage) Finalize(store *domain.TripStore, ev Events, _, out any) (Action, error) {
	results := out.([]any)
	store.DailyPlans = store.DailyPlans[:0]
	for _, r := range results {
		store.DailyPlans = append(store.DailyPlans, r.(domain.DailyPlan))
	}
	ev.Progress(fmt.Sprintf("Created %d daily itineraries", len(results)), "planning")
	return ActionDefault, nil
}

// BudgetStage asks the model for a budget breakdown. Non-critical: on
// persistent failure the guide simply omits the breakdown section.
type BudgetStage struct {
	llm     domain.LLMClient
	retries int
}

func NewBudgetStage(llm domain.LLMClient, retries int) *BudgetStage {
	return &BudgetStage{llm: llm, retries: retries}
}

func (s *BudgetStage) Name() string { return StageBudget }

type budgetInput struct {
	Trip  domain.TripAttributes
	Plans []domain.DailyPlan
}

func (s *BudgetStage) Prepare(store *domain.TripStore) (any, error) {
	return budgetInput{
		Trip:  store.Trip,
		Plans: append([]domain.DailyPlan(nil), store.DailyPlans...),
	}, nil
}

func (s *BudgetStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	data := in.(budgetInput)
	ev.Thinking("Working out the budget...")

	text, err := generateText(ctx, s.llm, buildBudgetPrompt(data.Trip, data.Plans), s.retries)
	if err != nil {
		return "", nil
	}
	return text, nil
}

func (s *BudgetStage) Finalize(store *domain.TripStore, _ Events, _, out any) (Action, error) {
	store.BudgetBreakdown = out.(string)
	return ActionDefault, nil
}
