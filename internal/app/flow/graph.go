package flow

import (
	"fmt"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// Stage names of the travel-planning graph.
const (
	StageAnalyze          = "analyze"
	StageDecide           = "decide"
	StageAskClarification = "ask_clarification"
	StageMergeAnswers     = "merge_answers"
	StageResearch         = "research"
	StageGatherDetails    = "gather_details"
	StageIdentifyPlaces   = "identify_places"
	StagePlaceReviews     = "place_reviews"
	StagePlanDays         = "plan_days"
	StageBudget           = "calculate_budget"
	StageCombine          = "combine_plan"
	StageEvaluate         = "evaluate_plan"
	StageAwaitFeedback    = "await_feedback"
	StageReplan           = "replan"
)

// Config tunes the travel graph.
type Config struct {
	MaxClarificationRounds int
	MaxPlanRevisions       int
	Workers                int
	Retries                int
}

// NewTravelGraph builds and validates the full planning graph:
//
//	analyze -> decide -clarify-> ask_clarification -> merge_answers -> analyze
//	                  -proceed-> research -> gather_details -> identify_places
//	        -> place_reviews -> plan_days -> calculate_budget -> combine_plan
//	        -> evaluate_plan -> await_feedback -revise-> replan -> evaluate_plan
//	                                          -done->   end
func NewTravelGraph(llm domain.LLMClient, search domain.SearchClient, cfg Config) (*Engine, error) {
	if cfg.MaxClarificationRounds < 0 {
		cfg.MaxClarificationRounds = 0
	}
	if cfg.MaxPlanRevisions < 1 {
		cfg.MaxPlanRevisions = 1
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}

	e := NewEngine(cfg.Workers)

	e.Register(NewAnalyzeStage(llm, cfg.Retries))
	e.Register(NewDecideStage(cfg.MaxClarificationRounds))
	e.Register(NewAskClarificationStage())
	e.RegisterInput(NewMergeAnswersStage())
	e.Register(NewResearchStage(search))
	e.Register(NewGatherDetailsStage(search))
	e.Register(NewIdentifyPlacesStage(llm, cfg.Retries))
	e.Register(NewPlaceReviewsStage(search))
	e.Register(NewPlanDaysStage(llm, cfg.Retries))
	e.Register(NewBudgetStage(llm, cfg.Retries))
	e.Register(NewCombineStage(llm, cfg.Retries))
	e.Register(NewEvaluateStage(cfg.MaxPlanRevisions))
	e.RegisterInput(NewAwaitFeedbackStage())
	e.Register(NewReplanStage(llm, cfg.Retries))

	e.Transition(StageAnalyze, ActionDefault, StageDecide)
	e.Transition(StageDecide, ActionClarify, StageAskClarification)
	e.Transition(StageDecide, ActionProceed, StageResearch)
	e.Transition(StageAskClarification, ActionDefault, StageMergeAnswers)
	e.Transition(StageMergeAnswers, ActionAnalyze, StageAnalyze)
	e.Transition(StageResearch, ActionDefault, StageGatherDetails)
	e.Transition(StageGatherDetails, ActionDefault, StageIdentifyPlaces)
	e.Transition(StageIdentifyPlaces, ActionDefault, StagePlaceReviews)
	e.Transition(StagePlaceReviews, ActionDefault, StagePlanDays)
	e.Transition(StagePlanDays, ActionDefault, StageBudget)
	e.Transition(StageBudget, ActionDefault, StageCombine)
	e.Transition(StageCombine, ActionDefault, StageEvaluate)
	e.Transition(StageEvaluate, ActionDefault, StageAwaitFeedback)
	e.Transition(StageEvaluate, ActionDone, StageEnd)
	e.Transition(StageAwaitFeedback, ActionRevise, StageReplan)
	e.Transition(StageAwaitFeedback, ActionDone, StageEnd)
	e.Transition(StageReplan, ActionEvaluate, StageEvaluate)

	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("travel graph: %w", err)
	}
	return e, nil
}
