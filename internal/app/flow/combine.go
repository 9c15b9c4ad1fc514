package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// CombineStage synthesizes everything gathered so far into the final travel
// guide. Critical: retries exhausted here fail the session.
type CombineStage struct {
	llm     domain.LLMClient
	retries int
}

func NewCombineStage(llm domain.LLMClient, retries int) *CombineStage {
	return &CombineStage{llm: llm, retries: retries}
}

func (s *CombineStage) Name() string { return StageCombine }

type combineInput struct {
	Trip            domain.TripAttributes
	DailyPlans      []domain.DailyPlan
	Accommodations  []domain.CategoryResult
	Transportation  domain.CategoryResult
	BudgetBreakdown string
}

func (s *CombineStage) Prepare(store *domain.TripStore) (any, error) {
	return combineInput{
		Trip:            store.Trip,
		DailyPlans:      append([]domain.DailyPlan(nil), store.DailyPlans...),
		Accommodations:  append([]domain.CategoryResult(nil), store.Accommodations...),
		Transportation:  store.Transportation,
		BudgetBreakdown: store.BudgetBreakdown,
	}, nil
}

func (s *CombineStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	ev.Thinking("Putting your travel guide together...")
	return generateText(ctx, s.llm, buildCombinePrompt(in.(combineInput)), s.retries)
}

func (s *CombineStage) Finalize(store *domain.TripStore, ev Events, _, out any) (Action, error) {
	store.FinalGuide = out.(string)
	store.RevisionCount++
	ev.Progress("Travel guide generated", "combine")
	return ActionDefault, nil
}

// EvaluateStage shows the drafted guide and decides whether to wait for
// feedback or accept the plan outright once the revision cap is reached.
type EvaluateStage struct {
	maxRevisions int
}

func NewEvaluateStage(maxRevisions int) *EvaluateStage {
	return &EvaluateStage{maxRevisions: maxRevisions}
}

func (s *EvaluateStage) Name() string { return StageEvaluate }

type evaluateInput struct {
	Guide         string
	RevisionCount int
}

func (s *EvaluateStage) Prepare(store *domain.TripStore) (any, error) {
	return evaluateInput{
		Guide:         store.FinalGuide,
		RevisionCount: store.RevisionCount,
	}, nil
}

func (s *EvaluateStage) Execute(_ context.Context, ev Events, in any) (any, error) {
	data := in.(evaluateInput)
	if data.RevisionCount >= s.maxRevisions {
		return ActionDone, nil
	}
	ev.Plan(data.Guide, false)
	ev.Question("Are you satisfied with this plan? Reply 'done' if you're happy, or describe any changes you'd like.", nil)
	return ActionDefault, nil
}

func (s *EvaluateStage) Finalize(_ *domain.TripStore, _ Events, _, out any) (Action, error) {
	return out.(Action), nil
}

// AwaitFeedbackStage consumes the user's verdict on the drafted plan. An
// input stage: the run suspends in front of it until feedback arrives.
type AwaitFeedbackStage struct{}

func NewAwaitFeedbackStage() *AwaitFeedbackStage {
	return &AwaitFeedbackStage{}
}

func (s *AwaitFeedbackStage) Name() string { return StageAwaitFeedback }

func (s *AwaitFeedbackStage) Prepare(store *domain.TripStore) (any, error) {
	return store.PendingInput, nil
}

func (s *AwaitFeedbackStage) Execute(_ context.Context, ev Events, in any) (any, error) {
	feedback := strings.TrimSpace(in.(string))
	switch strings.ToLower(feedback) {
	case "", "done", "yes", "looks good", "perfect":
		return ActionDone, nil
	}
	ev.Thinking("Revising the plan with your feedback...")
	return ActionRevise, nil
}

func (s *AwaitFeedbackStage) Finalize(store *domain.TripStore, _ Events, in, out any) (Action, error) {
	action := out.(Action)
	feedback := strings.TrimSpace(in.(string))
	store.PendingInput = ""

	if action == ActionRevise {
		store.UserFeedback = feedback
		store.ConversationHistory = append(store.ConversationHistory,
			fmt.Sprintf("User feedback on plan: %s", feedback))
	}
	return action, nil
}

// ReplanStage rewrites the guide to address the user's feedback and loops
// back to evaluation.
type ReplanStage struct {
	llm     domain.LLMClient
	retries int
}

func NewReplanStage(llm domain.LLMClient, retries int) *ReplanStage {
	return &ReplanStage{llm: llm, retries: retries}
}

func (s *ReplanStage) Name() string { return StageReplan }

type replanInput struct {
	CurrentPlan string
	Feedback    string
	Trip        domain.TripAttributes
}

func (s *ReplanStage) Prepare(store *domain.TripStore) (any, error) {
	return replanInput{
		CurrentPlan: store.FinalGuide,
		Feedback:    store.UserFeedback,
		Trip:        store.Trip,
	}, nil
}

func (s *ReplanStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	data := in.(replanInput)
	return generateText(ctx, s.llm, buildReplanPrompt(data.CurrentPlan, data.Feedback, data.Trip), s.retries)
}

func (s *ReplanStage) Finalize(store *domain.TripStore, ev Events, _, out any) (Action, error) {
	store.FinalGuide = out.(string)
	store.RevisionCount++
	ev.Progress(fmt.Sprintf("Plan updated based on feedback (revision #%d)", store.RevisionCount), "replan")
	return ActionEvaluate, nil
}
