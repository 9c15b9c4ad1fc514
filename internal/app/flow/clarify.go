package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// AskClarificationStage publishes the follow-up questions generated by the
// analysis stage and advances the clarification round counter. The run
// suspends right after it, at the merge stage.
type AskClarificationStage struct{}

func NewAskClarificationStage() *AskClarificationStage {
	return &AskClarificationStage{}
}

func (s *AskClarificationStage) Name() string { return StageAskClarification }

func (s *AskClarificationStage) Prepare(store *domain.TripStore) (any, error) {
	return append([]string(nil), store.DynamicQuestions...), nil
}

func (s *AskClarificationStage) Execute(_ context.Context, ev Events, in any) (any, error) {
	questions := in.([]string)
	if len(questions) == 0 {
		questions = []string{"What destination are you considering?"}
	}

	var b strings.Builder
	b.WriteString("I have a few questions to help plan your perfect trip:\n")
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	ev.Question(b.String(), questions)

	return questions, nil
}

func (s *AskClarificationStage) Finalize(store *domain.TripStore, _ Events, _, out any) (Action, error) {
	questions := out.([]string)
	store.ClarificationQuestions = questions
	store.ClarificationRound++
	return ActionDefault, nil
}

// MergeAnswersStage consumes the user's answer to the outstanding
// clarification questions and loops back to re-analysis. It is an input
// stage: the engine suspends in front of it until the turn controller has
// merged a new user message into the store.
type MergeAnswersStage struct{}

func NewMergeAnswersStage() *MergeAnswersStage {
	return &MergeAnswersStage{}
}

func (s *MergeAnswersStage) Name() string { return StageMergeAnswers }

type mergeInput struct {
	Questions []string
	Answer    string
}

func (s *MergeAnswersStage) Prepare(store *domain.TripStore) (any, error) {
	return mergeInput{
		Questions: append([]string(nil), store.ClarificationQuestions...),
		Answer:    store.PendingInput,
	}, nil
}

func (s *MergeAnswersStage) Execute(_ context.Context, ev Events, in any) (any, error) {
	ev.Thinking("Processing your response...")
	return in, nil
}

func (s *MergeAnswersStage) Finalize(store *domain.TripStore, _ Events, in, _ any) (Action, error) {
	data := in.(mergeInput)
	store.ConversationHistory = append(store.ConversationHistory,
		fmt.Sprintf("Questions asked: %s", strings.Join(data.Questions, " | ")),
		fmt.Sprintf("User answered: %s", data.Answer),
	)
	store.PendingInput = ""
	return ActionAnalyze, nil
}
