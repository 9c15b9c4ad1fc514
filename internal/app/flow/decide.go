package flow

import (
	"context"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// DecideStage is pure control flow: it inspects the accumulated state and
// returns either "clarify" or "proceed". The round cap is checked first so
// the clarification loop is bounded no matter how persistently information
// stays missing.
type DecideStage struct {
	maxRounds int
}

func NewDecideStage(maxRounds int) *DecideStage {
	return &DecideStage{maxRounds: maxRounds}
}

func (s *DecideStage) Name() string { return StageDecide }

type decideInput struct {
	NeedsClarification bool
	Round              int
	MaxRounds          int
	HasDestination     bool
}

func (s *DecideStage) Prepare(store *domain.TripStore) (any, error) {
	return decideInput{
		NeedsClarification: store.NeedsClarification,
		Round:              store.ClarificationRound,
		MaxRounds:          s.maxRounds,
		HasDestination:     store.Trip.Destination != "",
	}, nil
}

func (s *DecideStage) Execute(_ context.Context, _ Events, in any) (any, error) {
	return Decide(in.(decideInput)), nil
}

// Decide implements the clarification policy. If the round counter reached
// the cap the flow proceeds regardless of missing data; otherwise a missing
// destination forces another round, and the analysis judgment breaks the
// tie.
func Decide(in decideInput) Action {
	if in.Round >= in.MaxRounds {
		return ActionProceed
	}
	if !in.HasDestination {
		return ActionClarify
	}
	if in.NeedsClarification {
		return ActionClarify
	}
	return ActionProceed
}

func (s *DecideStage) Finalize(_ *domain.TripStore, _ Events, _, out any) (Action, error) {
	return out.(Action), nil
}
