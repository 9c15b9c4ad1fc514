package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// eventsRecorder collects emissions for assertions.
type eventsRecorder struct {
	thinking  []string
	searching []string
	progress  []string
	questions []string
	plans     []string
}

func (r *eventsRecorder) Thinking(content string)           { r.thinking = append(r.thinking, content) }
func (r *eventsRecorder) Searching(content, _ string)       { r.searching = append(r.searching, content) }
func (r *eventsRecorder) Progress(content, _ string)        { r.progress = append(r.progress, content) }
func (r *eventsRecorder) Question(content string, _ []string) { r.questions = append(r.questions, content) }
func (r *eventsRecorder) Plan(content string, _ bool)       { r.plans = append(r.plans, content) }

// fakeStage is a minimal stage whose behavior is driven by callbacks.
type fakeStage struct {
	name     string
	action   Action
	execErr  error
	onFinal  func(store *domain.TripStore)
	executed *int
}

func (s *fakeStage) Name() string { return s.name }

func (s *fakeStage) Prepare(_ *domain.TripStore) (any, error) { return nil, nil }

func (s *fakeStage) Execute(_ context.Context, _ Events, _ any) (any, error) {
	if s.executed != nil {
		*s.executed++
	}
	return nil, s.execErr
}

func (s *fakeStage) Finalize(store *domain.TripStore, _ Events, _, _ any) (Action, error) {
	if s.onFinal != nil {
		s.onFinal(store)
	}
	return s.action, nil
}

func TestValidateRejectsUnregisteredStages(t *testing.T) {
	e := NewEngine(1)
	e.Register(&fakeStage{name: "a", action: ActionDefault})
	e.Transition("a", ActionDefault, "missing")

	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestValidateRejectsSourceWithoutRegistration(t *testing.T) {
	e := NewEngine(1)
	e.Register(&fakeStage{name: "a", action: ActionDefault})
	e.Transition("a", ActionDefault, StageEnd)
	e.Transition("ghost", ActionDefault, "a")

	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestValidateRejectsDeadEndStage(t *testing.T) {
	e := NewEngine(1)
	e.Register(&fakeStage{name: "a", action: ActionDefault})
	e.Register(&fakeStage{name: "b", action: ActionDefault})
	e.Transition("a", ActionDefault, "b")

	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestRunFollowsTransitions(t *testing.T) {
	var aRuns, bRuns int
	e := NewEngine(1)
	e.Register(&fakeStage{name: "a", action: ActionDefault, executed: &aRuns})
	e.Register(&fakeStage{name: "b", action: ActionDone, executed: &bRuns})
	e.Transition("a", ActionDefault, "b")
	e.Transition("b", ActionDone, StageEnd)
	require.NoError(t, e.Validate())

	out := e.Run(context.Background(), domain.NewTripStore(), &eventsRecorder{}, "a")

	assert.Equal(t, RunCompleted, out.State)
	assert.Equal(t, 1, aRuns)
	assert.Equal(t, 1, bRuns)
}

func TestRunPausesBeforeInputStage(t *testing.T) {
	var merged int
	e := NewEngine(1)
	e.Register(&fakeStage{name: "ask", action: ActionDefault})
	e.RegisterInput(&fakeStage{name: "merge", action: ActionDone, executed: &merged,
		onFinal: func(store *domain.TripStore) { store.PendingInput = "" }})
	e.Transition("ask", ActionDefault, "merge")
	e.Transition("merge", ActionDone, StageEnd)
	require.NoError(t, e.Validate())

	store := domain.NewTripStore()
	out := e.Run(context.Background(), store, &eventsRecorder{}, "ask")

	require.Equal(t, RunPaused, out.State)
	assert.Equal(t, "merge", out.ResumeStage)
	assert.Zero(t, merged)

	// Resuming with input runs the input stage and completes.
	store.PendingInput = "3 days, mid-range"
	out = e.Run(context.Background(), store, &eventsRecorder{}, out.ResumeStage)

	assert.Equal(t, RunCompleted, out.State)
	assert.Equal(t, 1, merged)
}

func TestRunFailsOnUnmappedAction(t *testing.T) {
	e := NewEngine(1)
	e.Register(&fakeStage{name: "a", action: ActionRevise})
	e.Transition("a", ActionDefault, StageEnd)

	out := e.Run(context.Background(), domain.NewTripStore(), &eventsRecorder{}, "a")

	require.Equal(t, RunFailed, out.State)
	assert.Contains(t, out.Err.Error(), "no transition")
}

func TestRunFailsOnUnknownStartStage(t *testing.T) {
	e := NewEngine(1)
	out := e.Run(context.Background(), domain.NewTripStore(), &eventsRecorder{}, "nope")

	require.Equal(t, RunFailed, out.State)
	assert.Contains(t, out.Err.Error(), "unknown stage")
}

func TestRunWrapsStageError(t *testing.T) {
	boom := errors.New("model unavailable")
	e := NewEngine(1)
	e.Register(&fakeStage{name: "a", action: ActionDefault, execErr: boom})
	e.Transition("a", ActionDefault, StageEnd)

	out := e.Run(context.Background(), domain.NewTripStore(), &eventsRecorder{}, "a")

	require.Equal(t, RunFailed, out.State)
	assert.ErrorIs(t, out.Err, boom)
	assert.Contains(t, out.Err.Error(), "stage a")
}

func TestFanOutPreservesUnitOrder(t *testing.T) {
	units := []any{40 * time.Millisecond, 1 * time.Millisecond, 20 * time.Millisecond, 0 * time.Millisecond}

	results, err := fanOut(context.Background(), 4, units, func(_ context.Context, i int, unit any) (any, error) {
		time.Sleep(unit.(time.Duration))
		return fmt.Sprintf("unit-%d", i), nil
	})

	require.NoError(t, err)
	require.Len(t, results, len(units))
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("unit-%d", i), r)
	}
}

func TestFanOutPropagatesFirstError(t *testing.T) {
	boom := errors.New("search failed")
	units := []any{0, 1, 2}

	_, err := fanOut(context.Background(), 2, units, func(_ context.Context, i int, _ any) (any, error) {
		if i == 1 {
			return nil, boom
		}
		return i, nil
	})

	assert.ErrorIs(t, err, boom)
}

func TestFanOutEmptyUnits(t *testing.T) {
	results, err := fanOut(context.Background(), 2, nil, func(_ context.Context, _ int, _ any) (any, error) {
		t.Fatal("should not be called")
		return nil, nil
	})

	require.NoError(t, err)
	assert.Empty(t, results)
}
