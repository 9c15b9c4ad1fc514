// Package flow implements the staged travel-planning workflow: a directed
// graph of named stages executed over a per-session trip store, with
// conditional branches, bounded loops and suspension points where the run
// waits for user input.
package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/voyantlabs/voyant-agent/internal/domain"
	"github.com/voyantlabs/voyant-agent/internal/observability"
)

// Action is the outcome label a stage reports; the engine uses it to select
// the next stage in the transition table.
type Action string

const (
	ActionDefault Action = "default"
	ActionClarify Action = "clarify"
	ActionProceed Action = "proceed"
	ActionAnalyze Action = "analyze"
	ActionRevise  Action = "revise"
	ActionDone    Action = "done"
	ActionEvaluate Action = "evaluate"
)

// StageEnd is the terminal pseudo-stage. A transition targeting it finishes
// the run.
const StageEnd = "end"

// Events is the per-session emission surface stages use to report progress.
// Implemented by the session event emitter.
type Events interface {
	Thinking(content string)
	Searching(content, query string)
	Progress(content, step string)
	Question(content string, questions []string)
	Plan(content string, final bool)
}

// Stage is one named unit of work. Prepare reads the store, Execute does the
// work (and may call external collaborators), Finalize writes results back
// and reports the action that selects the next stage. The store is only
// touched in Prepare and Finalize; Execute must work from its input alone.
type Stage interface {
	Name() string
	Prepare(store *domain.TripStore) (any, error)
	Execute(ctx context.Context, ev Events, in any) (any, error)
	Finalize(store *domain.TripStore, ev Events, in, out any) (Action, error)
}

// BatchStage fans its prepared input out into independent units. The engine
// executes the units concurrently and hands Finalize the per-unit outputs
// reassembled in original unit order, regardless of completion order.
type BatchStage interface {
	Stage
	Units(in any) []any
	ExecuteUnit(ctx context.Context, ev Events, unit any) (any, error)
}

// RunState classifies how a run ended.
type RunState int

const (
	RunCompleted RunState = iota
	RunPaused
	RunFailed
)

// Outcome is the result of one Engine.Run call. A paused run records the
// stage to resume at once user input is available.
type Outcome struct {
	State       RunState
	ResumeStage string
	Err         error
}

type transitionKey struct {
	Stage  string
	Action Action
}

type stageEntry struct {
	stage Stage
	// awaitsInput marks a stage that consumes store.PendingInput; the run
	// suspends in front of it when no input is pending.
	awaitsInput bool
}

// Engine executes the stage graph. Stages and transitions are registered at
// construction time and validated before any run; an unmapped
// (stage, action) pair reached at runtime is a configuration bug and fails
// the session.
type Engine struct {
	stages      map[string]stageEntry
	transitions map[transitionKey]string
	workers     int
}

// NewEngine returns an empty engine. workers bounds the concurrency of
// batch-stage fan-out; values below 1 are treated as 1.
func NewEngine(workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		stages:      make(map[string]stageEntry),
		transitions: make(map[transitionKey]string),
		workers:     workers,
	}
}

// Register adds a stage to the graph.
func (e *Engine) Register(s Stage) {
	e.stages[s.Name()] = stageEntry{stage: s}
}

// RegisterInput adds a stage that consumes pending user input. The run
// suspends before it whenever no input is available.
func (e *Engine) RegisterInput(s Stage) {
	e.stages[s.Name()] = stageEntry{stage: s, awaitsInput: true}
}

// Transition maps (stage, action) to the next stage name.
func (e *Engine) Transition(stage string, action Action, next string) {
	e.transitions[transitionKey{Stage: stage, Action: action}] = next
}

// Validate checks that every transition references registered stages and
// that every non-terminal stage has at least one outgoing edge.
func (e *Engine) Validate() error {
	for key, next := range e.transitions {
		if _, ok := e.stages[key.Stage]; !ok {
			return fmt.Errorf("transition from unregistered stage %q", key.Stage)
		}
		if next == StageEnd {
			continue
		}
		if _, ok := e.stages[next]; !ok {
			return fmt.Errorf("transition (%s, %s) targets unregistered stage %q", key.Stage, key.Action, next)
		}
	}
	for name := range e.stages {
		found := false
		for key := range e.transitions {
			if key.Stage == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("stage %q has no outgoing transitions", name)
		}
	}
	return nil
}

// Run executes the graph starting at startStage until it reaches StageEnd,
// suspends waiting for input, or fails. The caller owns the store for the
// duration of the run; no other goroutine may write to it.
func (e *Engine) Run(ctx context.Context, store *domain.TripStore, ev Events, startStage string) Outcome {
	log := observability.LoggerFromContext(ctx)

	current := startStage
	for current != StageEnd {
		entry, ok := e.stages[current]
		if !ok {
			return Outcome{State: RunFailed, Err: fmt.Errorf("unknown stage %q", current)}
		}

		if entry.awaitsInput && store.PendingInput == "" {
			log.Info("run suspended", "stage", current)
			return Outcome{State: RunPaused, ResumeStage: current}
		}

		action, err := e.runStage(ctx, entry.stage, store, ev)
		if err != nil {
			log.Error("stage failed", "stage", current, "error", err)
			return Outcome{State: RunFailed, Err: fmt.Errorf("stage %s: %w", current, err)}
		}

		next, ok := e.transitions[transitionKey{Stage: current, Action: action}]
		if !ok {
			return Outcome{State: RunFailed, Err: fmt.Errorf("no transition for (%s, %s)", current, action)}
		}

		log.Info("stage complete", "stage", current, "action", action, "next", next)
		current = next
	}

	return Outcome{State: RunCompleted}
}

func (e *Engine) runStage(ctx context.Context, s Stage, store *domain.TripStore, ev Events) (Action, error) {
	start := time.Now()
	defer func() {
		observability.StageDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
	}()

	in, err := s.Prepare(store)
	if err != nil {
		return "", fmt.Errorf("prepare: %w", err)
	}

	var out any
	if batch, ok := s.(BatchStage); ok {
		units := batch.Units(in)
		results, err := fanOut(ctx, e.workers, units, func(ctx context.Context, _ int, unit any) (any, error) {
			return batch.ExecuteUnit(ctx, ev, unit)
		})
		if err != nil {
			return "", fmt.Errorf("execute: %w", err)
		}
		out = results
	} else {
		out, err = s.Execute(ctx, ev, in)
		if err != nil {
			return "", fmt.Errorf("execute: %w", err)
		}
	}

	action, err := s.Finalize(store, ev, in, out)
	if err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	return action, nil
}
