package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantlabs/voyant-agent/internal/adapters/llm"
	"github.com/voyantlabs/voyant-agent/internal/adapters/search"
	filestore "github.com/voyantlabs/voyant-agent/internal/adapters/storage/file"
	memstore "github.com/voyantlabs/voyant-agent/internal/adapters/storage/memory"
	"github.com/voyantlabs/voyant-agent/internal/app/flow"
	"github.com/voyantlabs/voyant-agent/internal/app/session"
	"github.com/voyantlabs/voyant-agent/internal/domain"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
)

func newTravelController(t *testing.T, mock *llm.MockLLM, opts session.Options) *session.Controller {
	t.Helper()
	engine, err := flow.NewTravelGraph(mock, search.NewMockSearch(), flow.Config{
		MaxClarificationRounds: 2,
		MaxPlanRevisions:       3,
		Workers:                2,
		Retries:                1,
	})
	require.NoError(t, err)
	return session.NewController(memstore.NewSessionStore(), engine, nil, opts)
}

func waitForStatus(t *testing.T, ctrl *session.Controller, id domain.SessionID, want domain.Status) *session.Session {
	t.Helper()
	sess, err := ctrl.Get(id)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return sess.Status() == want
	}, waitFor, tick, "session never reached status %s", want)
	return sess
}

func TestFullConversationToCompletion(t *testing.T) {
	ctrl := newTravelController(t, llm.NewMockLLM(), session.Options{})

	out, err := ctrl.Submit(context.Background(), "", "2 days in Paris for 2, mid-range, food and museums")
	require.NoError(t, err)
	require.True(t, out.Created)
	assert.Equal(t, domain.StatusRunning, out.Status)

	// The run pauses at the feedback gate.
	sess := waitForStatus(t, ctrl, out.SessionID, domain.StatusAwaitingInput)
	detail := sess.Detail()
	assert.True(t, detail.HasPlan)
	assert.Equal(t, "Paris", detail.Trip.Trip.Destination)

	// Accepting the plan completes the session.
	_, err = ctrl.Submit(context.Background(), out.SessionID, "yes")
	require.NoError(t, err)
	waitForStatus(t, ctrl, out.SessionID, domain.StatusComplete)

	// The stream carries exactly one final plan followed by completion.
	events := sess.Emitter().Events()
	require.NotEmpty(t, events)
	finals := 0
	for _, ev := range events {
		if ev.IsFinalPlan() {
			finals++
		}
	}
	assert.Equal(t, 1, finals)
	assert.Equal(t, domain.EventComplete, events[len(events)-1].Type)
	assert.True(t, sess.Emitter().Closed())

	// Both user messages were stamped; the second after events existed. The
	// final guide is recorded as an assistant message on completion.
	msgs := sess.Messages()
	require.Len(t, msgs, 3)
	assert.Zero(t, msgs[0].EventStamp)
	assert.Positive(t, msgs[1].EventStamp)
	assert.Equal(t, domain.RoleAssistant, msgs[2].Role)
	assert.Equal(t, sess.Detail().FinalPlan, msgs[2].Text)

	// No further turns are possible.
	_, err = ctrl.Submit(context.Background(), out.SessionID, "one more thing")
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestClarificationEmitsWaitingMarkers(t *testing.T) {
	ctrl := newTravelController(t, llm.NewClarifyingMockLLM(1), session.Options{})

	out, err := ctrl.Submit(context.Background(), "", "somewhere warm")
	require.NoError(t, err)
	sess := waitForStatus(t, ctrl, out.SessionID, domain.StatusAwaitingInput)

	events := sess.Emitter().Events()
	var placeholder, waiting bool
	for _, ev := range events {
		if ev.Type == domain.EventQuestion && ev.Content == session.PlaceholderQuestion {
			placeholder = true
		}
		if ev.Type == domain.EventProgress && ev.Content == "Waiting for your response..." {
			waiting = true
		}
	}
	assert.True(t, placeholder, "pause should append the placeholder question")
	assert.True(t, waiting, "pause should append the waiting marker")

	// Answering resumes the flow to the feedback gate.
	_, err = ctrl.Submit(context.Background(), out.SessionID, "Paris, 3 days, $2000")
	require.NoError(t, err)
	waitForStatus(t, ctrl, out.SessionID, domain.StatusAwaitingInput)
	assert.True(t, sess.Detail().HasPlan)
}

func TestSubmitToUnknownSession(t *testing.T) {
	ctrl := newTravelController(t, llm.NewMockLLM(), session.Options{})

	_, err := ctrl.Submit(context.Background(), "no-such-id", "hello")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// gatedStage blocks in Execute until released, so tests can observe a
// session mid-run. started is closed once the stage is entered.
type gatedStage struct {
	name    string
	started chan struct{}
	release chan struct{}
	action  flow.Action
}

func (s *gatedStage) Name() string                             { return s.name }
func (s *gatedStage) Prepare(_ *domain.TripStore) (any, error) { return nil, nil }
func (s *gatedStage) Execute(_ context.Context, _ flow.Events, _ any) (any, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	return nil, nil
}
func (s *gatedStage) Finalize(_ *domain.TripStore, _ flow.Events, _, _ any) (flow.Action, error) {
	return s.action, nil
}

// inputEcho consumes pending input and finishes the run.
type inputEcho struct{}

func (s *inputEcho) Name() string                             { return "collect" }
func (s *inputEcho) Prepare(store *domain.TripStore) (any, error) { return store.PendingInput, nil }
func (s *inputEcho) Execute(_ context.Context, _ flow.Events, in any) (any, error) { return in, nil }
func (s *inputEcho) Finalize(store *domain.TripStore, _ flow.Events, _, out any) (flow.Action, error) {
	store.ConversationHistory = append(store.ConversationHistory, "collected: "+out.(string))
	store.PendingInput = ""
	return flow.ActionDone, nil
}

// newGatedEngine builds a two-stage graph whose first stage carries the
// graph's usual entry name so the controller starts there.
func newGatedEngine(t *testing.T, started, release chan struct{}) *flow.Engine {
	t.Helper()
	e := flow.NewEngine(1)
	e.Register(&gatedStage{name: flow.StageAnalyze, started: started, release: release, action: flow.ActionDefault})
	e.RegisterInput(&inputEcho{})
	e.Transition(flow.StageAnalyze, flow.ActionDefault, "collect")
	e.Transition("collect", flow.ActionDone, flow.StageEnd)
	require.NoError(t, e.Validate())
	return e
}

func TestSubmitRejectedWhileTurnRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	engine := newGatedEngine(t, started, release)
	ctrl := session.NewController(memstore.NewSessionStore(), engine, nil, session.Options{})

	// runTurn starts at the registered gated stage.
	out, err := ctrl.Submit(context.Background(), "", "first message")
	require.NoError(t, err)
	<-started

	// While the stage blocks, a second message is rejected synchronously
	// and leaves no trace in the event log.
	sess, err := ctrl.Get(out.SessionID)
	require.NoError(t, err)
	before := sess.Emitter().Len()

	_, err = ctrl.Submit(context.Background(), out.SessionID, "impatient follow-up")
	assert.ErrorIs(t, err, domain.ErrTurnInProgress)
	assert.Equal(t, before, sess.Emitter().Len())
	require.Len(t, sess.Messages(), 1)

	close(release)
	waitForStatus(t, ctrl, out.SessionID, domain.StatusAwaitingInput)
}

func TestQueueWhileBusyAppliesMessageOnPause(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	engine := newGatedEngine(t, started, release)
	ctrl := session.NewController(memstore.NewSessionStore(), engine, nil,
		session.Options{QueueWhileBusy: true})

	out, err := ctrl.Submit(context.Background(), "", "first message")
	require.NoError(t, err)
	<-started

	queued, err := ctrl.Submit(context.Background(), out.SessionID, "queued answer")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, queued.Status)

	// Releasing the gate lets the run pause, pick up the queued message and
	// finish without another Submit.
	close(release)
	sess := waitForStatus(t, ctrl, out.SessionID, domain.StatusComplete)

	found := false
	for _, line := range sess.Detail().Trip.ConversationHistory {
		if line == "collected: queued answer" {
			found = true
		}
	}
	assert.True(t, found, "queued message should have been consumed by the input stage")
	require.Len(t, sess.Messages(), 2)
}

func TestDeleteSession(t *testing.T) {
	ctrl := newTravelController(t, llm.NewMockLLM(), session.Options{})

	out, err := ctrl.Submit(context.Background(), "", "2 days in Paris")
	require.NoError(t, err)
	waitForStatus(t, ctrl, out.SessionID, domain.StatusAwaitingInput)

	assert.True(t, ctrl.Delete(out.SessionID))
	assert.False(t, ctrl.Delete(out.SessionID))

	_, err = ctrl.Get(out.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCompletedTripIsArchived(t *testing.T) {
	dir := t.TempDir()
	engine, err := flow.NewTravelGraph(llm.NewMockLLM(), search.NewMockSearch(), flow.Config{
		MaxClarificationRounds: 2,
		MaxPlanRevisions:       3,
		Workers:                2,
		Retries:                1,
	})
	require.NoError(t, err)
	ctrl := session.NewController(memstore.NewSessionStore(), engine,
		filestore.NewTripArchive(dir), session.Options{})

	out, err := ctrl.Submit(context.Background(), "", "2 days in Paris, mid-range")
	require.NoError(t, err)
	waitForStatus(t, ctrl, out.SessionID, domain.StatusAwaitingInput)

	_, err = ctrl.Submit(context.Background(), out.SessionID, "done")
	require.NoError(t, err)
	waitForStatus(t, ctrl, out.SessionID, domain.StatusComplete)

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "paris.json"))
		return err == nil
	}, waitFor, tick, "archived trip file should exist")
}
