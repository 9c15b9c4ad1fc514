package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voyantlabs/voyant-agent/internal/app/flow"
	"github.com/voyantlabs/voyant-agent/internal/domain"
	"github.com/voyantlabs/voyant-agent/internal/observability"
)

// Session is one user's end-to-end planning conversation. The trip store is
// owned exclusively by the in-flight stage run; the controller only touches
// it between turns, under the session lock.
type Session struct {
	ID        domain.SessionID
	CreatedAt time.Time

	mu          sync.Mutex
	updatedAt   time.Time
	status      domain.Status
	resumeStage string
	queued      []string
	store       *domain.TripStore
	snapshot    domain.TripStore
	emitter     *Emitter
	messages    []domain.Message
}

// Emitter exposes the session's event stream.
func (s *Session) Emitter() *Emitter { return s.emitter }

// Status returns the current lifecycle state.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Messages returns a copy of the conversation messages.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages...)
}

// Detail is the session-inspection view: lifecycle state plus the trip
// snapshot captured at the last turn boundary (the live store belongs to
// the running graph and is never read mid-run).
type Detail struct {
	ID           domain.SessionID `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Status       domain.Status    `json:"status"`
	Messages     []domain.Message `json:"messages"`
	Trip         domain.TripStore `json:"trip"`
	FinalPlan    string           `json:"final_plan,omitempty"`
	MessageCount int              `json:"message_count"`
	HasPlan      bool             `json:"has_plan"`
}

func (s *Session) Detail() Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Detail{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.updatedAt,
		Status:       s.status,
		Messages:     append([]domain.Message(nil), s.messages...),
		Trip:         s.snapshot,
		FinalPlan:    s.snapshot.FinalGuide,
		MessageCount: len(s.messages),
		HasPlan:      s.snapshot.HasPlan(),
	}
}

// Summary is the list view of a session.
type Summary struct {
	ID           domain.SessionID `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Status       domain.Status    `json:"status"`
	MessageCount int              `json:"message_count"`
	HasPlan      bool             `json:"has_plan"`
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.updatedAt,
		Status:       s.status,
		MessageCount: len(s.messages),
		HasPlan:      s.snapshot.HasPlan(),
	}
}

// addMessage records an utterance stamped with the current event-log
// length. Caller holds s.mu, so no event can be appended between reading
// the length and accepting the message.
func (s *Session) addMessage(role domain.Role, text string, now time.Time) domain.Message {
	msg := domain.Message{
		ID:         domain.MessageID(uuid.NewString()),
		Role:       role,
		Text:       text,
		EventStamp: s.emitter.Len(),
		CreatedAt:  now,
	}
	s.messages = append(s.messages, msg)
	s.updatedAt = now
	return msg
}

// Registry holds live sessions. Implemented by the in-memory store; a real
// deployment would shard this by session id.
type Registry interface {
	Put(s *Session) error
	Get(id domain.SessionID) (*Session, error)
	Delete(id domain.SessionID) bool
	List() []*Session
}

// Options tunes the controller.
type Options struct {
	// QueueWhileBusy holds a message that arrives mid-run and applies it
	// when the run next suspends, instead of rejecting it.
	QueueWhileBusy bool
}

// Controller orchestrates the relationship between incoming user messages
// and stage-graph runs: it creates sessions, stamps messages, starts and
// resumes runs, and settles the session state when a run ends.
type Controller struct {
	registry Registry
	engine   *flow.Engine
	archive  domain.TripArchive
	opts     Options
	now      func() time.Time
}

func NewController(registry Registry, engine *flow.Engine, archive domain.TripArchive, opts Options) *Controller {
	return &Controller{
		registry: registry,
		engine:   engine,
		archive:  archive,
		opts:     opts,
		now:      time.Now,
	}
}

// SubmitOutput is returned synchronously from Submit; the planning itself
// proceeds asynchronously and is observed through the event stream.
type SubmitOutput struct {
	SessionID domain.SessionID
	Status    domain.Status
	Created   bool
}

// Submit starts a new session (empty id) or continues an existing one. A
// message for a session that is still running the previous turn is rejected
// with domain.ErrTurnInProgress unless queueing is enabled.
func (c *Controller) Submit(ctx context.Context, id domain.SessionID, text string) (*SubmitOutput, error) {
	log := observability.LoggerFromContext(ctx)

	if id == "" {
		sess := c.createSession(text)
		if err := c.registry.Put(sess); err != nil {
			return nil, err
		}
		observability.SessionsCreated.Inc()
		log.Info("session created", "session_id", sess.ID)

		go c.runTurn(sess, flow.StageAnalyze, true)
		return &SubmitOutput{SessionID: sess.ID, Status: domain.StatusRunning, Created: true}, nil
	}

	sess, err := c.registry.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch {
	case sess.status.Terminal():
		return nil, domain.ErrSessionClosed

	case sess.status == domain.StatusRunning:
		if !c.opts.QueueWhileBusy {
			observability.SubmitRejected.Inc()
			log.Info("message rejected, turn in progress", "session_id", sess.ID)
			return nil, domain.ErrTurnInProgress
		}
		sess.addMessage(domain.RoleUser, text, c.now())
		sess.queued = append(sess.queued, text)
		log.Info("message queued behind running turn", "session_id", sess.ID)
		return &SubmitOutput{SessionID: sess.ID, Status: domain.StatusRunning}, nil

	default: // awaiting input
		sess.addMessage(domain.RoleUser, text, c.now())
		sess.store.PendingInput = text
		sess.status = domain.StatusRunning
		resume := sess.resumeStage

		go c.runTurn(sess, resume, false)
		return &SubmitOutput{SessionID: sess.ID, Status: domain.StatusRunning}, nil
	}
}

func (c *Controller) createSession(text string) *Session {
	now := c.now()
	store := domain.NewTripStore()
	store.UserRequest = text
	store.ConversationHistory = append(store.ConversationHistory, "Initial request: "+text)

	sess := &Session{
		ID:        domain.SessionID(uuid.NewString()),
		CreatedAt: now,
		updatedAt: now,
		status:    domain.StatusRunning,
		store:     store,
		snapshot:  store.Snapshot(),
		emitter:   NewEmitter(),
	}
	sess.addMessage(domain.RoleUser, text, now)
	return sess
}

// runTurn drives the engine until it completes, suspends or fails, then
// settles the session state. Exactly one runTurn is in flight per session.
func (c *Controller) runTurn(sess *Session, start string, first bool) {
	log := observability.WithFields("session_id", sess.ID)

	if first {
		sess.emitter.Thinking("Starting to plan your trip...")
	}

	outcome := c.engine.Run(context.Background(), sess.store, sess.emitter, start)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.updatedAt = c.now()
	sess.snapshot = sess.store.Snapshot()

	switch outcome.State {
	case flow.RunPaused:
		sess.status = domain.StatusAwaitingInput
		sess.resumeStage = outcome.ResumeStage
		c.emitWaitingMarkers(sess, outcome.ResumeStage)

		if len(sess.queued) > 0 {
			next := sess.queued[0]
			sess.queued = sess.queued[1:]
			sess.store.PendingInput = next
			sess.status = domain.StatusRunning
			log.Info("applying queued message", "resume_stage", outcome.ResumeStage)
			go c.runTurn(sess, outcome.ResumeStage, false)
		}

	case flow.RunCompleted:
		if sess.store.FinalGuide != "" && !sess.store.PlanEmitted {
			sess.emitter.Plan(sess.store.FinalGuide, true)
			sess.store.PlanEmitted = true
		}
		sess.emitter.Complete("Your travel plan is ready!")
		if sess.store.FinalGuide != "" {
			sess.addMessage(domain.RoleAssistant, sess.store.FinalGuide, c.now())
		}
		sess.status = domain.StatusComplete
		if len(sess.queued) > 0 {
			log.Warn("dropping queued messages, session complete", "count", len(sess.queued))
			sess.queued = nil
		}
		c.archiveTrip(sess, log)

	case flow.RunFailed:
		log.Error("run failed", "error", outcome.Err)
		sess.emitter.Error("Error: "+outcome.Err.Error(), "stage_failure")
		sess.status = domain.StatusFailed
		sess.queued = nil
	}
}

// emitWaitingMarkers appends the pause markers to the log. Clients filter
// both out of the rendered timeline; they exist so a raw stream consumer
// can tell the run is waiting.
func (c *Controller) emitWaitingMarkers(sess *Session, resumeStage string) {
	if resumeStage == flow.StageMergeAnswers {
		sess.emitter.Question(PlaceholderQuestion, nil)
		sess.emitter.Progress("Waiting for your response...", "waiting")
		return
	}
	sess.emitter.Progress("Waiting for your feedback...", "waiting")
}

// PlaceholderQuestion is the nudge appended when the run suspends for
// clarification answers. Timeline builders drop it; the real questions were
// already emitted by the clarification stage.
const PlaceholderQuestion = "Please answer the questions above"

func (c *Controller) archiveTrip(sess *Session, log *slog.Logger) {
	if c.archive == nil || sess.store.Trip.Destination == "" {
		return
	}
	if err := c.archive.SaveTrip(sess.store.Trip.Destination, sess.snapshot); err != nil {
		log.Warn("failed to archive trip", "error", err)
	}
}

// Get returns a live session.
func (c *Controller) Get(id domain.SessionID) (*Session, error) {
	return c.registry.Get(id)
}

// Delete destroys a session. In-flight runs keep their emitter but the
// session is no longer reachable.
func (c *Controller) Delete(id domain.SessionID) bool {
	return c.registry.Delete(id)
}

// List returns summaries for every live session.
func (c *Controller) List() []Summary {
	sessions := c.registry.List()
	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	return out
}
