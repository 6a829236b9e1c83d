// Package conversation runs a turn: it records the user's message, composes
// the prompt, calls the model and reconciles the reply into the next state.
package conversation

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"proxen/internal/gateway"
	"proxen/internal/prompt"
	"proxen/internal/reconcile"
	"proxen/internal/session"
)

// Gateway sends a prompt to the model.
type Gateway interface {
	Send(ctx context.Context, prompt, apiKey string) (*gateway.Response, error)
}

// Persister saves state after each mutation.
type Persister interface {
	Persist(ctx context.Context, state session.State) error
}

// PersistFunc adapts a function to Persister.
type PersistFunc func(ctx context.Context, state session.State) error

// Persist calls f.
func (f PersistFunc) Persist(ctx context.Context, state session.State) error {
	return f(ctx, state)
}

// Outcome is the result of a turn.
type Outcome struct {
	// State is the state after the turn. On failure it still carries the
	// user's message and the error entry.
	State session.State

	Reply   string
	Changes session.ChangeLog

	Err         error
	UserMessage string // stable message shown to the user when Err is set
	Technical   string // diagnostic detail when Err is set
}

// Controller orchestrates turns. It runs one turn at a time.
type Controller struct {
	gateway    Gateway
	composer   *prompt.Composer
	reconciler *reconcile.Reconciler
	persister  Persister
	now        func() time.Time
	logger     *zap.Logger

	busy atomic.Bool

	mu        sync.Mutex
	status    Status
	observers []Observer
}

// Option configures a Controller.
type Option func(*Controller)

// WithComposer sets the prompt composer.
func WithComposer(p *prompt.Composer) Option {
	return func(c *Controller) { c.composer = p }
}

// WithReconciler sets the reconciler.
func WithReconciler(r *reconcile.Reconciler) Option {
	return func(c *Controller) { c.reconciler = r }
}

// WithPersister sets where state is saved after each mutation.
func WithPersister(p Persister) Option {
	return func(c *Controller) { c.persister = p }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Controller that sends turns through gw.
func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway: gw,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.composer == nil {
		c.composer = prompt.New(prompt.DefaultHistoryWindow)
	}
	if c.reconciler == nil {
		c.reconciler = reconcile.New(reconcile.WithClock(c.now), reconcile.WithLogger(c.logger))
	}
	return c
}

// Submit runs one turn for the user's utterance.
//
// The utterance is appended to the transcript and persisted before the model
// is called, so it survives a failed turn. A failed turn never touches tasks.
func (c *Controller) Submit(ctx context.Context, state session.State, profile session.Profile, utterance string) Outcome {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return Outcome{State: state, Err: ErrEmptyMessage}
	}
	if !profile.Configured() {
		return Outcome{State: state, Err: session.ErrNotConfigured}
	}
	if !c.busy.CompareAndSwap(false, true) {
		return Outcome{State: state, Err: ErrTurnInProgress}
	}
	defer c.busy.Store(false)

	now := c.now()
	next := state.RollOver(now).Append(session.Entry{
		Text:      utterance,
		Sender:    session.SenderUser,
		Timestamp: now,
	})
	c.persist(ctx, next)

	return c.run(ctx, next, profile, utterance)
}

// Bootstrap runs the greeting turn of a new session. It fails with
// ErrAlreadyStarted when the transcript is not empty.
func (c *Controller) Bootstrap(ctx context.Context, state session.State, profile session.Profile) Outcome {
	if len(state.Transcript) > 0 {
		return Outcome{State: state, Err: ErrAlreadyStarted}
	}
	if !profile.Configured() {
		return Outcome{State: state, Err: session.ErrNotConfigured}
	}
	if !c.busy.CompareAndSwap(false, true) {
		return Outcome{State: state, Err: ErrTurnInProgress}
	}
	defer c.busy.Store(false)

	return c.run(ctx, state.RollOver(c.now()), profile, prompt.Greeting(profile.UserName))
}

func (c *Controller) run(ctx context.Context, state session.State, profile session.Profile, message string) Outcome {
	c.setStatus(StatusProcessing)

	req := c.composer.Compose(state, profile.UserName, message, c.now())
	resp, err := c.gateway.Send(ctx, req.Text, profile.APIKey)
	if err != nil {
		user, technical := Describe(err)
		c.logger.Debug("turn failed",
			zap.String("kind", string(gateway.KindOf(err))),
			zap.String("technical", technical))

		next := state.Append(session.Entry{
			Text:      user,
			Sender:    session.SenderAssistant,
			Timestamp: c.now(),
			IsError:   true,
		})
		c.persist(ctx, next)
		c.setStatus(StatusError)
		return Outcome{State: next, Err: err, UserMessage: user, Technical: technical}
	}

	next, changes := c.reconciler.Apply(state, resp)
	c.persist(ctx, next)
	c.setStatus(StatusReady)

	c.logger.Debug("turn complete",
		zap.Int("changes", len(changes)),
		zap.Bool("awaiting_clarification", next.AwaitingClarification))
	return Outcome{State: next, Reply: resp.ConversationalResponse, Changes: changes}
}

// persist saves state. Failures are logged; persistence is best effort.
// The save outlives cancellation of ctx so an interrupted turn still records
// its error entry.
func (c *Controller) persist(ctx context.Context, state session.State) {
	if c.persister == nil {
		return
	}
	if err := c.persister.Persist(context.WithoutCancel(ctx), state); err != nil {
		c.logger.Warn("failed to save state", zap.Error(err))
	}
}
