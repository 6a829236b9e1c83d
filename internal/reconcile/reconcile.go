// Package reconcile applies a validated model response to the conversation
// state.
package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"proxen/internal/gateway"
	"proxen/internal/session"
)

// Reconciler is the only writer of tasks.
type Reconciler struct {
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithIDs sets the task id generator.
func WithIDs(newID func() string) Option {
	return func(r *Reconciler) { r.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Reconciler using the wall clock and random UUIDs.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply returns the state that results from resp, and the changes made to
// its tasks. state itself is not modified.
//
// The clarification flag is taken from resp first. Intents are applied only
// when the session is not awaiting clarification afterwards. The reply is
// always appended to the transcript.
func (r *Reconciler) Apply(state session.State, resp *gateway.Response) (session.State, session.ChangeLog) {
	next := state.Clone()
	now := r.now()

	if resp.WaitingForClarification != nil {
		next.AwaitingClarification = *resp.WaitingForClarification
	}

	var changes session.ChangeLog
	intents := resp.Intents()
	if next.AwaitingClarification {
		if len(intents) > 0 {
			r.logger.Debug("awaiting clarification, actions not applied", zap.Int("actions", len(intents)))
		}
	} else {
		for _, in := range intents {
			changes = append(changes, r.apply(&next, in, now)...)
		}
	}

	next.Transcript = append(next.Transcript, session.Entry{
		Text:      resp.ConversationalResponse,
		Sender:    session.SenderAssistant,
		Timestamp: now,
	})
	next.LastInteractionAt = now

	return next, changes
}

func (r *Reconciler) apply(s *session.State, in session.Intent, now time.Time) []session.Change {
	switch in := in.(type) {
	case session.Add:
		title := strings.TrimSpace(in.Title)
		if title == "" {
			r.logger.Debug("add ignored: blank title")
			return nil
		}
		return []session.Change{r.add(s, title, in.Notes, now)}

	case session.Complete:
		i := MatchTask(s.Tasks, in.MatchHint)
		if i < 0 {
			r.logger.Debug("complete: no matching task", zap.String("hint", in.MatchHint))
			return nil
		}
		t := &s.Tasks[i]
		if t.Completed {
			r.logger.Debug("complete: task already completed", zap.String("task", t.Title))
			return nil
		}
		at := now
		t.Completed = true
		t.CompletedAt = &at
		s.CompletedToday++
		return []session.Change{{Kind: session.ChangeCompleted, Description: t.Title, TaskID: t.ID, Notes: t.Notes}}

	case session.Delete:
		i := MatchTask(s.Tasks, in.MatchHint)
		if i < 0 {
			r.logger.Debug("delete: no matching task", zap.String("hint", in.MatchHint))
			return nil
		}
		t := s.Tasks[i]
		s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
		return []session.Change{{Kind: session.ChangeDeleted, Description: t.Title, TaskID: t.ID, Notes: t.Notes}}

	case session.Decompose:
		var out []session.Change
		for i, step := range in.Steps {
			title := strings.TrimSpace(step)
			if title == "" {
				continue
			}
			out = append(out, r.add(s, title, fmt.Sprintf("Step %d", i+1), now))
		}
		return out

	default:
		r.logger.Debug("unknown intent ignored", zap.String("type", fmt.Sprintf("%T", in)))
		return nil
	}
}

func (r *Reconciler) add(s *session.State, title, notes string, now time.Time) session.Change {
	t := session.Task{
		ID:        r.newID(),
		Title:     title,
		Notes:     notes,
		CreatedAt: now,
	}
	s.Tasks = append(s.Tasks, t)
	return session.Change{Kind: session.ChangeAdded, Description: t.Title, TaskID: t.ID, Notes: t.Notes}
}
