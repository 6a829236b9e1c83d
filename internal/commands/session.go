package commands

import (
	"context"
	"errors"
	"fmt"

	"proxen/internal/config"
	"proxen/internal/conversation"
	"proxen/internal/exitcode"
	"proxen/internal/mirror"
	"proxen/internal/output"
	"proxen/internal/prompt"
	"proxen/internal/session"
)

// turns runs conversation turns against the stored session and writes
// their results to the command output.
type turns struct {
	env    *Env
	ctrl   *conversation.Controller
	mirror *mirror.Mirror

	// stored is the profile as saved; profile is the one used for turns
	// and may carry the API key from the environment.
	stored  session.Profile
	profile session.Profile
	state   session.State
}

// openTurns loads the session and prepares a controller for it. It prints
// the error and returns a non-zero exit code when the session cannot be used.
func openTurns(ctx context.Context, env *Env) (*turns, int) {
	snap, err := env.Store.Load(ctx)
	if err != nil {
		fmt.Fprintf(env.Err, "error: failed to load session: %v\n", err)
		return nil, exitcode.BackendError
	}

	t := &turns{
		env:     env,
		stored:  snap.Profile,
		profile: snap.Profile,
		state:   snap.State,
	}
	t.profile.APIKey = config.APIKey(snap.Profile.APIKey)
	if !t.profile.Configured() {
		fmt.Fprintf(env.Err, "error: %v\n", session.ErrNotConfigured)
		return nil, exitcode.AuthError
	}

	persist := conversation.PersistFunc(func(ctx context.Context, state session.State) error {
		return env.Store.Save(ctx, session.Snapshot{Profile: t.stored, State: state})
	})
	t.ctrl = conversation.New(env.Gateway,
		conversation.WithComposer(prompt.New(env.Config.Settings.HistoryWindow)),
		conversation.WithPersister(persist),
		conversation.WithClock(env.now),
		conversation.WithLogger(env.logger()),
	)
	if env.Tasks != nil {
		t.mirror = mirror.New(env.Tasks, env.Config.Settings.Mirror.List, env.logger())
	}
	return t, exitcode.Success
}

// started reports whether the transcript has any entries.
func (t *turns) started() bool {
	return len(t.state.Transcript) > 0
}

func (t *turns) submit(ctx context.Context, text string) conversation.Outcome {
	out := t.ctrl.Submit(ctx, t.state, t.profile, text)
	return t.finish(ctx, out)
}

func (t *turns) bootstrap(ctx context.Context) conversation.Outcome {
	out := t.ctrl.Bootstrap(ctx, t.state, t.profile)
	return t.finish(ctx, out)
}

// finish adopts the outcome's state, prints the reply or failure and
// mirrors any task changes.
func (t *turns) finish(ctx context.Context, out conversation.Outcome) conversation.Outcome {
	if errors.Is(out.Err, conversation.ErrEmptyMessage) || errors.Is(out.Err, conversation.ErrTurnInProgress) {
		return out
	}
	t.state = out.State

	if out.Err != nil {
		fmt.Fprintf(t.env.Err, "error: %s\n", out.UserMessage)
		// The failure is already in the transcript; the next line may retry.
		t.ctrl.Recover()
		return out
	}

	output.FormatReply(t.env.Out, out.Reply)
	if !t.env.Config.Quiet {
		for _, c := range out.Changes {
			output.FormatChange(t.env.Out, c)
		}
	}

	if t.mirror != nil && len(out.Changes) > 0 {
		if err := t.mirror.Apply(ctx, out.Changes); err != nil {
			fmt.Fprintf(t.env.Err, "warning: %v\n", err)
		}
	}
	return out
}

// printTasks writes the active tasks, then the completed ones when all is set.
func printTasks(env *Env, state session.State, all bool) {
	active := state.ActiveTasks()
	if len(active) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(env.Out, "no open tasks")
		}
	}
	for i, task := range active {
		output.FormatTask(env.Out, i+1, task)
	}

	if !all {
		return
	}
	completed := state.CompletedTasks()
	if len(completed) == 0 {
		return
	}
	output.FormatSection(env.Out, "Completed")
	for _, task := range completed {
		output.FormatCompletedTask(env.Out, task)
	}
}
