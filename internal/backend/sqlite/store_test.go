package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"proxen/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad_Empty(t *testing.T) {
	s := openTestStore(t)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.Snapshot{}, snap)
	assert.False(t, snap.Profile.Configured())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	done := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	want := session.Snapshot{
		Profile: session.Profile{APIKey: "AIzaSyTESTKEY-0123456789", UserName: "Sam"},
		State: session.State{
			Tasks: []session.Task{
				{ID: "b", Title: "Write essay", Notes: "due Friday", CreatedAt: created},
				{ID: "a", Title: "Gym", Completed: true, CreatedAt: created, CompletedAt: &done},
			},
			Transcript: []session.Entry{
				{Text: "I need to write the essay", Sender: session.SenderUser, Timestamp: created},
				{Text: "Connection issue.", Sender: session.SenderAssistant, Timestamp: done, IsError: true},
			},
			CompletedToday:        1,
			AwaitingClarification: true,
			LastInteractionAt:     done,
		},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, want.Profile, got.Profile)
	assert.Equal(t, 1, got.State.CompletedToday)
	assert.True(t, got.State.AwaitingClarification)
	assert.True(t, done.Equal(got.State.LastInteractionAt))

	require.Len(t, got.State.Tasks, 2)
	assert.Equal(t, "b", got.State.Tasks[0].ID, "list order is preserved")
	assert.Equal(t, "due Friday", got.State.Tasks[0].Notes)
	assert.True(t, created.Equal(got.State.Tasks[0].CreatedAt))
	assert.Nil(t, got.State.Tasks[0].CompletedAt)
	assert.True(t, got.State.Tasks[1].Completed)
	require.NotNil(t, got.State.Tasks[1].CompletedAt)
	assert.True(t, done.Equal(*got.State.Tasks[1].CompletedAt))

	require.Len(t, got.State.Transcript, 2)
	assert.Equal(t, session.SenderUser, got.State.Transcript[0].Sender)
	assert.Equal(t, "Connection issue.", got.State.Transcript[1].Text)
	assert.True(t, got.State.Transcript[1].IsError)
}

func TestSave_LastWriteWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	first := session.Snapshot{
		Profile: session.Profile{APIKey: "AIzaSyTESTKEY-0123456789", UserName: "Sam"},
		State: session.State{Tasks: []session.Task{
			{ID: "1", Title: "One", CreatedAt: now},
			{ID: "2", Title: "Two", CreatedAt: now},
		}},
	}
	second := session.Snapshot{
		Profile: first.Profile,
		State:   session.State{Tasks: []session.Task{{ID: "2", Title: "Two", CreatedAt: now}}},
	}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.State.Tasks, 1)
	assert.Equal(t, "Two", got.State.Tasks[0].Title)
	assert.True(t, got.State.LastInteractionAt.IsZero())
}

func TestSave_DuplicateIDRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	good := session.Snapshot{State: session.State{Tasks: []session.Task{{ID: "1", Title: "Keep", CreatedAt: now}}}}
	require.NoError(t, s.Save(ctx, good))

	bad := session.Snapshot{State: session.State{Tasks: []session.Task{
		{ID: "x", Title: "A", CreatedAt: now},
		{ID: "x", Title: "B", CreatedAt: now},
	}}}
	require.Error(t, s.Save(ctx, bad))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.State.Tasks, 1)
	assert.Equal(t, "Keep", got.State.Tasks[0].Title)
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, session.Snapshot{
		Profile: session.Profile{APIKey: "AIzaSyTESTKEY-0123456789", UserName: "Sam"},
		State:   session.State{CompletedToday: 3},
	}))
	require.NoError(t, s.Reset(ctx))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.Snapshot{}, got)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, session.Snapshot{Profile: session.Profile{UserName: "Sam"}}))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, path)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sam", got.Profile.UserName)
}
