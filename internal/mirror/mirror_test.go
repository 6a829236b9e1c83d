package mirror

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"proxen/internal/service"
	"proxen/internal/session"
	"proxen/internal/testutil"
)

func TestApply_DefaultList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(testutil.DefaultListID, "r1", "Write essay")
	svc.AddTask(testutil.DefaultListID, "r2", "Gym")
	m := New(svc, "", zaptest.NewLogger(t))

	err := m.Apply(context.Background(), session.ChangeLog{
		{Kind: session.ChangeAdded, Description: "Pick a topic", Notes: "Step 1"},
		{Kind: session.ChangeCompleted, Description: "write ESSAY"},
		{Kind: session.ChangeDeleted, Description: "Gym"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"[x] Write essay", "[ ] Pick a topic"}, svc.Titles(testutil.DefaultListID))
	tasks := svc.Tasks(testutil.DefaultListID)
	assert.Equal(t, "Step 1", tasks[1].Notes)
}

func TestApply_NamedList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddList("p", "Proxen")
	m := New(svc, "proxen", zaptest.NewLogger(t))

	require.NoError(t, m.Apply(context.Background(), session.ChangeLog{
		{Kind: session.ChangeAdded, Description: "Buy milk"},
	}))

	assert.Equal(t, []string{"[ ] Buy milk"}, svc.Titles("p"))
	assert.Empty(t, svc.Tasks(testutil.DefaultListID))
}

func TestApply_MissingRemoteTaskIsSkipped(t *testing.T) {
	svc := testutil.NewFakeService()
	m := New(svc, "", zaptest.NewLogger(t))

	err := m.Apply(context.Background(), session.ChangeLog{
		{Kind: session.ChangeCompleted, Description: "Never mirrored"},
		{Kind: session.ChangeDeleted, Description: "Also not there"},
	})
	assert.NoError(t, err)
}

func TestApply_CompletesEachTaskOnce(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(testutil.DefaultListID, "r1", "Email")
	svc.AddTask(testutil.DefaultListID, "r2", "Email")
	m := New(svc, "", zaptest.NewLogger(t))

	require.NoError(t, m.Apply(context.Background(), session.ChangeLog{
		{Kind: session.ChangeCompleted, Description: "Email"},
		{Kind: session.ChangeCompleted, Description: "Email"},
	}))
	assert.Equal(t, []string{"[x] Email", "[x] Email"}, svc.Titles(testutil.DefaultListID))
}

func TestApply_JoinsFailures(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(testutil.DefaultListID, "r1", "Gym")
	svc.CreateTaskErr = errors.New("quota")
	m := New(svc, "", zaptest.NewLogger(t))

	err := m.Apply(context.Background(), session.ChangeLog{
		{Kind: session.ChangeAdded, Description: "One"},
		{Kind: session.ChangeAdded, Description: "Two"},
		{Kind: session.ChangeDeleted, Description: "Gym"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `add "One": quota`)
	assert.Contains(t, err.Error(), `add "Two": quota`)

	// The delete still went through.
	assert.Empty(t, svc.Tasks(testutil.DefaultListID))
}

func TestApply_ListFailureKeepsAdds(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(testutil.DefaultListID, "r1", "old")
	svc.ListOpenTasksErr[testutil.DefaultListID] = errors.New("boom")
	m := New(svc, "", zaptest.NewLogger(t))

	err := m.Apply(context.Background(), session.ChangeLog{
		{Kind: session.ChangeCompleted, Description: "old"},
		{Kind: session.ChangeDeleted, Description: "old"},
		{Kind: session.ChangeAdded, Description: "new task"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list open tasks: boom")
	assert.Equal(t, 1, strings.Count(err.Error(), "boom"))

	assert.Equal(t, []string{"[ ] old", "[ ] new task"}, svc.Titles(testutil.DefaultListID))
}

func TestApply_UnknownList(t *testing.T) {
	svc := testutil.NewFakeService()
	m := New(svc, "Errands", nil)

	err := m.Apply(context.Background(), session.ChangeLog{{Kind: session.ChangeAdded, Description: "x"}})
	assert.ErrorIs(t, err, service.ErrListNotFound)
}

func TestApply_NothingToDo(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.DefaultListErr = errors.New("offline")
	m := New(svc, "", nil)

	assert.NoError(t, m.Apply(context.Background(), nil))
}
