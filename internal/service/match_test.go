package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchList(t *testing.T) {
	lists := []TaskList{
		{ID: "@default", Title: "My Tasks", IsDefault: true},
		{ID: "w", Title: "Work"},
		{ID: "p1", Title: "Personal"},
		{ID: "p2", Title: " personal "},
	}

	got, err := MatchList(lists, "  WORK ")
	require.NoError(t, err)
	assert.Equal(t, "w", got.ID)

	got, err = MatchList(lists, "")
	require.NoError(t, err)
	assert.True(t, got.IsDefault)

	_, err = MatchList(lists, "Errands")
	assert.ErrorIs(t, err, ErrListNotFound)

	_, err = MatchList(lists, "personal")
	assert.ErrorIs(t, err, ErrListAmbiguous)
}
