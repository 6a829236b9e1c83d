package prompt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxen/internal/session"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		completedToday int
		activeTasks    int
		hour           int
		want           Momentum
	}{
		{"strong momentum", 3, 2, 14, MomentumStrong},
		{"strong beats overload", 5, 12, 14, MomentumStrong},
		{"strong beats late night", 3, 0, 2, MomentumStrong},
		{"overload", 0, 9, 14, MomentumOverload},
		{"overload beats late night", 1, 9, 3, MomentumOverload},
		{"eight is not overload", 1, 8, 14, MomentumNormal},
		{"fresh slate", 0, 0, 14, MomentumFreshSlate},
		{"fresh slate beats late night", 0, 0, 1, MomentumFreshSlate},
		{"late night", 1, 2, 5, MomentumLateNight},
		{"late night beats stalled", 0, 2, 0, MomentumLateNight},
		{"stalled", 0, 4, 10, MomentumStalled},
		{"normal", 2, 3, 10, MomentumNormal},
		{"normal with nothing left", 1, 0, 23, MomentumNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.completedToday, tt.activeTasks, tt.hour)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestMomentumGuidance(t *testing.T) {
	assert.Contains(t, MomentumStrong.Guidance(), "strong momentum")
	assert.Contains(t, MomentumOverload.Guidance(), "overwhelming")
	assert.Contains(t, MomentumFreshSlate.Guidance(), "clean slate")

	seen := map[string]bool{}
	for m := MomentumStrong; m <= MomentumNormal; m++ {
		g := m.Guidance()
		require.NotEmpty(t, g, m.String())
		assert.False(t, seen[g], "duplicate guidance for %s", m)
		seen[g] = true
	}
	assert.Equal(t, "unknown", Momentum(99).String())
}

func TestTimeOfDay(t *testing.T) {
	want := map[int]string{
		0:  "Late night (after midnight)",
		5:  "Late night (after midnight)",
		6:  "Morning",
		11: "Morning",
		12: "Afternoon",
		16: "Afternoon",
		17: "Evening",
		20: "Evening",
		21: "Late night",
		23: "Late night",
	}
	for hour, label := range want {
		assert.Equal(t, label, TimeOfDay(hour), fmt.Sprint(hour))
	}
}

func entry(sender session.Sender, text string) session.Entry {
	return session.Entry{Text: text, Sender: sender, Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestCompose(t *testing.T) {
	state := session.State{
		Tasks: []session.Task{
			{ID: "t1", Title: "Write essay", CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
		},
		CompletedToday: 1,
	}
	for i := 1; i <= 8; i++ {
		sender := session.SenderUser
		if i%2 == 0 {
			sender = session.SenderAssistant
		}
		state.Transcript = append(state.Transcript, entry(sender, fmt.Sprintf("message %d", i)))
	}
	now := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

	req := New(0).Compose(state, "Sam", "I finished the essay", now)
	text := req.Text

	sections := []string{
		"productivity companion for Sam",
		"TONE VARIATION",
		"CURRENT STATE:",
		"CRITICAL RULES FOR TASK MANAGEMENT",
		"ANTI-REPETITION RULE",
		"YOU MUST RESPOND WITH VALID JSON",
		"RECENT CONVERSATION:",
		"USER'S CURRENT MESSAGE:\nI finished the essay",
	}
	for _, s := range sections {
		assert.Contains(t, text, s)
	}

	assert.Contains(t, text, "Time: Afternoon\n")
	assert.Contains(t, text, "Recent completions today: 1\n")
	assert.Contains(t, text, `"title":"Write essay"`)
	assert.Contains(t, text, MomentumNormal.Guidance())
	assert.Contains(t, text, `"I should do X" does not mean "Add X"`)
	assert.True(t, strings.HasSuffix(text, closingReminder))

	// Only the last six entries, oldest first.
	assert.NotContains(t, text, "message 2\n")
	assert.Contains(t, text, "User: message 3\nAssistant: message 4\nUser: message 5\n"+
		"Assistant: message 6\nUser: message 7\nAssistant: message 8\n")
}

func TestCompose_EmptyState(t *testing.T) {
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	text := New(6).Compose(session.State{}, "Sam", "hi", now).Text

	assert.Contains(t, text, "Tasks: []\n")
	assert.Contains(t, text, "Time: Late night (after midnight)")
	assert.Contains(t, text, MomentumFreshSlate.Guidance())
	assert.Contains(t, text, "RECENT CONVERSATION:\n\n")
}

func TestCompose_IsDeterministic(t *testing.T) {
	state := session.State{Transcript: []session.Entry{entry(session.SenderUser, "hello")}}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := New(6)
	assert.Equal(t, c.Compose(state, "Sam", "hi", now), c.Compose(state, "Sam", "hi", now))
}

func TestHistoryWindow(t *testing.T) {
	assert.Equal(t, DefaultHistoryWindow, New(-1).HistoryWindow())
	assert.Equal(t, 10, New(10).HistoryWindow())
}

func TestGreeting(t *testing.T) {
	g := Greeting("Sam")
	assert.True(t, strings.HasPrefix(g, "The user just opened the application. Their name is Sam."))
	assert.Contains(t, g, "2-3 sentences")
}
