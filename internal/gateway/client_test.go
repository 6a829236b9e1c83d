package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"proxen/internal/session"
)

const testKey = "test-key-0123456789abcdef"

// scriptedServer replies with the given handlers in order; the last one repeats.
type scriptedServer struct {
	*httptest.Server
	mu       sync.Mutex
	replies  []func(w http.ResponseWriter)
	requests []*http.Request
	bodies   [][]byte
}

func newScriptedServer(t *testing.T, replies ...func(w http.ResponseWriter)) *scriptedServer {
	t.Helper()
	s := &scriptedServer{replies: replies}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		n := len(s.requests)
		s.requests = append(s.requests, r)
		s.bodies = append(s.bodies, body)
		reply := s.replies[min(n, len(s.replies)-1)]
		s.mu.Unlock()
		reply(w)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *scriptedServer) request(i int) (*http.Request, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[i], s.bodies[i]
}

func (s *scriptedServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func modelText(text string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content":      map[string]any{"parts": []any{map[string]any{"text": text}}},
					"finishReason": "STOP",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func status(code int, message string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(code)
		if message != "" {
			fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, message)
		}
	}
}

func raw(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		fmt.Fprint(w, body)
	}
}

// recordingSleep records requested delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func newTestClient(t *testing.T, srv *scriptedServer, sl *recordingSleep) *Client {
	t.Helper()
	return New(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithSleep(sl.sleep),
		WithLogger(zaptest.NewLogger(t)),
	)
}

const okReply = `{"conversational_response":"Alright, that's on the list.","actions":[{"type":"add","title":"Write the essay"}],"isWaitingForClarification":false}`

func TestSend_Success(t *testing.T) {
	srv := newScriptedServer(t, modelText(okReply))
	sl := &recordingSleep{}
	c := newTestClient(t, srv, sl)

	resp, err := c.Send(context.Background(), "hello", testKey)
	require.NoError(t, err)

	assert.Equal(t, "Alright, that's on the list.", resp.ConversationalResponse)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "Write the essay", resp.Actions[0].Title)
	require.NotNil(t, resp.WaitingForClarification)
	assert.False(t, *resp.WaitingForClarification)
	assert.Empty(t, sl.delays)

	require.Equal(t, 1, srv.count())
	req, reqBody := srv.request(0)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/models/gemma-3-27b-it:generateContent", req.URL.Path)
	assert.Equal(t, testKey, req.URL.Query().Get("key"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var body struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		GenerationConfig struct {
			Temperature     float64 `json:"temperature"`
			TopK            int     `json:"topK"`
			TopP            float64 `json:"topP"`
			MaxOutputTokens int     `json:"maxOutputTokens"`
		} `json:"generationConfig"`
	}
	require.NoError(t, json.Unmarshal(reqBody, &body))
	require.Len(t, body.Contents, 1)
	require.Len(t, body.Contents[0].Parts, 1)
	assert.Equal(t, "hello", body.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.8, body.GenerationConfig.Temperature)
	assert.Equal(t, 40, body.GenerationConfig.TopK)
	assert.Equal(t, 0.95, body.GenerationConfig.TopP)
	assert.Equal(t, 1024, body.GenerationConfig.MaxOutputTokens)
}

func TestSend_NullClarificationFlag(t *testing.T) {
	srv := newScriptedServer(t, modelText(`{"conversational_response":"Added.","actions":[{"type":"add","title":"Buy milk"}],"isWaitingForClarification":null}`))
	c := newTestClient(t, srv, &recordingSleep{})

	resp, err := c.Send(context.Background(), "hello", testKey)
	require.NoError(t, err)

	require.NotNil(t, resp.WaitingForClarification)
	assert.False(t, *resp.WaitingForClarification)
	require.Len(t, resp.Actions, 1)
}

func TestSend_RetriesServiceErrorsThenSucceeds(t *testing.T) {
	srv := newScriptedServer(t,
		status(503, "overloaded"),
		status(500, ""),
		status(502, ""),
		modelText(okReply),
	)
	sl := &recordingSleep{}
	c := newTestClient(t, srv, sl)

	resp, err := c.Send(context.Background(), "hello", testKey)
	require.NoError(t, err)
	assert.Equal(t, "Alright, that's on the list.", resp.ConversationalResponse)
	assert.Equal(t, 4, srv.count())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sl.delays)
}

func TestSend_AuthErrorIsFatal(t *testing.T) {
	for _, code := range []int{401, 403} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			srv := newScriptedServer(t, status(code, "API key not valid"), modelText(okReply))
			sl := &recordingSleep{}
			c := newTestClient(t, srv, sl)

			_, err := c.Send(context.Background(), "hello", testKey)
			require.Error(t, err)

			var gerr *Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, KindAuth, gerr.Kind)
			assert.Equal(t, code, gerr.Status)
			assert.Contains(t, gerr.Detail, "API key not valid")
			assert.Equal(t, 1, srv.count(), "fatal errors must not be retried")
			assert.Empty(t, sl.delays)
		})
	}
}

func TestSend_BadRequestIsFatal(t *testing.T) {
	srv := newScriptedServer(t, status(400, ""), modelText(okReply))
	sl := &recordingSleep{}
	c := newTestClient(t, srv, sl)

	_, err := c.Send(context.Background(), "hello", testKey)
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Contains(t, err.Error(), "Unknown")
	assert.Equal(t, 1, srv.count())
}

func TestSend_ExhaustedRetriesReturnLastError(t *testing.T) {
	srv := newScriptedServer(t,
		status(503, ""),
		raw(`{"candidates":[]}`),
		status(500, ""),
		status(429, "quota exhausted"),
	)
	sl := &recordingSleep{}
	c := newTestClient(t, srv, sl)

	_, err := c.Send(context.Background(), "hello", testKey)
	require.Error(t, err)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindRateLimit, gerr.Kind)
	assert.Equal(t, "rate limit: quota exhausted", gerr.Detail)
	assert.Equal(t, 4, srv.count())
	assert.Len(t, sl.delays, 3)
}

func TestSend_NoAPIKey(t *testing.T) {
	srv := newScriptedServer(t, modelText(okReply))
	c := newTestClient(t, srv, &recordingSleep{})

	_, err := c.Send(context.Background(), "hello", "  ")
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Equal(t, 0, srv.count())
}

func TestSend_NetworkErrorDoesNotLeakKey(t *testing.T) {
	srv := newScriptedServer(t, modelText(okReply))
	srv.Close()

	sl := &recordingSleep{}
	c := New(WithBaseURL(srv.URL), WithSleep(sl.sleep), WithDelays(time.Millisecond))

	_, err := c.Send(context.Background(), "hello", testKey)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.NotContains(t, err.Error(), testKey)
	assert.Len(t, sl.delays, 1)
}

func TestSend_InterruptedWaitReturnsLastError(t *testing.T) {
	srv := newScriptedServer(t, status(503, ""))
	c := New(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithSleep(func(ctx context.Context, d time.Duration) error { return context.Canceled }),
	)

	_, err := c.Send(context.Background(), "hello", testKey)
	assert.Equal(t, KindService, KindOf(err))
	assert.Equal(t, 1, srv.count())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"rate limit", 429, ``, KindRateLimit},
		{"service", 503, `{"error":{"message":"down"}}`, KindService},
		{"unexpected status", 404, `not found`, KindUnexpectedStatus},
		{"malformed body", 200, `<html>`, KindEmptyResponse},
		{"no candidates", 200, `{"candidates":[]}`, KindEmptyResponse},
		{"safety", 200, `{"candidates":[{"finishReason":"SAFETY"}]}`, KindContentBlocked},
		{"blocked", 200, `{"candidates":[{"finishReason":"BLOCKED","content":{"parts":[{"text":"x"}]}}]}`, KindContentBlocked},
		{"no content", 200, `{"candidates":[{"finishReason":"STOP"}]}`, KindEmptyText},
		{"blank text", 200, `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`, KindEmptyText},
		{"not json", 200, `{"candidates":[{"content":{"parts":[{"text":"Sure! Here you go."}]}}]}`, KindParseFailure},
		{"missing reply", 200, `{"candidates":[{"content":{"parts":[{"text":"{\"actions\":[]}"}]}}]}`, KindParseFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate(tt.status, []byte(tt.body))
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Kind)
			assert.NotEmpty(t, err.Detail)
		})
	}
}

func TestKindFatal(t *testing.T) {
	fatal := map[Kind]bool{KindAuth: true, KindBadRequest: true}
	for _, k := range []Kind{
		KindAuth, KindBadRequest, KindRateLimit, KindService, KindUnexpectedStatus,
		KindContentBlocked, KindEmptyResponse, KindEmptyText, KindParseFailure, KindNetwork,
	} {
		assert.Equal(t, fatal[k], k.Fatal(), string(k))
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```json {\"a\":1} ```  ", "{\"a\":1}"},
		{"```json\n{\"a\":\"```\"}\n```", "{\"a\":\"```\"}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFence(tt.in), tt.in)
	}
}

func TestParseText_LenientActions(t *testing.T) {
	text := "```json\n" + `{
		"conversational_response": "Done and done.",
		"actions": [
			{"type": "add", "title": "Buy milk", "notes": "2%"},
			{"type": "complete", "id_match": "essay"},
			{"type": "delete", "id_match": "gym"},
			{"type": "help", "task_id": "essay", "steps": ["Outline", "Draft"]},
			{"type": "help", "task_id": "nothing"},
			{"type": "add", "title": "   "},
			{"type": "snooze", "id_match": "essay"},
			"not an object",
			{"type": "add", "title": 42}
		]
	}` + "\n```"

	resp, err := parseText(text)
	require.Nil(t, err)
	assert.Equal(t, "Done and done.", resp.ConversationalResponse)
	assert.Nil(t, resp.WaitingForClarification)
	assert.Equal(t, 5, resp.Dropped())

	intents := resp.Intents()
	require.Len(t, intents, 4)
	assert.Equal(t, session.Add{Title: "Buy milk", Notes: "2%"}, intents[0])
	assert.Equal(t, session.Complete{MatchHint: "essay"}, intents[1])
	assert.Equal(t, session.Delete{MatchHint: "gym"}, intents[2])
	assert.Equal(t, session.Decompose{TaskHint: "essay", Steps: []string{"Outline", "Draft"}}, intents[3])
}

func TestParseText_NonArrayActionsIgnored(t *testing.T) {
	resp, err := parseText(`{"conversational_response":"Hm.","actions":{"type":"add"},"isWaitingForClarification":true}`)
	require.Nil(t, err)
	assert.Empty(t, resp.Actions)
	assert.Equal(t, 1, resp.Dropped())
	require.NotNil(t, resp.WaitingForClarification)
	assert.True(t, *resp.WaitingForClarification)
}

func TestParseText_ClarificationFlag(t *testing.T) {
	tests := []struct {
		name string
		flag string
		want *bool
	}{
		{name: "absent", flag: "", want: nil},
		{name: "true", flag: `,"isWaitingForClarification":true`, want: boolPtr(true)},
		{name: "false", flag: `,"isWaitingForClarification":false`, want: boolPtr(false)},
		{name: "null", flag: `,"isWaitingForClarification":null`, want: boolPtr(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseText(`{"conversational_response":"Ok."` + tt.flag + `}`)
			require.Nil(t, err)
			assert.Equal(t, tt.want, resp.WaitingForClarification)
		})
	}

	_, err := parseText(`{"conversational_response":"Ok.","isWaitingForClarification":"yes"}`)
	require.NotNil(t, err)
	assert.Equal(t, KindParseFailure, err.Kind)
}

func boolPtr(b bool) *bool { return &b }

func TestErrorString(t *testing.T) {
	err := classifyStatus(503, "")
	assert.Equal(t, "service (status 503): service error: Server unavailable", err.Error())
	assert.True(t, strings.HasPrefix(newError(KindEmptyText, "no text").Error(), "empty_text:"))
}
