package testutil

import (
	"context"
	"errors"
	"sync"

	"proxen/internal/gateway"
)

// ErrNoScriptedReply is returned by FakeGateway when its script is exhausted.
var ErrNoScriptedReply = errors.New("fake gateway: no scripted reply")

type scriptedReply struct {
	resp *gateway.Response
	err  error
}

// FakeGateway replays scripted replies in order and records every call.
type FakeGateway struct {
	mu      sync.Mutex
	script  []scriptedReply
	prompts []string
	keys    []string

	// Started, when set, receives a value as each Send begins.
	Started chan struct{}
	// Release, when set, is waited on before Send returns.
	Release chan struct{}
}

// NewFakeGateway creates an empty FakeGateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

// Reply queues a successful response.
func (f *FakeGateway) Reply(text string, actions ...gateway.Action) *FakeGateway {
	return f.ReplyWith(&gateway.Response{ConversationalResponse: text, Actions: actions})
}

// ReplyWith queues resp as the next result.
func (f *FakeGateway) ReplyWith(resp *gateway.Response) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, scriptedReply{resp: resp})
	return f
}

// Fail queues err as the next result.
func (f *FakeGateway) Fail(err error) *FakeGateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, scriptedReply{err: err})
	return f
}

// Send implements conversation.Gateway.
func (f *FakeGateway) Send(ctx context.Context, prompt, apiKey string) (*gateway.Response, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.keys = append(f.keys, apiKey)
	var next scriptedReply
	if len(f.script) > 0 {
		next, f.script = f.script[0], f.script[1:]
	} else {
		next.err = ErrNoScriptedReply
	}
	started, release := f.Started, f.Release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return next.resp, next.err
}

// Prompts returns the prompts sent so far.
func (f *FakeGateway) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Keys returns the API keys sent so far.
func (f *FakeGateway) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

// Calls returns the number of Send calls.
func (f *FakeGateway) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
