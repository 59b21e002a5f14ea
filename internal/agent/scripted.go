package agent

import (
	"context"
	"errors"
	"sync"
)

// ScriptedProvider replays canned completions in order and records the
// requests it was given. It backs the driver tests and offline demos.
type ScriptedProvider struct {
	mu       sync.Mutex
	script   []Completion
	Requests []CompletionRequest
}

var ErrScriptExhausted = errors.New("scripted provider has no more completions")

func NewScriptedProvider(script ...Completion) *ScriptedProvider {
	return &ScriptedProvider{script: script}
}

func (p *ScriptedProvider) Name() string {
	return "scripted"
}

func (p *ScriptedProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := req
	cp.Messages = append([]Message(nil), req.Messages...)
	p.Requests = append(p.Requests, cp)
	if len(p.script) == 0 {
		return nil, ErrScriptExhausted
	}
	next := p.script[0]
	p.script = p.script[1:]
	return &next, nil
}
