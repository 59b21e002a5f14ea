// Package agent drives the model and tool-calling loop of one chat turn.
package agent

import (
	"context"
	"encoding/json"

	"github.com/curatai/curatai/internal/toolregistry"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is a provider-neutral history entry. Tool results are messages
// with RoleTool that answer the call named by ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

type CompletionRequest struct {
	System    string
	Messages  []Message
	Tools     []toolregistry.ToolSpec
	MaxTokens int
}

// Completion is the model's answer: text, tool calls or both.
type Completion struct {
	Message    Message
	StopReason string
}

// Provider is a chat model with native tool calling.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
