// Package toolregistry keeps the named tools the assistant may call,
// validates their arguments and bounds their results.
package toolregistry

import (
	"context"
	"net/http"

	"github.com/curatai/curatai/internal/common/apperrors"
)

// ToolSpec describes how a tool is presented to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolRequest carries validated arguments to a tool.
type ToolRequest struct {
	ConversationID string
	Arguments      map[string]any
}

// ToolResponse is the text a tool produced.
type ToolResponse struct {
	Content   string
	Truncated bool
}

// Tool exposes its spec and an invocation handler.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

var (
	ErrRegistry apperrors.Error = apperrors.New("tool registry error")
	// ErrUnknownTool and ErrInvalidArguments are retryable: the caller is
	// expected to correct the call and try again.
	ErrUnknownTool      apperrors.Error = ErrRegistry.New("unknown tool").SetStatusCode(http.StatusNotFound).SetRetryable(true)
	ErrInvalidArguments apperrors.Error = ErrRegistry.New("invalid tool arguments").SetStatusCode(http.StatusBadRequest).SetRetryable(true)
	ErrInvalidTool      apperrors.Error = ErrRegistry.New("invalid tool")
	ErrDuplicateTool    apperrors.Error = ErrRegistry.New("tool already registered").SetStatusCode(http.StatusConflict)
)
