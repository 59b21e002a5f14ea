package toolregistry

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatai/curatai/internal/common/apperrors"
	"github.com/curatai/curatai/internal/metrics"
)

type echoTool struct {
	name   string
	schema map[string]any
	calls  int
	last   map[string]any
	out    string
	err    error
}

func (e *echoTool) Spec() ToolSpec {
	return ToolSpec{Name: e.name, Description: "echo", InputSchema: e.schema}
}

func (e *echoTool) Invoke(_ context.Context, req ToolRequest) (ToolResponse, error) {
	e.calls++
	e.last = req.Arguments
	if e.err != nil {
		return ToolResponse{}, e.err
	}
	return ToolResponse{Content: e.out}, nil
}

var limitSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"search_term": map[string]any{"type": "string"},
		"limit":       map[string]any{"type": "integer"},
	},
	"required": []any{"search_term"},
}

func TestRegister(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&echoTool{name: "Search", schema: limitSchema}))
	require.NoError(t, r.Register(&echoTool{name: "other"}))

	err := r.Register(&echoTool{name: " search "})
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.ErrorIs(t, r.Register(&echoTool{name: ""}), ErrInvalidTool)
	assert.ErrorIs(t, r.Register(nil), ErrInvalidTool)

	bad := &echoTool{name: "bad", schema: map[string]any{"type": 12}}
	assert.ErrorIs(t, r.Register(bad), ErrInvalidTool)

	_, spec, ok := r.Lookup("SEARCH")
	require.True(t, ok)
	assert.Equal(t, "Search", spec.Name)

	specs := r.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "Search", specs[0].Name)
	assert.Equal(t, "other", specs[1].Name)
	assert.Equal(t, 2, r.Len())
}

func TestInvoke(t *testing.T) {
	m := metrics.New()
	r := New(WithMetrics(m))
	tool := &echoTool{name: "search", schema: limitSchema, out: "found"}
	require.NoError(t, r.Register(tool))

	rsp, err := r.Invoke(context.Background(), "search", []byte(`{"search_term":"sales","limit":5}`))
	require.NoError(t, err)
	assert.Equal(t, "found", rsp.Content)
	assert.False(t, rsp.Truncated)
	assert.Equal(t, "sales", tool.last["search_term"])
	assert.Equal(t, float64(5), tool.last["limit"])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ToolInvocations.WithLabelValues("search", "ok")))
}

func TestInvokeRetryableFailures(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown tool",
			tool:    "serch",
			args:    `{}`,
			wantErr: ErrUnknownTool,
			wantMsg: "available tools: search",
		},
		{
			name:    "missing required argument",
			tool:    "search",
			args:    `{"limit":5}`,
			wantErr: ErrInvalidArguments,
			wantMsg: "invalid arguments for search",
		},
		{
			name:    "wrong type",
			tool:    "search",
			args:    `{"search_term":"x","limit":"many"}`,
			wantErr: ErrInvalidArguments,
		},
		{
			name:    "not an object",
			tool:    "search",
			args:    `[1,2]`,
			wantErr: ErrInvalidArguments,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			tool := &echoTool{name: "search", schema: limitSchema}
			require.NoError(t, r.Register(tool))

			_, err := r.Invoke(context.Background(), tt.tool, []byte(tt.args))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, apperrors.IsRetryable(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Zero(t, tool.calls)
		})
	}
}

func TestInvokeToolError(t *testing.T) {
	retry := apperrors.New("limit too high").SetRetryable(true)
	r := New()
	require.NoError(t, r.Register(&echoTool{name: "t", err: retry}))

	_, err := r.Invoke(context.Background(), "t", nil)
	assert.ErrorIs(t, err, retry)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestInvokeTruncates(t *testing.T) {
	r := New(WithMaxResultBytes(10))
	require.NoError(t, r.Register(&echoTool{name: "short", out: "0123456789"}))
	require.NoError(t, r.Register(&echoTool{name: "long", out: strings.Repeat("x", 25)}))
	require.NoError(t, r.Register(&echoTool{name: "runes", out: "123456789é"}))

	rsp, err := r.Invoke(context.Background(), "short", nil)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", rsp.Content)
	assert.False(t, rsp.Truncated)

	rsp, err = r.Invoke(context.Background(), "long", nil)
	require.NoError(t, err)
	assert.True(t, rsp.Truncated)
	assert.Equal(t, strings.Repeat("x", 10)+TruncationMarker, rsp.Content)

	// é straddles the limit and must not be split
	rsp, err = r.Invoke(context.Background(), "runes", nil)
	require.NoError(t, err)
	assert.Equal(t, "123456789"+TruncationMarker, rsp.Content)
}

func TestDecodeArguments(t *testing.T) {
	for _, raw := range []string{"", "  ", "null", "{}"} {
		args, err := DecodeArguments([]byte(raw))
		require.NoError(t, err, raw)
		assert.Empty(t, args)
	}
	_, err := DecodeArguments([]byte(`{"a":`))
	assert.ErrorIs(t, err, ErrInvalidArguments)
}
