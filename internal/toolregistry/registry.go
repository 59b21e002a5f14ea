package toolregistry

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/curatai/curatai/internal/common/apperrors"
	"github.com/curatai/curatai/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultMaxResultBytes = 16 * 1024
	TruncationMarker      = "\n... [output truncated]"
)

// Registry is an ordered, case-insensitive set of tools. Registration
// compiles each tool's input schema once.
type Registry struct {
	mu             sync.RWMutex
	tools          map[string]Tool
	specs          map[string]ToolSpec
	schemas        map[string]*jsonschema.Schema
	order          []string
	maxResultBytes int
	metrics        *metrics.Metrics
}

type Option func(*Registry)

func WithMaxResultBytes(n int) Option {
	return func(r *Registry) { r.maxResultBytes = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		tools:          make(map[string]Tool),
		specs:          make(map[string]ToolSpec),
		schemas:        make(map[string]*jsonschema.Schema),
		maxResultBytes: DefaultMaxResultBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics = metrics.OrNoop(r.metrics)
	return r
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a tool. Empty or duplicate names and schemas that do not
// compile are rejected.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return ErrInvalidTool.Msg("tool is nil")
	}
	spec := tool.Spec()
	k := key(spec.Name)
	if k == "" {
		return ErrInvalidTool.Msg("tool name is empty")
	}
	schema, err := compileSchema(k, spec.InputSchema)
	if err != nil {
		return ErrInvalidTool.MsgErr(fmt.Sprintf("tool %s: %v", spec.Name, err), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[k]; exists {
		return ErrDuplicateTool.Msg(fmt.Sprintf("tool %s already registered", spec.Name))
	}
	r.tools[k] = tool
	r.specs[k] = spec
	r.schemas[k] = schema
	r.order = append(r.order, k)
	return nil
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	url := "inline://tools/" + name
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// Lookup returns the tool and its spec if present.
func (r *Registry) Lookup(name string) (Tool, ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k := key(name)
	t, ok := r.tools[k]
	if !ok {
		return nil, ToolSpec{}, false
	}
	return t, r.specs[k], true
}

// Specs returns the specs in registration order.
func (r *Registry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]ToolSpec, 0, len(r.order))
	for _, k := range r.order {
		specs = append(specs, r.specs[k])
	}
	return specs
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) names() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.order))
	for _, k := range r.order {
		names = append(names, r.specs[k].Name)
	}
	return strings.Join(names, ", ")
}

// DecodeArguments parses raw tool arguments into a JSON object. Empty input
// and null are an empty object.
func DecodeArguments(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, ErrInvalidArguments.MsgErr("arguments must be a JSON object: "+err.Error(), err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// Invoke validates raw against the tool's schema, runs the tool and bounds
// its output. Unknown tools and schema violations come back as retryable
// errors; so does any retryable error the tool itself returns.
func (r *Registry) Invoke(ctx context.Context, name string, raw []byte) (ToolResponse, error) {
	return r.InvokeRequest(ctx, name, raw, "")
}

// InvokeRequest is Invoke with the conversation the call belongs to.
func (r *Registry) InvokeRequest(ctx context.Context, name string, raw []byte, conversationID string) (ToolResponse, error) {
	start := time.Now()
	tool, spec, ok := r.Lookup(name)
	if !ok {
		r.metrics.ToolInvocations.WithLabelValues("unknown", "unknown_tool").Inc()
		return ToolResponse{}, ErrUnknownTool.Msg(fmt.Sprintf("unknown tool %q; available tools: %s", name, r.names()))
	}

	args, err := DecodeArguments(raw)
	if err != nil {
		r.record(spec.Name, "invalid_arguments", start)
		return ToolResponse{}, err
	}
	r.mu.RLock()
	schema := r.schemas[key(name)]
	r.mu.RUnlock()
	if err := schema.Validate(any(args)); err != nil {
		r.record(spec.Name, "invalid_arguments", start)
		return ToolResponse{}, ErrInvalidArguments.MsgErr(fmt.Sprintf("invalid arguments for %s: %v", spec.Name, err), err)
	}

	rsp, err := tool.Invoke(ctx, ToolRequest{ConversationID: conversationID, Arguments: args})
	if err != nil {
		outcome := "error"
		if apperrors.IsRetryable(err) {
			outcome = "retryable"
		}
		r.record(spec.Name, outcome, start)
		log.Ctx(ctx).Debug().Str("tool", spec.Name).Err(err).Str("outcome", outcome).Msg("tool invocation failed")
		return ToolResponse{}, err
	}

	rsp = r.bound(rsp)
	r.record(spec.Name, "ok", start)
	log.Ctx(ctx).Debug().
		Str("tool", spec.Name).
		Dur("duration", time.Since(start)).
		Int("bytes", len(rsp.Content)).
		Bool("truncated", rsp.Truncated).
		Msg("tool invoked")
	return rsp, nil
}

func (r *Registry) record(tool, outcome string, start time.Time) {
	r.metrics.ToolInvocations.WithLabelValues(tool, outcome).Inc()
	r.metrics.ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}

// bound cuts the content at the byte limit on a rune boundary and appends
// the truncation marker.
func (r *Registry) bound(rsp ToolResponse) ToolResponse {
	limit := r.maxResultBytes
	if limit <= 0 || len(rsp.Content) <= limit {
		return rsp
	}
	n := limit
	for n > 0 && !utf8.RuneStart(rsp.Content[n]) {
		n--
	}
	rsp.Content = rsp.Content[:n] + TruncationMarker
	rsp.Truncated = true
	return rsp
}
