package agent

import (
	"context"
	"encoding/json"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultAnthropicModel = "claude-3-5-sonnet-latest"

// AnthropicProvider calls the Messages API with tool use.
type AnthropicProvider struct {
	Client *anthropic.Client
	Model  string
}

func NewAnthropicProvider(apiKey, model string, opts ...anthropicopt.RequestOption) *AnthropicProvider {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts = append([]anthropicopt.RequestOption{anthropicopt.WithAPIKey(apiKey)}, opts...)
	cl := anthropic.NewClient(opts...)
	return &AnthropicProvider{Client: &cl, Model: model}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  anthropicMessages(req.Messages),
		Tools:     anthropicTools(req),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := p.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	out := Message{Role: RoleAssistant}
	var text strings.Builder
	for _, cb := range msg.Content {
		switch b := cb.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: append(json.RawMessage(nil), b.Input...),
			})
		}
	}
	out.Content = text.String()
	return &Completion{Message: out, StopReason: string(msg.StopReason)}, nil
}

func anthropicTools(req CompletionRequest) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
	for _, spec := range req.Tools {
		schema := anthropic.ToolInputSchemaParam{Properties: spec.InputSchema["properties"]}
		if required, ok := spec.InputSchema["required"].([]any); ok {
			for _, r := range required {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: schema,
		}})
	}
	return tools
}

// anthropicMessages folds consecutive tool results into one user message,
// since the API expects all results of a turn together.
func anthropicMessages(history []Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, m := range history {
		switch m.Role {
		case RoleTool:
			results = append(results, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, m.IsError))
		case RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, c := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(c.ID, rawOrEmpty(c.Arguments), c.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	flush()
	return out
}

func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}
