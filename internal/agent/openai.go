package agent

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-4.1"

// OpenAIProvider calls the chat completions API with function calling.
type OpenAIProvider struct {
	Client *openai.Client
	Model  string
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{Client: openai.NewClient(apiKey), Model: model}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	resp, err := p.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.Model,
		MaxTokens: req.MaxTokens,
		Messages:  openaiMessages(req.System, req.Messages),
		Tools:     openaiTools(req),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices")
	}
	choice := resp.Choices[0]
	out := Message{Role: RoleAssistant, Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return &Completion{Message: out, StopReason: string(choice.FinishReason)}, nil
}

func openaiTools(req CompletionRequest) []openai.Tool {
	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, spec := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.InputSchema,
			},
		})
	}
	return tools
}

func openaiMessages(system string, history []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range history {
		switch m.Role {
		case RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, c := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   c.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      c.Name,
						Arguments: string(rawOrEmpty(c.Arguments)),
					},
				})
			}
			out = append(out, msg)
		default:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		}
	}
	return out
}
