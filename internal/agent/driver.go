package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/common/apperrors"
	"github.com/curatai/curatai/internal/toolregistry"
)

const (
	DefaultMaxTokens     = 4096
	DefaultMaxToolRounds = 12
)

// Observer is told about every tool call of a turn, in order.
type Observer interface {
	ToolCall(call ToolCall)
	ToolResult(call ToolCall, content string, isError bool)
}

type nopObserver struct{}

func (nopObserver) ToolCall(ToolCall) {}
func (nopObserver) ToolResult(ToolCall, string, bool) {}

// Driver runs one user turn: the model is called, any tool calls it makes
// are executed through the registry and answered, and the loop repeats
// until the model replies without tool calls or the round budget is spent.
type Driver struct {
	Provider      Provider
	Registry      *toolregistry.Registry
	System        string
	MaxTokens     int
	MaxToolRounds int
	Observer      Observer
}

// Result is the outcome of a turn. History holds the full conversation
// including the new user message and everything the turn produced.
type Result struct {
	Reply     string
	History   []Message
	ToolCalls int
}

// Run appends input to a copy of history and drives the turn. Tool failures
// never end the turn: they go back to the model as error results so it can
// correct its arguments or explain the problem.
func (d *Driver) Run(ctx context.Context, history []Message, input string) (*Result, error) {
	return d.RunConversation(ctx, "", history, input)
}

// RunConversation is Run for a named conversation.
func (d *Driver) RunConversation(ctx context.Context, conversationID string, history []Message, input string) (*Result, error) {
	obs := d.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	maxTokens := d.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	maxRounds := d.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}

	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: input})
	res := &Result{}
	specs := d.Registry.Specs()

	for round := 0; ; round++ {
		comp, err := d.Provider.Complete(ctx, CompletionRequest{
			System:    d.System,
			Messages:  msgs,
			Tools:     specs,
			MaxTokens: maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("%s completion failed: %w", d.Provider.Name(), err)
		}
		reply := comp.Message
		reply.Role = RoleAssistant
		msgs = append(msgs, reply)

		if len(reply.ToolCalls) == 0 {
			res.Reply = reply.Content
			break
		}
		if round >= maxRounds {
			log.Ctx(ctx).Warn().Int("rounds", round).Msg("tool round budget exhausted")
			res.Reply = strings.TrimSpace(reply.Content + "\n\n" +
				fmt.Sprintf("(Stopped after %d rounds of tool calls without a final answer.)", maxRounds))
			// unanswered tool calls would make the history invalid for the next turn
			msgs[len(msgs)-1].ToolCalls = nil
			msgs[len(msgs)-1].Content = res.Reply
			break
		}

		for i := range reply.ToolCalls {
			if reply.ToolCalls[i].ID == "" {
				reply.ToolCalls[i].ID = "call_" + uuid.NewString()
			}
		}
		for _, call := range reply.ToolCalls {
			obs.ToolCall(call)
			content, isError := d.invoke(ctx, conversationID, call)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			obs.ToolResult(call, content, isError)
			res.ToolCalls++
			msgs = append(msgs, Message{
				Role:       RoleTool,
				Content:    content,
				ToolCallID: call.ID,
				IsError:    isError,
			})
		}
	}
	res.History = msgs
	return res, nil
}

func (d *Driver) invoke(ctx context.Context, conversationID string, call ToolCall) (string, bool) {
	rsp, err := d.Registry.InvokeRequest(ctx, call.Name, call.Arguments, conversationID)
	if err == nil {
		return rsp.Content, false
	}
	if apperrors.IsRetryable(err) {
		return "Retry with corrected arguments: " + err.Error(), true
	}
	log.Ctx(ctx).Error().Err(err).Str("tool", call.Name).Msg("tool failed")
	return "Tool failed: " + err.Error(), true
}
