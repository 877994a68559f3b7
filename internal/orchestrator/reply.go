package orchestrator

import (
	"github.com/google/uuid"

	"github.com/user/thesisherald/internal/errors"
	"github.com/user/thesisherald/internal/llmtypes"
	"github.com/user/thesisherald/internal/tools"
)

// reply is a decoded model response: textReply or toolCallReply.
type reply interface {
	assistantMessage() AssistantMessage
}

type textReply struct {
	text string
}

type toolCallReply struct {
	text  string
	calls []tools.ToolCall
}

func (r textReply) assistantMessage() AssistantMessage {
	return AssistantMessage{Text: r.text}
}

func (r toolCallReply) assistantMessage() AssistantMessage {
	return AssistantMessage{Text: r.text, ToolCalls: r.calls}
}

// decodeReply classifies a provider response right at the boundary. Call
// IDs that are missing or repeated within the reply are replaced with
// fresh UUIDs so every outcome can be paired with its call.
func decodeReply(provider string, resp llmtypes.CompletionResponse) (reply, error) {
	if !resp.HasToolCalls() {
		if resp.Content == "" {
			return nil, errors.NewModelProtocolError(provider, "reply has neither text nor tool calls", nil)
		}
		return textReply{text: resp.Content}, nil
	}

	seen := make(map[string]bool, len(resp.ToolCalls))
	calls := make([]tools.ToolCall, len(resp.ToolCalls))
	for i, call := range resp.ToolCalls {
		if call.Name == "" {
			return nil, errors.NewModelProtocolError(provider, "tool call without a name", nil)
		}
		if call.ID == "" || seen[call.ID] {
			call.ID = uuid.NewString()
		}
		seen[call.ID] = true
		if call.Arguments == nil {
			call.Arguments = map[string]interface{}{}
		}
		calls[i] = call
	}
	return toolCallReply{text: resp.Content, calls: calls}, nil
}
