package orchestrator

import (
	"fmt"

	"github.com/user/thesisherald/internal/llmtypes"
	"github.com/user/thesisherald/internal/tools"
)

// Turn is one entry of a conversation: a UserMessage, an AssistantMessage
// or a ToolOutcome.
type Turn interface {
	isTurn()
}

// UserMessage is the question that opens a conversation
type UserMessage struct {
	Text string
}

// AssistantMessage is one model reply
type AssistantMessage struct {
	Text      string
	ToolCalls []tools.ToolCall
}

// ToolOutcome answers exactly one tool call of the preceding AssistantMessage
type ToolOutcome struct {
	CallID string
	Result tools.ToolResult
}

func (UserMessage) isTurn()      {}
func (AssistantMessage) isTurn() {}
func (ToolOutcome) isTurn()      {}

// Conversation is an append-only sequence of turns owned by a single run.
// Append refuses a new AssistantMessage while tool calls of the previous
// one are still unanswered.
type Conversation struct {
	turns   []Turn
	pending map[string]bool
}

// NewConversation starts a conversation with the user's question
func NewConversation(question string) *Conversation {
	return &Conversation{
		turns:   []Turn{UserMessage{Text: question}},
		pending: map[string]bool{},
	}
}

// Append adds a turn, enforcing call/outcome pairing
func (c *Conversation) Append(turn Turn) error {
	switch t := turn.(type) {
	case UserMessage:
		return fmt.Errorf("user messages only open a conversation")
	case AssistantMessage:
		if len(c.pending) > 0 {
			return fmt.Errorf("%d tool calls still unanswered", len(c.pending))
		}
		t.ToolCalls = append([]tools.ToolCall(nil), t.ToolCalls...)
		for _, call := range t.ToolCalls {
			if c.pending[call.ID] {
				return fmt.Errorf("duplicate tool call id %q", call.ID)
			}
			c.pending[call.ID] = true
		}
		turn = t
	case ToolOutcome:
		if !c.pending[t.CallID] {
			return fmt.Errorf("no pending tool call with id %q", t.CallID)
		}
		delete(c.pending, t.CallID)
	default:
		return fmt.Errorf("unsupported turn %T", turn)
	}
	c.turns = append(c.turns, turn)
	return nil
}

// Turns returns a copy of the turns in order
func (c *Conversation) Turns() []Turn {
	return append([]Turn(nil), c.turns...)
}

// Len returns the number of turns
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Pending returns the number of unanswered tool calls
func (c *Conversation) Pending() int {
	return len(c.pending)
}

// Messages renders the conversation as provider-neutral messages
func (c *Conversation) Messages() []llmtypes.Message {
	msgs := make([]llmtypes.Message, 0, len(c.turns))
	for _, turn := range c.turns {
		switch t := turn.(type) {
		case UserMessage:
			msgs = append(msgs, llmtypes.Message{Role: "user", Content: t.Text})
		case AssistantMessage:
			msgs = append(msgs, llmtypes.Message{Role: "assistant", Content: t.Text, ToolCalls: t.ToolCalls})
		case ToolOutcome:
			msgs = append(msgs, llmtypes.Message{
				Role:     "tool",
				Content:  t.Result.Content,
				ToolID:   t.CallID,
				ToolName: t.Result.ToolName,
				IsError:  t.Result.IsError,
			})
		}
	}
	return msgs
}
