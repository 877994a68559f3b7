package orchestrator

import (
	"testing"

	"github.com/user/thesisherald/internal/tools"
)

func TestConversation_Pairing(t *testing.T) {
	c := NewConversation("question")

	if err := c.Append(ToolOutcome{CallID: "a"}); err == nil {
		t.Error("outcome without a pending call should be rejected")
	}

	calls := []tools.ToolCall{{ID: "a", Name: "t"}, {ID: "b", Name: "t"}}
	if err := c.Append(AssistantMessage{ToolCalls: calls}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Append(AssistantMessage{Text: "too early"}); err == nil {
		t.Error("assistant message with pending calls should be rejected")
	}
	if err := c.Append(ToolOutcome{CallID: "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Append(ToolOutcome{CallID: "b"}); err == nil {
		t.Error("second outcome for the same call should be rejected")
	}
	if err := c.Append(ToolOutcome{CallID: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Pending() != 0 {
		t.Errorf("expected no pending calls, got %d", c.Pending())
	}
	if err := c.Append(AssistantMessage{Text: "answer"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Append(UserMessage{Text: "again"}); err == nil {
		t.Error("a second user message should be rejected")
	}
	if c.Len() != 5 {
		t.Errorf("expected 5 turns, got %d", c.Len())
	}
}

func TestConversation_RejectsDuplicateIDs(t *testing.T) {
	c := NewConversation("q")
	err := c.Append(AssistantMessage{ToolCalls: []tools.ToolCall{{ID: "a"}, {ID: "a"}}})
	if err == nil {
		t.Error("duplicate call ids should be rejected")
	}
}

func TestConversation_TurnsIsACopy(t *testing.T) {
	c := NewConversation("q")
	turns := c.Turns()
	turns[0] = UserMessage{Text: "changed"}
	if c.Turns()[0].(UserMessage).Text != "q" {
		t.Error("Turns must not expose internal storage")
	}
}

func TestConversation_Messages(t *testing.T) {
	c := NewConversation("q")
	_ = c.Append(AssistantMessage{Text: "thinking", ToolCalls: []tools.ToolCall{{ID: "a", Name: "search_web"}}})
	_ = c.Append(ToolOutcome{CallID: "a", Result: tools.ToolResult{ToolName: "search_web", Content: "oops", IsError: true}})

	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" || msgs[2].Role != "tool" {
		t.Errorf("unexpected roles %q %q %q", msgs[0].Role, msgs[1].Role, msgs[2].Role)
	}
	if msgs[2].ToolID != "a" || msgs[2].ToolName != "search_web" || !msgs[2].IsError {
		t.Errorf("tool message lost pairing data: %+v", msgs[2])
	}
}

func TestState_String(t *testing.T) {
	if AwaitingModel.String() != "AWAITING_MODEL" || Failed.String() != "FAILED" {
		t.Error("unexpected state names")
	}
	if !Done.Terminal() || ExecutingTools.Terminal() {
		t.Error("unexpected terminal states")
	}
}
