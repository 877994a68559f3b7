package tools

import (
	"context"
	stderrors "errors"
	"net"

	"github.com/user/thesisherald/internal/llmtypes"
	"github.com/user/thesisherald/internal/papers"
)

// ParamType is the JSON type of a tool parameter
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
)

func (t ParamType) valid() bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeArray:
		return true
	}
	return false
}

// ParamSpec describes one parameter. Items is the element type of arrays.
type ParamSpec struct {
	Type        ParamType
	Required    bool
	Description string
	Items       ParamType
}

// Output is what a handler produces. Papers carries structured records so
// that citations can be recovered without re-parsing Content.
type Output struct {
	Content string
	Papers  []papers.Paper
}

// Handler executes a tool call with validated arguments
type Handler func(ctx context.Context, args Arguments) (Output, error)

// ToolSpec declares a tool. Order fixes the parameter display order; names
// missing from it are appended alphabetically.
type ToolSpec struct {
	Name        string
	Description string
	Params      map[string]ParamSpec
	Order       []string
	Handler     Handler
}

// ToolCall is a model request to invoke a tool
type ToolCall = llmtypes.ToolCall

// ToolResult is the outcome of one dispatched call. Failures are reported
// in-band with IsError set and Content explaining the problem to the model.
type ToolResult struct {
	CallID   string
	ToolName string
	Content  string
	Papers   []papers.Paper
	IsError  bool
	Attempts int
}

// TransientError is implemented by errors that may succeed on retry,
// such as HTTP 429 or 5xx responses.
type TransientError interface {
	error
	Transient() bool
}

// IsTransient reports whether err is worth retrying. Network errors and
// errors marked transient qualify.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te TransientError
	if stderrors.As(err, &te) {
		return te.Transient()
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}
