package errors

import (
	"fmt"
	"strings"
)

// ToolExecutionError is raised when a tool handler fails or receives
// arguments that do not satisfy its schema.
type ToolExecutionError struct {
	*HeraldError
	Tool string
}

// NewToolExecutionError creates a new tool execution error
func NewToolExecutionError(toolName string, cause error) *ToolExecutionError {
	return &ToolExecutionError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Tool '%s' execution failed", toolName),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Tool Execution",
				Component: toolName,
				Details: map[string]interface{}{
					"tool": toolName,
				},
				Recoverable: true,
			},
			ExitCode: ExitToolError,
		},
		Tool: toolName,
	}
}

// NewToolArgumentError reports invalid arguments for a tool call.
func NewToolArgumentError(toolName string, problems []string) *ToolExecutionError {
	err := NewToolExecutionError(toolName, nil)
	err.Message = fmt.Sprintf("Invalid arguments for tool '%s': %s", toolName, strings.Join(problems, "; "))
	err.Context.Operation = "Argument Validation"
	err.Context.Details["problems"] = problems
	return err
}

// UnknownToolError is raised when the model calls a tool that is not registered
type UnknownToolError struct {
	*HeraldError
	Tool string
}

// NewUnknownToolError creates a new unknown tool error
func NewUnknownToolError(toolName string, available []string) *UnknownToolError {
	return &UnknownToolError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Unknown tool '%s'; available tools: %s", toolName, strings.Join(available, ", ")),
			Context: &ErrorContext{
				Operation: "Tool Dispatch",
				Component: "Tool Registry",
				Details: map[string]interface{}{
					"tool": toolName,
				},
			},
			ExitCode: ExitToolError,
		},
		Tool: toolName,
	}
}

// DuplicateToolError is raised when a tool name is registered twice
type DuplicateToolError struct {
	*HeraldError
	Tool string
}

// NewDuplicateToolError creates a new duplicate tool error
func NewDuplicateToolError(toolName string) *DuplicateToolError {
	return &DuplicateToolError{
		HeraldError: &HeraldError{
			Message:  fmt.Sprintf("Tool '%s' is already registered", toolName),
			ExitCode: ExitToolError,
		},
		Tool: toolName,
	}
}

// ToolSpecError is raised when a tool specification is rejected at registration
type ToolSpecError struct {
	*HeraldError
	Tool string
}

// NewToolSpecError creates a new tool spec error
func NewToolSpecError(toolName, reason string) *ToolSpecError {
	return &ToolSpecError{
		HeraldError: &HeraldError{
			Message:  fmt.Sprintf("Invalid specification for tool '%s': %s", toolName, reason),
			ExitCode: ExitToolError,
		},
		Tool: toolName,
	}
}
