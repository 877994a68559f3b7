package validation

import (
	"fmt"
	"strings"
)

const codeFence = "```"

// MarkdownValidator checks model-written Markdown before it is posted to a
// chat channel
type MarkdownValidator struct{}

// NewMarkdownValidator creates a new Markdown validator
func NewMarkdownValidator() *MarkdownValidator {
	return &MarkdownValidator{}
}

// ValidationError represents a Markdown validation error
type ValidationError struct {
	Line    int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ValidationResult contains all validation errors
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message
func (vr *ValidationResult) Error() string {
	if vr.IsValid() {
		return ""
	}

	var messages []string
	for _, err := range vr.Errors {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("markdown validation failed:\n  - %s", strings.Join(messages, "\n  - "))
}

// Validate checks Markdown for issues that render badly in chat. It returns
// a *ValidationResult when any are found.
func (v *MarkdownValidator) Validate(content string) error {
	result := &ValidationResult{}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, ValidationError{Message: "empty content"})
		return result
	}

	if err := v.checkCodeBlocks(content); err != nil {
		result.Errors = append(result.Errors, ValidationError{Message: err.Error()})
	}
	result.Errors = append(result.Errors, v.checkHeaders(content)...)
	result.Errors = append(result.Errors, v.checkLinks(content)...)

	if !result.IsValid() {
		return result
	}
	return nil
}

// checkCodeBlocks reports an unclosed ``` fence
func (v *MarkdownValidator) checkCodeBlocks(content string) error {
	if n := strings.Count(content, codeFence); n%2 != 0 {
		return fmt.Errorf("unclosed code block detected (%d ``` markers, expected even number)", n)
	}
	return nil
}

// checkHeaders validates header lines outside code blocks. Chat clients
// render at most three levels.
func (v *MarkdownValidator) checkHeaders(content string) []ValidationError {
	var errors []ValidationError
	inCode := false

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, codeFence) {
			inCode = !inCode
			continue
		}
		if inCode || !strings.HasPrefix(trimmed, "#") {
			continue
		}

		hashCount := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
		if hashCount > 3 {
			errors = append(errors, ValidationError{
				Line:    i + 1,
				Message: fmt.Sprintf("header level %d is not rendered (max 3)", hashCount),
			})
			continue
		}
		if len(trimmed) > hashCount && trimmed[hashCount] != ' ' {
			// "#hashtag" is ordinary text, not a header
			continue
		}
		if strings.TrimSpace(trimmed[hashCount:]) == "" {
			errors = append(errors, ValidationError{
				Line:    i + 1,
				Message: "empty header (no text after #)",
			})
		}
	}

	return errors
}

// checkLinks reports lines whose [text](url) links are unbalanced
func (v *MarkdownValidator) checkLinks(content string) []ValidationError {
	var errors []ValidationError

	for i, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "](") {
			continue
		}
		openBracket := strings.Count(line, "[")
		closeBracket := strings.Count(line, "]")
		if openBracket != closeBracket {
			errors = append(errors, ValidationError{
				Line:    i + 1,
				Message: fmt.Sprintf("unmatched brackets ([ count: %d, ] count: %d)", openBracket, closeBracket),
			})
		}
		openParen := strings.Count(line, "(")
		closeParen := strings.Count(line, ")")
		if openParen != closeParen {
			errors = append(errors, ValidationError{
				Line:    i + 1,
				Message: fmt.Sprintf("unmatched parentheses in link (( count: %d, ) count: %d)", openParen, closeParen),
			})
		}
	}

	return errors
}

// ValidateAndFix applies the safe fixes and validates the result. The fixed
// text is returned even when issues remain.
//   - trailing whitespace is removed from every line
//   - runs of more than one blank line collapse to one
//   - an unclosed code block is closed at the end
func (v *MarkdownValidator) ValidateAndFix(content string) (string, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	kept := lines[:0]
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		kept = append(kept, line)
	}
	fixed := strings.Join(kept, "\n")

	if v.checkCodeBlocks(fixed) != nil {
		fixed += "\n" + codeFence
	}

	if err := v.Validate(fixed); err != nil {
		return fixed, fmt.Errorf("could not auto-fix: %w", err)
	}
	return fixed, nil
}
