package tools

import (
	"fmt"
	"unicode/utf8"
)

// MaxToolResponseSize is the maximum size of tool content handed to the model, in bytes
const MaxToolResponseSize = 50000

// TruncateString cuts s to at most maxLen bytes on a rune boundary and adds a truncation notice
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n\n[TRUNCATED - Response exceeded limit. Showing first %d of %d bytes]", cut, len(s))
}
