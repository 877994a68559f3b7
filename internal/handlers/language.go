package handlers

import "strings"

var languageInstructions = map[string]string{
	"en": "in English",
	"ja": "in Japanese (日本語)",
	"zh": "in Chinese (中文)",
	"ko": "in Korean (한국어)",
	"es": "in Spanish (Español)",
	"fr": "in French (Français)",
	"de": "in German (Deutsch)",
}

// LanguageInstruction turns a language code into the phrase appended to
// prompts ("ja" → "in Japanese (日本語)"). Unknown codes are used as is.
func LanguageInstruction(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return languageInstructions["en"]
	}
	if s, ok := languageInstructions[strings.ToLower(code)]; ok {
		return s
	}
	return "in " + code
}
