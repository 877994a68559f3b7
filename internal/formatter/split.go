package formatter

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// TruncationMarker ends a token that had to be cut to fit a chunk
const TruncationMarker = "…[truncated]"

type breakKind int

const (
	noBreak breakKind = iota
	wordBreak
	sentenceBreak
	paragraphBreak
)

// Spans that must never be split: markdown links, URLs and arXiv references.
var protectedPattern = regexp.MustCompile(
	`\[[^\]\n]*\]\([^)\s]*\)` +
		`|https?://\S+` +
		`|(?i:arxiv): ?[\w./-]+` +
		`|\b\d{4}\.\d{4,5}(?:v\d+)?\b` +
		`|\b[a-z-]+(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?\b`)

// Split cuts text into chunks of at most max runes. It prefers the latest
// paragraph break in the window, then the latest sentence break, then the
// latest word break, and never breaks inside a protected span. Joining the
// chunks gives back text unless a token longer than max had to be
// truncated.
func Split(text string, max int) []string {
	if max <= 0 {
		max = DefaultMaxChunkSize
	}
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	runes := []rune(text)
	kinds := breakKinds(runes, protectedRanges(text))

	var chunks []string
	pos := 0
	for len(runes)-pos > max {
		cut := bestBreak(kinds, pos, pos+max)
		if cut > pos {
			chunks = append(chunks, string(runes[pos:cut]))
			pos = cut
			continue
		}

		chunks = append(chunks, hardTruncate(runes[pos:], max))
		next := nextBreak(kinds, pos)
		if next < 0 {
			return chunks
		}
		pos = next
	}
	return append(chunks, string(runes[pos:]))
}

// bestBreak returns the strongest, latest break in (from, to], or from when
// there is none.
func bestBreak(kinds []breakKind, from, to int) int {
	best, bestKind := from, noBreak
	for i := to; i > from; i-- {
		if kinds[i] > bestKind {
			best, bestKind = i, kinds[i]
			if bestKind == paragraphBreak {
				break
			}
		}
	}
	return best
}

func nextBreak(kinds []breakKind, from int) int {
	for i := from + 1; i < len(kinds); i++ {
		if kinds[i] != noBreak {
			return i
		}
	}
	return -1
}

func hardTruncate(runes []rune, max int) string {
	marker := []rune(TruncationMarker)
	if max <= len(marker) {
		return string(marker[:max])
	}
	return string(runes[:max-len(marker)]) + TruncationMarker
}

// breakKinds classifies every rune index as a potential chunk start. A
// break sits at the first rune of a word; its strength depends on the
// whitespace and punctuation preceding it.
func breakKinds(runes []rune, protected [][2]int) []breakKind {
	kinds := make([]breakKind, len(runes)+1)
	for i := 1; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) || !unicode.IsSpace(runes[i-1]) {
			continue
		}
		j := i
		newlines := 0
		for j > 0 && unicode.IsSpace(runes[j-1]) {
			j--
			if runes[j] == '\n' {
				newlines++
			}
		}
		switch {
		case newlines >= 2:
			kinds[i] = paragraphBreak
		case newlines == 1 || j > 0 && isSentenceEnd(runes[j-1]):
			kinds[i] = sentenceBreak
		default:
			kinds[i] = wordBreak
		}
	}
	for _, r := range protected {
		for i := r[0] + 1; i < r[1] && i < len(kinds); i++ {
			kinds[i] = noBreak
		}
	}
	return kinds
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// protectedRanges returns the rune ranges of spans that must stay whole.
func protectedRanges(text string) [][2]int {
	matches := protectedPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([][2]int, 0, len(matches))
	runeIdx, byteIdx := 0, 0
	advance := func(to int) int {
		for byteIdx < to {
			_, size := utf8.DecodeRuneInString(text[byteIdx:])
			byteIdx += size
			runeIdx++
		}
		return runeIdx
	}
	for _, m := range matches {
		start := advance(m[0])
		end := advance(m[1])
		out = append(out, [2]int{start, end})
	}
	return out
}
