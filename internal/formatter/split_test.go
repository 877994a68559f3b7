package formatter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFits(t *testing.T, chunks []string, max int) {
	t.Helper()
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), max, "chunk %d too long: %q", i, c)
	}
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	text := "A short answer.\n\nWith two paragraphs."
	assert.Equal(t, []string{text}, Split(text, 2000))
	assert.Equal(t, []string{text}, Split(text, utf8.RuneCountInString(text)))
	assert.Nil(t, Split("", 10))
}

func TestSplit_PrefersParagraphs(t *testing.T) {
	first := strings.Repeat("word ", 10)
	text := first + "\n\n" + strings.Repeat("more ", 10)

	chunks := Split(text, 80)
	require.Len(t, chunks, 2)
	assert.Equal(t, first+"\n\n", chunks[0])
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_PrefersSentencesOverWords(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta eta theta iota."

	chunks := Split(text, 30)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Alpha beta gamma. ", chunks[0])
	assert.Equal(t, "Delta epsilon zeta eta theta ", chunks[1])
	assert.Equal(t, "iota.", chunks[2])
}

func TestSplit_KeepsMarkdownLinksWhole(t *testing.T) {
	link := "[Attention Is All You Need](https://arxiv.org/abs/1706.03762)"
	text := "See " + link + " for details."

	chunks := Split(text, 68)
	require.Len(t, chunks, 2)
	assert.Equal(t, "See "+link+" ", chunks[0])
	assert.Equal(t, "for details.", chunks[1])
}

func TestSplit_KeepsArxivReferencesWhole(t *testing.T) {
	chunks := Split("aaaa arXiv: 1706.03762 bbbb", 20)
	assert.Equal(t, []string{"aaaa ", "arXiv: 1706.03762 ", "bbbb"}, chunks)
}

func TestSplit_HardTruncatesLongTokens(t *testing.T) {
	text := "short " + strings.Repeat("x", 50) + " tail"

	chunks := Split(text, 20)
	require.Len(t, chunks, 3)
	assert.Equal(t, "short ", chunks[0])
	assert.Equal(t, strings.Repeat("x", 8)+TruncationMarker, chunks[1])
	assert.Equal(t, "tail", chunks[2])
	assertFits(t, chunks, 20)
}

func TestSplit_HardTruncatesTrailingToken(t *testing.T) {
	chunks := Split("https://example.org/"+strings.Repeat("p", 40), 25)
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasSuffix(chunks[0], TruncationMarker))
	assertFits(t, chunks, 25)
}

func TestSplit_CountsRunes(t *testing.T) {
	text := strings.Repeat("日本語 ", 10)

	chunks := Split(text, 12)
	assertFits(t, chunks, 12)
	assert.Equal(t, text, strings.Join(chunks, ""))
	assert.Equal(t, "日本語 日本語 日本語 ", chunks[0])
}

func TestSplit_RoundTrip(t *testing.T) {
	words := []string{
		"transformers", "attention.", "See", "https://arxiv.org/abs/2403.00001", "and",
		"[CoCa](https://arxiv.org/abs/2205.01917)", "results!\n\n", "Why?", "arXiv:2310.12345v2",
		"multimodal\n", "benchmarks,", "scaling", "laws",
	}
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		sb.WriteString(words[(i*7)%len(words)])
		sb.WriteString(" ")
	}
	text := sb.String()

	for _, max := range []int{60, 100, 333, 2000} {
		chunks := Split(text, max)
		assertFits(t, chunks, max)
		assert.Equal(t, text, strings.Join(chunks, ""), "max=%d", max)
		assert.Equal(t, chunks, Split(text, max), "deterministic")
		for _, c := range chunks {
			if strings.Contains(c, "[CoCa]") {
				assert.Contains(t, c, "[CoCa](https://arxiv.org/abs/2205.01917)")
			}
		}
	}
}

func TestSplit_NonPositiveMaxUsesDefault(t *testing.T) {
	text := strings.Repeat("a b ", 700)
	chunks := Split(text, 0)
	require.Len(t, chunks, 2)
	assertFits(t, chunks, DefaultMaxChunkSize)
}
