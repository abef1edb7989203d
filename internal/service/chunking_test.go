package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortParagraphsStayWhole(t *testing.T) {
	chunks := ChunkText("Para one.\n\nPara two.", ChunkConfig{MaxChars: 800, OverlapChars: 100})

	assert.Equal(t, []string{"Para one.", "Para two."}, chunks)
}

func TestChunkText_LongParagraphWindows(t *testing.T) {
	chunks := ChunkText(strings.Repeat("A", 2000), ChunkConfig{MaxChars: 800, OverlapChars: 100})

	// windows start at 0, 700 and 1400
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 800)
	assert.Len(t, chunks[1], 800)
	assert.Len(t, chunks[2], 600)
}

func TestChunkText_WindowOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	text := b.String()

	chunks := ChunkText(text, ChunkConfig{MaxChars: 10, OverlapChars: 4})

	require.NotEmpty(t, chunks)
	assert.Equal(t, text[0:10], chunks[0])
	assert.Equal(t, text[6:16], chunks[1])
	assert.Equal(t, text[12:22], chunks[2])
}

func TestChunkText_OverlapClampedToHalf(t *testing.T) {
	// overlap 900 on max 100 is clamped to 50, so step is 50
	chunks := ChunkText(strings.Repeat("x", 200), ChunkConfig{MaxChars: 100, OverlapChars: 900})

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Len(t, c, 100)
	}
}

func TestChunkText_NegativeOverlapTreatedAsZero(t *testing.T) {
	chunks := ChunkText(strings.Repeat("x", 250), ChunkConfig{MaxChars: 100, OverlapChars: -5})

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 50)
}

func TestChunkText_EmptyAndWhitespace(t *testing.T) {
	cfg := DefaultChunkConfig()

	assert.Empty(t, ChunkText("", cfg))
	assert.Empty(t, ChunkText("   \n\n \t \n\n", cfg))
}

func TestChunkText_WhitespaceOnlyLineSeparatesParagraphs(t *testing.T) {
	chunks := ChunkText("first\n   \nsecond\n\n\n\nthird", DefaultChunkConfig())

	assert.Equal(t, []string{"first", "second", "third"}, chunks)
}

func TestChunkText_SingleNewlineKeepsParagraph(t *testing.T) {
	chunks := ChunkText("line one\nline two", DefaultChunkConfig())

	assert.Equal(t, []string{"line one\nline two"}, chunks)
}

func TestChunkText_NonPositiveMax(t *testing.T) {
	assert.Nil(t, ChunkText("anything", ChunkConfig{MaxChars: 0}))
}

func TestChunkText_CountsRunes(t *testing.T) {
	text := strings.Repeat("€", 25)

	chunks := ChunkText(text, ChunkConfig{MaxChars: 10, OverlapChars: 0})

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
		assert.True(t, utf8.ValidString(c))
	}
}

func TestChunkText_Properties(t *testing.T) {
	text := strings.Repeat("Revenue increased by 12% year over year. ", 60) +
		"\n\n" + "Short note." + "\n\n" + strings.Repeat("Z", 1234)
	cfg := ChunkConfig{MaxChars: 300, OverlapChars: 40}

	chunks := ChunkText(text, cfg)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.Equal(t, strings.TrimSpace(c), c)
		assert.LessOrEqual(t, utf8.RuneCountInString(c), cfg.MaxChars)
	}
	assert.Contains(t, chunks, "Short note.")
}
