package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/askpdf/internal/domain"
)

func TestSplit_ParagraphsOneTokenPerChar(t *testing.T) {
	s, err := New(1, 0, []string{"\n\n", "\n", ""}, RuneCounter{})
	require.NoError(t, err)

	chunks, err := s.Split("A\n\nB\n\nC")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, chunks)
}

func TestSplit_WordGranularity(t *testing.T) {
	s, err := New(2, 0, nil, WordCounter{})
	require.NoError(t, err)

	chunks, err := s.Split("The quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, []string{"The quick", "brown fox"}, chunks)
}

func TestSplit_EmptyInput(t *testing.T) {
	s, err := New(10, 0, nil, RuneCounter{})
	require.NoError(t, err)

	for _, in := range []string{"", "   ", "\n\n"} {
		chunks, err := s.Split(in)
		require.NoError(t, err)
		assert.Empty(t, chunks, "input %q", in)
	}
}

func TestSplit_ShortInputIsOneChunk(t *testing.T) {
	s, err := New(50, 0, nil, WordCounter{})
	require.NoError(t, err)

	text := "Go is a statically typed language.\n\nIt compiles fast."
	chunks, err := s.Split(text)
	require.NoError(t, err)
	assert.Equal(t, []string{text}, chunks)
}

func TestSplit_Overlap(t *testing.T) {
	s, err := New(3, 1, nil, WordCounter{})
	require.NoError(t, err)

	chunks, err := s.Split("a b c d e")
	require.NoError(t, err)
	assert.Equal(t, []string{"a b c", "c d e"}, chunks)
}

func TestSplit_RecursesIntoOversizedParagraph(t *testing.T) {
	s, err := New(4, 0, nil, WordCounter{})
	require.NoError(t, err)

	text := "short one\n\nthis paragraph has quite a few words in it\n\nend"
	chunks, err := s.Split(text)
	require.NoError(t, err)

	assert.Equal(t, "short one", chunks[0])
	assert.Equal(t, "end", chunks[len(chunks)-1])
	for _, c := range chunks {
		assert.LessOrEqual(t, WordCounter{}.Count(c), 4, "chunk %q", c)
	}
}

func TestSplit_ReconstructsTextWithoutOverlap(t *testing.T) {
	s, err := New(7, 0, nil, WordCounter{})
	require.NoError(t, err)

	text := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta iota kappa\n\n", 5) +
		"lambda mu nu xi omicron pi rho\nsigma tau upsilon"
	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}

func TestSplit_RuneFallbackTerminates(t *testing.T) {
	s, err := New(3, 0, nil, RuneCounter{})
	require.NoError(t, err)

	chunks, err := s.Split("abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def", "gh"}, chunks)
}

func TestSplit_JapaneseSeparators(t *testing.T) {
	s, err := New(6, 0, nil, RuneCounter{})
	require.NoError(t, err)

	chunks, err := s.Split("今日は晴れ。明日は雨。")
	require.NoError(t, err)
	assert.Equal(t, []string{"今日は晴れ", "明日は雨"}, chunks)
}

func TestSplit_WhitespacePiecesStayWithinBound(t *testing.T) {
	s, err := New(2, 0, nil, WordCounter{})
	require.NoError(t, err)

	chunks, err := s.Split(" 、、   x ybb。長い文章")
	require.NoError(t, err)
	assert.Equal(t, []string{"x ybb", "長い文章"}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, WordCounter{}.Count(c), 2, "chunk %q", c)
	}
}

func TestMerge_DropsZeroCountHead(t *testing.T) {
	s, err := New(2, 0, nil, WordCounter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"x y"}, s.merge([]string{" ", " x y"}, "、"))
}

func TestSplit_DegenerateWithoutFallback(t *testing.T) {
	s, err := New(2, 0, []string{"\n\n"}, RuneCounter{})
	require.NoError(t, err)

	_, err = s.Split("abcdef")
	assert.ErrorIs(t, err, domain.ErrChunkingDegenerate)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(0, 0, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = New(10, 10, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = New(10, -1, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestChunk_TagsSourceAndIndex(t *testing.T) {
	s, err := New(2, 0, nil, WordCounter{})
	require.NoError(t, err)

	chunks, err := s.Chunk(domain.Document{Text: "The quick brown fox", Source: "fox.pdf"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, domain.Chunk{Text: "The quick", Source: "fox.pdf", Index: 0}, chunks[0])
	assert.Equal(t, domain.Chunk{Text: "brown fox", Source: "fox.pdf", Index: 1}, chunks[1])
}

func TestNewCounter(t *testing.T) {
	c, err := NewCounter("words")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Count("one two three"))

	c, err = NewCounter("runes")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count("日本"))

	assert.Equal(t, 5, CounterFunc(func(s string) int { return len(s) }).Count("hello"))
}
