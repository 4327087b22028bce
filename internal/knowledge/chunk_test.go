package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", 800))
	assert.Nil(t, Chunk("   \n\t ", 800))
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	chunks := Chunk("One sentence. Another sentence.", 800)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "One sentence. Another sentence.", chunks[0])
}

func TestChunkClosesAtThreshold(t *testing.T) {
	long := strings.Repeat("word ", 30) + "end."
	text := strings.TrimSpace(strings.Repeat(long+" ", 12))

	chunks := Chunk(text, 300)
	assert.Greater(t, len(chunks), 1)
	for i, c := range chunks[:len(chunks)-1] {
		assert.GreaterOrEqual(t, len(c), 300, "chunk %d below threshold", i)
	}
}

func TestChunkReconstruction(t *testing.T) {
	text := "First thought here. Second thought follows! Was there a third? Yes, a fourth closes it."
	chunks := Chunk(text, 40)

	joined := strings.Join(strings.Fields(strings.Join(chunks, " ")), " ")
	want := strings.Join(strings.Fields(text), " ")
	assert.Equal(t, want, joined)
}

func TestChunkNoTerminalPunctuation(t *testing.T) {
	chunks := Chunk("a fragment with no punctuation at all", 800)
	assert.Equal(t, []string{"a fragment with no punctuation at all"}, chunks)
}

func TestChunkDefaultSize(t *testing.T) {
	chunks := Chunk("Short text.", 0)
	assert.Len(t, chunks, 1)
}
