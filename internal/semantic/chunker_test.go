package semantic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/stock-themes/internal/model"
)

func TestChunkEmptyText(t *testing.T) {
	assert.Nil(t, Chunk("", 200))
	assert.Nil(t, Chunk("   \n\t  ", 200))
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	chunks := Chunk("We make software. It is good software.", 200)

	assert.Len(t, chunks, 1)
	assert.Equal(t, "We make software. It is good software.", chunks[0])
}

func TestChunkBreaksOnSentenceBoundaries(t *testing.T) {
	first := "The first sentence has exactly eight words in it."
	second := "The second sentence also has a handful of words."
	chunks := Chunk(first+" "+second, 10)

	assert.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	assert.Equal(t, second, chunks[1])
}

func TestChunkOversizedSentenceKeptWhole(t *testing.T) {
	long := "word " + strings.Repeat("and more ", 20) + "done."
	chunks := Chunk(long, 5)

	// A single sentence larger than the chunk size is not split mid-sentence.
	assert.Len(t, chunks, 1)
}

func TestChunkNormalizesWhitespace(t *testing.T) {
	chunks := Chunk("One\n\nsentence   with\tgaps.", 200)

	assert.Len(t, chunks, 1)
	assert.Equal(t, "One sentence with gaps.", chunks[0])
}

func TestCollectTextOrdering(t *testing.T) {
	profile := &model.CompanyProfile{
		BusinessDescription: "Description.",
		BusinessSummary:     "Summary.",
		RiskFactors:         "Risks.",
		PatentTitles:        []string{"Patent one", "Patent two"},
		NewsTitles:          []string{"Headline"},
		SocialText:          "Chatter.",
	}

	text := CollectText(profile)

	assert.Equal(t, "Description. Summary. Risks. Patent one Patent two Headline Chatter.", text)
}

func TestCollectTextSkipsEmptyFields(t *testing.T) {
	profile := &model.CompanyProfile{BusinessSummary: "Only summary."}

	assert.Equal(t, "Only summary.", CollectText(profile))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}))
}
