package turnparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscript_ApplyAndCompleteTyping(t *testing.T) {
	transcript := NewTranscript()

	deferred := transcript.Apply(Parse(sampleTurn(), true))
	require.Equal(t, 2, transcript.Len())
	assert.True(t, transcript.Typing())
	require.Len(t, deferred, 1)

	transcript.CompleteTyping(deferred)
	messages := transcript.Messages()
	require.Len(t, messages, 3)
	assert.False(t, messages[1].IsTyping)
	assert.True(t, messages[2].IsStructured)
	assert.False(t, transcript.Typing())
}

func TestTranscript_ApplyWithoutTypingHasNothingDeferred(t *testing.T) {
	transcript := NewTranscript()

	deferred := transcript.Apply(Parse(sampleTurn(), false))
	assert.Empty(t, deferred)
	assert.Equal(t, 3, transcript.Len())
}

func TestTranscript_IsAppendOnly(t *testing.T) {
	transcript := NewTranscript(ParseAll(nil)...)
	transcript.Apply(Parse(sampleTurn(), false))
	first := transcript.Messages()

	transcript.Apply(Parse(sampleTurn(), false))
	second := transcript.Messages()

	require.Len(t, second, 6)
	assert.Equal(t, first, second[:3])

	// Returned slices are copies.
	second[0].Content = "changed"
	assert.NotEqual(t, "changed", transcript.Messages()[0].Content)
}
