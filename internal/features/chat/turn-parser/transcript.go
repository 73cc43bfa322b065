package turnparser

import "shopping-assistant/internal/models"

// Transcript is the append-only message list of the chat on screen.
type Transcript struct {
	messages []models.DisplayMessage
}

func NewTranscript(initial ...models.DisplayMessage) *Transcript {
	t := &Transcript{}
	t.messages = append(t.messages, initial...)
	return t
}

// Apply appends the immediate batch and returns the deferred one for a later
// CompleteTyping call.
func (t *Transcript) Apply(e Emission) []models.DisplayMessage {
	t.messages = append(t.messages, e.Immediate...)
	return e.Deferred
}

// CompleteTyping marks the last typing assistant message as finished and
// appends deferred.
func (t *Transcript) CompleteTyping(deferred []models.DisplayMessage) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].IsTyping {
			t.messages[i].IsTyping = false
			break
		}
	}
	t.messages = append(t.messages, deferred...)
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []models.DisplayMessage {
	out := make([]models.DisplayMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

// Typing reports whether an assistant message is still being revealed.
func (t *Transcript) Typing() bool {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].IsTyping {
			return true
		}
	}
	return false
}
