package turnparser

import "shopping-assistant/internal/models"

// Emission is the result of parsing one turn. Messages is always the ordered
// triple (user, assistant text, assistant structured). Immediate is appended to
// the transcript right away; Deferred is appended once the typing effect of
// the assistant text has finished.
type Emission struct {
	Messages  [3]models.DisplayMessage
	Immediate []models.DisplayMessage
	Deferred  []models.DisplayMessage
}

// HasDeferred reports whether part of the emission waits for typing to finish.
func (e Emission) HasDeferred() bool {
	return len(e.Deferred) > 0
}
