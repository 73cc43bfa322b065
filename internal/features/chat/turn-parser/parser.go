// Package turnparser expands backend chat turns into display messages.
package turnparser

import (
	"strconv"
	"strings"

	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"
)

const highlightTag = "<b>"

// Parse expands one turn. With typing set, the structured message is held
// back in Deferred so it appears only after the assistant text is revealed.
func Parse(turn models.ChatTurn, typing bool) Emission {
	user := models.NewUserMessage(turn.UserInput)
	assistant := models.NewAssistantMessage(turn.KeywordText, typing)
	structured := models.NewStructuredMessage(GroupProducts(turn.Products), GroupRecommendations(turn.Recommend))

	metrics.TurnsParsed.WithLabelValues(strconv.FormatBool(typing)).Inc()

	e := Emission{Messages: [3]models.DisplayMessage{user, assistant, structured}}
	if typing {
		e.Immediate = []models.DisplayMessage{user, assistant}
		e.Deferred = []models.DisplayMessage{structured}
	} else {
		e.Immediate = []models.DisplayMessage{user, assistant, structured}
	}
	return e
}

// ParseAll expands every turn of a loaded chat without the typing effect.
func ParseAll(turns []models.ChatTurn) []models.DisplayMessage {
	out := make([]models.DisplayMessage, 0, len(turns)*3)
	for _, turn := range turns {
		out = append(out, Parse(turn, false).Immediate...)
	}
	return out
}

// GroupProducts buckets products by rank in input order, with cleaned names.
func GroupProducts(products []models.Product) map[int][]models.Product {
	byRank := make(map[int][]models.Product)
	for _, p := range products {
		p.ProductName = CleanProductName(p.ProductName)
		byRank[p.Rank] = append(byRank[p.Rank], p)
	}
	return byRank
}

// GroupRecommendations keeps one text per rank; later entries win.
func GroupRecommendations(recommend []models.Recommendation) map[int]string {
	byRank := make(map[int]string)
	for _, r := range recommend {
		byRank[r.Rank] = r.RecommendText
	}
	return byRank
}

// CleanProductName drops everything from the first "<b>" on and trims spaces.
func CleanProductName(name string) string {
	if i := strings.Index(name, highlightTag); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}
