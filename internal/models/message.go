package models

import "sort"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayMessage is one rendered entry of a chat transcript. Exactly one of
// three shapes is used: a user message, an assistant text message, or an
// assistant structured message carrying the rank maps.
type DisplayMessage struct {
	Role            Role              `json:"role"`
	Content         string            `json:"content"`
	IsTyping        bool              `json:"isTyping,omitempty"`
	IsStructured    bool              `json:"isStructured,omitempty"`
	ProductsByRank  map[int][]Product `json:"productsByRank,omitempty"`
	RecommendByRank map[int]string    `json:"recommendByRank,omitempty"`
}

func NewUserMessage(content string) DisplayMessage {
	return DisplayMessage{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string, typing bool) DisplayMessage {
	return DisplayMessage{Role: RoleAssistant, Content: content, IsTyping: typing}
}

func NewStructuredMessage(products map[int][]Product, recommend map[int]string) DisplayMessage {
	return DisplayMessage{
		Role:            RoleAssistant,
		IsStructured:    true,
		ProductsByRank:  products,
		RecommendByRank: recommend,
	}
}

// Ranks returns every rank present in either map, ascending.
func (m DisplayMessage) Ranks() []int {
	seen := make(map[int]struct{}, len(m.ProductsByRank)+len(m.RecommendByRank))
	for r := range m.ProductsByRank {
		seen[r] = struct{}{}
	}
	for r := range m.RecommendByRank {
		seen[r] = struct{}{}
	}
	ranks := make([]int, 0, len(seen))
	for r := range seen {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	return ranks
}
