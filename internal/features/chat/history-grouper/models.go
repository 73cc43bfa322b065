package historygrouper

import "shopping-assistant/internal/models"

// Label names a day bucket of the chat history sidebar.
type Label string

const (
	LabelToday     Label = "오늘"
	LabelYesterday Label = "어제"
	LabelEarlier   Label = "이전 기록"
)

// DisplayOrder is the order buckets are rendered in.
var DisplayOrder = []Label{LabelToday, LabelYesterday, LabelEarlier}

// Groups maps a label to the chats of that bucket in input order. Labels
// without chats are absent.
type Groups map[Label][]models.ChatSummary

// Group is one non-empty bucket, used by renderers.
type Group struct {
	Label Label                `json:"label"`
	Chats []models.ChatSummary `json:"chats"`
}

// Ordered returns the non-empty buckets in display order.
func (g Groups) Ordered() []Group {
	out := make([]Group, 0, len(g))
	for _, label := range DisplayOrder {
		if chats, ok := g[label]; ok && len(chats) > 0 {
			out = append(out, Group{Label: label, Chats: chats})
		}
	}
	return out
}

// Len counts the chats across all buckets.
func (g Groups) Len() int {
	n := 0
	for _, chats := range g {
		n += len(chats)
	}
	return n
}
