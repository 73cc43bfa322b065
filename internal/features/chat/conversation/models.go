package conversation

import (
	"context"

	turnparser "shopping-assistant/internal/features/chat/turn-parser"
	"shopping-assistant/internal/models"
)

// Backend is the part of the API client a conversation needs.
type Backend interface {
	ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error)
	GetChat(ctx context.Context, chatID string) (*models.ChatDetail, error)
	SendMessage(ctx context.Context, req models.SendMessageRequest) (*models.SendMessageResponse, error)
}

// SendResult describes a completed send. When Discarded is set the user had
// moved to another chat before the reply arrived and nothing was applied.
type SendResult struct {
	ChatID    string
	Title     string
	Emission  turnparser.Emission
	Deferred  []models.DisplayMessage
	Discarded bool

	generation uint64
}
