package mockserver

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"shopping-assistant/internal/models"
)

// Store persists the accounts, chats and carts served by the mock backend.
type Store interface {
	CreateUser(ctx context.Context, req models.SignupRequest) (models.UserProfile, error)
	Authenticate(ctx context.Context, email, password string) (models.UserProfile, error)
	GetUser(ctx context.Context, userID string) (models.UserProfile, error)

	ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error)
	GetChat(ctx context.Context, chatID string) (models.ChatDetail, error)
	// AppendTurn records turn in chatID, or in a new chat titled after the
	// input when chatID is empty, and returns the chat's id and title.
	AppendTurn(ctx context.Context, userID, chatID string, turn models.ChatTurn) (models.ChatSummary, error)

	ListCarts(ctx context.Context, userID string) ([]models.CartSummary, error)
	CreateCart(ctx context.Context, userID, title string) (models.Cart, error)
	GetCart(ctx context.Context, cartID string) (models.Cart, error)
	AddItem(ctx context.Context, cartID string, item models.CartItem) (models.CartItem, error)
	RemoveItem(ctx context.Context, cartID, itemID string) error
	DeleteCart(ctx context.Context, cartID string) error

	Ping(ctx context.Context) error
}

const maxTitleRunes = 30

// passwordCost is lowered by tests.
var passwordCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// chatTitle derives a chat title from the first message of the chat.
func chatTitle(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if utf8.RuneCountInString(input) <= maxTitleRunes {
		return input
	}
	runes := []rune(input)
	return string(runes[:maxTitleRunes]) + "…"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
