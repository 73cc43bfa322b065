// Package conversation holds the chat side of the application state: the
// history list, the current chat and its transcript.
package conversation

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/common/validation"
	historygrouper "shopping-assistant/internal/features/chat/history-grouper"
	turnparser "shopping-assistant/internal/features/chat/turn-parser"
	"shopping-assistant/internal/models"
)

var errNoTurn = stderrors.New("reply carried no chat turn")

type Conversation struct {
	mu sync.Mutex

	userID  string
	backend Backend
	grouper *historygrouper.Grouper
	logger  logger.Logger
	now     func() time.Time

	chats         []models.ChatSummary
	currentChatID string
	transcript    *turnparser.Transcript
	// generation changes whenever the user leaves the chat on screen.
	generation uint64
	// loads orders LoadChat calls so only the latest one applies.
	loads   uint64
	sending bool
}

func New(userID string, backend Backend, grouper *historygrouper.Grouper, log logger.Logger) *Conversation {
	return &Conversation{
		userID:     userID,
		backend:    backend,
		grouper:    grouper,
		logger:     log.WithFields(map[string]interface{}{"userId": userID}),
		now:        time.Now,
		chats:      []models.ChatSummary{},
		transcript: turnparser.NewTranscript(),
	}
}

// WithClock sets the clock used to stamp locally updated summaries.
func (c *Conversation) WithClock(now func() time.Time) *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// StartNewChat leaves the current chat; the next Send opens a new one.
func (c *Conversation) StartNewChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked("")
}

func (c *Conversation) resetLocked(chatID string) {
	c.generation++
	c.currentChatID = chatID
	c.transcript = turnparser.NewTranscript()
}

// LoadChatLogs replaces the history list with a fresh fetch.
func (c *Conversation) LoadChatLogs(ctx context.Context) ([]models.ChatSummary, error) {
	chats, err := c.backend.ListChats(ctx, c.userID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.chats = chats
	c.mu.Unlock()

	c.logger.Debug("chat history loaded", map[string]interface{}{"count": len(chats)})
	return c.Chats(), nil
}

// Grouped buckets the cached history against the grouper's clock.
func (c *Conversation) Grouped() historygrouper.Groups {
	return c.grouper.Group(c.Chats())
}

// GroupedAt buckets the cached history against now.
func (c *Conversation) GroupedAt(now time.Time) historygrouper.Groups {
	return c.grouper.GroupAt(c.Chats(), now)
}

// LoadChat switches to chatID and rebuilds its transcript without typing.
func (c *Conversation) LoadChat(ctx context.Context, chatID string) ([]models.DisplayMessage, error) {
	chatID = strings.TrimSpace(chatID)
	if !validation.ValidateChatID(chatID) {
		return nil, errors.NewInvalidInputError("chat_id", "identifier must be alphanumeric, '-' or '_'")
	}

	c.mu.Lock()
	c.loads++
	seq := c.loads
	gen := c.generation
	c.mu.Unlock()

	// The chat on screen stays until the fetch succeeds.
	detail, err := c.backend.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	messages := turnparser.ParseAll(detail.ChatLog)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.loads != seq {
		c.logger.Debug("discarding stale chat load", map[string]interface{}{"chatId": chatID})
		return messages, nil
	}
	c.resetLocked(chatID)
	c.transcript = turnparser.NewTranscript(messages...)
	return c.transcript.Messages(), nil
}

// Send posts input to the current chat. Only one send may be outstanding.
func (c *Conversation) Send(ctx context.Context, input string, typing bool) (*SendResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.NewInvalidInputError("user_input", "message must not be empty")
	}

	c.mu.Lock()
	if c.sending {
		chatID := c.currentChatID
		c.mu.Unlock()
		return nil, errors.NewSendInProgressError(chatID)
	}
	c.sending = true
	gen := c.generation
	chatID := c.currentChatID
	c.mu.Unlock()

	metrics.SendsInFlight.Inc()
	resp, err := c.backend.SendMessage(ctx, models.SendMessageRequest{
		UserID:    c.userID,
		ChatID:    chatID,
		UserInput: input,
	})
	metrics.SendsInFlight.Dec()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false

	if err != nil {
		return nil, err
	}
	if len(resp.ChatLog) == 0 {
		return nil, errors.NewResponseDecodeFailedError("/api/v1/chat/send", errNoTurn)
	}

	result := &SendResult{
		ChatID:     resp.ChatID.String(),
		Title:      resp.Title,
		generation: gen,
	}
	if c.generation != gen {
		c.logger.Info("discarding reply for a chat that is no longer open", map[string]interface{}{
			"chatId": result.ChatID,
		})
		result.Discarded = true
		return result, nil
	}

	c.currentChatID = result.ChatID
	c.touchSummaryLocked(result.ChatID, resp.Title)

	result.Emission = turnparser.Parse(resp.ChatLog[0], typing)
	result.Deferred = c.transcript.Apply(result.Emission)
	return result, nil
}

// touchSummaryLocked overwrites only the title of chatID in the history list,
// or prepends a summary stamped now when the chat is new.
func (c *Conversation) touchSummaryLocked(chatID, title string) {
	for i := range c.chats {
		if c.chats[i].ChatID.String() == chatID {
			if title != "" {
				c.chats[i].Title = title
			}
			return
		}
	}
	summary := models.ChatSummary{ChatID: models.StringOrNumber(chatID), Title: title, UpdatedAt: c.now().Format(time.RFC3339Nano)}
	c.chats = append([]models.ChatSummary{summary}, c.chats...)
}

// CompleteTyping appends the deferred part of result once the typing effect
// finished. It reports false when the chat changed in the meantime.
func (c *Conversation) CompleteTyping(result *SendResult) bool {
	if result == nil || result.Discarded {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != result.generation {
		return false
	}
	c.transcript.CompleteTyping(result.Deferred)
	return true
}

// Clear drops all chat state, used on logout.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked("")
	c.chats = []models.ChatSummary{}
	c.sending = false
}

func (c *Conversation) Chats() []models.ChatSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatSummary, len(c.chats))
	copy(out, c.chats)
	return out
}

func (c *Conversation) CurrentChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentChatID
}

func (c *Conversation) Messages() []models.DisplayMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}

func (c *Conversation) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

func (c *Conversation) UserID() string {
	return c.userID
}
