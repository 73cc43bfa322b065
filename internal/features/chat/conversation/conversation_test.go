package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	historygrouper "shopping-assistant/internal/features/chat/history-grouper"
	"shopping-assistant/internal/models"
)

// ==========================
// Mock Backend Implementation
// ==========================

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatSummary), args.Error(1)
}

func (m *MockBackend) GetChat(ctx context.Context, chatID string) (*models.ChatDetail, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatDetail), args.Error(1)
}

func (m *MockBackend) SendMessage(ctx context.Context, req models.SendMessageRequest) (*models.SendMessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SendMessageResponse), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)

func newTestConversation(t *testing.T, backend *MockBackend) *Conversation {
	log := logger.NewTestLogger(t)
	grouper := historygrouper.NewGrouper(&historygrouper.Config{Location: time.UTC}, log).
		WithClock(func() time.Time { return fixedNow })
	return New("u1", backend, grouper, log).WithClock(func() time.Time { return fixedNow })
}

func reply(chatID, title, input string) *models.SendMessageResponse {
	return &models.SendMessageResponse{
		ChatID: models.StringOrNumber(chatID),
		Title:  title,
		ChatLog: []models.ChatTurn{{
			UserInput:   input,
			KeywordText: input + " 결과",
			Products:    []models.Product{{ProductID: "p1", ProductName: "셔츠<b>셔츠</b>", Rank: 1}},
			Recommend:   []models.Recommendation{{RecommendText: "추천", Rank: 1}},
		}},
	}
}

// ==========================
// Tests
// ==========================

func TestSend_NewChatAdoptsReturnedID(t *testing.T) {
	backend := new(MockBackend)
	backend.On("SendMessage", mock.Anything, models.SendMessageRequest{UserID: "u1", UserInput: "셔츠"}).
		Return(reply("42", "셔츠 찾기", "셔츠"), nil).Once()
	conv := newTestConversation(t, backend)

	result, err := conv.Send(context.Background(), "  셔츠 ", true)
	require.NoError(t, err)

	assert.False(t, result.Discarded)
	assert.Equal(t, "42", conv.CurrentChatID())
	require.Len(t, result.Deferred, 1)

	messages := conv.Messages()
	require.Len(t, messages, 2)
	assert.True(t, messages[1].IsTyping)

	chats := conv.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, "셔츠 찾기", chats[0].Title)
	assert.Contains(t, conv.Grouped(), historygrouper.LabelToday)

	assert.True(t, conv.CompleteTyping(result))
	messages = conv.Messages()
	require.Len(t, messages, 3)
	assert.False(t, messages[1].IsTyping)
	assert.Equal(t, "셔츠", messages[2].ProductsByRank[1][0].ProductName)
	backend.AssertExpectations(t)
}

func TestSend_ExistingChatOverwritesTitle(t *testing.T) {
	backend := new(MockBackend)
	backend.On("ListChats", mock.Anything, "u1").Return([]models.ChatSummary{
		{ChatID: "9", Title: "old", UpdatedAt: "2025-06-01T00:00:00Z"},
		{ChatID: "7", Title: "other", UpdatedAt: "2025-06-02T00:00:00Z"},
	}, nil)
	backend.On("GetChat", mock.Anything, "9").Return(&models.ChatDetail{ChatID: "9"}, nil)
	backend.On("SendMessage", mock.Anything, models.SendMessageRequest{UserID: "u1", ChatID: "9", UserInput: "가방"}).
		Return(reply("9", "new title", "가방"), nil)
	conv := newTestConversation(t, backend)
	ctx := context.Background()

	_, err := conv.LoadChatLogs(ctx)
	require.NoError(t, err)
	_, err = conv.LoadChat(ctx, "9")
	require.NoError(t, err)

	_, err = conv.Send(ctx, "가방", false)
	require.NoError(t, err)

	chats := conv.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, "new title", chats[0].Title)
	assert.Equal(t, "2025-06-01T00:00:00Z", chats[0].UpdatedAt)
	assert.Equal(t, "2025-06-02T00:00:00Z", chats[1].UpdatedAt)
	assert.Len(t, conv.Messages(), 3)
}

func TestSend_NewChatSummaryIsStampedNow(t *testing.T) {
	backend := new(MockBackend)
	backend.On("SendMessage", mock.Anything, mock.Anything).Return(reply("11", "새 대화", "모자"), nil)
	conv := newTestConversation(t, backend)

	_, err := conv.Send(context.Background(), "모자", false)
	require.NoError(t, err)

	chats := conv.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), chats[0].UpdatedAt)
}

func TestSend_RejectsEmptyInput(t *testing.T) {
	backend := new(MockBackend)
	conv := newTestConversation(t, backend)

	_, err := conv.Send(context.Background(), "   ", false)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	backend.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestSend_OneOutstandingSend(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := new(MockBackend)
	backend.On("SendMessage", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(reply("1", "t", "a"), nil).Once()
	conv := newTestConversation(t, backend)

	done := make(chan error, 1)
	go func() {
		_, err := conv.Send(context.Background(), "a", false)
		done <- err
	}()
	<-started

	assert.True(t, conv.Sending())
	_, err := conv.Send(context.Background(), "b", false)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSendInProgress))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, conv.Sending())
}

func TestSend_DiscardsReplyAfterChatSwitch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := new(MockBackend)
	backend.On("SendMessage", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(reply("1", "t", "a"), nil).Once()
	conv := newTestConversation(t, backend)

	resultCh := make(chan *SendResult, 1)
	go func() {
		result, err := conv.Send(context.Background(), "a", true)
		assert.NoError(t, err)
		resultCh <- result
	}()
	<-started

	conv.StartNewChat()
	close(release)

	result := <-resultCh
	require.NotNil(t, result)
	assert.True(t, result.Discarded)
	assert.Empty(t, conv.Messages())
	assert.Empty(t, conv.CurrentChatID())
	assert.False(t, conv.CompleteTyping(result))
}

func TestCompleteTyping_AfterSwitchIsIgnored(t *testing.T) {
	backend := new(MockBackend)
	backend.On("SendMessage", mock.Anything, mock.Anything).Return(reply("3", "t", "a"), nil)
	conv := newTestConversation(t, backend)

	result, err := conv.Send(context.Background(), "a", true)
	require.NoError(t, err)

	conv.StartNewChat()
	assert.False(t, conv.CompleteTyping(result))
	assert.Empty(t, conv.Messages())
}

func TestSend_BackendErrorReleasesLoadingFlag(t *testing.T) {
	backend := new(MockBackend)
	backend.On("SendMessage", mock.Anything, mock.Anything).
		Return(nil, errors.NewBackendTimeoutError("/api/v1/chat/send")).Once()
	conv := newTestConversation(t, backend)

	_, err := conv.Send(context.Background(), "a", false)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBackendTimeout))
	assert.False(t, conv.Sending())
	assert.Empty(t, conv.Messages())
}

func TestLoadChat_ParsesEveryTurnWithoutTyping(t *testing.T) {
	backend := new(MockBackend)
	backend.On("GetChat", mock.Anything, "5").Return(&models.ChatDetail{
		ChatID: "5",
		ChatLog: []models.ChatTurn{
			reply("5", "", "첫번째").ChatLog[0],
			reply("5", "", "두번째").ChatLog[0],
		},
	}, nil)
	conv := newTestConversation(t, backend)

	messages, err := conv.LoadChat(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, messages, 6)
	for _, m := range messages {
		assert.False(t, m.IsTyping)
	}
	assert.Equal(t, "5", conv.CurrentChatID())
}

func TestLoadChat_FailureKeepsCurrentChat(t *testing.T) {
	backend := new(MockBackend)
	backend.On("GetChat", mock.Anything, "5").Return(&models.ChatDetail{
		ChatID:  "5",
		ChatLog: []models.ChatTurn{reply("5", "", "첫번째").ChatLog[0]},
	}, nil)
	backend.On("GetChat", mock.Anything, "6").Return(nil, errors.NewResourceNotFoundError("resource", "/api/v1/chat/6"))
	backend.On("SendMessage", mock.Anything, models.SendMessageRequest{UserID: "u1", ChatID: "5", UserInput: "두번째"}).
		Return(reply("5", "", "두번째"), nil)
	conv := newTestConversation(t, backend)
	ctx := context.Background()

	_, err := conv.LoadChat(ctx, "5")
	require.NoError(t, err)

	_, err = conv.LoadChat(ctx, "6")
	assert.True(t, errors.HasCode(err, errors.ErrCodeResourceNotFound))
	assert.Equal(t, "5", conv.CurrentChatID())
	assert.Len(t, conv.Messages(), 3)

	result, err := conv.Send(ctx, "두번째", false)
	require.NoError(t, err)
	assert.False(t, result.Discarded)
	assert.Len(t, conv.Messages(), 6)
	backend.AssertExpectations(t)
}

func TestLoadChat_LatestLoadWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := new(MockBackend)
	backend.On("GetChat", mock.Anything, "5").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&models.ChatDetail{ChatID: "5", ChatLog: []models.ChatTurn{reply("5", "", "느린").ChatLog[0]}}, nil)
	backend.On("GetChat", mock.Anything, "6").Return(&models.ChatDetail{
		ChatID:  "6",
		ChatLog: []models.ChatTurn{reply("6", "", "빠른").ChatLog[0]},
	}, nil)
	conv := newTestConversation(t, backend)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := conv.LoadChat(ctx, "5")
		done <- err
	}()
	<-started

	_, err := conv.LoadChat(ctx, "6")
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "6", conv.CurrentChatID())
	require.NotEmpty(t, conv.Messages())
	assert.Equal(t, "빠른", conv.Messages()[0].Content)
}

func TestLoadChat_InvalidID(t *testing.T) {
	backend := new(MockBackend)
	conv := newTestConversation(t, backend)

	_, err := conv.LoadChat(context.Background(), "a/b")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	backend.AssertNotCalled(t, "GetChat", mock.Anything, mock.Anything)
}

func TestLoadChatLogs_ReplacesWholesale(t *testing.T) {
	backend := new(MockBackend)
	backend.On("ListChats", mock.Anything, "u1").Return([]models.ChatSummary{{ChatID: "1", UpdatedAt: "2025-06-05T01:00:00Z"}}, nil).Once()
	backend.On("ListChats", mock.Anything, "u1").Return([]models.ChatSummary{{ChatID: "2", UpdatedAt: "2025-06-04T01:00:00Z"}}, nil).Once()
	conv := newTestConversation(t, backend)

	_, err := conv.LoadChatLogs(context.Background())
	require.NoError(t, err)
	_, err = conv.LoadChatLogs(context.Background())
	require.NoError(t, err)

	chats := conv.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, "2", chats[0].ChatID.String())

	groups := conv.GroupedAt(fixedNow)
	assert.Len(t, groups[historygrouper.LabelYesterday], 1)
}

func TestClear(t *testing.T) {
	backend := new(MockBackend)
	backend.On("SendMessage", mock.Anything, mock.Anything).Return(reply("3", "t", "a"), nil)
	conv := newTestConversation(t, backend)

	_, err := conv.Send(context.Background(), "a", false)
	require.NoError(t, err)

	conv.Clear()
	assert.Empty(t, conv.Chats())
	assert.Empty(t, conv.Messages())
	assert.Empty(t, conv.CurrentChatID())
}
