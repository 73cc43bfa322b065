// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-assistant/internal/common/auth"
	"shopping-assistant/internal/common/backend"
	"shopping-assistant/internal/common/errors"
	httpclient "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/common/logger"
	historygrouper "shopping-assistant/internal/features/chat/history-grouper"
	"shopping-assistant/internal/mockserver"
	"shopping-assistant/internal/models"
	"shopping-assistant/internal/session"
	"shopping-assistant/pkg/catalog"
)

type stack struct {
	auth    *auth.Client
	manager *session.Manager
}

func setupStack(t *testing.T) *stack {
	t.Helper()
	log := logger.NewTestLogger(t)

	seed, err := catalog.Default()
	require.NoError(t, err)

	server := mockserver.NewServer(mockserver.Dependencies{
		Store:   mockserver.NewMemoryStore(),
		Catalog: mockserver.NewMemoryCatalog(seed),
		Logger:  log,
	})
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		srv.Close()
		server.Close()
	})

	transport := httpclient.NewClient(httpclient.Options{
		BaseURL:   srv.URL,
		Timeout:   5 * time.Second,
		UserAgent: "shopctl/e2e",
	}, log)
	authClient := auth.NewClient(transport, log)
	api := backend.NewClient(transport, log)

	grouper := historygrouper.NewGrouper(&historygrouper.Config{Location: time.UTC}, log)
	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), 0)

	return &stack{
		auth: authClient,
		manager: session.NewManager(store, authClient, session.Dependencies{
			Chats:   api,
			Carts:   api,
			Grouper: grouper,
		}, log),
	}
}

// ==========================================
// Full shopping session
// ==========================================

func TestShoppingSession(t *testing.T) {
	ctx := context.Background()
	s := setupStack(t)

	_, err := s.auth.Signup(ctx, models.SignupRequest{
		Email:    "e2e@example.com",
		Password: "password123",
		Nickname: "테스터",
		Age:      29,
		Sex:      models.SexFemale,
	})
	require.NoError(t, err)

	state, login, err := s.manager.Login(ctx, "e2e@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, login.UserID.String(), state.UserID)

	restored, err := s.manager.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.UserID, restored.UserID)

	// Send with the typing effect: structured part arrives after CompleteTyping.
	conv := state.Conversation
	conv.StartNewChat()
	result, err := conv.Send(ctx, "린넨 셔츠 추천해줘", true)
	require.NoError(t, err)
	require.False(t, result.Discarded)
	assert.NotEmpty(t, result.ChatID)
	assert.NotEmpty(t, result.Title)
	assert.Equal(t, result.ChatID, conv.CurrentChatID())

	require.Len(t, result.Emission.Immediate, 2)
	assert.Equal(t, models.RoleUser, result.Emission.Immediate[0].Role)
	assert.Equal(t, "린넨 셔츠 추천해줘", result.Emission.Immediate[0].Content)
	assert.True(t, result.Emission.Immediate[1].IsTyping)
	require.Len(t, result.Deferred, 1)
	assert.True(t, result.Deferred[0].IsStructured)
	assert.Len(t, conv.Messages(), 2)

	assert.True(t, conv.CompleteTyping(result))
	messages := conv.Messages()
	require.Len(t, messages, 3)
	structured := messages[2]
	require.NotEmpty(t, structured.ProductsByRank)
	for _, products := range structured.ProductsByRank {
		for _, p := range products {
			assert.NotContains(t, p.ProductName, "<b>")
		}
	}

	// A second turn in the same chat keeps the chat id.
	second, err := conv.Send(ctx, "무선 청소기", false)
	require.NoError(t, err)
	assert.Equal(t, result.ChatID, second.ChatID)
	assert.Len(t, conv.Messages(), 6)

	// History lists the chat under today.
	chats, err := conv.LoadChatLogs(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	groups := conv.GroupedAt(time.Now().UTC())
	require.Len(t, groups[historygrouper.LabelToday], 1)
	assert.Equal(t, result.ChatID, groups[historygrouper.LabelToday][0].ChatID.String())
	assert.Empty(t, groups[historygrouper.LabelYesterday])
	assert.Empty(t, groups[historygrouper.LabelEarlier])

	// Reloading the chat rebuilds the same transcript without typing.
	conv.StartNewChat()
	assert.Empty(t, conv.Messages())
	reloaded, err := conv.LoadChat(ctx, result.ChatID)
	require.NoError(t, err)
	require.Len(t, reloaded, 6)
	for _, m := range reloaded {
		assert.False(t, m.IsTyping)
	}
	assert.Equal(t, "무선 청소기", reloaded[3].Content)

	// Carts.
	carts := state.Carts
	cart, err := carts.CreateCart(ctx, "여름 옷")
	require.NoError(t, err)
	cartID := cart.CollectionID.String()

	list, err := carts.LoadCarts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	found, ok := carts.FindByTitle("여름 옷")
	require.True(t, ok)
	assert.Equal(t, cartID, found.CollectionID.String())

	msg, err := carts.AddToCart(ctx, cartID, "p-1001")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	loaded, err := carts.LoadCart(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "린넨 셔츠", loaded.Items[0].ProductName)
	itemID := loaded.Items[0].ItemID.String()

	_, err = carts.RemoveFromCart(ctx, cartID, itemID)
	require.NoError(t, err)
	assert.Empty(t, carts.Current().Items)

	_, err = carts.DeleteCart(ctx, cartID)
	require.NoError(t, err)
	assert.Empty(t, carts.Carts())
	assert.Nil(t, carts.Current())

	_, err = carts.LoadCart(ctx, cartID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeResourceNotFound))

	// Logout clears state and the stored session.
	require.NoError(t, s.manager.Logout(ctx, state))
	assert.Empty(t, conv.Messages())
	assert.Empty(t, conv.Chats())

	_, err = s.manager.Restore(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthenticated))
}

func TestLoginWithWrongPassword(t *testing.T) {
	ctx := context.Background()
	s := setupStack(t)

	_, err := s.auth.Signup(ctx, models.SignupRequest{
		Email:    "wrong@example.com",
		Password: "password123",
		Nickname: "테스터",
		Age:      41,
		Sex:      models.SexMale,
	})
	require.NoError(t, err)

	_, _, err = s.manager.Login(ctx, "wrong@example.com", "not-the-password")
	require.Error(t, err)

	_, err = s.manager.Restore(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotAuthenticated))
}
