package session

import (
	"context"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/features/chat/conversation"
	historygrouper "shopping-assistant/internal/features/chat/history-grouper"
	cartmanager "shopping-assistant/internal/features/collection/cart-manager"
	"shopping-assistant/internal/models"
)

// Authenticator verifies credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
}

// Dependencies are shared by every State the manager builds.
type Dependencies struct {
	Chats   conversation.Backend
	Carts   cartmanager.Backend
	Grouper *historygrouper.Grouper
}

// State is the application state of one logged-in user.
type State struct {
	UserID       string
	Conversation *conversation.Conversation
	Carts        *cartmanager.Manager
}

// Clear drops everything held for the user.
func (s *State) Clear() {
	s.Conversation.Clear()
	s.Carts.Clear()
}

type Manager struct {
	store  Store
	auth   Authenticator
	deps   Dependencies
	logger logger.Logger
}

func NewManager(store Store, auth Authenticator, deps Dependencies, log logger.Logger) *Manager {
	return &Manager{store: store, auth: auth, deps: deps, logger: log}
}

func (m *Manager) newState(userID string) *State {
	return &State{
		UserID:       userID,
		Conversation: conversation.New(userID, m.deps.Chats, m.deps.Grouper, m.logger),
		Carts:        cartmanager.New(userID, m.deps.Carts, m.logger),
	}
}

// Login authenticates, persists the user id and returns a fresh state.
func (m *Manager) Login(ctx context.Context, email, password string) (*State, *models.LoginResponse, error) {
	resp, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	userID := resp.UserID.String()
	if err := m.store.Save(ctx, userID); err != nil {
		return nil, nil, err
	}
	m.logger.Info("session started", map[string]interface{}{"userId": userID})
	return m.newState(userID), resp, nil
}

// Restore rebuilds the state of the stored user, or fails with NOT_AUTHENTICATED.
func (m *Manager) Restore(ctx context.Context) (*State, error) {
	userID, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, errors.NewNotAuthenticatedError()
	}
	return m.newState(userID), nil
}

// Logout forgets the stored user and clears state when given.
func (m *Manager) Logout(ctx context.Context, state *State) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	if state != nil {
		state.Clear()
		m.logger.Info("session ended", map[string]interface{}{"userId": state.UserID})
	}
	return nil
}
