package mockserver

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"
)

type memoryUser struct {
	profile      models.UserProfile
	passwordHash string
}

type memoryChat struct {
	id        string
	userID    string
	title     string
	updatedAt time.Time
	turns     []models.ChatTurn
}

// MemoryStore keeps everything in process memory. Ids are decimal sequences.
type MemoryStore struct {
	mu      sync.RWMutex
	now     func() time.Time
	seq     int64
	users   map[string]*memoryUser
	byEmail map[string]string
	chats   map[string]*memoryChat
	carts   map[string]*models.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		users:   make(map[string]*memoryUser),
		byEmail: make(map[string]string),
		chats:   make(map[string]*memoryChat),
		carts:   make(map[string]*models.Cart),
	}
}

// WithClock replaces the clock used for timestamps.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) nextID() string {
	s.seq++
	return strconv.FormatInt(s.seq, 10)
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, req models.SignupRequest) (models.UserProfile, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return models.UserProfile{}, errors.NewInternalError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(req.Email)
	if _, exists := s.byEmail[email]; exists {
		return models.UserProfile{}, errors.NewSignupFailedError("email already registered")
	}

	id := s.nextID()
	profile := models.UserProfile{
		UserID:   models.StringOrNumber(id),
		Email:    email,
		Nickname: req.Nickname,
		Age:      req.Age,
		Sex:      req.Sex,
	}
	s.users[id] = &memoryUser{profile: profile, passwordHash: hash}
	s.byEmail[email] = id
	return profile, nil
}

func (s *MemoryStore) Authenticate(ctx context.Context, email, password string) (models.UserProfile, error) {
	s.mu.RLock()
	id, ok := s.byEmail[normalizeEmail(email)]
	var user *memoryUser
	if ok {
		user = s.users[id]
	}
	s.mu.RUnlock()

	if user == nil || !checkPassword(user.passwordHash, password) {
		return models.UserProfile{}, errors.NewAuthenticationError("invalid email or password")
	}
	return user.profile, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return models.UserProfile{}, errors.NewResourceNotFoundError("user", userID)
	}
	return user.profile, nil
}

func (s *MemoryStore) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats := lo.Filter(lo.Values(s.chats), func(c *memoryChat, _ int) bool {
		return c.userID == userID
	})
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].updatedAt.After(chats[j].updatedAt)
	})

	return lo.Map(chats, func(c *memoryChat, _ int) models.ChatSummary {
		return models.ChatSummary{
			ChatID:    models.StringOrNumber(c.id),
			Title:     c.title,
			UpdatedAt: timestamp(c.updatedAt),
		}
	}), nil
}

func (s *MemoryStore) GetChat(ctx context.Context, chatID string) (models.ChatDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return models.ChatDetail{}, errors.NewResourceNotFoundError("chat", chatID)
	}
	return models.ChatDetail{
		ChatID:  models.StringOrNumber(chat.id),
		Title:   chat.title,
		ChatLog: append([]models.ChatTurn{}, chat.turns...),
	}, nil
}

func (s *MemoryStore) AppendTurn(ctx context.Context, userID, chatID string, turn models.ChatTurn) (models.ChatSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return models.ChatSummary{}, errors.NewResourceNotFoundError("user", userID)
	}

	var chat *memoryChat
	if chatID == "" {
		chat = &memoryChat{id: s.nextID(), userID: userID, title: chatTitle(turn.UserInput)}
		s.chats[chat.id] = chat
	} else {
		var ok bool
		if chat, ok = s.chats[chatID]; !ok || chat.userID != userID {
			return models.ChatSummary{}, errors.NewResourceNotFoundError("chat", chatID)
		}
	}

	turn.ChatLogID = models.StringOrNumber(s.nextID())
	chat.turns = append(chat.turns, turn)
	chat.updatedAt = s.now()

	return models.ChatSummary{
		ChatID:    models.StringOrNumber(chat.id),
		Title:     chat.title,
		UpdatedAt: timestamp(chat.updatedAt),
	}, nil
}

func (s *MemoryStore) ListCarts(ctx context.Context, userID string) ([]models.CartSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carts := lo.Filter(lo.Values(s.carts), func(c *models.Cart, _ int) bool {
		return string(c.UserID) == userID
	})
	sort.Slice(carts, func(i, j int) bool {
		return idLess(string(carts[i].CollectionID), string(carts[j].CollectionID))
	})

	return lo.Map(carts, func(c *models.Cart, _ int) models.CartSummary {
		return models.CartSummary{CollectionID: c.CollectionID, CollectionTitle: c.CollectionTitle}
	}), nil
}

func (s *MemoryStore) CreateCart(ctx context.Context, userID, title string) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return models.Cart{}, errors.NewResourceNotFoundError("user", userID)
	}

	now := timestamp(s.now())
	cart := &models.Cart{
		CollectionID:    models.StringOrNumber(s.nextID()),
		CollectionTitle: title,
		UserID:          models.StringOrNumber(userID),
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           []models.CartItem{},
	}
	s.carts[string(cart.CollectionID)] = cart
	return copyCart(cart), nil
}

func (s *MemoryStore) GetCart(ctx context.Context, cartID string) (models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return models.Cart{}, errors.NewResourceNotFoundError("collection", cartID)
	}
	return copyCart(cart), nil
}

func (s *MemoryStore) AddItem(ctx context.Context, cartID string, item models.CartItem) (models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return models.CartItem{}, errors.NewResourceNotFoundError("collection", cartID)
	}

	now := timestamp(s.now())
	item.ItemID = models.StringOrNumber(s.nextID())
	item.CreatedAt = now
	cart.Items = append(cart.Items, item)
	cart.UpdatedAt = now
	return item, nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, cartID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[cartID]
	if !ok {
		return errors.NewResourceNotFoundError("collection", cartID)
	}
	if !lo.ContainsBy(cart.Items, func(it models.CartItem) bool { return string(it.ItemID) == itemID }) {
		return errors.NewResourceNotFoundError("item", itemID)
	}
	cart.Items = lo.Reject(cart.Items, func(it models.CartItem, _ int) bool {
		return string(it.ItemID) == itemID
	})
	cart.UpdatedAt = timestamp(s.now())
	return nil
}

func (s *MemoryStore) DeleteCart(ctx context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[cartID]; !ok {
		return errors.NewResourceNotFoundError("collection", cartID)
	}
	delete(s.carts, cartID)
	return nil
}

func copyCart(c *models.Cart) models.Cart {
	out := *c
	out.Items = append([]models.CartItem{}, c.Items...)
	return out
}

// idLess orders decimal ids numerically.
func idLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
