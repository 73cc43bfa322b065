// Package cartmanager holds the collection side of the application state.
package cartmanager

import (
	"context"
	"strings"
	"sync"

	"github.com/samber/lo"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
)

type Manager struct {
	mu sync.Mutex

	userID  string
	backend Backend
	logger  logger.Logger

	carts     []models.CartSummary
	current   *models.Cart
	currentID string
}

func New(userID string, backend Backend, log logger.Logger) *Manager {
	return &Manager{
		userID:  userID,
		backend: backend,
		logger:  log.WithFields(map[string]interface{}{"userId": userID}),
		carts:   []models.CartSummary{},
	}
}

// LoadCarts replaces the cart list with a fresh fetch.
func (m *Manager) LoadCarts(ctx context.Context) ([]models.CartSummary, error) {
	carts, err := m.backend.ListCarts(ctx, m.userID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.carts = carts
	m.mu.Unlock()
	return m.Carts(), nil
}

// CreateCart creates a cart and appends it to the local list.
func (m *Manager) CreateCart(ctx context.Context, title string) (*models.Cart, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.NewInvalidInputError("collection_title", "title must not be empty")
	}
	cart, err := m.backend.CreateCart(ctx, models.CreateCartRequest{UserID: m.userID, CollectionTitle: title})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := cart.CollectionID.String()
	if !lo.ContainsBy(m.carts, func(c models.CartSummary) bool { return c.CollectionID.String() == id }) {
		m.carts = append(m.carts, models.CartSummary{CollectionID: cart.CollectionID, CollectionTitle: cart.CollectionTitle})
	}
	m.logger.Info("cart created", map[string]interface{}{"collectionId": id})
	return cart, nil
}

// LoadCart fetches one cart and makes it current.
func (m *Manager) LoadCart(ctx context.Context, collectionID string) (*models.Cart, error) {
	collectionID = strings.TrimSpace(collectionID)
	cart, err := m.backend.GetCart(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = cart
	m.currentID = collectionID
	return copyCart(cart), nil
}

// AddToCart registers a product in a cart and refreshes it when it is current.
func (m *Manager) AddToCart(ctx context.Context, collectionID, productID string) (string, error) {
	collectionID = strings.TrimSpace(collectionID)
	resp, err := m.backend.AddToCart(ctx, models.AddToCartRequest{
		UserID:       m.userID,
		CollectionID: collectionID,
		ProductID:    productID,
	})
	if err != nil {
		return "", err
	}
	m.refreshIfCurrent(ctx, collectionID)
	return resp.Message, nil
}

// RemoveFromCart deletes one item and drops it from the current cart.
func (m *Manager) RemoveFromCart(ctx context.Context, collectionID, itemID string) (string, error) {
	collectionID = strings.TrimSpace(collectionID)
	itemID = strings.TrimSpace(itemID)
	resp, err := m.backend.RemoveCartItem(ctx, collectionID, itemID)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.currentID == collectionID {
		m.current.Items = lo.Reject(m.current.Items, func(item models.CartItem, _ int) bool {
			return item.ItemID.String() == itemID
		})
	}
	return resp.Message, nil
}

// DeleteCart removes a cart, dropping it from the list and clearing it if current.
func (m *Manager) DeleteCart(ctx context.Context, collectionID string) (string, error) {
	collectionID = strings.TrimSpace(collectionID)
	resp, err := m.backend.DeleteCart(ctx, collectionID)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = lo.Reject(m.carts, func(c models.CartSummary, _ int) bool {
		return c.CollectionID.String() == collectionID
	})
	if m.currentID == collectionID {
		m.current = nil
		m.currentID = ""
	}
	return resp.Message, nil
}

func (m *Manager) refreshIfCurrent(ctx context.Context, collectionID string) {
	m.mu.Lock()
	isCurrent := m.currentID == collectionID
	m.mu.Unlock()
	if !isCurrent {
		return
	}
	if _, err := m.LoadCart(ctx, collectionID); err != nil {
		m.logger.Warn("failed to refresh current cart", map[string]interface{}{
			"collectionId": collectionID,
			"error":        err.Error(),
		})
	}
}

// FindByTitle returns the cart with the given title, ignoring case.
func (m *Manager) FindByTitle(title string) (models.CartSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Find(m.carts, func(c models.CartSummary) bool {
		return strings.EqualFold(c.CollectionTitle, strings.TrimSpace(title))
	})
}

// ResolveCartID maps a cart title to its id. Anything else is taken as an id.
func (m *Manager) ResolveCartID(ref string) string {
	if cart, ok := m.FindByTitle(ref); ok {
		return cart.CollectionID.String()
	}
	return strings.TrimSpace(ref)
}

func (m *Manager) Carts() []models.CartSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CartSummary, len(m.carts))
	copy(out, m.carts)
	return out
}

// Current returns the cart last loaded, or nil.
func (m *Manager) Current() *models.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCart(m.current)
}

func copyCart(c *models.Cart) *models.Cart {
	if c == nil {
		return nil
	}
	cart := *c
	cart.Items = append([]models.CartItem(nil), c.Items...)
	return &cart
}

func (m *Manager) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentID
}

// Clear drops all cart state, used on logout.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = []models.CartSummary{}
	m.current = nil
	m.currentID = ""
}
