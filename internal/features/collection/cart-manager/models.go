package cartmanager

import (
	"context"

	"shopping-assistant/internal/models"
)

// Backend is the part of the API client the cart manager needs.
type Backend interface {
	ListCarts(ctx context.Context, userID string) ([]models.CartSummary, error)
	CreateCart(ctx context.Context, req models.CreateCartRequest) (*models.Cart, error)
	GetCart(ctx context.Context, collectionID string) (*models.Cart, error)
	AddToCart(ctx context.Context, req models.AddToCartRequest) (*models.MessageResponse, error)
	RemoveCartItem(ctx context.Context, collectionID, itemID string) (*models.MessageResponse, error)
	DeleteCart(ctx context.Context, collectionID string) (*models.MessageResponse, error)
}
