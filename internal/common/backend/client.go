// Package backend is the typed client for the shopping-assistant chat and
// collection endpoints.
package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"shopping-assistant/internal/common/errors"
	httpclient "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"
)

// Client wraps the JSON transport with endpoint paths, response validation
// and decoding.
type Client struct {
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(transport *httpclient.Client, log logger.Logger) *Client {
	return &Client{http: transport, logger: log}
}

// call performs the request, validates the body against schema and decodes it into out.
func (c *Client) call(ctx context.Context, operation, method, path string, body interface{}, schema string, out interface{}) error {
	resp, err := c.http.Do(ctx, operation, method, path, body)
	if err != nil {
		return err
	}

	payload := resp.Body
	if len(strings.TrimSpace(string(payload))) == 0 {
		payload = []byte("null")
	}

	if schema != "" {
		violations, err := validation.ValidateResponse(schema, payload)
		if err != nil {
			return errors.NewInternalError(err)
		}
		if len(violations) > 0 {
			c.logger.Warn("backend response failed schema validation", map[string]interface{}{
				"operation":  operation,
				"requestId":  resp.RequestID,
				"violations": violations,
			})
			return errors.NewResponseSchemaInvalidError(path, violations)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return errors.NewResponseDecodeFailedError(path, err)
	}
	return nil
}

func segment(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if !validation.ValidateChatID(value) {
		return "", errors.NewInvalidInputError(field, "identifier must be alphanumeric, '-' or '_'")
	}
	return url.PathEscape(value), nil
}

// ListChats fetches the user's chat history.
func (c *Client) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	id, err := segment("user_id", userID)
	if err != nil {
		return nil, err
	}
	var chats []models.ChatSummary
	if err := c.call(ctx, "chat.list", http.MethodGet, "/api/v1/chat/list/"+id, nil, validation.SchemaChatList, &chats); err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []models.ChatSummary{}
	}
	return chats, nil
}

// GetChat fetches every recorded turn of one chat.
func (c *Client) GetChat(ctx context.Context, chatID string) (*models.ChatDetail, error) {
	id, err := segment("chat_id", chatID)
	if err != nil {
		return nil, err
	}
	var detail models.ChatDetail
	if err := c.call(ctx, "chat.detail", http.MethodGet, "/api/v1/chat/"+id, nil, validation.SchemaChatDetail, &detail); err != nil {
		return nil, err
	}
	if detail.ChatID == "" {
		detail.ChatID = models.StringOrNumber(chatID)
	}
	return &detail, nil
}

// SendMessage posts one user input. An empty ChatID starts a new chat.
func (c *Client) SendMessage(ctx context.Context, req models.SendMessageRequest) (*models.SendMessageResponse, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return nil, errors.NewInvalidInputError("user_input", "message must not be empty")
	}
	if req.ChatID != "" && !validation.ValidateChatID(req.ChatID) {
		return nil, errors.NewInvalidInputError("chat_id", "identifier must be alphanumeric, '-' or '_'")
	}
	var resp models.SendMessageResponse
	if err := c.call(ctx, "chat.send", http.MethodPost, "/api/v1/chat/send", req, validation.SchemaChatSend, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListCarts(ctx context.Context, userID string) ([]models.CartSummary, error) {
	id, err := segment("user_id", userID)
	if err != nil {
		return nil, err
	}
	var carts []models.CartSummary
	if err := c.call(ctx, "cart.list", http.MethodGet, "/api/v1/collection/list/"+id, nil, validation.SchemaCartList, &carts); err != nil {
		return nil, err
	}
	if carts == nil {
		carts = []models.CartSummary{}
	}
	return carts, nil
}

func (c *Client) CreateCart(ctx context.Context, req models.CreateCartRequest) (*models.Cart, error) {
	if result := validation.ValidateTitle(req.CollectionTitle); !result.Valid {
		first := result.First()
		return nil, errors.NewInvalidInputError(first.Field, first.Message)
	}
	req.CollectionTitle = strings.TrimSpace(req.CollectionTitle)
	var cart models.Cart
	if err := c.call(ctx, "cart.create", http.MethodPost, "/api/v1/collection/create", req, validation.SchemaCartCreate, &cart); err != nil {
		return nil, err
	}
	if cart.CollectionTitle == "" {
		cart.CollectionTitle = req.CollectionTitle
	}
	return &cart, nil
}

func (c *Client) GetCart(ctx context.Context, collectionID string) (*models.Cart, error) {
	id, err := segment("collection_id", collectionID)
	if err != nil {
		return nil, err
	}
	var cart models.Cart
	if err := c.call(ctx, "cart.detail", http.MethodGet, "/api/v1/collection/"+id, nil, validation.SchemaCartDetail, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func (c *Client) AddToCart(ctx context.Context, req models.AddToCartRequest) (*models.MessageResponse, error) {
	if _, err := segment("collection_id", req.CollectionID); err != nil {
		return nil, err
	}
	if _, err := segment("product_id", req.ProductID); err != nil {
		return nil, err
	}
	var resp models.MessageResponse
	if err := c.call(ctx, "cart.add", http.MethodPost, "/api/v1/collection/register", req, validation.SchemaMessageBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, collectionID, itemID string) (*models.MessageResponse, error) {
	cid, err := segment("collection_id", collectionID)
	if err != nil {
		return nil, err
	}
	iid, err := segment("item_id", itemID)
	if err != nil {
		return nil, err
	}
	var resp models.MessageResponse
	if err := c.call(ctx, "cart.remove", http.MethodDelete, "/api/v1/collection/"+cid+"/"+iid, nil, validation.SchemaMessageBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteCart(ctx context.Context, collectionID string) (*models.MessageResponse, error) {
	id, err := segment("collection_id", collectionID)
	if err != nil {
		return nil, err
	}
	var resp models.MessageResponse
	if err := c.call(ctx, "cart.delete", http.MethodDelete, "/api/v1/collection/"+id, nil, validation.SchemaMessageBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
