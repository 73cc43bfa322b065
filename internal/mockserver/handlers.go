package mockserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"
)

// Handler serves the shopping-assistant API on top of a Store and a Catalog.
type Handler struct {
	store     Store
	catalog   Catalog
	responder *Responder
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(store Store, c Catalog, responder *Responder, log logger.Logger) *Handler {
	return &Handler{
		store:     store,
		catalog:   c,
		responder: responder,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
	}
}

func (h *Handler) fail(c *gin.Context, operation string, err error) {
	status, body := h.errors.ToHTTP(operation, err)
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) bind(c *gin.Context, operation string, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		h.fail(c, operation, errors.NewInvalidInputError("body", err.Error()))
		return false
	}
	return true
}

func invalid(result *validation.ValidationResult) error {
	first := result.First()
	return errors.NewInvalidInputError(first.Field, strings.Join(result.GetErrorMessages(), "; "))
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bind(c, "login", &req) {
		return
	}
	if result := validation.ValidateLogin(req.Email, req.Password); !result.Valid {
		h.fail(c, "login", invalid(result))
		return
	}

	user, err := h.store.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, models.LoginResponse{UserID: user.UserID, Email: user.Email, Nickname: user.Nickname})
}

func (h *Handler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !h.bind(c, "signup", &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if result := validation.ValidateSignup(req.Email, req.Password, req.Nickname, req.Age, string(req.Sex)); !result.Valid {
		h.fail(c, "signup", invalid(result))
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "signup", err)
		return
	}
	c.JSON(http.StatusCreated, models.SignupResponse{UserID: user.UserID, Message: "회원가입이 완료되었습니다."})
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, "get_user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.store.ListChats(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, "list_chats", err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func (h *Handler) GetChat(c *gin.Context) {
	chat, err := h.store.GetChat(c.Request.Context(), c.Param("chat_id"))
	if err != nil {
		h.fail(c, "get_chat", err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if !h.bind(c, "send_message", &req) {
		return
	}
	input := strings.TrimSpace(req.UserInput)
	if input == "" {
		h.fail(c, "send_message", errors.NewInvalidInputError("user_input", "must not be empty"))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetUser(ctx, req.UserID); err != nil {
		h.fail(c, "send_message", err)
		return
	}

	turn, err := h.responder.Respond(ctx, input)
	if err != nil {
		h.fail(c, "send_message", err)
		return
	}

	summary, err := h.store.AppendTurn(ctx, req.UserID, req.ChatID, turn)
	if err != nil {
		h.fail(c, "send_message", err)
		return
	}

	c.JSON(http.StatusOK, models.SendMessageResponse{
		ChatID:  summary.ChatID,
		Title:   summary.Title,
		ChatLog: []models.ChatTurn{turn},
	})
}

func (h *Handler) ListCarts(c *gin.Context) {
	carts, err := h.store.ListCarts(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, "list_carts", err)
		return
	}
	c.JSON(http.StatusOK, carts)
}

func (h *Handler) CreateCart(c *gin.Context) {
	var req models.CreateCartRequest
	if !h.bind(c, "create_cart", &req) {
		return
	}
	if result := validation.ValidateTitle(req.CollectionTitle); !result.Valid {
		h.fail(c, "create_cart", invalid(result))
		return
	}

	cart, err := h.store.CreateCart(c.Request.Context(), req.UserID, strings.TrimSpace(req.CollectionTitle))
	if err != nil {
		h.fail(c, "create_cart", err)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.store.GetCart(c.Request.Context(), c.Param("collection_id"))
	if err != nil {
		h.fail(c, "get_cart", err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if !h.bind(c, "add_to_cart", &req) {
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		h.fail(c, "add_to_cart", errors.NewInvalidInputError("product_id", "is required"))
		return
	}

	ctx := c.Request.Context()
	product, err := h.catalog.Get(ctx, req.ProductID)
	if err != nil {
		h.fail(c, "add_to_cart", err)
		return
	}

	item := models.CartItem{
		ProductID:    models.StringOrNumber(product.ProductID),
		ProductName:  product.Name,
		ProductInfo:  product.Description,
		ProductLink:  product.Link,
		ProductPrice: models.StringOrNumber(strconv.Itoa(product.Price)),
		Image:        models.ProductImage{ImageURL: product.ImageURL},
	}
	if _, err := h.store.AddItem(ctx, req.CollectionID, item); err != nil {
		h.fail(c, "add_to_cart", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "상품이 장바구니에 담겼습니다."})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	if err := h.store.RemoveItem(c.Request.Context(), c.Param("collection_id"), c.Param("item_id")); err != nil {
		h.fail(c, "remove_cart_item", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "상품이 삭제되었습니다."})
}

func (h *Handler) DeleteCart(c *gin.Context) {
	if err := h.store.DeleteCart(c.Request.Context(), c.Param("collection_id")); err != nil {
		h.fail(c, "delete_cart", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "장바구니가 삭제되었습니다."})
}
