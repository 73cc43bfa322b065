package models

// CartSummary is one entry of the user's collection list.
type CartSummary struct {
	CollectionID    StringOrNumber `json:"collection_id"`
	CollectionTitle string         `json:"collection_title"`
}

type Cart struct {
	CollectionID    StringOrNumber `json:"collection_id"`
	CollectionTitle string         `json:"collection_title"`
	UserID          StringOrNumber `json:"user_id,omitempty"`
	CreatedAt       string         `json:"created_at,omitempty"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
	Items           []CartItem     `json:"items"`
}

type CartItem struct {
	ItemID       StringOrNumber `json:"item_id"`
	ProductID    StringOrNumber `json:"product_id,omitempty"`
	ProductName  string         `json:"product_name"`
	ProductInfo  string         `json:"product_info,omitempty"`
	ProductLink  string         `json:"product_link,omitempty"`
	ProductPrice StringOrNumber `json:"product_price,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
	Image        ProductImage   `json:"image"`
}

type CreateCartRequest struct {
	UserID          string `json:"user_id"`
	CollectionTitle string `json:"collection_title"`
}

type AddToCartRequest struct {
	UserID       string `json:"user_id"`
	CollectionID string `json:"collection_id"`
	ProductID    string `json:"product_id"`
}

// MessageResponse is the generic acknowledgement body of mutating endpoints.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}
