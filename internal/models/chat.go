package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StringOrNumber holds an identifier or amount the backend may send either as a
// JSON string or as a JSON number. It always marshals as a string.
type StringOrNumber string

func (s *StringOrNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = StringOrNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*s = StringOrNumber(num.String())
	return nil
}

func (s StringOrNumber) String() string {
	return string(s)
}

// Int returns the numeric value, or false when the value is not an integer.
func (s StringOrNumber) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(s), 10, 64)
	return n, err == nil
}

// ChatSummary is one entry of the chat history list.
type ChatSummary struct {
	ChatID    StringOrNumber `json:"chat_id"`
	Title     string         `json:"title"`
	UpdatedAt string         `json:"updated_at"`
}

// ChatTurn is one backend-recorded exchange.
type ChatTurn struct {
	ChatLogID      StringOrNumber   `json:"chat_log_id,omitempty"`
	UserInput      string           `json:"user_input"`
	KeywordText    string           `json:"keyword_text"`
	SEOKeywordText string           `json:"seo_keyword_text,omitempty"`
	Products       []Product        `json:"products"`
	Recommend      []Recommendation `json:"recommend"`
}

type Product struct {
	ProductID    StringOrNumber `json:"product_id"`
	ProductName  string         `json:"product_name"`
	ProductLink  string         `json:"product_link"`
	ProductPrice StringOrNumber `json:"product_price"`
	Rank         int            `json:"rank"`
	Image        ProductImage   `json:"image"`
}

type ProductImage struct {
	ImageID   StringOrNumber `json:"image_id,omitempty"`
	ImageURL  string         `json:"image_url"`
	CreatedAt string         `json:"created_at,omitempty"`
}

type Recommendation struct {
	RecommendID   StringOrNumber `json:"recommend_id"`
	RecommendText string         `json:"recommend_text"`
	Rank          int            `json:"rank"`
}

// ChatDetail is the payload of a single chat fetch.
type ChatDetail struct {
	ChatID  StringOrNumber `json:"chat_id,omitempty"`
	Title   string         `json:"title,omitempty"`
	ChatLog []ChatTurn     `json:"chat_log"`
}

type SendMessageRequest struct {
	UserID    string `json:"user_id"`
	ChatID    string `json:"chat_id,omitempty"`
	UserInput string `json:"user_input"`
}

// SendMessageResponse carries the new turn; only ChatLog[0] is rendered.
type SendMessageResponse struct {
	ChatID  StringOrNumber `json:"chat_id"`
	Title   string         `json:"title"`
	ChatLog []ChatTurn     `json:"chat_log"`
}
