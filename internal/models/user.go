package models

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID   StringOrNumber `json:"user_id"`
	Email    string         `json:"email,omitempty"`
	Nickname string         `json:"nickname,omitempty"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Age      int    `json:"age"`
	Sex      Sex    `json:"sex"`
}

type SignupResponse struct {
	UserID  StringOrNumber `json:"user_id,omitempty"`
	Message string         `json:"message,omitempty"`
}

// UserProfile is the account view returned by the user endpoint.
type UserProfile struct {
	UserID   StringOrNumber `json:"user_id"`
	Email    string         `json:"email"`
	Nickname string         `json:"nickname"`
	Age      int            `json:"age,omitempty"`
	Sex      Sex            `json:"sex,omitempty"`
}
