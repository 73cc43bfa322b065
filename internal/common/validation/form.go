// Package validation checks user input before it is sent and backend
// responses before they are decoded.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MinAge            = 1
	MaxAge            = 120
	MaxTitleLength    = 100
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	chatIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (vr *ValidationResult) add(field, message, code string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message, Code: code})
	vr.Valid = false
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// First returns the first error, for callers that report one problem at a time.
func (vr *ValidationResult) First() *ValidationError {
	if len(vr.Errors) == 0 {
		return nil
	}
	return &vr.Errors[0]
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateChatID accepts the identifiers the backend issues for chats and collections.
func ValidateChatID(id string) bool {
	return chatIDPattern.MatchString(id)
}

// ValidateLogin checks the login form.
func ValidateLogin(email, password string) *ValidationResult {
	result := &ValidationResult{Valid: true}
	if !ValidateEmail(strings.TrimSpace(email)) {
		result.add("email", "must be a valid email address", "INVALID_EMAIL")
	}
	if password == "" {
		result.add("password", "is required", "REQUIRED_FIELD_MISSING")
	}
	return result
}

// ValidateSignup checks the signup form.
func ValidateSignup(email, password, nickname string, age int, sex string) *ValidationResult {
	result := ValidateLogin(email, password)
	if password != "" && utf8.RuneCountInString(password) < MinPasswordLength {
		result.add("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength), "MIN_LENGTH_VIOLATION")
	}
	if strings.TrimSpace(nickname) == "" {
		result.add("nickname", "is required", "REQUIRED_FIELD_MISSING")
	}
	if age < MinAge || age > MaxAge {
		result.add("age", fmt.Sprintf("must be between %d and %d", MinAge, MaxAge), "RANGE_VIOLATION")
	}
	if sex != "male" && sex != "female" {
		result.add("sex", "must be one of [male female]", "INVALID_ENUM_VALUE")
	}
	return result
}

// ValidateTitle checks a cart title after trimming.
func ValidateTitle(title string) *ValidationResult {
	result := &ValidationResult{Valid: true}
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		result.add("collection_title", "is required", "REQUIRED_FIELD_MISSING")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		result.add("collection_title", fmt.Sprintf("must be at most %d characters", MaxTitleLength), "MAX_LENGTH_VIOLATION")
	}
	return result
}
