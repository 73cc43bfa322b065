package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		nickname string
		age      int
		sex      string
		fields   []string
	}{
		{name: "valid", email: "kim@example.com", password: "password1", nickname: "kim", age: 30, sex: "female"},
		{name: "bad email", email: "kim@", password: "password1", nickname: "kim", age: 30, sex: "male", fields: []string{"email"}},
		{name: "short password", email: "kim@example.com", password: "short", nickname: "kim", age: 30, sex: "male", fields: []string{"password"}},
		{name: "blank nickname", email: "kim@example.com", password: "password1", nickname: "  ", age: 30, sex: "male", fields: []string{"nickname"}},
		{name: "age out of range", email: "kim@example.com", password: "password1", nickname: "kim", age: 0, sex: "male", fields: []string{"age"}},
		{name: "unknown sex", email: "kim@example.com", password: "password1", nickname: "kim", age: 20, sex: "other", fields: []string{"sex"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSignup(tt.email, tt.password, tt.nickname, tt.age, tt.sex)
			assert.Equal(t, len(tt.fields) == 0, result.Valid)
			for _, field := range tt.fields {
				assert.True(t, result.HasErrors(field), "expected error on %s: %v", field, result.GetErrorMessages())
			}
		})
	}
}

func TestValidateChatID(t *testing.T) {
	assert.True(t, ValidateChatID("42"))
	assert.True(t, ValidateChatID("c1f0e2a4-77b1"))
	assert.False(t, ValidateChatID(""))
	assert.False(t, ValidateChatID("../admin"))
	assert.False(t, ValidateChatID("1 2"))
}

func TestValidateTitle(t *testing.T) {
	assert.True(t, ValidateTitle(" 여름 옷 ").Valid)
	result := ValidateTitle("   ")
	require.False(t, result.Valid)
	assert.Equal(t, "collection_title", result.First().Field)
}

func TestValidateResponse_ChatList(t *testing.T) {
	violations, err := ValidateResponse(SchemaChatList, []byte(`[
		{"chat_id": 1, "title": "셔츠", "updated_at": "2025-06-04 18:50:43.895283"},
		{"chat_id": "abc", "title": null, "updated_at": "2025-06-03T10:00:00Z"}
	]`))
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = ValidateResponse(SchemaChatList, []byte(`[{"title": "no id"}]`))
	require.NoError(t, err)
	assert.NotEmpty(t, violations)
}

func TestValidateResponse_ChatSendToleratesNullArrays(t *testing.T) {
	violations, err := ValidateResponse(SchemaChatSend, []byte(`{
		"chat_id": 7,
		"title": "운동화",
		"chat_log": [{"user_input": "운동화", "keyword_text": "운동화", "products": null, "recommend": null}]
	}`))
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestValidateResponse_RejectsBadRank(t *testing.T) {
	violations, err := ValidateResponse(SchemaChatDetail, []byte(`{
		"chat_log": [{"user_input": "x", "products": [{"product_name": "a", "rank": 0}]}]
	}`))
	require.NoError(t, err)
	assert.NotEmpty(t, violations)
}

func TestValidateResponse_NotJSON(t *testing.T) {
	violations, err := ValidateResponse(SchemaLogin, []byte(`<html>`))
	require.NoError(t, err)
	assert.Len(t, violations, 1)
}

func TestValidateResponse_UnknownSchema(t *testing.T) {
	_, err := ValidateResponse("nope", []byte(`{}`))
	assert.Error(t, err)
}
