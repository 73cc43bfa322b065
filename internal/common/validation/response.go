package validation

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names accepted by ValidateResponse.
const (
	SchemaLogin       = "login"
	SchemaSignup      = "signup"
	SchemaProfile     = "profile"
	SchemaChatList    = "chat.list"
	SchemaChatDetail  = "chat.detail"
	SchemaChatSend    = "chat.send"
	SchemaCartList    = "cart.list"
	SchemaCartCreate  = "cart.create"
	SchemaCartDetail  = "cart.detail"
	SchemaMessageBody = "message"
)

var identifier = map[string]interface{}{"type": []interface{}{"string", "integer"}}

var optionalIdentifier = map[string]interface{}{"type": []interface{}{"string", "integer", "null"}}

var productSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"product_name", "rank"},
	"properties": map[string]interface{}{
		"product_id":    optionalIdentifier,
		"product_name":  map[string]interface{}{"type": "string"},
		"product_link":  map[string]interface{}{"type": []interface{}{"string", "null"}},
		"product_price": map[string]interface{}{"type": []interface{}{"string", "number", "null"}},
		"rank":          map[string]interface{}{"type": "integer", "minimum": 1},
		"image": map[string]interface{}{
			"type": []interface{}{"object", "null"},
			"properties": map[string]interface{}{
				"image_url": map[string]interface{}{"type": []interface{}{"string", "null"}},
			},
		},
	},
}

var recommendSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"recommend_text", "rank"},
	"properties": map[string]interface{}{
		"recommend_id":   optionalIdentifier,
		"recommend_text": map[string]interface{}{"type": "string"},
		"rank":           map[string]interface{}{"type": "integer", "minimum": 1},
	},
}

var chatTurnSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"user_input"},
	"properties": map[string]interface{}{
		"user_input":   map[string]interface{}{"type": "string"},
		"keyword_text": map[string]interface{}{"type": []interface{}{"string", "null"}},
		"products":     map[string]interface{}{"type": []interface{}{"array", "null"}, "items": productSchema},
		"recommend":    map[string]interface{}{"type": []interface{}{"array", "null"}, "items": recommendSchema},
	},
}

var chatLog = map[string]interface{}{"type": "array", "items": chatTurnSchema}

var cartItemSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"item_id", "product_name"},
	"properties": map[string]interface{}{
		"item_id":      identifier,
		"product_name": map[string]interface{}{"type": "string"},
	},
}

var responseSchemas = map[string]map[string]interface{}{
	SchemaLogin: {
		"type":       "object",
		"required":   []interface{}{"user_id"},
		"properties": map[string]interface{}{"user_id": identifier},
	},
	SchemaSignup: {
		"type": "object",
		"properties": map[string]interface{}{
			"user_id": optionalIdentifier,
			"message": map[string]interface{}{"type": []interface{}{"string", "null"}},
		},
	},
	SchemaProfile: {
		"type":     "object",
		"required": []interface{}{"user_id", "email"},
		"properties": map[string]interface{}{
			"user_id": identifier,
			"email":   map[string]interface{}{"type": "string"},
			"age":     map[string]interface{}{"type": []interface{}{"integer", "null"}},
			"sex":     map[string]interface{}{"type": []interface{}{"string", "null"}},
		},
	},
	SchemaChatList: {
		"type": "array",
		"items": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"chat_id"},
			"properties": map[string]interface{}{
				"chat_id": identifier,
				"title":   map[string]interface{}{"type": []interface{}{"string", "null"}},
				// A bad timestamp drops the record from grouping, not the whole list.
				"updated_at": map[string]interface{}{"type": []interface{}{"string", "null"}},
			},
		},
	},
	SchemaChatDetail: {
		"type":       "object",
		"required":   []interface{}{"chat_log"},
		"properties": map[string]interface{}{"chat_id": optionalIdentifier, "chat_log": chatLog},
	},
	SchemaChatSend: {
		"type":     "object",
		"required": []interface{}{"chat_id", "chat_log"},
		"properties": map[string]interface{}{
			"chat_id":  identifier,
			"title":    map[string]interface{}{"type": []interface{}{"string", "null"}},
			"chat_log": map[string]interface{}{"type": "array", "items": chatTurnSchema, "minItems": 1},
		},
	},
	SchemaCartList: {
		"type": "array",
		"items": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"collection_id", "collection_title"},
			"properties": map[string]interface{}{
				"collection_id":    identifier,
				"collection_title": map[string]interface{}{"type": "string"},
			},
		},
	},
	SchemaCartCreate: {
		"type":     "object",
		"required": []interface{}{"collection_id"},
		"properties": map[string]interface{}{
			"collection_id":    identifier,
			"collection_title": map[string]interface{}{"type": "string"},
		},
	},
	SchemaCartDetail: {
		"type":     "object",
		"required": []interface{}{"collection_id", "collection_title"},
		"properties": map[string]interface{}{
			"collection_id":    identifier,
			"collection_title": map[string]interface{}{"type": "string"},
			"items":            map[string]interface{}{"type": []interface{}{"array", "null"}, "items": cartItemSchema},
		},
	},
	SchemaMessageBody: {
		"type": []interface{}{"object", "null"},
		"properties": map[string]interface{}{
			"message": map[string]interface{}{"type": []interface{}{"string", "null"}},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	compiled = make(map[string]*gojsonschema.Schema, len(responseSchemas))
	for name, schemaMap := range responseSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		compiled[name] = schema
	}
}

// ValidateResponse checks a raw backend body against the named schema and
// returns one message per violation. A body that is not JSON is reported as a
// single violation.
func ValidateResponse(name string, body []byte) ([]string, error) {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return nil, compileErr
	}

	schema, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("unknown response schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return []string{fmt.Sprintf("(root): %s", err.Error())}, nil
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		violations[i] = desc.String()
	}
	return violations, nil
}
