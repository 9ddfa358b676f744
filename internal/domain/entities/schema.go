package entities

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	domainerrors "chat-ledger.backend/internal/domain/errors"
)

const conversationSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "wallet_address", "title", "messages", "created_at", "updated_at"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "wallet_address": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "created_at": {"type": "string"},
    "updated_at": {"type": "string"},
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "role", "content", "timestamp", "is_minted"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "role": {"enum": ["user", "assistant", "system"]},
          "content": {"type": "string"},
          "timestamp": {"type": "string"},
          "is_minted": {"type": "boolean"}
        }
      }
    }
  }
}`

const mintRecordSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "conversation_id", "message_ids", "wallet_address", "ipfs_hash", "is_listed", "minted_at"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "conversation_id": {"type": "string", "minLength": 1},
    "message_ids": {"type": "array", "items": {"type": "string"}},
    "wallet_address": {"type": "string", "minLength": 1},
    "ipfs_hash": {"type": "string", "minLength": 1},
    "tx_hash": {"type": ["string", "null"]},
    "token_id": {"type": ["integer", "null"]},
    "listing_id": {"type": ["integer", "null"]},
    "price": {"type": "number", "minimum": 0},
    "is_listed": {"type": "boolean"},
    "minted_at": {"type": "string"}
  }
}`

const mintMetadataSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "description", "owner", "conversation_id", "message_ids", "conversation", "created_at"],
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"},
    "owner": {"type": "string", "minLength": 1},
    "conversation_id": {"type": "string", "minLength": 1},
    "message_ids": {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "conversation": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "role", "content", "timestamp"]
      }
    },
    "created_at": {"type": "string"}
  }
}`

var (
	conversationSchema = jsonschema.MustCompileString("conversation.schema.json", conversationSchemaJSON)
	mintRecordSchema   = jsonschema.MustCompileString("mint-record.schema.json", mintRecordSchemaJSON)
	mintMetadataSchema = jsonschema.MustCompileString("mint-metadata.schema.json", mintMetadataSchemaJSON)
)

func validateDocument(schema *jsonschema.Schema, blob []byte) error {
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrInvalidSnapshot, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrInvalidSnapshot, err)
	}
	return nil
}
