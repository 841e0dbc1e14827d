package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaFile = "checkpoint.schema.json"

// Schema describes a serialized checkpoint document.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "time": {"type": "integer"},
    "local": {"type": "integer", "minimum": 0},
    "localCompleted": {
      "type": "array",
      "minItems": 2,
      "items": {"type": "integer", "minimum": 0}
    },
    "remote": {"not": {"type": "null"}}
  }
}`

var compiledSchema = jsonschema.MustCompileString(schemaFile, Schema)

// Validate strictly checks a serialized checkpoint. Unlike Deserialize, which
// reads whatever it can, Validate rejects documents that do not match Schema,
// odd-length "localCompleted" arrays and zero-length ranges.
func Validate(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("unmarshal checkpoint data: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("validate checkpoint data: %w", err)
	}
	doc, _ := v.(map[string]any)
	pairs, _ := doc[KeyLocalCompleted].([]any)
	if len(pairs)%2 != 0 {
		return fmt.Errorf("validate checkpoint data: %s has odd length %d", KeyLocalCompleted, len(pairs))
	}
	for i := 1; i < len(pairs); i += 2 {
		if length, _ := asUnsigned(pairs[i]); length == 0 {
			return fmt.Errorf("validate checkpoint data: %s has empty range at %d", KeyLocalCompleted, i-1)
		}
	}
	return nil
}
