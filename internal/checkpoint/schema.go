package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const recordSchemaURL = "schema://exploration-checkpoint.json"

var answerDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"answer": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"answer":       map[string]any{"type": "string"},
				"plain_answer": map[string]any{"type": "string"},
			},
			"required": []any{"answer"},
		},
		"feedback":    map[string]any{"type": "string"},
		"is_correct":  map[string]any{"type": "boolean"},
		"destination": map[string]any{"type": "string"},
	},
	"required": []any{"answer"},
}

var answerList = map[string]any{
	"type":  []any{"array", "null"},
	"items": answerDefinition,
}

// recordDefinition describes a stored checkpoint.
var recordDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"version":             map[string]any{"type": "integer", "minimum": 1},
		"session_id":          map[string]any{"type": "string"},
		"sequence":            map[string]any{"type": "integer", "minimum": 0},
		"exploration_title":   map[string]any{"type": "string"},
		"exploration_version": map[string]any{"type": "integer"},
		"pending_state_name":  map[string]any{"type": "string", "minLength": 1},
		"state_index":         map[string]any{"type": "integer", "minimum": 0},
		"completed_states": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"state_name": map[string]any{"type": "string", "minLength": 1},
					"answers":    answerList,
				},
				"required": []any{"state_name"},
			},
		},
		"pending_user_answers": answerList,
		"help_index": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"kind": map[string]any{
					"type": "string",
					"enum": []any{
						"not_set",
						"next_available_hint_index",
						"latest_revealed_hint_index",
						"show_solution",
						"everything_revealed",
					},
				},
				"index": map[string]any{"type": "integer", "minimum": 0},
			},
			"required": []any{"kind"},
		},
		"timestamp_ms": map[string]any{"type": "integer"},
	},
	"required": []any{"version", "pending_state_name", "state_index", "help_index"},
}

func compileRecordSchema() (*jsonschema.Schema, error) {
	def, err := parseJSON(recordDefinition)
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(recordSchemaURL, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(recordSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return compiled, nil
}

// parseJSON turns v into the generic representation the validator expects.
func parseJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}
