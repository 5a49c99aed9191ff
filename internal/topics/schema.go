package topics

// topicSchema is the JSON schema a topic file must satisfy before it is
// decoded. Ids may not contain commas.
var topicSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id": map[string]any{
			"type":        "string",
			"pattern":     "^[^,]+$",
			"description": "Stable topic id used in URLs and CLI arguments",
		},
		"title": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":   map[string]any{"type": "string", "pattern": "^[^,]+$"},
					"text": map[string]any{"type": "string", "minLength": 1},
					"answers": map[string]any{
						"type":     "array",
						"minItems": 2,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"id":      map[string]any{"type": "string", "pattern": "^[^,]+$"},
								"text":    map[string]any{"type": "string", "minLength": 1},
								"correct": map[string]any{"type": "boolean"},
							},
							"required":             []any{"id", "text"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []any{"id", "text", "answers"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"id", "title"},
	"additionalProperties": false,
}
