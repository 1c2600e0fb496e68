// pkg/scenarios/schema.go
package scenarios

// scenarioSchema validates the scenario document supplied by the
// configuration source before the registry accepts it.
const scenarioSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["situation", "prompt", "competencies"],
		"properties": {
			"situation": {"type": "string", "minLength": 1},
			"prompt": {"type": "string", "minLength": 1},
			"bestResponseRationale": {"type": "string"},
			"worstResponseRationale": {"type": "string"},
			"competencies": {
				"type": "array",
				"items": {"type": "string", "minLength": 1}
			},
			"maxFollowUps": {"type": "integer", "minimum": 0, "maximum": 5},
			"penaltyPercent": {"type": "number", "minimum": 0, "maximum": 100}
		},
		"additionalProperties": false
	}
}`
