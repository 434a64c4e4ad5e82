package usecase

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Model answers are checked against these before they are decoded into
// domain types. Fields are optional; only their shapes are constrained.
const recommendationsSchemaJSON = `{
  "type": "object",
  "properties": {
    "skills": {"type": "array", "items": {"type": "string"}},
    "recommended_next_skills": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "skill": {"type": "string"},
          "description": {"type": "string"},
          "market_demand_percent": {"type": "integer"},
          "career_outcome": {"type": "string"}
        }
      }
    },
    "role_suggestions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "role": {"type": "string"},
          "required_skills": {"type": "array", "items": {"type": "string"}},
          "matched_skills": {"type": "array", "items": {"type": "string"}},
          "percent_complete": {"type": "integer"}
        }
      }
    },
    "learning_path": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "stage": {"type": "string"},
          "skills": {"type": "array", "items": {"type": "string"}},
          "est_time_weeks": {"type": "integer"}
        }
      }
    },
    "recommended_courses": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "provider": {"type": "string"},
          "url": {"type": "string"}
        }
      }
    },
    "nsqf_level": {"type": "integer"},
    "nsqf_confidence": {"type": "number"}
  }
}`

const stackabilitySchemaJSON = `{
  "type": "object",
  "properties": {
    "pathways": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["pathway_title"],
        "properties": {
          "pathway_title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "next_credential": {"type": "string"},
          "estimated_duration": {"type": "string"},
          "progress_percentage": {"type": "number"},
          "skills": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name"],
              "properties": {
                "name": {"type": "string"},
                "credits_earned": {"type": "number"},
                "credits_total": {"type": "number"},
                "status": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	recommendationsSchema = mustCompileSchema("recommendations.json", recommendationsSchemaJSON)
	stackabilitySchema    = mustCompileSchema("stackability.json", stackabilitySchemaJSON)
)

func mustCompileSchema(name, doc string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

func validateAgainst(schema *jsonschema.Schema, obj map[string]any) error {
	if err := schema.Validate(obj); err != nil {
		return fmt.Errorf("model json does not match schema: %w", err)
	}
	return nil
}
