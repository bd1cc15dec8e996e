package resume

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// resumeSchema validates the tailored JSON before it is trusted. The model
// occasionally drops keys or returns strings where arrays belong.
const resumeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["first_name", "last_name", "email", "summary", "skills", "experience"],
  "properties": {
    "first_name": {"type": "string", "minLength": 1},
    "last_name": {"type": "string"},
    "email": {"type": "string", "minLength": 3},
    "phone": {"type": "string"},
    "address": {"type": "string"},
    "summary": {"type": "string", "minLength": 1},
    "skills": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 1
    },
    "job_titles": {
      "type": "array",
      "items": {"type": "string"}
    },
    "experience": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["company", "role"],
        "properties": {
          "company": {"type": "string", "minLength": 1},
          "role": {"type": "string", "minLength": 1},
          "start_date": {"type": "string"},
          "end_date": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "degree": {"type": "string"},
          "institution": {"type": "string"},
          "graduation_year": {"type": "string"}
        }
      }
    },
    "certifications": {"type": "array", "items": {"type": "string"}},
    "languages": {"type": "array", "items": {"type": "string"}}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(resumeSchema)

// ValidateJSON checks a tailored resume document against the schema and
// returns a single error listing every violation.
func ValidateJSON(document []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("tailored resume failed validation: %s", strings.Join(problems, "; "))
}
