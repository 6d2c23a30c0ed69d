package utils

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GetSchemaFromConfig returns the indented JSON schema of config's type.
// Fields are named by their json tags.
func GetSchemaFromConfig(config any) (string, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schemaBytes, err := json.MarshalIndent(reflector.Reflect(config), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
