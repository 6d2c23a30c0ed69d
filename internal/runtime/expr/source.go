package expr

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// Source is a strategy file: one boolean expression per action. An empty
// expression never fires.
type Source struct {
	Name  string `yaml:"name" json:"name" validate:"required"`
	Buy   string `yaml:"buy" json:"buy,omitempty"`
	Sell  string `yaml:"sell" json:"sell,omitempty"`
	Short string `yaml:"short" json:"short,omitempty"`
	Cover string `yaml:"cover" json:"cover,omitempty"`
	// EngineVersion is the engine release the strategy was written for.
	EngineVersion string `yaml:"engine_version,omitempty" json:"engine_version,omitempty"`
	// Variables is the length of the variant vector the expressions may index.
	Variables int `yaml:"-" json:"-"`
}

// ParseSource decodes a strategy from YAML.
func ParseSource(data []byte) (Source, error) {
	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return Source{}, fmt.Errorf("failed to parse strategy: %w", err)
	}

	if err := validator.New().Struct(source); err != nil {
		return Source{}, fmt.Errorf("invalid strategy: %w", err)
	}

	return source, nil
}

// LoadSource reads and decodes a strategy file.
func LoadSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read strategy file %s: %w", path, err)
	}

	return ParseSource(data)
}
