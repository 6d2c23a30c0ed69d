package engine

import (
	"math"
	"slices"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
	"github.com/rxtech-lab/argo-tickbench/pkg/errors"
)

// VariantMode selects how parameter vectors are generated.
type VariantMode string

const (
	// VariantModeSingle evaluates the Values vector only.
	VariantModeSingle VariantMode = "single"
	// VariantModeTurn groups by the values of variable 0 and crosses the
	// ranges of the remaining variables inside each group.
	VariantModeTurn VariantMode = "turn"
	// VariantModeBatch evaluates pre-generated vectors.
	VariantModeBatch VariantMode = "batch"
)

const (
	// MaxVariantValues is the most distinct values a single variable may take.
	MaxVariantValues = 20
	// MaxGroupCombinations is the most vectors sharing one look-back group.
	MaxGroupCombinations = 50
)

// VariableRange is an inclusive arithmetic range of one variable.
type VariableRange struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
	Step  float64 `yaml:"step" json:"step"`
}

// VariantConfig declares the parameter vectors to evaluate.
type VariantConfig struct {
	Mode VariantMode `yaml:"mode" json:"mode" jsonschema:"enum=single,enum=turn,enum=batch"`
	// Values is the vector used in single mode.
	Values []float64 `yaml:"values" json:"values,omitempty"`
	// Ranges is one range per variable in turn mode.
	Ranges []VariableRange `yaml:"ranges" json:"ranges,omitempty"`
	// Batch holds the vectors used in batch mode.
	Batch [][]float64 `yaml:"batch" json:"batch,omitempty"`
}

// values returns the points of the range.
func (r VariableRange) values() ([]float64, error) {
	if r.Step == 0 && r.Start == r.End {
		return []float64{r.Start}, nil
	}

	if r.Step <= 0 || r.End < r.Start {
		return nil, errors.Newf(errors.ErrCodeInvalidVariableRange,
			"invalid variable range start=%v end=%v step=%v", r.Start, r.End, r.Step)
	}

	count := int(math.Floor((r.End-r.Start)/r.Step+1e-9)) + 1
	if count > MaxVariantValues {
		return nil, errors.Newf(errors.ErrCodeTooManyVariantValues,
			"variable range yields %d values, at most %d are allowed", count, MaxVariantValues)
	}

	values := make([]float64, 0, count)
	for i := range count {
		values = append(values, roundValue(r.Start+float64(i)*r.Step))
	}

	return values, nil
}

// roundValue removes accumulated float noise from range points.
func roundValue(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

// Expand generates the variants in group, key order. Group is the index of
// the distinct variable 0 value, Key the index inside the group.
func (c VariantConfig) Expand() ([]types.Variant, error) {
	var vectors [][]float64

	switch c.Mode {
	case VariantModeSingle, "":
		vectors = [][]float64{c.Values}
	case VariantModeTurn:
		crossed, err := c.cross()
		if err != nil {
			return nil, err
		}

		vectors = crossed
	case VariantModeBatch:
		vectors = c.Batch
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown variant mode %q", c.Mode)
	}

	if len(vectors) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no variants to evaluate")
	}

	if err := checkDistinct(vectors); err != nil {
		return nil, err
	}

	return group(vectors)
}

func (c VariantConfig) cross() ([][]float64, error) {
	if len(c.Ranges) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "turn mode requires at least one range")
	}

	vectors := [][]float64{{}}

	for _, r := range c.Ranges {
		values, err := r.values()
		if err != nil {
			return nil, err
		}

		next := make([][]float64, 0, len(vectors)*len(values))
		for _, prefix := range vectors {
			for _, v := range values {
				next = append(next, append(slices.Clone(prefix), v))
			}
		}

		vectors = next
	}

	return vectors, nil
}

func checkDistinct(vectors [][]float64) error {
	distinct := map[int]map[float64]struct{}{}

	for _, vector := range vectors {
		for i, v := range vector {
			if distinct[i] == nil {
				distinct[i] = map[float64]struct{}{}
			}

			distinct[i][v] = struct{}{}

			if len(distinct[i]) > MaxVariantValues {
				return errors.Newf(errors.ErrCodeTooManyVariantValues,
					"variable %d takes more than %d distinct values", i, MaxVariantValues)
			}
		}
	}

	return nil
}

func group(vectors [][]float64) ([]types.Variant, error) {
	order := []float64{}
	members := map[float64][][]float64{}

	for _, vector := range vectors {
		lead := 0.0
		if len(vector) > 0 {
			lead = vector[0]
		}

		if _, ok := members[lead]; !ok {
			order = append(order, lead)
		}

		members[lead] = append(members[lead], vector)
	}

	slices.Sort(order)

	variants := make([]types.Variant, 0, len(vectors))

	for g, lead := range order {
		if len(members[lead]) > MaxGroupCombinations {
			return nil, errors.Newf(errors.ErrCodeTooManyCombinations,
				"group %v has %d combinations, at most %d are allowed", lead, len(members[lead]), MaxGroupCombinations)
		}

		for k, vector := range members[lead] {
			variants = append(variants, types.Variant{
				VariantKey: types.VariantKey{Group: g, Key: k},
				Vars:       slices.Clone(vector),
			})
		}
	}

	return variants, nil
}

// Lookbacks returns the distinct positive look-back lengths of variants.
func Lookbacks(variants []types.Variant) []int {
	lookbacks := []int{}

	for _, variant := range variants {
		if l := variant.Lookback(); l > 0 && !slices.Contains(lookbacks, l) {
			lookbacks = append(lookbacks, l)
		}
	}

	slices.Sort(lookbacks)

	return lookbacks
}

// Width returns the length of the generated vectors.
func (c VariantConfig) Width() int {
	switch c.Mode {
	case VariantModeTurn:
		return len(c.Ranges)
	case VariantModeBatch:
		width := 0
		for _, vector := range c.Batch {
			width = max(width, len(vector))
		}

		return width
	default:
		return len(c.Values)
	}
}
