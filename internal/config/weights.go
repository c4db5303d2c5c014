package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"matchmaking/internal/domain/matching"

	"gopkg.in/yaml.v3"
)

var errInvalidWeights = errors.New("invalid matching weights")

type weightsFile struct {
	Weights matching.Weights `yaml:"weights"`
}

// LoadWeights reads scoring weights from a YAML file. Keys missing from the
// file keep their default value; an empty path returns the defaults.
func LoadWeights(path string) (matching.Weights, error) {
	if path == "" {
		return matching.DefaultWeights(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return matching.Weights{}, fmt.Errorf("read weights file: %w", err)
	}
	return ParseWeights(b)
}

func ParseWeights(b []byte) (matching.Weights, error) {
	out := weightsFile{Weights: matching.DefaultWeights()}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return matching.Weights{}, fmt.Errorf("%w: %v", errInvalidWeights, err)
	}

	w := out.Weights
	for name, v := range map[string]int{
		"geo":                 w.Geo,
		"industry":            w.Industry,
		"stage_match":         w.StageMatch,
		"stage_partial":       w.StagePartial,
		"stage_undeclared":    w.StageUndeclared,
		"ticket_match":        w.TicketMatch,
		"ticket_near":         w.TicketNear,
		"ticket_non_investor": w.TicketNonInvest,
	} {
		if v < 0 || v > 100 {
			return matching.Weights{}, fmt.Errorf("%w: %s=%d out of range 0..100", errInvalidWeights, name, v)
		}
	}
	if w.TicketNearRatio < 0 {
		return matching.Weights{}, fmt.Errorf("%w: ticket_near_ratio must not be negative", errInvalidWeights)
	}
	return w, nil
}
