package scorer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// artifact is the on-disk model envelope. Exactly one payload field is
// set, selected by Kind.
type artifact struct {
	Kind   string        `json:"kind"`
	Forest *ForestScorer `json:"forest,omitempty"`
	Policy *QLearnScorer `json:"policy,omitempty"`
}

// Save writes a fitted scorer to path via a temp file and rename, so a
// concurrent reader never observes a partially written artifact.
func Save(path string, s Scorer) error {
	art := artifact{Kind: s.Kind()}
	switch v := s.(type) {
	case *ForestScorer:
		art.Forest = v
	case *QLearnScorer:
		art.Policy = v
	default:
		return fmt.Errorf("unknown scorer kind %q", s.Kind())
	}

	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publish model: %w", err)
	}
	return nil
}

// Load reads a fitted scorer from path. A missing file yields
// (nil, nil): absence of a model is not an error. A malformed file is
// reported and should be treated as "no model available" by callers.
func Load(path string) (Scorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model: %w", err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	switch art.Kind {
	case "forest":
		if art.Forest == nil {
			return nil, fmt.Errorf("model file missing forest payload")
		}
		return art.Forest, nil
	case "qlearn":
		if art.Policy == nil {
			return nil, fmt.Errorf("model file missing policy payload")
		}
		return art.Policy, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", art.Kind)
	}
}
