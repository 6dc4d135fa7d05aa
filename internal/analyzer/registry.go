package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NewDetector creates a detector based on the specified variant: "none"
// (or empty) reports no face for every segment and "sidecar" serves
// precomputed results keyed by segment id.
func NewDetector(variant string, faces map[string]FaceResult) (Detector, error) {
	switch variant {
	case "none", "":
		return NoFaceDetector{}, nil
	case "sidecar":
		return &MapDetector{Faces: faces}, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// LoadFaces reads a sidecar file (YAML or JSON) mapping segment ids to
// detection results
func LoadFaces(path string) (map[string]FaceResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	faces := map[string]FaceResult{}
	if err := yaml.Unmarshal(data, &faces); err != nil {
		return nil, fmt.Errorf("parse faces %s: %w", path, err)
	}
	return faces, nil
}
