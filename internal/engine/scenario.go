package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/camwork/internal/analyzer"
	"github.com/ivlev/camwork/internal/motion"
)

// ScenarioVersion is written into every scenario and plan file
const ScenarioVersion = "1.0"

// Scenario is a batch request stored on disk
type Scenario struct {
	Version       string          `yaml:"version" json:"version"`
	TimelineID    string          `yaml:"timeline_id,omitempty" json:"timeline_id,omitempty"`
	SequenceAware *bool           `yaml:"sequence_aware,omitempty" json:"sequence_aware,omitempty"`
	Segments      []analyzer.Hint `yaml:"segments" json:"segments"`
}

// SequenceEnabled defaults to true when the field is absent
func (s *Scenario) SequenceEnabled() bool {
	return s.SequenceAware == nil || *s.SequenceAware
}

// Normalized returns a copy with labels resolved the way synthesis reads
// them and the sequence flag made explicit
func (s *Scenario) Normalized() *Scenario {
	enabled := s.SequenceEnabled()
	out := &Scenario{
		Version:       ScenarioVersion,
		TimelineID:    s.TimelineID,
		SequenceAware: &enabled,
		Segments:      make([]analyzer.Hint, len(s.Segments)),
	}
	for i, h := range s.Segments {
		h.Emotion = string(motion.ParseEmotion(h.Emotion))
		h.Importance = string(motion.ParseImportance(h.Importance))
		out.Segments[i] = h
	}
	return out
}

// Plan is the synthesized output for a scenario
type Plan struct {
	Version    string      `yaml:"version" json:"version"`
	TimelineID string      `yaml:"timeline_id,omitempty" json:"timeline_id,omitempty"`
	Clips      []Result    `yaml:"clips" json:"clips"`
	Rejected   []Rejection `yaml:"rejected,omitempty" json:"rejected,omitempty"`
}

// ReadScenario reads a scenario from a YAML (or JSON) file
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Segments) == 0 {
		return nil, fmt.Errorf("scenario %s has no segments", path)
	}

	return &scenario, nil
}

// WriteScenario writes a scenario to a YAML file
func WriteScenario(scenario *Scenario, path string) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EncodePlan renders a plan as "yaml" or "json"
func EncodePlan(plan *Plan, format string) ([]byte, error) {
	switch format {
	case "yaml", "":
		return yaml.Marshal(plan)
	case "json":
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown plan format %q", format)
	}
}

// WritePlan writes a plan to path, picking the format from the extension
func WritePlan(plan *Plan, path string) error {
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}

	data, err := EncodePlan(plan, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GeneratePlanPath creates a timestamped plan filename under dir
func GeneratePlanPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("plan_%s.yaml", timestamp))
}

// FindLatestScenario finds the most recently modified scenario file in dir
func FindLatestScenario(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var scenarios []candidate
	for _, entry := range entries {
		name := strings.ToLower(entry.Name())
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		scenarios = append(scenarios, candidate{path: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}

	if len(scenarios) == 0 {
		return "", fmt.Errorf("no scenario files found in %s", dir)
	}

	// newest first
	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].modTime.After(scenarios[j].modTime)
	})

	return scenarios[0].path, nil
}
