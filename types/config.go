package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTriplesCSV     = "kg_triples.csv"
	DefaultGraphGML       = "kg_graph.gml"
	DefaultGraphPNG       = "kg_graph.png"
	DefaultInputExtension = ".txt"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// OutputsConfig holds output file names relative to the output location. An
// empty PNG or XLSX name disables that output.
type OutputsConfig struct {
	TriplesCSV  string `yaml:"triples_csv" json:"triples_csv"`
	GraphGML    string `yaml:"graph_gml" json:"graph_gml"`
	GraphPNG    string `yaml:"graph_png" json:"graph_png"`
	TriplesXLSX string `yaml:"triples_xlsx" json:"triples_xlsx"`
}

type RenderConfig struct {
	Width      int     `yaml:"width" json:"width"`
	Height     int     `yaml:"height" json:"height"`
	NodeRadius float64 `yaml:"node_radius" json:"node_radius"`
	EdgeLabels bool    `yaml:"edge_labels" json:"edge_labels"`
}

type Configuration struct {
	Name           string        `yaml:"name" json:"name"`
	FilePath       string        `yaml:"-" json:"file_path"`
	InputExtension string        `yaml:"input_extension" json:"input_extension"`
	Workers        int           `yaml:"workers" json:"workers"`
	Outputs        OutputsConfig `yaml:"outputs" json:"outputs"`
	Render         RenderConfig  `yaml:"render" json:"render"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Name:           "default",
		InputExtension: DefaultInputExtension,
		Workers:        1,
		Outputs: OutputsConfig{
			TriplesCSV: DefaultTriplesCSV,
			GraphGML:   DefaultGraphGML,
			GraphPNG:   DefaultGraphPNG,
		},
		Render: RenderConfig{
			Width:      2000,
			Height:     2000,
			NodeRadius: 18,
			EdgeLabels: true,
		},
	}
}

// LoadConfiguration reads a YAML run configuration over the defaults. An empty
// path yields the defaults.
func LoadConfiguration(filePath string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if filePath == "" {
		return cfg, nil
	}

	buf, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, fmt.Errorf("reading configuration %s: %w", filePath, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration %s: %w", filePath, err)
	}
	cfg.FilePath = filePath

	return cfg, cfg.Validate()
}

// ApplyConfigurationPatch applies an RFC 7386 JSON merge patch over cfg.
func ApplyConfigurationPatch(cfg Configuration, patch []byte) (Configuration, error) {
	if len(strings.TrimSpace(string(patch))) == 0 {
		return cfg, nil
	}

	doc, err := json.Marshal(cfg)
	if err != nil {
		return cfg, err
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return cfg, fmt.Errorf("applying configuration patch: %w", err)
	}

	var patched Configuration
	if err := json.Unmarshal(merged, &patched); err != nil {
		return cfg, fmt.Errorf("decoding patched configuration: %w", err)
	}
	return patched, patched.Validate()
}

func (cfg Configuration) Validate() error {
	switch {
	case cfg.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfiguration, cfg.Workers)
	case cfg.Outputs.TriplesCSV == "":
		return fmt.Errorf("%w: outputs.triples_csv is required", ErrInvalidConfiguration)
	case cfg.Outputs.GraphGML == "":
		return fmt.Errorf("%w: outputs.graph_gml is required", ErrInvalidConfiguration)
	case cfg.Outputs.GraphPNG != "" && (cfg.Render.Width <= 0 || cfg.Render.Height <= 0):
		return fmt.Errorf("%w: render size must be positive", ErrInvalidConfiguration)
	}
	return nil
}

// HasInputExtension reports whether name carries the configured extension,
// ignoring case.
func (cfg Configuration) HasInputExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(cfg.InputExtension))
}
