package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/reliefplan/pkg/model"
)

// routeInput is a shortest-path request, or places to fetch distances for.
type routeInput struct {
	model.ShortestPathRequest
	Places []string `json:"places,omitempty"`
	Metric string   `json:"metric,omitempty"`
}

// colorInput is a coloring request, or zones to derive adjacency for.
type colorInput struct {
	model.ColoringRequest
	Places      []string            `json:"places,omitempty"`
	ThresholdKm model.OptionalFloat `json:"threshold_km"`
	Metric      string              `json:"metric,omitempty"`
}

type matrixInput struct {
	Places      []string            `json:"places"`
	Metric      string              `json:"metric,omitempty"`
	ThresholdKm model.OptionalFloat `json:"threshold_km"`
}

// readInput decodes a request file into v. ".json" files are read as JSON;
// anything else, stdin ("-") included, as YAML, which also accepts JSON.
// YAML goes through JSON so both formats share the wire field names.
func readInput(stdin io.Reader, path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		return fmt.Errorf("parse %s: empty document", path)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
