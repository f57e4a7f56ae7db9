package usecase

import (
	"bytes"
	"os"

	"github.com/brendanbecker/ce101/pkg/defaults"
	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// decodeTable reads a YAML table from path, or from fallback when path is
// empty. Unknown fields are rejected.
func decodeTable(path string, fallback []byte, out any) error {
	data := fallback
	if path != "" {
		// #nosec G304 - path is provided by CLI flag
		raw, err := os.ReadFile(path)
		if err != nil {
			return goerr.Wrap(err, "failed to read table", goerr.V(PathKey, path))
		}
		data = raw
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return goerr.Wrap(err, "failed to parse table", goerr.V(PathKey, path))
	}
	return nil
}

// LoadRequirements loads the requirement table at path, or the built-in table
// when path is empty
func LoadRequirements(path string) (*model.RequirementTable, error) {
	var table model.RequirementTable
	if err := decodeTable(path, defaults.Requirements, &table); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid requirement table", goerr.V(PathKey, path))
	}
	return &table, nil
}

// LoadSLOTemplates loads the SLO template table at path, or the built-in
// table when path is empty
func LoadSLOTemplates(path string) (*model.SLOTemplateTable, error) {
	var table model.SLOTemplateTable
	if err := decodeTable(path, defaults.SLOTemplates, &table); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid SLO template table", goerr.V(PathKey, path))
	}
	return &table, nil
}
