package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// LoadCombinePlan loads a combine plan from a TOML file. When base_dir is not
// set, relative paths are resolved against the directory of the plan file.
func LoadCombinePlan(path string) (*model.CombinePlan, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "combine plan not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read combine plan", goerr.V(ConfigPathKey, path))
	}

	var plan model.CombinePlan
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&plan); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse combine plan",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	switch {
	case plan.BaseDir == "":
		plan.BaseDir = filepath.Dir(path)
	case !filepath.IsAbs(plan.BaseDir):
		plan.BaseDir = filepath.Join(filepath.Dir(path), plan.BaseDir)
	}

	if err := plan.Validate(); err != nil {
		return nil, goerr.Wrap(err, "combine plan validation failed", goerr.V(ConfigPathKey, path))
	}
	return &plan, nil
}
