package definitions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"filewarden/pkg/models"
)

// ErrNoDefinitions means no usable signature entries were found. A scan must
// never proceed on an empty database and report false "clean" results.
var ErrNoDefinitions = errors.New("no signature definitions loaded")

// Loader loads signature definitions from YAML files
type Loader struct {
	definitionsPath string
}

// NewLoader creates a new definition loader for a file or directory path
func NewLoader(definitionsPath string) *Loader {
	return &Loader{
		definitionsPath: definitionsPath,
	}
}

// DefinitionFile represents one YAML definition file
type DefinitionFile struct {
	Version    string                   `yaml:"version"`
	Signatures []*models.SignatureEntry `yaml:"signatures"`
}

// Load reads every YAML file under the configured path and builds an
// immutable DefinitionSet. Malformed files and an empty result are both
// fatal: the caller must not scan without definitions.
func (l *Loader) Load() (*models.DefinitionSet, error) {
	info, err := os.Stat(l.definitionsPath)
	if err != nil {
		return nil, fmt.Errorf("definitions path %s: %w", l.definitionsPath, ErrNoDefinitions)
	}

	var entries []*models.SignatureEntry
	var version string

	if !info.IsDir() {
		version, entries, err = l.loadFile(l.definitionsPath)
		if err != nil {
			return nil, err
		}
	} else {
		err = filepath.Walk(l.definitionsPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
				return nil
			}

			fileVersion, fileEntries, err := l.loadFile(path)
			if err != nil {
				return err
			}

			entries = append(entries, fileEntries...)
			// Highest file version names the combined snapshot
			if fileVersion > version {
				version = fileVersion
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", l.definitionsPath, ErrNoDefinitions)
	}
	if version == "" {
		return nil, fmt.Errorf("%s: definition files carry no version: %w", l.definitionsPath, ErrNoDefinitions)
	}

	return models.NewDefinitionSet(version, entries), nil
}

// loadFile parses one YAML definition file
func (l *Loader) loadFile(path string) (string, []*models.SignatureEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read definitions %s: %w", path, err)
	}

	var file DefinitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", nil, fmt.Errorf("failed to parse definitions %s: %w", path, err)
	}

	return file.Version, file.Signatures, nil
}
