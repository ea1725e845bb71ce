package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/offloadml/offloadml/internal/features"
)

var ErrNoArtifacts = errors.New("no artifact set published")
var ErrVersionMismatch = errors.New("artifact set is not a matched triple")

const manifestFile = "current.json"
const schemaFile = "schema.json"
const scalerFile = "scaler.json"
const modelFile = "model.json"

// ArtifactSet is the matched triple produced by one training run. The three
// blobs embed the version of the run; loading blobs from different runs is
// rejected.
type ArtifactSet struct {
	Version string
	Schema  *features.Schema
	Scaler  *features.Scaler
	Forest  *Forest
}

type manifest struct {
	Version   string `json:"version"`
	CreatedAt string `json:"created_at"`
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Save publishes the set under dir/<version>/ and swaps the current-version
// manifest last, so a failed run never replaces a previously valid set.
func (a *ArtifactSet) Save(dir string) error {
	if a.Version == "" || a.Schema == nil || a.Scaler == nil || a.Forest == nil {
		return fmt.Errorf("refusing to persist a partial artifact set")
	}

	versionDir := filepath.Join(dir, a.Version)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(versionDir, schemaFile), a.Schema); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(versionDir, scalerFile), a.Scaler); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(versionDir, modelFile), a.Forest); err != nil {
		return err
	}

	// atomic swap of the manifest
	m := manifest{Version: a.Version, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
	tmp := filepath.Join(dir, manifestFile+".tmp")
	if err := writeJSON(tmp, &m); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, manifestFile))
}

// LoadCurrent reads the artifact set the manifest points at, verifying that
// schema, scaler and model all originate from that same run.
func LoadCurrent(dir string) (*ArtifactSet, error) {
	var m manifest
	if err := readJSON(filepath.Join(dir, manifestFile), &m); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoArtifacts, dir)
		}
		return nil, err
	}

	versionDir := filepath.Join(dir, m.Version)
	set := &ArtifactSet{
		Version: m.Version,
		Schema:  &features.Schema{},
		Scaler:  &features.Scaler{},
		Forest:  &Forest{},
	}
	if err := readJSON(filepath.Join(versionDir, schemaFile), set.Schema); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(versionDir, scalerFile), set.Scaler); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(versionDir, modelFile), set.Forest); err != nil {
		return nil, err
	}

	if set.Schema.Version != m.Version || set.Scaler.Version != m.Version || set.Forest.Version != m.Version {
		return nil, fmt.Errorf("%w: manifest %s, schema %s, scaler %s, model %s",
			ErrVersionMismatch, m.Version, set.Schema.Version, set.Scaler.Version, set.Forest.Version)
	}

	return set, nil
}
