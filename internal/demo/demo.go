// Package demo holds the static marina dataset served in mock mode.
package demo

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/harborline/harbormaster/internal/api"
)

//go:embed dataset.yaml
var datasetYAML []byte

// Dataset is the demo marina. Treat it as read-only; use Clone before
// modifying anything.
type Dataset struct {
	Profile       api.Profile        `yaml:"profile"`
	Stats         api.DashboardStats `yaml:"stats"`
	Overview      api.MarinaOverview `yaml:"overview"`
	Operations    []api.Operation    `yaml:"operations"`
	Notifications []api.Notification `yaml:"notifications"`
}

var (
	defaultOnce    sync.Once
	defaultDataset *Dataset
	defaultErr     error
)

// Default returns the embedded dataset, parsed once.
func Default() (*Dataset, error) {
	defaultOnce.Do(func() {
		defaultDataset, defaultErr = Parse(datasetYAML)
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return defaultDataset.Clone(), nil
}

// MustDefault is Default for callers that treat a broken embed as a bug.
func MustDefault() *Dataset {
	ds, err := Default()
	if err != nil {
		panic(err)
	}
	return ds
}

// Parse decodes and validates a dataset document.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse demo dataset: %w", err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (ds *Dataset) validate() error {
	if _, err := uuid.Parse(ds.Profile.ID); err != nil {
		return fmt.Errorf("demo profile id %q: %w", ds.Profile.ID, err)
	}
	for _, op := range ds.Operations {
		if _, err := uuid.Parse(op.ID); err != nil {
			return fmt.Errorf("demo operation id %q: %w", op.ID, err)
		}
	}
	for _, n := range ds.Notifications {
		if _, err := uuid.Parse(n.ID); err != nil {
			return fmt.Errorf("demo notification id %q: %w", n.ID, err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (ds *Dataset) Clone() *Dataset {
	if ds == nil {
		return nil
	}
	out := *ds
	out.Overview.Docks = slices.Clone(ds.Overview.Docks)
	out.Operations = slices.Clone(ds.Operations)
	out.Notifications = slices.Clone(ds.Notifications)
	return &out
}
