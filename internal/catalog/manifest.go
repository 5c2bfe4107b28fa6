package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"volscribe/internal/artifacts"
	"volscribe/internal/services"
)

// Manifest is a static catalog read from disk. JSON manifests parse too,
// since JSON is valid YAML.
//
//	collections:
//	  - id: "1432"
//	    title: Sharh al-Waraqat
//	    volumes:
//	      - volume: 1
//	        id: dQw4w9WgXcQ
type Manifest struct {
	Collections []Collection `yaml:"collections"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "read manifest", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "parse manifest", "", err)
	}
	if err := m.validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "validate manifest", "", err)
	}
	for i := range m.Collections {
		sortVolumes(m.Collections[i].Volumes)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]struct{}, len(m.Collections))
	for i, col := range m.Collections {
		id := strings.TrimSpace(col.ID)
		if id == "" {
			return fmt.Errorf("collections[%d]: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("collection %s listed twice", id)
		}
		seen[id] = struct{}{}
		numbers := make(map[int]struct{}, len(col.Volumes))
		for _, v := range col.Volumes {
			if v.Number < 1 {
				return fmt.Errorf("collection %s: volume numbers start at 1", id)
			}
			if strings.TrimSpace(v.ExternalID) == "" {
				return fmt.Errorf("collection %s: volume %d has no media id", id, v.Number)
			}
			if _, dup := numbers[v.Number]; dup {
				return fmt.Errorf("collection %s: volume %d listed twice", id, v.Number)
			}
			numbers[v.Number] = struct{}{}
		}
	}
	return nil
}

// ListCollections returns the manifest's collections, honouring ID and Limit.
func (m *Manifest) ListCollections(_ context.Context, opts ListOptions) ([]Collection, error) {
	out := make([]Collection, 0, len(m.Collections))
	for _, col := range m.Collections {
		if opts.ID != "" && col.ID != opts.ID {
			continue
		}
		out = append(out, Collection{ID: col.ID, Title: col.Title})
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

// ListVolumes returns the volumes of collectionID.
func (m *Manifest) ListVolumes(_ context.Context, collectionID string) ([]artifacts.Volume, error) {
	for _, col := range m.Collections {
		if col.ID != collectionID {
			continue
		}
		if len(col.Volumes) == 0 {
			return nil, services.Wrap(services.ErrNotFound, "catalog", "list volumes", fmt.Sprintf("collection %s has no media", collectionID), nil)
		}
		return append([]artifacts.Volume(nil), col.Volumes...), nil
	}
	return nil, services.Wrap(services.ErrNotFound, "catalog", "list volumes", "collection "+collectionID, nil)
}
