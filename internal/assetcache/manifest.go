package assetcache

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the fixed list of assets cached under one version.
type Manifest struct {
	Version string   `yaml:"version"`
	Assets  []string `yaml:"assets"`
}

// Validate checks the manifest is usable.
func (m Manifest) Validate() error {
	if strings.TrimSpace(m.Version) == "" {
		return errors.New("manifest version is required")
	}
	if len(m.Assets) == 0 {
		return errors.New("manifest lists no assets")
	}
	seen := make(map[string]bool, len(m.Assets))
	for _, a := range m.Assets {
		if !strings.HasPrefix(a, "/") {
			return fmt.Errorf("asset %q must be an absolute path", a)
		}
		k, err := Key(a)
		if err != nil {
			return err
		}
		if seen[k] {
			return fmt.Errorf("asset %q listed twice", a)
		}
		seen[k] = true
	}
	return nil
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}
