package ontology

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Sensors []Descriptor `yaml:"sensors"`
}

// LoadDefault builds the registry from the embedded catalog.
func LoadDefault() (*Registry, error) {
	return loadCatalog(defaultCatalog)
}

// LoadFile builds the registry from a catalog file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ontology: reading catalog %s: %w", path, err)
	}
	return loadCatalog(data)
}

func loadCatalog(data []byte) (*Registry, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("ontology: parsing catalog: %w", err)
	}
	if len(cf.Sensors) == 0 {
		return nil, fmt.Errorf("ontology: catalog has no sensors")
	}
	return NewRegistry(cf.Sensors)
}
