package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// catalogueFile is the on-disk layout of a criteria catalogue.
type catalogueFile struct {
	Criteria []Definition `yaml:"criteria"`
}

// LoadFile reads criterion definitions from a YAML catalogue.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read catalogue")
	}

	var cf catalogueFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, eris.Wrap(err, "registry: parse catalogue")
	}
	for i := range cf.Criteria {
		for field, rule := range cf.Criteria[i].Rules {
			cf.Criteria[i].Rules[field] = CanonicalRule(rule)
		}
	}
	return cf.Criteria, nil
}

// RegisterFile loads a YAML catalogue into r, replacing definitions with
// matching codes. It returns the number of criteria registered.
func (r *Registry) RegisterFile(path string) (int, error) {
	defs, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return 0, err
		}
	}
	return len(defs), nil
}
