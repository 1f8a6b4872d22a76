package core

import "gopkg.in/yaml.v3"

// statisticsDoc is the YAML-friendly projection of ManagerStatistics;
// AssetKind keys are rendered as their String() form since map keys must
// be strings or implement TextMarshaler for a readable document.
type statisticsDoc struct {
	ActiveByKind map[string]int `yaml:"active_by_kind"`
	TotalActive  int            `yaml:"total_active"`
}

// MarshalYAML renders a statistics snapshot for operator-facing status
// output (e.g. `assetmeshd status`), grounded on the teacher's config
// package's YAML-based configuration format.
func (s ManagerStatistics) MarshalYAML() (interface{}, error) {
	doc := statisticsDoc{ActiveByKind: make(map[string]int, len(s.ActiveByKind)), TotalActive: s.TotalActive}
	for k, v := range s.ActiveByKind {
		doc.ActiveByKind[k.String()] = v
	}
	return doc, nil
}

// StatisticsYAML renders the statistics snapshot as a YAML document.
func StatisticsYAML(s ManagerStatistics) ([]byte, error) {
	return yaml.Marshal(s)
}
