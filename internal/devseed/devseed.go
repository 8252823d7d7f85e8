// Package devseed loads counter seed files for the mock counting service.
// Files are YAML; JSON documents are accepted too since JSON is valid YAML.
//
//	- id: hello-world
//	  views: 120
//	  likes: 7
package devseed

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatsSeedEntry is the initial state of one item.
type StatsSeedEntry struct {
	ID    string `yaml:"id" json:"id"`
	Views int64  `yaml:"views" json:"views"`
	Likes int64  `yaml:"likes" json:"likes"`
}

// LoadStatsSeed reads and validates the seed file at path.
func LoadStatsSeed(path string) ([]StatsSeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	return ParseStatsSeed(data)
}

// ParseStatsSeed decodes seed entries from YAML or JSON.
func ParseStatsSeed(data []byte) ([]StatsSeedEntry, error) {
	var entries []StatsSeedEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("devseed: decode stats seed: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("devseed: entry %d missing id", i)
		}
		if e.Views < 0 || e.Likes < 0 {
			return nil, fmt.Errorf("devseed: entry %q has negative counters", e.ID)
		}
	}
	return entries, nil
}
