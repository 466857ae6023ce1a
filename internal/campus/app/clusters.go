package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
	"gopkg.in/yaml.v3"
)

type clustersFile struct {
	Clusters []domain.Cluster `yaml:"clusters"`
}

// LoadClusters reads a cluster table:
//
//	clusters:
//	  - id: "36621"
//	    code: ay
//	    floor: 2nd Floor
func LoadClusters(path string) ([]domain.Cluster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clusters file: %w", err)
	}

	var file clustersFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse clusters file %s: %w", path, err)
	}

	if err := validateClusters(file.Clusters); err != nil {
		return nil, fmt.Errorf("clusters file %s: %w", path, err)
	}
	return file.Clusters, nil
}

func validateClusters(clusters []domain.Cluster) error {
	if len(clusters) == 0 {
		return errors.New("at least one cluster is required")
	}

	seen := make(map[string]bool, len(clusters))
	for i, c := range clusters {
		if c.ID == "" {
			return fmt.Errorf("cluster %d has no id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate cluster id %s", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
