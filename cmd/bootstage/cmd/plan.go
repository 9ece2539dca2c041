package cmd

import (
	"fmt"

	"github.com/bootstage/bootstage/pkg/model"
	yaml "gopkg.in/yaml.v2"
)

// PlanFile is one staged change in a deployment plan.
type PlanFile struct {
	Target  string `yaml:"target"`
	Content string `yaml:"content"`
	Domain  string `yaml:"domain"`
	Append  bool   `yaml:"append"`
}

// Plan is the producer boundary: a list of (target, content, domain)
// tuples plus the up-front list of paths the deployment will touch, used
// to pre-seed backups before anything mutates.
type Plan struct {
	Touch []string   `yaml:"touch"`
	Files []PlanFile `yaml:"files"`
}

// parsePlan decodes and sanity-checks a deployment plan.
func parsePlan(raw []byte) (*Plan, error) {
	var p Plan
	if err := yaml.UnmarshalStrict(raw, &p); err != nil {
		return nil, fmt.Errorf("cannot parse deployment plan: %w", err)
	}
	if len(p.Files) == 0 {
		return nil, fmt.Errorf("deployment plan stages no files")
	}
	for i, f := range p.Files {
		if f.Target == "" {
			return nil, fmt.Errorf("plan file %d has no target", i+1)
		}
		if _, err := model.ParseDomain(f.Domain); err != nil {
			return nil, fmt.Errorf("plan file %d: %w", i+1, err)
		}
	}
	return &p, nil
}
