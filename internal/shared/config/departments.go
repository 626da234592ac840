package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultDepartments = []string{
	"Engineering",
	"Safety",
	"Operations",
	"Finance",
	"HR",
	"Procurement",
	"Legal",
	"IT",
	"Customer Service",
}

type departmentsFile struct {
	Departments []string `yaml:"departments"`
}

// DefaultDepartments returns a copy of the built-in department catalog.
func DefaultDepartments() []string {
	out := make([]string, len(defaultDepartments))
	copy(out, defaultDepartments)
	return out
}

// LoadDepartments reads a YAML catalog of the form `departments: [..]`.
// An empty path yields the built-in catalog.
func LoadDepartments(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultDepartments(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDepartments(raw)
}

// ParseDepartments decodes a YAML department catalog, dropping blanks and duplicates.
func ParseDepartments(raw []byte) ([]string, error) {
	var file departmentsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse departments: %w", err)
	}
	seen := make(map[string]struct{}, len(file.Departments))
	out := make([]string, 0, len(file.Departments))
	for _, d := range file.Departments {
		name := strings.TrimSpace(d)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("parse departments: catalog is empty")
	}
	return out, nil
}
