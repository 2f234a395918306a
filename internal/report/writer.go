package report

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Write stores any report as YAML.
func Write(v any, path string) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read loads a YAML report into v.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, v)
}
