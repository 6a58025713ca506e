package merkle

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type rootFixture struct {
	Description string   `yaml:"description"`
	Input       []string `yaml:"input"`
	Output      string   `yaml:"output"`
}

func loadFixture(name string, target interface{}) error {
	data, err := os.ReadFile(filepath.Join("fixtures", name))
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, target)
}
