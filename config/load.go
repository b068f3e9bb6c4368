package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hughsie/zif"
)

// Load reads an Options value from a YAML file at path and Parses it.
func Load(path string) (*Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, zif.NewStoreError("config.Load", zif.ErrConfigFailed, "reading "+path, err)
	}
	var o Options
	if err := yaml.Unmarshal(b, &o); err != nil {
		return nil, zif.NewStoreError("config.Load", zif.ErrConfigFailed, "parsing "+path, err)
	}
	if err := o.Parse(); err != nil {
		return nil, err
	}
	return &o, nil
}
