package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/lux/export"
)

// Config is the luxdev configuration file.
type Config struct {
	// Backend selects the execution backend; empty picks the best
	// available.
	Backend string `yaml:"backend"`

	// CacheMB is the render cache budget in megabytes.
	CacheMB int `yaml:"cacheMB"`

	Export ExportConfig `yaml:"export"`
}

// ExportConfig holds the output settings.
type ExportConfig struct {
	Format   string       `yaml:"format"`
	Quality  int          `yaml:"quality"`
	Template string       `yaml:"template"`
	Resize   ResizeConfig `yaml:"resize"`
}

// ResizeConfig mirrors export.Resize.
type ResizeConfig struct {
	Mode        string `yaml:"mode"`
	Target      int    `yaml:"target"`
	DontEnlarge bool   `yaml:"dontEnlarge"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		CacheMB: 256,
		Export: ExportConfig{
			Format:   "jpeg",
			Quality:  90,
			Template: string(export.DefaultTemplate),
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// exportOptions resolves the config into export options.
func (c Config) exportOptions() (export.Options, error) {
	format, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		return export.Options{}, err
	}
	mode := export.ResizeMode(c.Export.Resize.Mode)
	if mode == "" {
		mode = export.ResizeLongEdge
	}
	return export.Options{
		Format:  format,
		Quality: c.Export.Quality,
		Resize: export.Resize{
			Mode:        mode,
			Target:      c.Export.Resize.Target,
			DontEnlarge: c.Export.Resize.DontEnlarge,
		},
	}, nil
}
