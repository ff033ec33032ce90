// Package config loads the analyzer configuration file. Flags override
// anything set here.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tia-lang/tia/analysis/diag"
)

// ConfigName is the file probed next to the analyzed program when no
// -config flag is given.
const ConfigName = "tia.toml"

type Config struct {
	// DisabledChecks names warning categories to suppress:
	// "overflow", "division-by-zero".
	DisabledChecks []string `toml:"disabled_checks"`
	// NoColorize disables report colorization.
	NoColorize bool `toml:"no_colorize"`
	// Format is the default visualization format (dot, svg, png).
	Format string `toml:"format"`
}

func Default() Config {
	return Config{Format: "dot"}
}

// Load reads a configuration file. A missing file at the probed default
// path is not an error; an explicitly named file must exist.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
	}
	return cfg, nil
}

// Disabled translates the configured check names into categories.
func (c Config) Disabled() ([]diag.Category, error) {
	var cats []diag.Category
	for _, name := range c.DisabledChecks {
		switch name {
		case "overflow":
			cats = append(cats, diag.Overflow)
		case "division-by-zero":
			cats = append(cats, diag.DivisionByZero)
		default:
			return nil, fmt.Errorf("unknown check %q", name)
		}
	}
	return cats, nil
}
