package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/basalt-sh/tycore/pkg/modresolve"
	"github.com/basalt-sh/tycore/pkg/stubcatalog"
	"github.com/basalt-sh/tycore/pkg/types"
)

// FileConfig is the on-disk project configuration loaded by cmd/tycore: a
// thin YAML wrapper around the fields of Config that make sense to check
// into a project rather than pass as flags every time.
type FileConfig struct {
	Roots     []string `yaml:"roots"`
	StubsPath string   `yaml:"stubs"`
	Exclude   []string `yaml:"exclude"`

	MaxCachedSymbolTypes int `yaml:"max_cached_symbol_types"`
	MaxCachedNodeTypes   int `yaml:"max_cached_node_types"`
	ParserPoolSize       int `yaml:"parser_pool_size"`
}

// LoadFileConfig reads and parses a YAML project config from path.
func LoadFileConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("engine: reading config %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("engine: parsing config %s: %w", path, err)
	}
	if len(fc.Roots) == 0 {
		return FileConfig{}, fmt.Errorf("engine: config %s: roots must not be empty", path)
	}
	if err := modresolve.ValidateGlobs(fc.Exclude); err != nil {
		return FileConfig{}, fmt.Errorf("engine: config %s: %w", path, err)
	}

	return fc, nil
}

// ToConfig resolves fc into an Engine Config, loading its stub catalog if
// one is configured.
func (fc FileConfig) ToConfig() (Config, error) {
	cfg := Config{
		Roots:   fc.Roots,
		Exclude: fc.Exclude,
		Store:   storeConfigFrom(fc),
	}
	if fc.ParserPoolSize > 0 {
		cfg.Parser.MaxSize = fc.ParserPoolSize
	}
	if fc.StubsPath != "" {
		stubs, err := stubcatalog.LoadFromFile(fc.StubsPath)
		if err != nil {
			return Config{}, err
		}
		cfg.Stubs = stubs
	}
	return cfg, nil
}

func storeConfigFrom(fc FileConfig) types.StoreConfig {
	return types.StoreConfig{
		MaxCachedSymbolTypes: fc.MaxCachedSymbolTypes,
		MaxCachedNodeTypes:   fc.MaxCachedNodeTypes,
	}
}
