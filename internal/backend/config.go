// Package backend holds per-target-language compiler configuration:
// reserved identifiers, the MTU ceiling, and the names the target uses for
// each Repr. spec.md §9 flags the reserved-name set (`{"type"}` in the
// original) as something that "should become a per-target configuration,
// not a universal constant" — this package is that configuration, loadable
// from YAML so a caller can target something other than the built-in Go
// backend without recompiling this tool.
package backend

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the tunable surface of one code-generation target.
type Config struct {
	// Name identifies the target, e.g. "go".
	Name string `yaml:"name"`
	// ReservedNames may not be used as field or definition names (§3
	// Header invariant 1).
	ReservedNames []string `yaml:"reserved_names"`
	// MTU is the maximum total byte length a header or packet may occupy
	// (§3 Header invariant 4, §4.3).
	MTU int `yaml:"mtu"`
	// ReprNames maps each Repr's DSL spelling to the target language's
	// spelling of that integer type, e.g. "u32" -> "uint32" for Go.
	ReprNames map[string]string `yaml:"repr_names"`
}

// DefaultGo is the built-in configuration for the Go backend this repo
// implements (see SPEC_FULL.md's resolution of "target systems language").
func DefaultGo() Config {
	return Config{
		Name:          "go",
		ReservedNames: []string{"type"},
		MTU:           65535,
		ReprNames: map[string]string{
			"u8":  "uint8",
			"u16": "uint16",
			"u32": "uint32",
			"u64": "uint64",
		},
	}
}

// Load reads a Config from a YAML file, filling any field the file omits
// from DefaultGo().
func Load(path string) (Config, error) {
	cfg := DefaultGo()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsReserved reports whether name is in the target's reserved-identifier
// set.
func (c Config) IsReserved(name string) bool {
	for _, r := range c.ReservedNames {
		if r == name {
			return true
		}
	}
	return false
}

// GoType returns the Go spelling of the DSL repr name repr, or repr itself
// when the config has no mapping for it.
func (c Config) GoType(repr string) string {
	if t, ok := c.ReprNames[repr]; ok {
		return t
	}
	return repr
}
