// Package constants loads the process-wide, read-only configuration
// dictionary shared by the allow-list reconciler and adjacent managers
// (such as the BBR gate).
package constants

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Constants is an immutable snapshot of constants.yml, injected at
// construction into every consumer. There is no package-level singleton.
type Constants struct {
	BGP BGPConstants `yaml:"bgp"`
}

// BGPConstants holds the bgp.* subtree.
type BGPConstants struct {
	AllowList AllowListConstants `yaml:"allow_list"`
	BBR       BBRConstants       `yaml:"bbr"`
}

// AllowListConstants mirrors constants.bgp.allow_list.*.
type AllowListConstants struct {
	Enabled        bool           `yaml:"enabled"`
	DefaultPLRules DefaultPLRules `yaml:"default_pl_rules"`
}

// DefaultPLRules mirrors constants.bgp.allow_list.default_pl_rules.*: the
// constant prefix-list lines prepended to every generated prefix-list.
type DefaultPLRules struct {
	V4 []string `yaml:"v4"`
	V6 []string `yaml:"v6"`
}

// BBRConstants mirrors constants.bgp.bbr.*.
type BBRConstants struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses a constants.yml file at path.
func Load(path string) (*Constants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read constants file %s: %w", path, err)
	}
	var c Constants
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse constants file %s: %w", path, err)
	}
	return &c, nil
}

// AllowListEnabled implements allowlist.FeatureGate.
func (c *Constants) AllowListEnabled() bool {
	return c != nil && c.BGP.AllowList.Enabled
}

// BBREnabled reports whether the BBR gate should be active.
func (c *Constants) BBREnabled() bool {
	return c != nil && c.BGP.BBR.Enabled
}
