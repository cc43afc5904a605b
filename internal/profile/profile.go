// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package profile loads per-platform, per-version expectation profiles used
// by the verify checks. Profiles resolve most-specific first: an exact
// version file, then the major version, then the platform default. A
// profiles directory given on the command line overrides the embedded set.
package profile

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed profiles
var embeddedProfiles embed.FS

// Expected describes what a well-formed config for one platform/version
// pairing should contain.
type Expected struct {
	RequiredSections       []string `toml:"required_sections"`
	RuleRequiredFields     []string `toml:"rule_required_fields"`
	FirewallOrderKey       string   `toml:"firewall_order_key"`
	GatewayRequiredFields  []string `toml:"gateway_required_fields"`
	RouteRequiredFields    []string `toml:"route_required_fields"`
	RouteRequiredAnyFields []string `toml:"route_required_any_fields"`
	BridgeRequireMembers   bool     `toml:"bridge_require_members"`
	DeprecatedSections     []string `toml:"deprecated_sections"`
}

// Load resolves a profile for a platform and version.
func Load(platform, version string) (Expected, bool) {
	p, _, ok := LoadWithSource(platform, version, "")
	return p, ok
}

// LoadWithSource resolves a profile and reports where it came from:
// "file:<path>" for an override directory hit, "embedded" otherwise.
func LoadWithSource(platform, version, profilesDir string) (Expected, string, bool) {
	var names []string
	version = strings.TrimSpace(version)
	if version != "" {
		names = append(names, version+".toml")
		if major, _, found := strings.Cut(version, "."); found {
			names = append(names, major+".toml")
		}
	}
	names = append(names, "default.toml")

	for _, name := range names {
		if profilesDir != "" {
			path := filepath.Join(profilesDir, platform, name)
			if p, err := loadFile(path); err == nil {
				return p, "file:" + path, true
			}
		}
		if p, ok := loadEmbedded(platform, name); ok {
			return p, "embedded", true
		}
	}

	return Expected{}, "", false
}

func loadEmbedded(platform, name string) (Expected, bool) {
	raw, err := embeddedProfiles.ReadFile(fmt.Sprintf("profiles/%s/%s", platform, name))
	if err != nil {
		return Expected{}, false
	}
	p, err := parseProfile(raw)
	if err != nil {
		return Expected{}, false
	}
	return p, true
}

func loadFile(path string) (Expected, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Expected{}, err
	}
	return parseProfile(raw)
}

func parseProfile(raw []byte) (Expected, error) {
	var p Expected
	if err := toml.Unmarshal(raw, &p); err != nil {
		return Expected{}, err
	}
	return p, nil
}
