// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package mappings carries the cross-platform knowledge base: which pfSense
// sections correspond to which OPNsense subtrees, and which plugins exist on
// both sides. The data ships embedded and can be overridden from disk.
package mappings

import (
	"embed"
	"os"

	"github.com/pelletier/go-toml/v2"

	"grimm.is/pfopn/internal/errors"
)

//go:embed data
var embeddedData embed.FS

// SectionMapping relates a left-platform top-level section to the
// right-platform tags it typically lands in.
type SectionMapping struct {
	Left     string   `toml:"left"`
	Right    []string `toml:"right"`
	Category string   `toml:"category"`
	Note     string   `toml:"note"`
}

type sectionMappingFile struct {
	Mapping []SectionMapping `toml:"mapping"`
}

// LoadSectionMappings reads section mappings from a TOML file.
func LoadSectionMappings(path string) ([]SectionMapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "failed to read mappings file %s", path)
	}
	mappings, err := parseSectionMappings(raw)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "failed to parse mappings file %s", path)
	}
	return mappings, nil
}

// DefaultSectionMappings returns the embedded mapping set, falling back to a
// compiled-in list if the embedded data is unusable.
func DefaultSectionMappings() []SectionMapping {
	raw, err := embeddedData.ReadFile("data/sections.toml")
	if err == nil {
		if mappings, err := parseSectionMappings(raw); err == nil && len(mappings) > 0 {
			return mappings
		}
	}
	return fallbackSectionMappings()
}

func parseSectionMappings(raw []byte) ([]SectionMapping, error) {
	var parsed sectionMappingFile
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	return parsed.Mapping, nil
}

func fallbackSectionMappings() []SectionMapping {
	return []SectionMapping{
		{Left: "installedpackages", Right: []string{"OPNsense"}, Category: "packages",
			Note: "pfSense packages typically move under OPNsense plugin container"},
		{Left: "aliases", Right: []string{"Alias", "aliases"}, Category: "firewall",
			Note: "OPNsense aliases are often nested under OPNsense.Firewall.Alias"},
		{Left: "gateways", Right: []string{"Gateways", "gateway"}, Category: "network",
			Note: "gateway definitions may live under OPNsense plugin subtree"},
		{Left: "shaper", Right: []string{"TrafficShaper", "shaper"}, Category: "firewall",
			Note: "traffic shaper settings frequently move to plugin namespace"},
		{Left: "cron", Right: []string{"cron"}, Category: "system",
			Note: "cron commonly appears under OPNsense plugin tree"},
		{Left: "dhcpd", Right: []string{"dhcpd", "Kea", "isc", "DHCRelay"}, Category: "dhcp",
			Note: "legacy ISC DHCP may map to dhcpd, relay, or Kea-based settings"},
		{Left: "dhcpdv6", Right: []string{"dhcpd6", "dhcpdv6", "Kea", "isc"}, Category: "dhcp",
			Note: "IPv6 DHCP can appear as dhcpd6/dhcpdv6 or Kea/ISC variants"},
		{Left: "dhcpd6", Right: []string{"dhcpd6", "dhcpdv6", "Kea", "isc"}, Category: "dhcp",
			Note: "Legacy IPv6 DHCP naming varies between dhcpd6 and dhcpdv6; Kea/ISC may coexist"},
		{Left: "dnsmasq", Right: []string{"dnsmasq"}, Category: "dns",
			Note: "dnsmasq may be enabled directly or represented in plugin subtree"},
		{Left: "tailscale", Right: []string{"tailscale"}, Category: "vpn",
			Note: "Tailscale plugin exists on both platforms; OPNsense typically stores it under OPNsense.tailscale"},
		{Left: "tailscaleauth", Right: []string{"tailscale"}, Category: "vpn",
			Note: "pfSense tailscaleauth data maps into OPNsense tailscale settings/auth fields"},
		{Left: "ipsec", Right: []string{"IPsec", "Swanctl"}, Category: "vpn",
			Note: "IPsec is shared across both, with OPNsense often splitting data under IPsec and Swanctl"},
		{Left: "vtimaps", Right: []string{"VTIs"}, Category: "vpn",
			Note: "pfSense vtimaps commonly correspond to OPNsense Swanctl VTIs"},
	}
}
