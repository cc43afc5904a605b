// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package sections analyzes two configurations at the section level: what
// top-level sections each side has, which names map across platforms, and
// heuristic evidence that a section moved or was renamed rather than removed.
package sections

// DefaultKeyFields returns the key-field mappings used to match repeated
// elements by identity instead of position during diffs.
func DefaultKeyFields() map[string]string {
	return map[string]string{
		"rule":  "tracker",
		"alias": "name",
	}
}

// SectionTags maps a logical section flag to concrete top-level tags.
func SectionTags(section string) ([]string, bool) {
	switch section {
	case "system":
		return []string{"system"}, true
	case "interfaces":
		return []string{"interfaces"}, true
	case "firewall":
		return []string{"filter", "nat", "shaper"}, true
	case "services":
		return []string{"dnsmasq", "unbound", "dhcpd", "ntpd"}, true
	case "vpn":
		return []string{"openvpn", "ipsec", "wireguard"}, true
	case "packages":
		return []string{"installedpackages", "OPNsense"}, true
	}
	return nil, false
}
