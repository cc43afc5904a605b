// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package mappings

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"grimm.is/pfopn/internal/errors"
)

// PluginSupportStatus grades how well a plugin migrates across platforms.
type PluginSupportStatus string

const (
	StatusSupported   PluginSupportStatus = "supported"
	StatusPartial     PluginSupportStatus = "partial"
	StatusUnsupported PluginSupportStatus = "unsupported"
)

// PluginMatrixEntry describes one plugin's presence markers on each platform
// and which targets it can move to.
type PluginMatrixEntry struct {
	ID                string              `toml:"id"`
	PfsenseMarkers    []string            `toml:"pfsense_markers"`
	OpnsenseMarkers   []string            `toml:"opnsense_markers"`
	CompatibleTargets []string            `toml:"compatible_targets"`
	Status            PluginSupportStatus `toml:"status"`
	Note              string              `toml:"note"`
}

// PluginMatrix is the full plugin compatibility table.
type PluginMatrix struct {
	Entries []PluginMatrixEntry
}

type pluginMatrixFile struct {
	Plugin []PluginMatrixEntry `toml:"plugin"`
}

// LoadPluginMatrix reads a plugin matrix from a TOML file.
func LoadPluginMatrix(path string) (PluginMatrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PluginMatrix{}, errors.Wrapf(err, errors.KindValidation, "failed to read plugin matrix %s", path)
	}
	matrix, err := parsePluginMatrix(raw)
	if err != nil {
		return PluginMatrix{}, errors.Wrapf(err, errors.KindValidation, "failed to parse plugin matrix %s", path)
	}
	return matrix, nil
}

// DefaultPluginMatrix returns the embedded matrix, falling back to a
// compiled-in table if the embedded data is unusable.
func DefaultPluginMatrix() PluginMatrix {
	raw, err := embeddedData.ReadFile("data/plugins.toml")
	if err == nil {
		if matrix, err := parsePluginMatrix(raw); err == nil && len(matrix.Entries) > 0 {
			return matrix
		}
	}
	return fallbackPluginMatrix()
}

func parsePluginMatrix(raw []byte) (PluginMatrix, error) {
	var parsed pluginMatrixFile
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return PluginMatrix{}, err
	}
	return PluginMatrix{Entries: parsed.Plugin}, nil
}

// FindByID returns the entry with the given plugin id.
func (m PluginMatrix) FindByID(id string) (PluginMatrixEntry, bool) {
	for _, entry := range m.Entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return PluginMatrixEntry{}, false
}

// FindByMarker matches a declared package or section marker against the
// platform-specific marker lists.
func (m PluginMatrix) FindByMarker(platform, marker string) (PluginMatrixEntry, bool) {
	marker = strings.ToLower(strings.TrimSpace(marker))
	for _, entry := range m.Entries {
		var markers []string
		switch platform {
		case "pfsense":
			markers = entry.PfsenseMarkers
		case "opnsense":
			markers = entry.OpnsenseMarkers
		default:
			return PluginMatrixEntry{}, false
		}
		for _, candidate := range markers {
			if strings.ToLower(candidate) == marker {
				return entry, true
			}
		}
	}
	return PluginMatrixEntry{}, false
}

// IsTargetCompatible reports whether a plugin id is marked compatible with
// the target platform.
func (m PluginMatrix) IsTargetCompatible(id, target string) bool {
	entry, ok := m.FindByID(id)
	if !ok {
		return false
	}
	for _, t := range entry.CompatibleTargets {
		if strings.EqualFold(t, target) {
			return true
		}
	}
	return false
}

func fallbackPluginMatrix() PluginMatrix {
	both := []string{"pfsense", "opnsense"}
	return PluginMatrix{Entries: []PluginMatrixEntry{
		{ID: "wireguard", PfsenseMarkers: []string{"wireguard"},
			OpnsenseMarkers: []string{"os-wireguard", "wireguard"}, CompatibleTargets: both,
			Status: StatusSupported, Note: "Supported on both platforms"},
		{ID: "tailscale", PfsenseMarkers: []string{"tailscale", "tailscaleauth"},
			OpnsenseMarkers: []string{"os-tailscale", "tailscale"}, CompatibleTargets: both,
			Status: StatusSupported, Note: "Supported on both platforms"},
		{ID: "openvpn", PfsenseMarkers: []string{"openvpn", "ovpnserver", "openvpn-client-export"},
			OpnsenseMarkers: []string{"openvpn", "os-openvpn-legacy"}, CompatibleTargets: both,
			Status: StatusSupported, Note: "Core VPN support exists on both"},
		{ID: "ipsec", PfsenseMarkers: []string{"ipsec"},
			OpnsenseMarkers: []string{"ipsec", "swanctl"}, CompatibleTargets: both,
			Status: StatusPartial, Note: "Layouts differ, requires mapping"},
		{ID: "isc-dhcp", PfsenseMarkers: []string{"dhcpd", "dhcpdv6", "dhcpd6"},
			OpnsenseMarkers: []string{"os-isc-dhcp", "dhcpd"}, CompatibleTargets: both,
			Status: StatusSupported, Note: "Legacy ISC backend on both"},
		{ID: "kea-dhcp", PfsenseMarkers: []string{"dhcpbackend", "kea"},
			OpnsenseMarkers: []string{"os-kea", "kea"}, CompatibleTargets: both,
			Status: StatusPartial, Note: "Kea layout differs by platform"},
		{ID: "system_patches", PfsenseMarkers: []string{"system patches", "system_patches", "system_patches_pkg"},
			CompatibleTargets: []string{"pfsense"},
			Status:            StatusUnsupported, Note: "No known OPNsense equivalent"},
		{ID: "pfblockerng", PfsenseMarkers: []string{"pfblockerng", "pfblockerng-devel"},
			CompatibleTargets: []string{"pfsense"},
			Status:            StatusUnsupported, Note: "No direct OPNsense equivalent"},
	}}
}
