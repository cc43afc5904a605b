// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dhcp

import (
	"strconv"
	"strings"

	"grimm.is/pfopn/internal/errors"
	"grimm.is/pfopn/internal/platform"
	"grimm.is/pfopn/internal/xmltree"
)

// RequestedBackend is the backend preference given on the command line.
type RequestedBackend int

const (
	// RequestAuto selects based on target version and existing config.
	RequestAuto RequestedBackend = iota
	// RequestKea forces the Kea backend.
	RequestKea
	// RequestISC forces the legacy ISC backend.
	RequestISC
)

// ParseRequestedBackend maps a flag value to a backend request.
func ParseRequestedBackend(s string) (RequestedBackend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return RequestAuto, nil
	case "kea":
		return RequestKea, nil
	case "isc":
		return RequestISC, nil
	}
	return RequestAuto, errors.Errorf(errors.KindValidation, "invalid dhcp backend %q (want auto, kea, or isc)", s)
}

// EffectiveBackend is the backend conversion will actually produce.
type EffectiveBackend int

const (
	// BackendISC emits legacy ISC dhcpd sections.
	BackendISC EffectiveBackend = iota
	// BackendKea emits Kea configuration.
	BackendKea
)

func (b EffectiveBackend) String() string {
	if b == BackendKea {
		return "kea"
	}
	return "isc"
}

// ResolveEffectiveBackend decides which backend the output should use. An
// explicit request always wins. On auto, OPNsense 26+ targets default to Kea
// since that release deprecates ISC; otherwise the source's detected backend
// decides, falling back to the target's.
func ResolveEffectiveBackend(requested RequestedBackend, source, target *xmltree.Node, toPlatform string) EffectiveBackend {
	switch requested {
	case RequestKea:
		return BackendKea
	case RequestISC:
		return BackendISC
	}

	if toPlatform == "opnsense" && isOpnsense26OrNewer(target) {
		return BackendKea
	}

	switch DetectBackend(source).Mode {
	case "kea", "mixed":
		return BackendKea
	case "isc":
		return BackendISC
	}
	switch DetectBackend(target).Mode {
	case "kea", "mixed":
		return BackendKea
	}
	return BackendISC
}

// EnsureBackendReadiness checks that an OPNsense target carries the
// structure the chosen backend needs. Older OPNsense targets are only
// checked when the backend was explicitly requested, since both backends
// coexist there. pfSense targets are never checked.
func EnsureBackendReadiness(target *xmltree.Node, requested RequestedBackend, backend EffectiveBackend) error {
	if platform.Detect(target) != platform.OpnSense {
		return nil
	}

	switch backend {
	case BackendKea:
		if requested != RequestKea && !isOpnsense26OrNewer(target) {
			return nil
		}
		if target.Find("OPNsense", "Kea") == nil {
			return errors.New(errors.KindValidation,
				"target OPNsense config is missing OPNsense.Kea subtree required for Kea backend")
		}
	case BackendISC:
		if requested != RequestISC && !isOpnsense26OrNewer(target) {
			return nil
		}
		if !hasDeclaredPlugin(target, "os-isc-dhcp") {
			return errors.New(errors.KindValidation,
				"target OPNsense config requires os-isc-dhcp plugin for ISC backend (system.firmware.plugins)")
		}
		if !HasLegacyData(target) {
			return errors.New(errors.KindValidation,
				"target OPNsense config missing legacy ISC DHCP sections (dhcpd/dhcpdv6/dhcpd6)")
		}
	}
	return nil
}

// EnforceOutputBackend reshapes the output tree to match the chosen backend:
// removing conflicting sections, ensuring required containers, and stamping
// the pfSense <dhcpbackend> marker. preserveIPv6Legacy keeps the ISC IPv6
// sections alongside Kea, for targets that migrate one family at a time.
func EnforceOutputBackend(root *xmltree.Node, backend EffectiveBackend, toPlatform string, preserveIPv6Legacy bool) {
	switch toPlatform {
	case "opnsense":
		if backend == BackendKea {
			if preserveIPv6Legacy {
				root.RemoveChildren("dhcpd")
			} else {
				removeLegacySections(root)
			}
			root.EnsureChild("OPNsense").EnsureChild("Kea")
			return
		}
		disableOpnsenseKea(root)
	case "pfsense":
		if backend == BackendKea {
			root.SetChildText("dhcpbackend", "kea")
			root.EnsureChild("kea")
			removeLegacySections(root)
			return
		}
		root.SetChildText("dhcpbackend", "isc")
		root.RemoveChildren("kea")
	}
}

func removeLegacySections(root *xmltree.Node) {
	root.RemoveChildren("dhcpd")
	root.RemoveChildren("dhcpdv6")
	root.RemoveChildren("dhcpd6")
}

// disableOpnsenseKea turns the Kea general flags off while keeping the
// container, so custom settings survive a switch back.
func disableOpnsenseKea(root *xmltree.Node) {
	kea := root.Find("OPNsense", "Kea")
	if kea == nil {
		return
	}
	for _, family := range []string{"dhcp4", "dhcp6"} {
		familyNode := kea.Child(family)
		if familyNode == nil {
			continue
		}
		familyNode.EnsureChild("general").SetChildText("enabled", "0")
	}
}

func isOpnsense26OrNewer(target *xmltree.Node) bool {
	if platform.Detect(target) != platform.OpnSense {
		return false
	}
	version := platform.DetectVersionInfo(target).Value
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(strings.TrimSpace(major))
	if err != nil {
		return false
	}
	return n >= 26
}

// hasDeclaredPlugin checks the space/comma/semicolon separated plugin list
// under system.firmware.plugins for a plugin name.
func hasDeclaredPlugin(root *xmltree.Node, plugin string) bool {
	plugins, _ := root.TextAt("system", "firmware", "plugins")
	for _, p := range strings.FieldsFunc(plugins, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';'
	}) {
		if strings.EqualFold(strings.TrimSpace(p), plugin) {
			return true
		}
	}
	return false
}
