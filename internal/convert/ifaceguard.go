// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package convert

import (
	"fmt"
	"sort"
	"strings"

	"grimm.is/pfopn/internal/errors"
	"grimm.is/pfopn/internal/xmltree"
)

// InterfaceSpec is the identity of one logical interface as declared in a
// config tree, used for source/target compatibility preflight.
type InterfaceSpec struct {
	Name     string
	Descr    string
	IfName   string
	IPAddr   string
	Subnet   string
	IPAddrV6 string
	SubnetV6 string
}

// CollectInterfaces indexes the <interfaces> children of a config root by
// logical name.
func CollectInterfaces(root *xmltree.Node) map[string]InterfaceSpec {
	out := make(map[string]InterfaceSpec)
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return out
	}

	for _, iface := range interfaces.Children {
		spec := InterfaceSpec{
			Name:     iface.Tag,
			Descr:    strings.TrimSpace(iface.TextOr("", "descr")),
			IfName:   strings.TrimSpace(iface.TextOr("", "if")),
			IPAddr:   strings.TrimSpace(iface.TextOr("", "ipaddr")),
			Subnet:   strings.TrimSpace(iface.TextOr("", "subnet")),
			IPAddrV6: strings.TrimSpace(iface.TextOr("", "ipaddrv6")),
			SubnetV6: strings.TrimSpace(iface.TextOr("", "subnetv6")),
		}
		out[spec.Name] = spec
	}
	return out
}

// EnforceInterfaceCompat checks that every logical interface of the source
// exists on the target baseline. Virtual-backed interfaces (VLAN, WireGuard,
// OpenVPN and friends) are exempt since conversion can create them from the
// source config alone.
func EnforceInterfaceCompat(source, target *xmltree.Node) error {
	sourceMap := CollectInterfaces(source)
	targetMap := CollectInterfaces(target)

	if len(sourceMap) == 0 || len(targetMap) == 0 {
		return errors.Errorf(errors.KindValidation,
			"interface preflight failed: source_interfaces=%d target_interfaces=%d; provide --target-file with interfaces",
			len(sourceMap), len(targetMap))
	}

	names := make([]string, 0, len(sourceMap))
	for name := range sourceMap {
		names = append(names, name)
	}
	sort.Strings(names)

	var missing []string
	for _, name := range names {
		if _, ok := targetMap[name]; ok {
			continue
		}
		src := sourceMap[name]
		if isVirtualIfName(src.IfName) {
			continue
		}
		missing = append(missing, formatMissing(name, src))
	}

	if len(missing) > 0 {
		return errors.Errorf(errors.KindValidation,
			"interface preflight failed: missing target interfaces: %s", strings.Join(missing, ", "))
	}
	return nil
}

func isVirtualIfName(ifName string) bool {
	lower := strings.ToLower(strings.TrimSpace(ifName))
	if lower == "" {
		return false
	}
	if strings.Contains(lower, ".") {
		// VLAN-style parent.tag device naming (e.g. igb0.50).
		return true
	}
	if strings.Contains(lower, "wg") {
		// WireGuard-style interface names can be custom and still virtual-backed.
		return true
	}
	prefixes := []string{
		"vlan", "bridge", "ovpns", "ovpnc", "openvpn", "wg", "tun_wg",
		"gif", "gre", "lagg", "tap", "tun", "enc", "ipsec", "lo",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func formatMissing(name string, spec InterfaceSpec) string {
	var parts []string
	if spec.Descr != "" {
		parts = append(parts, "descr="+spec.Descr)
	}
	if spec.IfName != "" {
		parts = append(parts, "if="+spec.IfName)
	}
	if len(parts) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(parts, " "))
}
