// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// VLANIfNamesForOpnsense gives every VLAN an explicit vlanNN device name.
// pfSense lets interface assignments reference VLANs with dotted notation
// (vtnet0.50); OPNsense requires vlanif names, a uuid attribute, and the
// pcp/proto/descr fields. Interface assignments using dotted names are
// rewritten to the assigned vlanif names afterwards.
func VLANIfNamesForOpnsense(root *xmltree.Node) {
	vlans := root.Child("vlans")
	if vlans == nil {
		return
	}

	used := map[string]bool{}
	for _, vlan := range vlans.ChildList("vlan") {
		if name := trimmedChildText(vlan, "vlanif"); strings.HasPrefix(name, "vlan") {
			used[name] = true
		}
	}

	dottedToVlanif := map[string]string{}
	for _, vlan := range vlans.ChildList("vlan") {
		parent := trimmedChildText(vlan, "if")
		tag := trimmedChildText(vlan, "tag")
		if parent == "" || tag == "" {
			continue
		}
		dotted := parent + "." + tag

		vlanif := trimmedChildText(vlan, "vlanif")
		if !(strings.HasPrefix(vlanif, "vlan") && len(vlanif) >= 5) {
			vlanif = nextVlanifName(used)
		}
		vlan.SetChildText("vlanif", vlanif)

		if _, ok := vlan.Attr("uuid"); !ok {
			vlan.SetAttr("uuid", lcgUUID(stringSeed(vlanif, parent, tag)))
		}
		vlan.EnsureChildText("pcp", "0")
		vlan.EnsureChildText("proto", "")
		vlan.EnsureChildText("descr", "")

		used[vlanif] = true
		dottedToVlanif[dotted] = vlanif
	}

	if len(dottedToVlanif) == 0 {
		return
	}
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return
	}
	for _, iface := range interfaces.Children {
		current := trimmedChildText(iface, "if")
		if mapped, ok := dottedToVlanif[current]; ok {
			iface.SetChildText("if", mapped)
		}
	}
}

func nextVlanifName(used map[string]bool) string {
	for i := 1; i < 1000; i++ {
		name := fmt.Sprintf("vlan%02d", i)
		if !used[name] {
			return name
		}
	}
	return "vlan999"
}

func trimmedChildText(node *xmltree.Node, tag string) string {
	return strings.TrimSpace(node.TextOr("", tag))
}
