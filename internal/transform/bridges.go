// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"grimm.is/pfopn/internal/xmltree"
)

// BridgesToOpnsense stamps a uuid attribute on every bridges/bridged entry.
// The seed is the member list so the same bridge always gets the same id;
// bridgeif and a generic constant are fallbacks. Existing uuids are kept.
func BridgesToOpnsense(root *xmltree.Node) {
	bridges := root.Child("bridges")
	if bridges == nil {
		return
	}
	for idx, bridged := range bridges.ChildList("bridged") {
		if _, ok := bridged.Attr("uuid"); ok {
			continue
		}
		seed := "bridge"
		if v, ok := bridged.TextAt("members"); ok {
			seed = v
		} else if v, ok := bridged.TextAt("bridgeif"); ok {
			seed = v
		}
		bridged.SetAttr("uuid", accUUID([]byte(seed), idx))
	}
}

// BridgesToPfsense strips the OPNsense uuid attribute from bridged entries.
func BridgesToPfsense(root *xmltree.Node) {
	bridges := root.Child("bridges")
	if bridges == nil {
		return
	}
	for _, bridged := range bridges.ChildList("bridged") {
		bridged.DelAttr("uuid")
	}
}
