// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// BridgeFindings validates bridge definitions: every bridge needs at least
// one member (or an explicit bridgeif), and members must name interfaces
// that exist.
func BridgeFindings(root *xmltree.Node) []Finding {
	bridges := root.Child("bridges")
	if bridges == nil {
		return nil
	}
	defined := CollectDefinedInterfaceNames(root)
	var out []Finding
	for idx, bridged := range bridges.ChildList("bridged") {
		members := splitInterfaceTokens(bridged.TextOr("", "members"))
		bridgeif := strings.ToLower(strings.TrimSpace(bridged.TextOr("", "bridgeif")))

		if len(members) == 0 && bridgeif == "" {
			out = append(out, errFinding("empty_bridge_members",
				fmt.Sprintf("bridge #%d has no members", idx)))
			continue
		}
		for _, member := range members {
			if !defined[member] {
				out = append(out, errFinding("missing_bridge_member",
					fmt.Sprintf("bridge #%d references missing member '%s'", idx, member)))
			}
		}
		if bridgeif != "" && !defined[bridgeif] && !isBridgeToken(bridgeif) {
			out = append(out, warnFinding("missing_bridge_interface",
				fmt.Sprintf("bridge #%d bridgeif references missing interface '%s'", idx, bridgeif)))
		}
	}
	return out
}
