// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// ApplyInterfaceSettings carries the source's logical interface settings into
// the output while keeping the destination's physical device bindings. The
// two boxes usually have different NICs, so every field of the source
// interface is copied and only <if> comes from the target baseline.
// interfaceMap remaps source tags to target tags (opt2 to igc3 and the
// like); source interfaces absent from the target baseline are skipped.
func ApplyInterfaceSettings(out, source, target *xmltree.Node, interfaceMap map[string]string) {
	srcInterfaces := source.Child("interfaces")
	targetInterfaces := target.Child("interfaces")
	outInterfaces := out.Child("interfaces")
	if srcInterfaces == nil || targetInterfaces == nil || outInterfaces == nil {
		return
	}

	for _, srcIface := range srcInterfaces.Children {
		mapped := srcIface.Tag
		if m, ok := interfaceMap[srcIface.Tag]; ok {
			mapped = m
		}
		targetIface := targetInterfaces.Child(mapped)
		if targetIface == nil {
			continue
		}

		merged := srcIface.Clone()
		merged.Tag = mapped
		if v, ok := targetIface.TextAt("if"); ok {
			merged.SetChildText("if", strings.TrimSpace(v))
		}
		upsertChild(outInterfaces, merged)
	}
}
