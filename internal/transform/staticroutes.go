// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"fmt"

	"grimm.is/pfopn/internal/xmltree"
)

// StaticRoutesToOpnsense stamps a deterministic uuid attribute on every
// staticroutes/route entry and adds the <disabled>0</disabled> leaf that
// OPNsense writes for enabled routes.
func StaticRoutesToOpnsense(out, _, _ *xmltree.Node) {
	sr := out.Child("staticroutes")
	if sr == nil {
		return
	}
	for idx, route := range sr.ChildList("route") {
		if _, ok := route.Attr("uuid"); !ok {
			seed := fmt.Sprintf("%s|%s|%s|%d",
				route.TextOr("", "network"),
				route.TextOr("", "gateway"),
				route.TextOr("", "descr"),
				idx)
			route.SetAttr("uuid", crcUUID([]byte(seed), idx))
		}
		if !route.HasChild("disabled") {
			route.AppendText("disabled", "0")
		}
	}
}

// StaticRoutesToPfsense removes the OPNsense uuid attribute and the
// <disabled>0</disabled> marker so routes match pfSense's bare format.
func StaticRoutesToPfsense(out, _, _ *xmltree.Node) {
	sr := out.Child("staticroutes")
	if sr == nil {
		return
	}
	for _, route := range sr.ChildList("route") {
		route.DelAttr("uuid")
		route.RemoveChildren("disabled")
	}
}
