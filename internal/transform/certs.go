// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// CertsToOpnsense stamps uuid attributes on top-level ca and cert entries.
// OPNsense expects them; the seed is refid, then descr, then a positional
// fallback so the stamp is stable across runs.
func CertsToOpnsense(out, _, _ *xmltree.Node) {
	stampUUIDAttrs(out, "ca")
	stampUUIDAttrs(out, "cert")
}

// CertsToPfsense strips uuid attributes from top-level ca and cert entries.
func CertsToPfsense(out, _, _ *xmltree.Node) {
	stripUUIDAttrs(out, "ca")
	stripUUIDAttrs(out, "cert")
}

func stampUUIDAttrs(root *xmltree.Node, tag string) {
	ordinal := 0
	for _, node := range root.ChildList(tag) {
		if _, ok := node.Attr("uuid"); ok {
			ordinal++
			continue
		}
		seed := ""
		if v, ok := node.TextAt("refid"); ok && strings.TrimSpace(v) != "" {
			seed = strings.TrimSpace(v)
		} else if v, ok := node.TextAt("descr"); ok && strings.TrimSpace(v) != "" {
			seed = strings.TrimSpace(v)
		} else {
			seed = fmt.Sprintf("%s:%d", tag, ordinal)
		}
		node.SetAttr("uuid", crcUUID([]byte(seed), ordinal))
		ordinal++
	}
}

func stripUUIDAttrs(root *xmltree.Node, tag string) {
	for _, node := range root.ChildList(tag) {
		node.DelAttr("uuid")
	}
}
