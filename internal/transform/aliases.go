// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// AliasesToOpnsense moves firewall aliases from pfSense's flat <aliases>
// section into OPNsense's nested OPNsense/Firewall/Alias/aliases structure.
// Names are deduplicated case-insensitively.
func AliasesToOpnsense(out, source, _ *xmltree.Node) {
	src := source.Child("aliases")
	if src == nil {
		return
	}
	items := cloneAliases(src)
	dst := out.EnsureChild("OPNsense").EnsureChild("Firewall").EnsureChild("Alias").EnsureChild("aliases")
	dst.RemoveChildren("alias")
	insertAliases(dst, items)
}

// AliasesToPfsense is the reverse: the nested OPNsense alias container
// becomes pfSense's flat top-level <aliases> section.
func AliasesToPfsense(out, source, _ *xmltree.Node) {
	opn := source.Child("OPNsense")
	if opn == nil {
		return
	}
	src := opn.Find("Firewall", "Alias", "aliases")
	if src == nil {
		return
	}
	items := cloneAliases(src)
	dst := out.EnsureChild("aliases")
	dst.RemoveChildren("alias")
	insertAliases(dst, items)
}

func cloneAliases(container *xmltree.Node) []*xmltree.Node {
	var items []*xmltree.Node
	for _, alias := range container.ChildList("alias") {
		items = append(items, alias.Clone())
	}
	return items
}

func insertAliases(dst *xmltree.Node, items []*xmltree.Node) {
	seen := map[string]bool{}
	for _, alias := range dst.ChildList("alias") {
		if name, ok := aliasName(alias); ok {
			seen[name] = true
		}
	}
	for _, alias := range items {
		if name, ok := aliasName(alias); ok {
			if seen[name] {
				continue
			}
			seen[name] = true
		}
		dst.Append(alias)
	}
}

func aliasName(alias *xmltree.Node) (string, bool) {
	v, ok := alias.TextAt("name")
	if !ok {
		return "", false
	}
	name := strings.ToLower(strings.TrimSpace(v))
	if name == "" {
		return "", false
	}
	return name, true
}
