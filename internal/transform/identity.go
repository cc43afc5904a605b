// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// SystemIdentity copies hostname, domain, NTP servers and the DNS settings
// from the source <system> section into the output. These fields mean the
// same thing on both platforms, so the copy runs in both directions.
func SystemIdentity(out, source, _ *xmltree.Node) {
	src := source.Child("system")
	if src == nil {
		return
	}
	dst := out.Child("system")
	if dst == nil {
		return
	}

	for _, field := range []string{"hostname", "domain", "timeservers"} {
		v, ok := src.TextAt(field)
		if !ok {
			continue
		}
		value := strings.TrimSpace(v)
		if value == "" {
			continue
		}
		dst.SetChildText(field, value)
	}

	// DNS fields can repeat (dnsserver) or must mirror the source exactly,
	// so replace wholesale rather than merging.
	dnsFields := []string{
		"dnsallowoverride", "dnsallowoverride_exclude",
		"dns1gw", "dns2gw", "dns3gw", "dns4gw",
		"dns5gw", "dns6gw", "dns7gw", "dns8gw",
		"dnsserver",
	}
	for _, field := range dnsFields {
		dst.RemoveChildren(field)
		for _, child := range src.ChildList(field) {
			dst.Append(child.Clone())
		}
	}
}
