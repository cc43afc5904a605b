// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"grimm.is/pfopn/internal/xmltree"
)

// syncedTopLevelSections are the config sections whose content must come from
// the source config rather than the destination baseline. Both platform
// spellings of the DHCPv6 sections are listed.
var syncedTopLevelSections = []string{
	"version",
	"system",
	"interfaces",
	"filter",
	"nat",
	"dhcpd",
	"dhcpdv6",
	"dhcpd6",
	"dhcrelay",
	"dhcrelay6",
	"dhcp6relay",
	"snmpd",
	"syslog",
	"rrd",
	"gateways",
}

// SyncSharedSections replaces the shared top-level sections in out with the
// source's copies so baseline defaults never leak into converted output.
// Sections the source lacks are removed from out entirely.
func SyncSharedSections(out, source *xmltree.Node) {
	for _, tag := range syncedTopLevelSections {
		if src := source.Child(tag); src != nil {
			out.ReplaceChild(tag, src.Clone())
		} else {
			out.RemoveChildren(tag)
		}
	}
}
