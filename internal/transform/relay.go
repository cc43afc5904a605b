// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// Both platforms store relay config in top-level <dhcrelay> and <dhcrelay6>
// (legacy spelling <dhcp6relay>) sections. OPNsense additionally ships the
// os-dhcrelay plugin whose model lives under <OPNsense><DHCRelay>, splitting
// the flat sections into destination records and per-interface relay rows.

var relayTags = []string{"dhcrelay", "dhcrelay6", "dhcp6relay"}

// RelayToOpnsense syncs the flat relay sections from the source and projects
// them into the OPNsense DHCRelay plugin model.
func RelayToOpnsense(out, source, _ *xmltree.Node) {
	syncRelaySections(out, source)
	mapRelayToPlugin(out, source)
}

// RelayToPfsense syncs the flat relay sections and, when the source carries
// plugin config, rebuilds the flat sections from it.
func RelayToPfsense(out, source, _ *xmltree.Node) {
	syncRelaySections(out, source)
	mapPluginToRelay(out, source)
}

// syncRelaySections replaces the output's relay sections with the source's,
// so the output never keeps leftovers from the target template.
func syncRelaySections(out, source *xmltree.Node) {
	out.RetainChildren(func(child *xmltree.Node) bool {
		return !isRelayTag(child.Tag)
	})
	for _, child := range source.Children {
		if isRelayTag(child.Tag) {
			out.Append(child.Clone())
		}
	}
}

func isRelayTag(tag string) bool {
	for _, t := range relayTags {
		if tag == t {
			return true
		}
	}
	return false
}

// mapRelayToPlugin converts the flat relay sections into the plugin model:
// one destinations record per address family plus one relays row per
// interface, linked by the destination identifier.
func mapRelayToPlugin(out, source *xmltree.Node) {
	type relayEntry struct {
		node   *xmltree.Node
		family string
	}
	var entries []relayEntry
	if relay4 := source.Child("dhcrelay"); relay4 != nil {
		entries = append(entries, relayEntry{relay4, "v4"})
	}
	relay6 := source.Child("dhcp6relay")
	if relay6 == nil {
		relay6 = source.Child("dhcrelay6")
	}
	if relay6 != nil {
		entries = append(entries, relayEntry{relay6, "v6"})
	}
	if len(entries) == 0 {
		return
	}

	opn := out.EnsureChild("OPNsense")
	opn.RemoveChildren("DHCRelay")

	dhc := xmltree.New("DHCRelay")
	dhc.SetAttr("version", "1.0.1")
	dhc.SetAttr("description", "DHCRelay configuration")

	seed := uint64(1)
	for _, entry := range entries {
		interfaces := splitCSV(trimmedChildText(entry.node, "interface"))
		server := trimmedChildText(entry.node, "server")
		enabled := "0"
		if entry.node.HasChild("enable") || relayEnabled(trimmedChildText(entry.node, "enable")) {
			enabled = "1"
		}
		if server == "" || len(interfaces) == 0 {
			continue
		}

		destUUID := syntheticUUID(seed)
		seed++

		dest := xmltree.New("destinations")
		dest.SetAttr("uuid", destUUID)
		dest.AppendText("name", "relay_destination_"+entry.family)
		dest.AppendText("server", server)
		dhc.Append(dest)

		for _, iface := range interfaces {
			row := xmltree.New("relays")
			row.SetAttr("uuid", syntheticUUID(seed+100))
			seed++
			row.AppendText("enabled", enabled)
			row.AppendText("interface", iface)
			row.AppendText("destination", destUUID)
			row.AppendText("agent_info", "0")
			row.AppendText("carp_depend_on", "")
			dhc.Append(row)
		}
	}

	opn.Append(dhc)
}

// mapPluginToRelay rebuilds the flat relay sections from plugin config,
// splitting IPv4 from IPv6 destinations by the presence of a colon in the
// server address.
func mapPluginToRelay(out, source *xmltree.Node) {
	dhc := source.Find("OPNsense", "DHCRelay")
	if dhc == nil {
		return
	}

	serverFor := func(uuid string) string {
		for _, d := range dhc.ChildList("destinations") {
			if v, _ := d.Attr("uuid"); v == uuid {
				return trimmedChildText(d, "server")
			}
		}
		return ""
	}

	var ifacesV4, ifacesV6, serversV4, serversV6 []string
	var enabledV4, enabledV6 bool

	for _, row := range dhc.ChildList("relays") {
		iface := trimmedChildText(row, "interface")
		if iface == "" {
			continue
		}
		destUUID := trimmedChildText(row, "destination")
		if destUUID == "" {
			continue
		}
		server := serverFor(destUUID)
		if server == "" {
			continue
		}

		if strings.Contains(server, ":") {
			ifacesV6 = appendUnique(ifacesV6, iface)
			serversV6 = appendUnique(serversV6, server)
			if trimmedChildText(row, "enabled") == "1" {
				enabledV6 = true
			}
		} else {
			ifacesV4 = appendUnique(ifacesV4, iface)
			serversV4 = appendUnique(serversV4, server)
			if trimmedChildText(row, "enabled") == "1" {
				enabledV4 = true
			}
		}
	}

	out.RetainChildren(func(child *xmltree.Node) bool {
		return !isRelayTag(child.Tag)
	})

	if len(ifacesV4) > 0 || len(serversV4) > 0 {
		out.Append(flatRelaySection("dhcrelay", enabledV4, ifacesV4, serversV4))
	}
	if len(ifacesV6) > 0 || len(serversV6) > 0 {
		out.Append(flatRelaySection("dhcp6relay", enabledV6, ifacesV6, serversV6))
	}
}

func flatRelaySection(tag string, enabled bool, ifaces, servers []string) *xmltree.Node {
	relay := xmltree.New(tag)
	if enabled {
		relay.Append(xmltree.New("enable"))
	}
	relay.AppendText("interface", strings.Join(ifaces, ","))
	relay.AppendText("server", strings.Join(servers, ","))
	return relay
}

func relayEnabled(v string) bool {
	return v == "1" || strings.EqualFold(v, "on") || strings.EqualFold(v, "true")
}

func appendUnique(items []string, value string) []string {
	for _, v := range items {
		if v == value {
			return items
		}
	}
	return append(items, value)
}
