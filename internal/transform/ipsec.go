// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strconv"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// IPsec config lives in up to three places across the two platforms: the
// legacy top-level <ipsec> section (pfSense phase1/phase2 or OPNsense
// general/charon), the nested <OPNsense><IPsec> settings store, and the
// nested <OPNsense><Swanctl> strongSwan connection model.

// IPsecToOpnsense carries IPsec configuration into an OPNsense output tree.
// A pfSense-style top-level <ipsec> is preserved verbatim for round-trip
// fidelity and additionally mapped into the Swanctl connection model. An
// OPNsense-style top-level <ipsec> is nested directly. When no top-level
// section exists the nested OPNsense sections pass through unchanged.
func IPsecToOpnsense(out, source, _ *xmltree.Node) {
	if top := source.Child("ipsec"); top != nil {
		upsertTopLevel(out, "ipsec", top)
		if looksLikePfsenseIPsec(top) {
			mappedIPsec, mappedSwanctl := mapPfsenseIPsec(top)
			upsertNestedOpnsense(out, "IPsec", mappedIPsec)
			upsertNestedOpnsense(out, "Swanctl", mappedSwanctl)
		} else {
			upsertNestedOpnsense(out, "IPsec", top)
		}
		return
	}

	if nested := source.Find("OPNsense", "IPsec"); nested != nil {
		upsertNestedOpnsense(out, "IPsec", nested)
	}
	if swanctl := source.Find("OPNsense", "Swanctl"); swanctl != nil {
		upsertNestedOpnsense(out, "Swanctl", swanctl)
	}
}

// IPsecToPfsense carries IPsec configuration into a pfSense output tree.
// pfSense expects a top-level <ipsec>; when the source only has the nested
// OPNsense section it is promoted. The nested copies and Swanctl are kept
// so a later conversion back to OPNsense loses nothing.
func IPsecToPfsense(out, source, _ *xmltree.Node) {
	top := source.Child("ipsec")
	if top != nil {
		upsertTopLevel(out, "ipsec", top)
		upsertNestedOpnsense(out, "IPsec", top)
	} else if nested := source.Find("OPNsense", "IPsec"); nested != nil {
		upsertTopLevel(out, "ipsec", nested)
		upsertNestedOpnsense(out, "IPsec", nested)
	}

	if swanctl := source.Find("OPNsense", "Swanctl"); swanctl != nil {
		upsertNestedOpnsense(out, "Swanctl", swanctl)
	}
}

func upsertTopLevel(out *xmltree.Node, tag string, node *xmltree.Node) {
	out.ReplaceChild(tag, cloneWithTag(node, tag))
}

func upsertNestedOpnsense(out *xmltree.Node, tag string, node *xmltree.Node) {
	out.EnsureChild("OPNsense").ReplaceChild(tag, cloneWithTag(node, tag))
}

// cloneWithTag clones a node and renames it, keeping attributes (the
// OPNsense ipsec section carries a version attribute that must survive).
func cloneWithTag(node *xmltree.Node, tag string) *xmltree.Node {
	clone := node.Clone()
	clone.Tag = tag
	return clone
}

// looksLikePfsenseIPsec reports whether an <ipsec> node uses pfSense's
// phase1/phase2 layout. OPNsense's top-level section holds general/charon
// instead, with tunnels under <OPNsense><Swanctl>.
func looksLikePfsenseIPsec(node *xmltree.Node) bool {
	return node.HasChild("phase1") || node.HasChild("phase2")
}

// mapPfsenseIPsec converts a pfSense phase1/phase2 <ipsec> section into the
// OPNsense pair of <IPsec> (settings and pre-shared keys) and <Swanctl>
// (Connections, locals, remotes, children). Every phase1 becomes a
// Connection plus a local and remote auth entry and a PSK record; every
// phase2 becomes a child SA linked to its Connection by the shared ikeid.
// Identifiers are deterministic so repeated conversions are idempotent.
func mapPfsenseIPsec(source *xmltree.Node) (*xmltree.Node, *xmltree.Node) {
	ipsec := baseOpnsenseIPsec()
	swanctl := baseSwanctl()

	phase1s := source.ChildList("phase1")
	phase2s := source.ChildList("phase2")

	for idx, p1 := range phase1s {
		ikeid := trimmedChildText(p1, "ikeid")
		if ikeid == "" {
			ikeid = strconv.Itoa(idx + 1)
		}

		connUUID := ipsecUUID("conn", idx, ikeid)
		enabled := enabledFromDisabled(p1)
		descr := trimmedChildText(p1, "descr")

		conn := xmltree.New("Connection")
		conn.SetAttr("uuid", connUUID)
		conn.AppendText("enabled", enabled)
		conn.AppendText("proposals", "default")
		conn.AppendText("unique", "no")
		conn.AppendText("aggressive", "0")
		conn.AppendText("version", "0")
		conn.AppendText("mobike", onOffBool(trimmedChildText(p1, "mobike")))
		conn.AppendText("local_addrs", "")
		conn.AppendText("local_port", "")
		conn.AppendText("remote_addrs", trimmedChildText(p1, "remote-gateway"))
		conn.AppendText("remote_port", "")
		conn.AppendText("encap", onOffBool(trimmedChildText(p1, "nat_traversal")))
		conn.AppendText("reauth_time", "")
		conn.AppendText("rekey_time", "")
		conn.AppendText("over_time", "")
		conn.AppendText("dpd_delay", trimmedChildText(p1, "dpd_delay"))
		conn.AppendText("dpd_timeout", trimmedChildText(p1, "dpd_maxfail"))
		conn.AppendText("pools", "radius")
		conn.AppendText("send_certreq", "1")
		conn.AppendText("send_cert", "")
		conn.AppendText("keyingtries", "")
		conn.AppendText("description", descr)
		swanctl.Child("Connections").Append(conn)

		local := xmltree.New("local")
		local.SetAttr("uuid", ipsecUUID("local", idx, ikeid))
		local.AppendText("enabled", enabled)
		local.AppendText("connection", connUUID)
		local.AppendText("round", "0")
		local.AppendText("auth", swanctlAuth(trimmedChildText(p1, "authentication_method")))
		local.AppendText("id", trimmedChildText(p1, "myid_data"))
		local.AppendText("eap_id", "")
		local.AppendText("certs", trimmedChildText(p1, "certref"))
		local.AppendText("pubkeys", "")
		local.AppendText("description", descr)
		swanctl.Child("locals").Append(local)

		remote := xmltree.New("remote")
		remote.SetAttr("uuid", ipsecUUID("remote", idx, ikeid))
		remote.AppendText("enabled", enabled)
		remote.AppendText("connection", connUUID)
		remote.AppendText("round", "0")
		remote.AppendText("auth", "psk")
		remote.AppendText("id", trimmedChildText(p1, "peerid_data"))
		remote.AppendText("eap_id", "")
		remote.AppendText("groups", "")
		remote.AppendText("certs", "")
		remote.AppendText("cacerts", trimmedChildText(p1, "caref"))
		remote.AppendText("pubkeys", "")
		remote.AppendText("description", descr)
		swanctl.Child("remotes").Append(remote)

		// pfSense embeds the pre-shared key in phase1; OPNsense keeps it
		// in a separate store keyed by the endpoint identities.
		psk := xmltree.New("preSharedKey")
		psk.SetAttr("uuid", ipsecUUID("psk", idx, ikeid))
		psk.AppendText("ident", trimmedChildText(p1, "myid_data"))
		psk.AppendText("remote_ident", trimmedChildText(p1, "peerid_data"))
		psk.AppendText("keyType", "PSK")
		psk.AppendText("Key", trimmedChildText(p1, "pre-shared-key"))
		psk.AppendText("description", descr)
		ipsec.Child("preSharedKeys").Append(psk)

		cidx := 0
		for _, p2 := range phase2s {
			if trimmedChildText(p2, "ikeid") != ikeid {
				continue
			}
			child := xmltree.New("child")
			child.SetAttr("uuid", ipsecUUID("child", cidx, ikeid))
			child.AppendText("enabled", "1")
			child.AppendText("connection", connUUID)
			child.AppendText("reqid", trimmedChildText(p2, "reqid"))
			child.AppendText("esp_proposals", "default")
			child.AppendText("sha256_96", "0")
			child.AppendText("start_action", startAction(p1))
			child.AppendText("close_action", "none")
			child.AppendText("dpd_action", "clear")
			child.AppendText("mode", textOrDefault(p2, "mode", "tunnel"))
			child.AppendText("policies", "1")
			child.AppendText("local_ts", trafficSelector(p2.Child("localid")))
			child.AppendText("remote_ts", trafficSelector(p2.Child("remoteid")))
			child.AppendText("rekey_time", trimmedChildText(p2, "lifetime"))
			child.AppendText("description", trimmedChildText(p2, "descr"))
			swanctl.Child("children").Append(child)
			cidx++
		}
	}

	return ipsec, swanctl
}

func baseOpnsenseIPsec() *xmltree.Node {
	ipsec := xmltree.New("IPsec")
	general := xmltree.New("general")
	general.AppendText("enabled", "")
	general.AppendText("preferred_oldsa", "0")
	general.AppendText("disablevpnrules", "0")
	general.AppendText("passthrough_networks", "")
	general.AppendText("user_source", "")
	general.AppendText("local_group", "")
	ipsec.Append(general)

	charon := xmltree.New("charon")
	charon.AppendText("threads", "16")
	charon.AppendText("install_routes", "0")
	ipsec.Append(charon)

	ipsec.Append(xmltree.New("keyPairs"))
	ipsec.Append(xmltree.New("preSharedKeys"))
	return ipsec
}

func baseSwanctl() *xmltree.Node {
	swanctl := xmltree.New("Swanctl")
	for _, tag := range []string{"Connections", "locals", "remotes", "children", "Pools", "VTIs", "SPDs"} {
		swanctl.Append(xmltree.New(tag))
	}
	return swanctl
}

// ipsecUUID links the Connection, local, remote, child, and PSK records
// derived from the same phase1 entry. The prefix keeps the records distinct,
// the ikeid makes them stable across conversions.
func ipsecUUID(prefix string, idx int, ikeid string) string {
	return accUUID([]byte(prefix+ikeid), idx)
}

// enabledFromDisabled converts pfSense's presence-of-<disabled> convention
// into the explicit enabled flag Swanctl records carry.
func enabledFromDisabled(p1 *xmltree.Node) string {
	if trimmedChildText(p1, "disabled") == "" {
		return "1"
	}
	return "0"
}

func swanctlAuth(method string) string {
	if strings.EqualFold(method, "pre_shared_key") || method == "" {
		return "psk"
	}
	return "pubkey"
}

func startAction(p1 *xmltree.Node) string {
	if strings.EqualFold(trimmedChildText(p1, "startaction"), "start") {
		return "start"
	}
	return "none"
}

func onOffBool(v string) string {
	if strings.EqualFold(v, "on") {
		return "1"
	}
	return "0"
}

// trafficSelector renders a pfSense phase2 localid/remoteid selector in the
// form Swanctl expects: network selectors as CIDR, address selectors as the
// bare address, range selectors as from-to.
func trafficSelector(selector *xmltree.Node) string {
	if selector == nil {
		return ""
	}
	switch {
	case strings.EqualFold(trimmedChildText(selector, "type"), "network"):
		addr := trimmedChildText(selector, "address")
		bits := trimmedChildText(selector, "netbits")
		if addr == "" || bits == "" {
			return ""
		}
		return addr + "/" + bits
	case strings.EqualFold(trimmedChildText(selector, "type"), "address"):
		return trimmedChildText(selector, "address")
	case strings.EqualFold(trimmedChildText(selector, "type"), "range"):
		from := trimmedChildText(selector, "from")
		to := trimmedChildText(selector, "to")
		if from == "" || to == "" {
			return ""
		}
		return from + "-" + to
	}
	return ""
}
