// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// WireGuard structures diverge sharply: pfSense's package stores flat
// tunnels/peers item lists under <installedpackages><wireguard> with
// tun_wgN device names, while OPNsense stores server/client records under
// <OPNsense><wireguard> with wgN devices numbered by <instance>. Converting
// to pfSense embeds the full OPNsense subtree as
// <opnsense_wireguard_snapshot> so a later hop back restores fields the
// pfSense model cannot carry.

// WireGuardToOpnsense places WireGuard config in the OPNsense container,
// mapping pfSense tunnels and peers when the source is not already nested.
func WireGuardToOpnsense(out, source, _ *xmltree.Node) {
	if opn := source.Child("OPNsense"); opn != nil && opn.HasChild("wireguard") {
		upsertNestedWireguard(out, opn.Child("wireguard").Clone())
	} else if top := sourcePfsenseWireguard(source); top != nil {
		upsertNestedWireguard(out, mapPfsenseWireguard(top))
	}
	ensureWireguardInterfaceAssignment(out, source)
}

// WireGuardToPfsense places WireGuard config under installedpackages,
// mapping OPNsense servers and clients when needed.
func WireGuardToPfsense(out, source, _ *xmltree.Node) {
	if top := sourcePfsenseWireguard(source); top != nil {
		upsertChild(out.EnsureChild("installedpackages"), top.Clone())
	} else if opn := source.Child("OPNsense"); opn != nil && opn.HasChild("wireguard") {
		upsertChild(out.EnsureChild("installedpackages"), mapOpnsenseWireguard(opn.Child("wireguard")))
	}
	ensureWireguardInterfaceAssignment(out, source)
}

// NormalizeOpnsenseWireguardIfNames rewrites interface assignments to the
// wgN device names OPNsense derives from server instance numbers, and
// converts pfSense tun_wgN names along the way.
func NormalizeOpnsenseWireguardIfNames(out *xmltree.Node) {
	instanceMap := opnsenseWireguardInstanceMap(out)
	interfaces := out.Child("interfaces")
	if interfaces == nil {
		return
	}
	for _, iface := range interfaces.Children {
		cur := strings.TrimSpace(iface.TextOr("", "if"))
		if cur == "" {
			continue
		}
		if mapped, ok := instanceMap[strings.ToLower(cur)]; ok {
			iface.SetChildText("if", mapped)
			continue
		}
		if mapped, ok := tunWgToWg(cur); ok {
			iface.SetChildText("if", mapped)
		}
	}
}

func sourcePfsenseWireguard(source *xmltree.Node) *xmltree.Node {
	if n := source.Child("wireguard"); n != nil {
		return n
	}
	if ip := source.Child("installedpackages"); ip != nil {
		return ip.Child("wireguard")
	}
	return nil
}

func upsertNestedWireguard(out *xmltree.Node, wireguard *xmltree.Node) {
	upsertChild(out.EnsureChild("OPNsense"), wireguard)
}

// ensureWireguardInterfaceAssignment makes sure configured WireGuard devices
// have an interface assignment, copying the source's entries or deriving one
// from the config. Without an assignment the devices are invisible to
// firewall rules.
func ensureWireguardInterfaceAssignment(out, source *xmltree.Node) {
	srcIfaces := sourceWireguardInterfaces(source)
	if !wireguardConfigPresent(source) && len(srcIfaces) == 0 {
		return
	}
	if hasWireguardInterfaceAssignment(out) {
		return
	}
	if len(srcIfaces) == 0 {
		if fallback, ok := deriveWireguardIfFromConfig(source); ok {
			iface := xmltree.New("wireguard")
			iface.AppendText("if", fallback)
			srcIfaces = append(srcIfaces, iface)
		}
	}
	if len(srcIfaces) == 0 {
		return
	}
	interfaces := out.EnsureChild("interfaces")
	for _, iface := range srcIfaces {
		dup := false
		for _, existing := range interfaces.Children {
			if existing.Tag == iface.Tag || lowerIfName(existing) == lowerIfName(iface) {
				dup = true
				break
			}
		}
		if !dup {
			interfaces.Append(iface)
		}
	}
}

func sourceWireguardInterfaces(source *xmltree.Node) []*xmltree.Node {
	interfaces := source.Child("interfaces")
	if interfaces == nil {
		return nil
	}
	var out []*xmltree.Node
	for _, iface := range interfaces.Children {
		if strings.EqualFold(iface.Tag, "wireguard") || strings.Contains(lowerIfName(iface), "wg") {
			out = append(out, iface.Clone())
		}
	}
	return out
}

func hasWireguardInterfaceAssignment(root *xmltree.Node) bool {
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return false
	}
	for _, iface := range interfaces.Children {
		if strings.EqualFold(iface.Tag, "wireguard") || strings.Contains(lowerIfName(iface), "wg") {
			return true
		}
	}
	return false
}

func lowerIfName(iface *xmltree.Node) string {
	return strings.ToLower(strings.TrimSpace(iface.TextOr("", "if")))
}

func wireguardConfigPresent(root *xmltree.Node) bool {
	if root.HasChild("wireguard") {
		return true
	}
	if ip := root.Child("installedpackages"); ip != nil && ip.HasChild("wireguard") {
		return true
	}
	if opn := root.Child("OPNsense"); opn != nil && opn.HasChild("wireguard") {
		return true
	}
	return false
}

func deriveWireguardIfFromConfig(source *xmltree.Node) (string, bool) {
	top := source.Child("wireguard")
	if top == nil {
		return "", false
	}
	var names []string
	collectWireguardCandidateNames(top, &names)
	if len(names) == 0 {
		return "", false
	}
	best := names[0]
	for _, n := range names[1:] {
		if n < best {
			best = n
		}
	}
	return best, true
}

func collectWireguardCandidateNames(node *xmltree.Node, out *[]string) {
	switch node.Tag {
	case "name", "tun", "interface", "if":
		text := strings.TrimSpace(node.Text)
		if strings.Contains(strings.ToLower(text), "wg") {
			*out = append(*out, text)
		}
	case "instance":
		text := strings.TrimSpace(node.Text)
		if text != "" && allDigits(text) {
			*out = append(*out, "wg"+text)
		}
	}
	for _, child := range node.Children {
		collectWireguardCandidateNames(child, out)
	}
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func tunWgToWg(input string) (string, bool) {
	suffix, ok := strings.CutPrefix(strings.ToLower(input), "tun_wg")
	if !ok || !allDigits(suffix) {
		return "", false
	}
	return "wg" + suffix, true
}

func opnsenseWireguardInstanceMap(root *xmltree.Node) map[string]string {
	out := map[string]string{}
	servers := root.Find("OPNsense", "wireguard", "server", "servers")
	if servers == nil {
		return out
	}
	for _, server := range servers.ChildList("server") {
		instance := trimmedChildText(server, "instance")
		if !allDigits(instance) {
			continue
		}
		device := "wg" + instance
		if name := trimmedChildText(server, "name"); name != "" {
			out[strings.ToLower(name)] = device
		}
		out[device] = device
	}
	return out
}

func asBoolText(value string) string {
	if isTruthy(value) {
		return "1"
	}
	return "0"
}

// mapPfsenseWireguard converts the tunnels/peers item lists into OPNsense's
// server/client records. A previously embedded snapshot wins outright.
func mapPfsenseWireguard(source *xmltree.Node) *xmltree.Node {
	if snapshot := source.Child("opnsense_wireguard_snapshot"); snapshot != nil {
		restored := snapshot.Clone()
		restored.Tag = "wireguard"
		return restored
	}

	out := xmltree.New("wireguard")
	peersByTun := map[string][]string{}

	clientWrap := xmltree.New("client")
	clients := xmltree.New("clients")
	if peers := source.Child("peers"); peers != nil {
		for idx, peer := range peers.ChildList("item") {
			uuid := crcUUID([]byte("pf-peer"), idx)
			client := xmltree.New("client")
			client.SetAttr("uuid", uuid)
			client.AppendText("enabled", asBoolText(trimmedChildText(peer, "enabled")))
			name := trimmedChildText(peer, "descr")
			if name == "" {
				name = fmt.Sprintf("wg_peer_%d", idx+1)
			}
			client.AppendText("name", name)
			client.AppendText("pubkey", trimmedChildText(peer, "publickey"))
			client.AppendText("psk", trimmedChildText(peer, "presharedkey"))
			client.AppendText("tunneladdress", peerTunnelAddress(peer))
			client.AppendText("serveraddress", trimmedTextAt(peer, "endpoint", "address"))
			client.AppendText("serverport", trimmedTextAt(peer, "endpoint", "port"))
			client.AppendText("keepalive", trimmedChildText(peer, "persistentkeepalive"))
			if tun := trimmedChildText(peer, "tun"); tun != "" {
				peersByTun[tun] = append(peersByTun[tun], uuid)
			}
			clients.Append(client)
		}
	}
	clientWrap.Append(clients)
	out.Append(clientWrap)

	general := xmltree.New("general")
	enable := trimmedTextAt(source, "config", "enable")
	if enable == "" {
		enable = trimmedTextAt(source, "config", "enabled")
	}
	general.AppendText("enabled", asBoolText(enable))
	out.Append(general)

	serverWrap := xmltree.New("server")
	servers := xmltree.New("servers")
	if tunnels := source.Child("tunnels"); tunnels != nil {
		for idx, tunnel := range tunnels.ChildList("item") {
			tunName := trimmedChildText(tunnel, "name")
			if tunName == "" {
				tunName = fmt.Sprintf("tun_wg%d", idx)
			}
			server := xmltree.New("server")
			server.SetAttr("uuid", crcUUID([]byte("pf-tunnel"), idx))
			server.AppendText("enabled", asBoolText(trimmedChildText(tunnel, "enabled")))
			server.AppendText("name", tunName)
			server.AppendText("instance", extractInstanceID(tunName))
			server.AppendText("pubkey", trimmedChildText(tunnel, "publickey"))
			server.AppendText("privkey", trimmedChildText(tunnel, "privatekey"))
			server.AppendText("port", trimmedChildText(tunnel, "listenport"))
			server.AppendText("mtu", trimmedChildText(tunnel, "mtu"))
			server.AppendText("tunneladdress", trimmedChildText(tunnel, "addresses"))
			server.AppendText("disableroutes", "1")
			server.AppendText("gateway", "")
			server.AppendText("carp_depend_on", "")
			server.AppendText("peers", strings.Join(peersByTun[tunName], ","))
			server.AppendText("debug", "0")
			server.AppendText("endpoint", "")
			server.AppendText("peer_dns", "")
			servers.Append(server)
		}
	}
	serverWrap.Append(servers)
	out.Append(serverWrap)
	return out
}

// peerTunnelAddress flattens pfSense's allowedips/row records into the
// comma-separated CIDR list OPNsense expects. Rows without a mask default
// to /32.
func peerTunnelAddress(peer *xmltree.Node) string {
	allowed := peer.Child("allowedips")
	if allowed == nil {
		return ""
	}
	var cidrs []string
	for _, row := range allowed.ChildList("row") {
		addr := trimmedChildText(row, "address")
		if addr == "" {
			continue
		}
		mask := trimmedChildText(row, "mask")
		if mask == "" {
			mask = "32"
		}
		cidrs = append(cidrs, addr+"/"+mask)
	}
	return strings.Join(cidrs, ",")
}

// extractInstanceID pulls the digits out of a tunnel name (tun_wg12 is
// instance 12); names without digits get instance 0.
func extractInstanceID(tunName string) string {
	var digits strings.Builder
	for _, c := range tunName {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	if digits.Len() == 0 {
		return "0"
	}
	return digits.String()
}

// mapOpnsenseWireguard converts server/client records into pfSense's
// tunnels/peers item lists and embeds the source subtree as a snapshot.
func mapOpnsenseWireguard(source *xmltree.Node) *xmltree.Node {
	out := xmltree.New("wireguard")
	serverPeerMap := collectServerPeers(source)

	tunnels := xmltree.New("tunnels")
	if servers := source.Find("server", "servers"); servers != nil {
		for idx, server := range servers.ChildList("server") {
			item := xmltree.New("item")
			name := trimmedChildText(server, "name")
			if name == "" {
				name = fmt.Sprintf("tun_wg%d", idx)
			}
			item.AppendText("addresses", trimmedChildText(server, "tunneladdress"))
			if !strings.HasPrefix(name, "tun_") {
				name = "tun_" + name
			}
			item.AppendText("name", name)
			item.AppendText("enabled", yesNo(isTruthy(trimmedChildText(server, "enabled"))))
			item.AppendText("descr", trimmedChildText(server, "name"))
			item.AppendText("listenport", trimmedChildText(server, "port"))
			item.AppendText("privatekey", trimmedChildText(server, "privkey"))
			item.AppendText("publickey", trimmedChildText(server, "pubkey"))
			item.AppendText("mtu", trimmedChildText(server, "mtu"))
			tunnels.Append(item)
		}
	}
	out.Append(tunnels)

	peers := xmltree.New("peers")
	if clients := source.Find("client", "clients"); clients != nil {
		for idx, client := range clients.ChildList("client") {
			uuid, _ := client.Attr("uuid")
			item := xmltree.New("item")
			allowed := xmltree.New("allowedips")
			for _, cidr := range splitCSV(trimmedChildText(client, "tunneladdress")) {
				addr, mask := splitCIDR(cidr)
				row := xmltree.New("row")
				row.AppendText("address", addr)
				row.AppendText("mask", mask)
				row.AppendText("descr", "")
				allowed.Append(row)
			}
			item.Append(allowed)
			item.AppendText("enabled", yesNo(isTruthy(trimmedChildText(client, "enabled"))))
			tun, ok := serverPeerMap[uuid]
			if !ok {
				tun = fmt.Sprintf("tun_wg%d", idx)
			}
			item.AppendText("tun", tun)
			descr := trimmedChildText(client, "name")
			if descr == "" {
				descr = "imported_peer"
			}
			item.AppendText("descr", descr)
			item.AppendText("persistentkeepalive", trimmedChildText(client, "keepalive"))
			item.AppendText("publickey", trimmedChildText(client, "pubkey"))
			item.AppendText("presharedkey", trimmedChildText(client, "psk"))
			peers.Append(item)
		}
	}
	out.Append(peers)

	config := xmltree.New("config")
	enabled := trimmedTextAt(source, "general", "enabled")
	if enabled == "" {
		enabled = trimmedTextAt(source, "general", "enable")
	}
	config.AppendText("enable", onOff(isTruthy(enabled)))
	config.AppendText("keep_conf", "yes")
	config.AppendText("resolve_interval", "300")
	config.AppendText("resolve_interval_track", "no")
	config.AppendText("interface_group", "all")
	config.AppendText("hide_secrets", "yes")
	config.AppendText("hide_peers", "yes")
	out.Append(config)

	snapshot := source.Clone()
	snapshot.Tag = "opnsense_wireguard_snapshot"
	out.Append(snapshot)
	return out
}

func collectServerPeers(source *xmltree.Node) map[string]string {
	m := map[string]string{}
	servers := source.Find("server", "servers")
	if servers == nil {
		return m
	}
	for idx, server := range servers.ChildList("server") {
		tun := trimmedChildText(server, "name")
		if tun == "" {
			tun = fmt.Sprintf("tun_wg%d", idx)
		}
		if !strings.HasPrefix(tun, "tun_") {
			tun = "tun_" + tun
		}
		for _, id := range splitCSV(trimmedChildText(server, "peers")) {
			m[id] = tun
		}
	}
	return m
}

func splitCIDR(value string) (addr, mask string) {
	if a, m, ok := strings.Cut(value, "/"); ok {
		return strings.TrimSpace(a), strings.TrimSpace(m)
	}
	return strings.TrimSpace(value), "32"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func trimmedTextAt(node *xmltree.Node, path ...string) string {
	if v, ok := node.TextAt(path...); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
