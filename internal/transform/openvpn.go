// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// OpenVPN config differs structurally between the platforms. pfSense keeps
// <openvpn-server> and <openvpn-client> entries under a root <openvpn>
// element keyed by vpnid; OPNsense keeps unified <Instance> records under
// OPNsense/OpenVPN/Instances, distinguished by a role field and identified
// by a uuid attribute. Conversions keep both shapes in OPNsense output (the
// nested one is authoritative, the top-level one is for compatibility) and
// stamp <opnsense_instance_uuid> markers on pfSense output so a round trip
// restores the original instance identity.

// OpenVPNToOpnsense builds the nested Instances structure. A source that is
// already OPNsense-shaped is used as-is; otherwise pfSense servers are
// mapped to instances.
func OpenVPNToOpnsense(out, source, target *xmltree.Node) {
	instances := sourceOpnsenseInstances(source)
	if instances == nil {
		instances = mapPfsenseServersToInstances(source, target)
	}
	if len(instances.Children) == 0 {
		return
	}

	openvpn := out.EnsureChild("OPNsense").EnsureChild("OpenVPN")
	upsertChild(openvpn, instances)

	if pf := sourcePfsenseServers(source); pf != nil && !isOpnsenseOriginOpenvpn(pf) {
		upsertChild(out, pf)
	} else {
		// Keep an empty top-level element for tools that expect it.
		out.ReplaceChild("openvpn", xmltree.New("openvpn"))
	}
	dedupeTopLevelOpenvpn(out)
}

// OpenVPNToPfsense builds the flat <openvpn> section with server entries.
func OpenVPNToPfsense(out, source, _ *xmltree.Node) {
	servers := sourcePfsenseServers(source)
	if servers == nil {
		servers = mapInstancesToPfsense(source)
	}
	if len(servers.Children) == 0 {
		return
	}
	upsertChild(out, servers)
	dedupeTopLevelOpenvpn(out)
}

func sourceOpnsenseInstances(source *xmltree.Node) *xmltree.Node {
	if n := source.Find("OPNsense", "OpenVPN", "Instances"); n != nil {
		return n.Clone()
	}
	return nil
}

// sourcePfsenseServers returns the root <openvpn> element only when it holds
// actual server or client entries.
func sourcePfsenseServers(source *xmltree.Node) *xmltree.Node {
	openvpn := source.Child("openvpn")
	if openvpn == nil {
		return nil
	}
	for _, c := range openvpn.Children {
		if c.Tag == "openvpn-server" || c.Tag == "openvpn-client" {
			return openvpn.Clone()
		}
	}
	return nil
}

// isOpnsenseOriginOpenvpn reports whether every server carries a round-trip
// uuid marker, meaning this config came from OPNsense in the first place.
func isOpnsenseOriginOpenvpn(openvpn *xmltree.Node) bool {
	servers := openvpn.ChildList("openvpn-server")
	if len(servers) == 0 {
		return false
	}
	for _, s := range servers {
		if _, ok := s.TextAt("opnsense_instance_uuid"); !ok {
			return false
		}
	}
	return true
}

func dedupeTopLevelOpenvpn(out *xmltree.Node) {
	seen := false
	out.RetainChildren(func(n *xmltree.Node) bool {
		if n.Tag != "openvpn" {
			return true
		}
		if seen {
			return false
		}
		seen = true
		return true
	})
}

// sourceAssignedOvpnsUnits lists the OpenVPN server unit numbers referenced
// by interface assignments (ovpnsN device names), sorted and deduplicated.
func sourceAssignedOvpnsUnits(source *xmltree.Node) []string {
	interfaces := source.Child("interfaces")
	if interfaces == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, iface := range interfaces.Children {
		raw := strings.ToLower(strings.TrimSpace(iface.TextOr("", "if")))
		unit, ok := strings.CutPrefix(raw, "ovpns")
		if !ok || unit == "" {
			continue
		}
		if _, err := strconv.Atoi(unit); err != nil {
			continue
		}
		if !seen[unit] {
			seen[unit] = true
			out = append(out, unit)
		}
	}
	sort.Strings(out)
	return out
}

// syntheticUUIDForID derives the instance uuid from the digits of the vpnid,
// falling back to the positional index.
func syntheticUUIDForID(vpnid string, index int) string {
	var digits strings.Builder
	for _, c := range vpnid {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	n, err := strconv.ParseUint(digits.String(), 10, 64)
	if err != nil {
		n = uint64(index + 1)
	}
	return syntheticUUID(n)
}

func textOrDefault(node *xmltree.Node, tag, fallback string) string {
	if v, ok := node.TextAt(tag); ok {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return fallback
}

func mapPfsenseServersToInstances(source, target *xmltree.Node) *xmltree.Node {
	instances := xmltree.New("Instances")
	openvpn := source.Child("openvpn")
	if openvpn == nil {
		return instances
	}

	template := target.Find("OPNsense", "OpenVPN", "Instances", "Instance")
	assignedUnits := sourceAssignedOvpnsUnits(source)
	servers := openvpn.ChildList("openvpn-server")

	for idx, server := range servers {
		var instance *xmltree.Node
		if template != nil {
			instance = template.Clone()
		} else {
			instance = xmltree.New("Instance")
		}
		instance.Tag = "Instance"

		// Prefer the interface assignment's unit number for the vpnid when
		// servers and assignments pair up unambiguously.
		mappedUnit := ""
		if len(assignedUnits) == len(servers) && idx < len(assignedUnits) {
			mappedUnit = assignedUnits[idx]
		} else if len(servers) == 1 && len(assignedUnits) == 1 {
			mappedUnit = assignedUnits[0]
		}
		vpnid := mappedUnit
		if vpnid == "" {
			vpnid = textOrDefault(server, "vpnid", "1")
		}

		uuid := textOrDefault(server, "opnsense_instance_uuid", "")
		if uuid == "" {
			uuid = syntheticUUIDForID(vpnid, len(instances.Children))
		}
		instance.SetAttr("uuid", uuid)
		instance.SetChildText("vpnid", vpnid)

		// pfSense marks disabled with a bare <disable>; OPNsense uses enabled=1.
		enabled := "1"
		if server.HasChild("disable") {
			enabled = "0"
		}
		instance.SetChildText("enabled", enabled)
		instance.SetChildText("dev_type", strings.ToLower(textOrDefault(server, "dev_mode", "tun")))
		instance.SetChildText("proto", strings.ToLower(textOrDefault(server, "protocol", "udp")))
		instance.SetChildText("port", textOrDefault(server, "local_port", ""))
		instance.SetChildText("role", "server")
		instance.SetChildText("server", textOrDefault(server, "tunnel_network", ""))
		instance.SetChildText("push_route", textOrDefault(server, "local_network", ""))
		instance.SetChildText("cert", textOrDefault(server, "certref", ""))
		instance.SetChildText("ca", textOrDefault(server, "caref", ""))
		instance.SetChildText("cert_depth", textOrDefault(server, "cert_depth", "1"))
		instance.SetChildText("topology", textOrDefault(server, "topology", "subnet"))
		instance.SetChildText("description", textOrDefault(server, "description", ""))

		if dns := gatherFields(server, "dns_server1", "dns_server2", "dns_server3", "dns_server4"); len(dns) > 0 {
			instance.SetChildText("dns_servers", strings.Join(dns, ","))
		}
		if v := textOrDefault(server, "dns_domain", ""); v != "" {
			instance.SetChildText("dns_domain", v)
		}
		if v := textOrDefault(server, "dns_domain_search", ""); v != "" {
			instance.SetChildText("dns_domain_search", v)
		}
		if ntp := gatherFields(server, "ntp_server1", "ntp_server2"); len(ntp) > 0 {
			instance.SetChildText("ntp_servers", strings.Join(ntp, ","))
		}

		if v := textOrDefault(server, "custom_options", ""); v != "" {
			instance.SetChildText("custom_options", v)
		}
		var pushFlags []string
		if isTruthy(textOrDefault(server, "push_blockoutsidedns", "0")) {
			pushFlags = append(pushFlags, "block-outside-dns")
		}
		registerDNS := isTruthy(textOrDefault(server, "push_register_dns", "0"))
		if registerDNS {
			pushFlags = append(pushFlags, "register-dns")
			instance.SetChildText("register_dns", "1")
		} else {
			instance.SetChildText("register_dns", "0")
		}
		if len(pushFlags) > 0 {
			instance.SetChildText("various_push_flags", strings.Join(pushFlags, ","))
		}

		if username := textOrDefault(server, "username", ""); username != "" && username != "0" {
			instance.SetChildText("username", username)
		}
		if isTruthy(textOrDefault(server, "username_as_common_name", "0")) {
			instance.SetChildText("username_as_common_name", "1")
		}
		if isTruthy(textOrDefault(server, "strictusercn", "0")) {
			instance.SetChildText("strictusercn", "1")
		}

		if isTruthy(textOrDefault(server, "netbios_enable", "0")) {
			instance.SetChildText("netbios_enable", "1")
		}
		if v := textOrDefault(server, "netbios_ntype", ""); v != "" {
			instance.SetChildText("netbios_ntype", v)
		}
		if v := textOrDefault(server, "netbios_scope", ""); v != "" {
			instance.SetChildText("netbios_scope", v)
		}

		instances.Append(instance)
	}
	return instances
}

func mapInstancesToPfsense(source *xmltree.Node) *xmltree.Node {
	openvpn := xmltree.New("openvpn")
	instances := source.Find("OPNsense", "OpenVPN", "Instances")
	if instances == nil {
		return openvpn
	}

	for _, instance := range instances.ChildList("Instance") {
		if !strings.EqualFold(textOrDefault(instance, "role", "server"), "server") {
			continue
		}

		server := xmltree.New("openvpn-server")
		if uuid, ok := instance.Attr("uuid"); ok {
			server.AppendText("opnsense_instance_uuid", uuid)
		}
		server.AppendText("vpnid", textOrDefault(instance, "vpnid", "1"))
		if !isTruthy(textOrDefault(instance, "enabled", "1")) {
			server.Append(xmltree.New("disable"))
		}
		server.AppendText("mode", "server_tls")
		server.AppendText("protocol", strings.ToUpper(textOrDefault(instance, "proto", "udp")))
		server.AppendText("dev_mode", strings.ToLower(textOrDefault(instance, "dev_type", "tun")))
		server.AppendText("interface", "wan")
		server.AppendText("local_port", textOrDefault(instance, "port", ""))
		server.AppendText("description", textOrDefault(instance, "description", ""))
		server.AppendText("caref", textOrDefault(instance, "ca", ""))
		server.AppendText("certref", textOrDefault(instance, "cert", ""))
		server.AppendText("cert_depth", textOrDefault(instance, "cert_depth", "1"))
		server.AppendText("tunnel_network", textOrDefault(instance, "server", ""))
		server.AppendText("local_network", textOrDefault(instance, "push_route", ""))
		server.AppendText("topology", textOrDefault(instance, "topology", "subnet"))

		if v := textOrDefault(instance, "dns_domain", ""); v != "" {
			server.AppendText("dns_domain", v)
		}
		for i, dns := range splitCSV(textOrDefault(instance, "dns_servers", "")) {
			if i == 4 {
				break
			}
			server.AppendText(fmt.Sprintf("dns_server%d", i+1), dns)
		}
		for i, ntp := range splitCSV(textOrDefault(instance, "ntp_servers", "")) {
			if i == 2 {
				break
			}
			server.AppendText(fmt.Sprintf("ntp_server%d", i+1), ntp)
		}

		if v := textOrDefault(instance, "custom_options", ""); v != "" {
			server.AppendText("custom_options", v)
		}
		if v := textOrDefault(instance, "username", ""); v != "" {
			server.AppendText("username", v)
		}
		if isTruthy(textOrDefault(instance, "username_as_common_name", "0")) {
			server.AppendText("username_as_common_name", "enabled")
		}
		if isTruthy(textOrDefault(instance, "strictusercn", "0")) {
			server.AppendText("strictusercn", "1")
		}

		pushFlags := splitCSV(textOrDefault(instance, "various_push_flags", ""))
		if flagPresent(pushFlags, "block-outside-dns") {
			server.AppendText("push_blockoutsidedns", "yes")
		}
		if flagPresent(pushFlags, "register-dns") || isTruthy(textOrDefault(instance, "register_dns", "0")) {
			server.AppendText("push_register_dns", "yes")
		}
		if flagPresent(pushFlags, "explicit-exit-notify") {
			server.AppendText("exit_notify", "explicit")
		}

		if isTruthy(textOrDefault(instance, "netbios_enable", "0")) {
			server.AppendText("netbios_enable", "yes")
		}
		if v := textOrDefault(instance, "netbios_ntype", ""); v != "" {
			server.AppendText("netbios_ntype", v)
		}
		if v := textOrDefault(instance, "netbios_scope", ""); v != "" {
			server.AppendText("netbios_scope", v)
		}

		openvpn.Append(server)
	}
	return openvpn
}

func gatherFields(node *xmltree.Node, tags ...string) []string {
	var out []string
	for _, tag := range tags {
		if v, ok := node.TextAt(tag); ok {
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func flagPresent(flags []string, key string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, key) {
			return true
		}
	}
	return false
}
