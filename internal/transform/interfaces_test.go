// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"testing"
)

func TestNormalizeOpnsenseAssignments(t *testing.T) {
	out := parse(t, `<opnsense><interfaces>
		<wan><if>igc0</if></wan>
		<lan><if>igc1</if></lan>
		<opt1><if>igc2</if></opt1>
		<ovpns1><if>ovpns1</if></ovpns1>
		<wg0><if>wg0</if></wg0>
	</interfaces></opnsense>`)
	rewrites := NormalizeOpnsenseAssignments(out)

	if got := rewrites["ovpns1"]; got != "opt2" {
		t.Errorf("ovpns1 mapped to %s, want opt2", got)
	}
	if got := rewrites["wg0"]; got != "opt3" {
		t.Errorf("wg0 mapped to %s, want opt3", got)
	}
	interfaces := out.Child("interfaces")
	if interfaces.Child("opt2") == nil || interfaces.Child("opt3") == nil {
		t.Error("renamed tags missing from tree")
	}
	if interfaces.Child("ovpns1") != nil {
		t.Error("old tag still present")
	}
	if _, ok := rewrites["opt1"]; ok {
		t.Error("existing optN tags must not be renumbered")
	}
}

func TestRewriteLogicalRefs(t *testing.T) {
	root := parse(t, `<opnsense>
		<filter><rule><interface>ovpns1</interface></rule></filter>
		<ifgroups><ifgroupentry><members>lan ovpns1 opt1</members></ifgroupentry></ifgroups>
	</opnsense>`)
	RewriteLogicalRefs(root, map[string]string{"ovpns1": "opt2"})

	if textAt(t, root, "filter", "rule", "interface") != "opt2" {
		t.Error("rule interface ref not rewritten")
	}
	if textAt(t, root, "ifgroups", "ifgroupentry", "members") != "lan opt2 opt1" {
		t.Error("group member token not rewritten")
	}
}

func TestApplyInterfaceSettings(t *testing.T) {
	out := parse(t, `<opnsense><interfaces>
		<lan><if>vtnet1</if><ipaddr>192.168.1.1</ipaddr></lan>
	</interfaces></opnsense>`)
	source := parse(t, `<pfsense><interfaces>
		<lan><if>igb1</if><ipaddr>10.0.10.1</ipaddr><subnet>24</subnet><descr>LAN</descr></lan>
		<opt5><if>igb5</if><ipaddr>10.0.50.1</ipaddr></opt5>
	</interfaces></pfsense>`)
	target := parse(t, `<opnsense><interfaces>
		<lan><if>vtnet1</if></lan>
	</interfaces></opnsense>`)
	ApplyInterfaceSettings(out, source, target, nil)

	lan := out.Find("interfaces", "lan")
	if textAt(t, lan, "ipaddr") != "10.0.10.1" || textAt(t, lan, "descr") != "LAN" {
		t.Error("source settings not carried over")
	}
	if textAt(t, lan, "if") != "vtnet1" {
		t.Error("physical device must come from target baseline")
	}
	if out.Find("interfaces", "opt5") != nil {
		t.Error("interface absent from target baseline must be skipped")
	}
}

func TestApplyInterfaceSettingsWithMapping(t *testing.T) {
	out := parse(t, `<opnsense><interfaces><opt1><if>vtnet2</if></opt1></interfaces></opnsense>`)
	source := parse(t, `<pfsense><interfaces>
		<dmz><if>igb2</if><ipaddr>172.16.0.1</ipaddr></dmz>
	</interfaces></pfsense>`)
	target := parse(t, `<opnsense><interfaces><opt1><if>vtnet2</if></opt1></interfaces></opnsense>`)
	ApplyInterfaceSettings(out, source, target, map[string]string{"dmz": "opt1"})

	opt1 := out.Find("interfaces", "opt1")
	if textAt(t, opt1, "ipaddr") != "172.16.0.1" {
		t.Error("mapped interface settings not applied")
	}
	if textAt(t, opt1, "if") != "vtnet2" {
		t.Error("target device binding lost")
	}
}

func TestPruneMissingInterfaces(t *testing.T) {
	out := parse(t, `<opnsense><interfaces>
		<wan><if>vtnet0</if></wan>
		<lan><if>vtnet1</if></lan>
		<opt3><if>igb3</if></opt3>
		<opt4><if>vtnet0.40</if></opt4>
		<wireguard><if>wg9</if></wireguard>
	</interfaces></opnsense>`)
	baseline := parse(t, `<opnsense><interfaces>
		<wan><if>vtnet0</if></wan>
		<lan><if>vtnet1</if></lan>
	</interfaces></opnsense>`)
	removed := PruneMissingInterfaces(out, baseline)

	if len(removed) != 1 || removed[0] != "opt3" {
		t.Errorf("removed = %v, want [opt3]", removed)
	}
	interfaces := out.Child("interfaces")
	if interfaces.Child("opt4") == nil {
		t.Error("VLAN-backed interface must survive the presence check")
	}
	if interfaces.Child("wireguard") == nil {
		t.Error("wireguard group interface must survive")
	}
	if interfaces.Child("opt3") != nil {
		t.Error("NIC-backed interface missing from baseline should be pruned")
	}
}

func TestVLANIfNamesForOpnsense(t *testing.T) {
	root := parse(t, `<opnsense>
		<vlans>
			<vlan><if>vtnet0</if><tag>50</tag></vlan>
			<vlan><if>vtnet0</if><tag>60</tag><vlanif>vlan07</vlanif></vlan>
		</vlans>
		<interfaces>
			<opt1><if>vtnet0.50</if></opt1>
			<opt2><if>vtnet0.60</if></opt2>
		</interfaces>
	</opnsense>`)
	VLANIfNamesForOpnsense(root)

	vlans := root.Child("vlans").ChildList("vlan")
	if textAt(t, vlans[0], "vlanif") != "vlan01" {
		t.Errorf("first free name should be vlan01, got %s", vlans[0].TextOr("", "vlanif"))
	}
	if textAt(t, vlans[1], "vlanif") != "vlan07" {
		t.Error("existing vlanif name must be kept")
	}
	if _, ok := vlans[0].Attr("uuid"); !ok {
		t.Error("vlan should be stamped with uuid")
	}
	if textAt(t, vlans[0], "pcp") != "0" {
		t.Error("pcp default missing")
	}
	if !vlans[0].HasChild("proto") || !vlans[0].HasChild("descr") {
		t.Error("proto/descr placeholders missing")
	}
	if textAt(t, root, "interfaces", "opt1", "if") != "vlan01" {
		t.Error("dotted assignment not rewritten to vlanif name")
	}
	if textAt(t, root, "interfaces", "opt2", "if") != "vlan07" {
		t.Error("dotted assignment for existing vlanif not rewritten")
	}
}

func TestIfGroupsToOpnsense(t *testing.T) {
	root := parse(t, `<pfsense>
		<ifgroups>
			<ifgroupentry><ifname>WireGuard</ifname><descr>WireGuard interface group (DO NOT EDIT/DELETE!)</descr></ifgroupentry>
			<ifgroupentry><ifname>servers</ifname><members>opt1 opt2</members></ifgroupentry>
		</ifgroups>
		<filter><rule><interface>WireGuard</interface></rule></filter>
	</pfsense>`)
	IfGroupsToOpnsense(root)

	entries := root.Child("ifgroups").ChildList("ifgroupentry")
	if len(entries) != 1 {
		t.Fatalf("got %d group entries, want 1 (autogen pruned)", len(entries))
	}
	if textAt(t, entries[0], "ifname") != "servers" {
		t.Error("user group must be kept")
	}
	if textAt(t, root, "filter", "rule", "interface") != "wireGuard" {
		t.Error("WireGuard token not rewritten to OPNsense casing")
	}
}

func TestIfGroupsToPfsense(t *testing.T) {
	root := parse(t, `<opnsense><filter><rule><interface>wireGuard</interface></rule></filter></opnsense>`)
	IfGroupsToPfsense(root)
	if textAt(t, root, "filter", "rule", "interface") != "WireGuard" {
		t.Error("casing not restored for pfSense")
	}
}

func TestPrunePfBlockerFloatingRules(t *testing.T) {
	root := parse(t, `<pfsense><filter>
		<rule><floating>yes</floating><source><address>pfB_Top_v4</address></source></rule>
		<rule><floating>yes</floating><descr>manual float</descr></rule>
		<rule><interface>lan</interface><source><address>pfB_Top_v4</address></source></rule>
	</filter></pfsense>`)
	PrunePfBlockerFloatingRules(root)

	rules := root.Child("filter").ChildList("rule")
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if textAt(t, rules[0], "descr") != "manual float" {
		t.Error("non-pfBlocker floating rule must be kept")
	}
	if textAt(t, rules[1], "interface") != "lan" {
		t.Error("interface-bound rule must be kept even with pfB alias")
	}
}

func TestRewriteDeviceRefs(t *testing.T) {
	source := parse(t, `<pfsense><interfaces>
		<wan><if>igb0</if></wan>
		<lan><if>igb1</if></lan>
	</interfaces></pfsense>`)
	target := parse(t, `<opnsense><interfaces>
		<wan><if>vtnet0</if></wan>
		<lan><if>vtnet1</if></lan>
	</interfaces></opnsense>`)
	out := parse(t, `<opnsense>
		<interfaces><lan><if>igb1</if></lan><opt1><if>igb1.50</if></opt1></interfaces>
		<vlans><vlan><if>igb1</if><tag>50</tag></vlan></vlans>
		<bridges><bridged><members>igb0,igb1</members></bridged></bridges>
	</opnsense>`)
	RewriteDeviceRefs(out, source, target, nil)

	if textAt(t, out, "interfaces", "lan", "if") != "vtnet1" {
		t.Error("lan device not rewritten")
	}
	if textAt(t, out, "interfaces", "opt1", "if") != "vtnet1.50" {
		t.Error("dotted VLAN device should have only the base rewritten")
	}
	if textAt(t, out, "vlans", "vlan", "if") != "vtnet1" {
		t.Error("vlan parent device not rewritten")
	}
	if textAt(t, out, "bridges", "bridged", "members") != "vtnet0,vtnet1" {
		t.Error("bridge member tokens not rewritten")
	}
}

func TestRewriteDeviceRefsPPPoE(t *testing.T) {
	source := parse(t, `<pfsense>
		<interfaces><wan><if>pppoe0</if></wan></interfaces>
		<ppps><ppp><type>pppoe</type><if>pppoe0</if><ports>igb0</ports></ppp></ppps>
	</pfsense>`)
	target := parse(t, `<opnsense><interfaces><wan><if>vtnet0</if></wan></interfaces></opnsense>`)
	out := parse(t, `<opnsense>
		<interfaces><wan><if>pppoe0</if></wan></interfaces>
		<ppps><ppp><type>pppoe</type><if>pppoe0</if><ports>igb0</ports></ppp></ppps>
	</opnsense>`)
	RewriteDeviceRefs(out, source, target, nil)

	if textAt(t, out, "interfaces", "wan", "if") != "pppoe0" {
		t.Error("logical pppoe name must never be rewritten")
	}
	if textAt(t, out, "ppps", "ppp", "ports") != "vtnet0" {
		t.Error("physical PPPoE port should be mapped to target device")
	}
	if textAt(t, out, "ppps", "ppp", "if") != "pppoe0" {
		t.Error("ppps/ppp/if names the PPP interface itself and must stay")
	}
}

func TestRenumberLAN(t *testing.T) {
	root := parse(t, `<pfsense>
		<interfaces>
			<wan><if>igb0</if><ipaddr>dhcp</ipaddr></wan>
			<lan><if>igb1</if><ipaddr>192.168.1.1</ipaddr><subnet>24</subnet></lan>
		</interfaces>
		<dhcpd><lan><range><from>192.168.1.100</from><to>192.168.1.199</to></range></lan></dhcpd>
		<gateways><gateway_item><gateway>192.168.1.1</gateway></gateway_item></gateways>
	</pfsense>`)
	if err := RenumberLAN(root, "10.2.0.1"); err != nil {
		t.Fatalf("renumber: %v", err)
	}
	if textAt(t, root, "interfaces", "lan", "ipaddr") != "10.2.0.1" {
		t.Error("lan ipaddr not rewritten")
	}
	if textAt(t, root, "dhcpd", "lan", "range", "from") != "10.2.0.100" {
		t.Error("dhcp range should move to new subnet keeping host bits")
	}
	if textAt(t, root, "dhcpd", "lan", "range", "to") != "10.2.0.199" {
		t.Error("dhcp range end not remapped")
	}
	if textAt(t, root, "gateways", "gateway_item", "gateway") != "10.2.0.1" {
		t.Error("exact old-address references must follow")
	}
}

func TestRenumberLANConflicts(t *testing.T) {
	root := parse(t, `<pfsense><interfaces>
		<wan><if>igb0</if><ipaddr>10.2.0.1</ipaddr></wan>
		<lan><if>igb1</if><ipaddr>192.168.1.1</ipaddr></lan>
	</interfaces></pfsense>`)
	if err := RenumberLAN(root, "10.2.0.1"); err == nil {
		t.Error("expected conflict with wan address")
	}
	if err := RenumberLAN(root, "not-an-ip"); err == nil {
		t.Error("expected validation error for bad address")
	}
}

func TestRenumberLANSameAddressIsNoop(t *testing.T) {
	root := parse(t, `<pfsense><interfaces>
		<lan><if>igb1</if><ipaddr>192.168.1.1</ipaddr></lan>
	</interfaces></pfsense>`)
	if err := RenumberLAN(root, "192.168.1.1"); err != nil {
		t.Fatalf("same address should be a no-op, got %v", err)
	}
}
