// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"testing"
)

const pfWireguardXML = `<pfsense><installedpackages><wireguard>
	<config><enable>on</enable></config>
	<tunnels><item>
		<name>tun_wg0</name>
		<enabled>yes</enabled>
		<publickey>PUB0</publickey>
		<privatekey>PRIV0</privatekey>
		<listenport>51820</listenport>
		<addresses>10.10.0.1/24</addresses>
	</item></tunnels>
	<peers><item>
		<tun>tun_wg0</tun>
		<enabled>yes</enabled>
		<descr>laptop</descr>
		<publickey>PEERPUB</publickey>
		<allowedips><row><address>10.10.0.2</address><mask>32</mask></row>
			<row><address>192.168.50.0</address><mask>24</mask></row></allowedips>
		<persistentkeepalive>25</persistentkeepalive>
	</item></peers>
</wireguard></installedpackages></pfsense>`

func TestWireGuardToOpnsenseMapsTunnels(t *testing.T) {
	out := parse(t, `<opnsense/>`)
	WireGuardToOpnsense(out, parse(t, pfWireguardXML), nil)

	wg := out.Find("OPNsense", "wireguard")
	if wg == nil {
		t.Fatal("nested wireguard section missing")
	}
	if textAt(t, wg, "general", "enabled") != "1" {
		t.Error("enable flag not mapped")
	}

	server := wg.Find("server", "servers", "server")
	if server == nil {
		t.Fatal("server record missing")
	}
	if got, _ := server.Attr("uuid"); got != crcUUID([]byte("pf-tunnel"), 0) {
		t.Errorf("server uuid = %s", got)
	}
	if textAt(t, server, "name") != "tun_wg0" || textAt(t, server, "instance") != "0" {
		t.Error("tunnel name/instance not mapped")
	}
	if textAt(t, server, "port") != "51820" {
		t.Error("listen port not mapped")
	}
	if textAt(t, server, "tunneladdress") != "10.10.0.1/24" {
		t.Error("addresses not mapped")
	}
	if textAt(t, server, "disableroutes") != "1" {
		t.Error("disableroutes default missing")
	}

	client := wg.Find("client", "clients", "client")
	if client == nil {
		t.Fatal("client record missing")
	}
	peerUUID := crcUUID([]byte("pf-peer"), 0)
	if got, _ := client.Attr("uuid"); got != peerUUID {
		t.Errorf("client uuid = %s", got)
	}
	if textAt(t, client, "name") != "laptop" {
		t.Error("peer descr not used as name")
	}
	if textAt(t, client, "tunneladdress") != "10.10.0.2/32,192.168.50.0/24" {
		t.Error("allowedips rows not flattened")
	}
	if textAt(t, client, "keepalive") != "25" {
		t.Error("keepalive not mapped")
	}
	if textAt(t, server, "peers") != peerUUID {
		t.Error("server should reference its peers by uuid")
	}
}

func TestWireGuardToOpnsenseAddsInterfaceAssignment(t *testing.T) {
	out := parse(t, `<opnsense><interfaces><lan><if>vtnet1</if></lan></interfaces></opnsense>`)
	WireGuardToOpnsense(out, parse(t, pfWireguardXML), nil)

	interfaces := out.Child("interfaces")
	found := false
	for _, iface := range interfaces.Children {
		if v := trimmedChildText(iface, "if"); v == "wg0" || v == "tun_wg0" {
			found = true
		}
	}
	if !found {
		t.Error("configured tunnel should gain an interface assignment")
	}
}

func TestWireGuardToOpnsensePassthrough(t *testing.T) {
	out := parse(t, `<opnsense/>`)
	source := parse(t, `<opnsense><OPNsense><wireguard>
		<general><enabled>1</enabled></general>
		<server><servers><server uuid="s1"><name>wg0</name><instance>0</instance></server></servers></server>
	</wireguard></OPNsense></opnsense>`)
	WireGuardToOpnsense(out, source, nil)

	server := out.Find("OPNsense", "wireguard", "server", "servers", "server")
	if server == nil {
		t.Fatal("wireguard not passed through")
	}
	if got, _ := server.Attr("uuid"); got != "s1" {
		t.Error("existing uuid must be preserved")
	}
}

func TestWireGuardSnapshotWinsOverMapping(t *testing.T) {
	out := parse(t, `<opnsense/>`)
	source := parse(t, `<pfsense><installedpackages><wireguard>
		<opnsense_wireguard_snapshot><general><enabled>1</enabled></general><marker>orig</marker></opnsense_wireguard_snapshot>
		<tunnels><item><name>tun_wg0</name></item></tunnels>
	</wireguard></installedpackages></pfsense>`)
	WireGuardToOpnsense(out, source, nil)

	wg := out.Find("OPNsense", "wireguard")
	if wg == nil || !wg.HasChild("marker") {
		t.Error("embedded snapshot should be restored verbatim")
	}
	if wg.HasChild("tunnels") {
		t.Error("snapshot restore must not mix in mapped tunnels")
	}
}

func TestNormalizeOpnsenseWireguardIfNames(t *testing.T) {
	out := parse(t, `<opnsense>
		<OPNsense><wireguard><server><servers>
			<server><name>tun_wg0</name><instance>0</instance></server>
		</servers></server></wireguard></OPNsense>
		<interfaces>
			<opt1><if>tun_wg0</if></opt1>
			<opt2><if>tun_wg3</if></opt2>
			<lan><if>vtnet1</if></lan>
		</interfaces>
	</opnsense>`)
	NormalizeOpnsenseWireguardIfNames(out)

	if textAt(t, out, "interfaces", "opt1", "if") != "wg0" {
		t.Error("instance-mapped name not rewritten")
	}
	if textAt(t, out, "interfaces", "opt2", "if") != "wg3" {
		t.Error("tun_wgN fallback rewrite missing")
	}
	if textAt(t, out, "interfaces", "lan", "if") != "vtnet1" {
		t.Error("unrelated devices must be untouched")
	}
}

func TestWireGuardToPfsense(t *testing.T) {
	out := parse(t, `<pfsense/>`)
	source := parse(t, `<opnsense><OPNsense><wireguard>
		<general><enabled>1</enabled></general>
		<server><servers><server uuid="s1">
			<enabled>1</enabled><name>wg0</name><instance>0</instance>
			<pubkey>PUB</pubkey><privkey>PRIV</privkey><port>51820</port>
			<tunneladdress>10.10.0.1/24</tunneladdress>
		</server></servers></server>
	</wireguard></OPNsense></opnsense>`)
	WireGuardToPfsense(out, source, nil)

	wg := out.Find("installedpackages", "wireguard")
	if wg == nil {
		t.Fatal("wireguard not placed under installedpackages")
	}
	item := wg.Find("tunnels", "item")
	if item == nil {
		t.Fatal("tunnel item missing")
	}
	if textAt(t, item, "listenport") != "51820" {
		t.Error("listen port not mapped back")
	}
	if textAt(t, item, "addresses") != "10.10.0.1/24" {
		t.Error("tunnel address not mapped back")
	}
	if textAt(t, item, "name") != "tun_wg0" {
		t.Error("pfSense tunnel names carry the tun_ prefix")
	}
	if !wg.HasChild("opnsense_wireguard_snapshot") {
		t.Error("round-trip snapshot missing")
	}
	if textAt(t, wg, "config", "enable") != "on" {
		t.Error("enable flag not mapped to on/off spelling")
	}
}
