// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dhcp

import (
	"testing"

	"grimm.is/pfopn/internal/xmltree"
)

func parse(t *testing.T, xml string) *xmltree.Node {
	t.Helper()
	n, err := xmltree.Parse([]byte(xml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return n
}

func TestDetectPfsenseKeaViaExplicitFlag(t *testing.T) {
	root := parse(t, `<pfsense><dhcpbackend>kea</dhcpbackend><dhcpd/></pfsense>`)
	if got := DetectBackend(root).Mode; got != "kea" {
		t.Errorf("mode = %q, want kea", got)
	}
}

func TestDetectOpnsenseIscWhenKeaDisabled(t *testing.T) {
	root := parse(t, `<opnsense><dhcpd/><dhcpdv6/><OPNsense><Kea><dhcp4><general><enabled>0</enabled></general></dhcp4></Kea></OPNsense></opnsense>`)
	if got := DetectBackend(root).Mode; got != "isc" {
		t.Errorf("mode = %q, want isc", got)
	}
}

func TestDetectOpnsenseMixed(t *testing.T) {
	root := parse(t, `<opnsense><dhcpd/><OPNsense><Kea><dhcp4><general><enabled>1</enabled></general></dhcp4></Kea></OPNsense></opnsense>`)
	if got := DetectBackend(root).Mode; got != "mixed" {
		t.Errorf("mode = %q, want mixed", got)
	}
}

func TestDetectPfsenseIscFromDhcpd6Alias(t *testing.T) {
	root := parse(t, `<pfsense><dhcpd6/></pfsense>`)
	if got := DetectBackend(root).Mode; got != "isc" {
		t.Errorf("mode = %q, want isc", got)
	}
}

func TestAutoDefaultsToKeaForOpnsense26(t *testing.T) {
	target := parse(t, `<opnsense><version>26.1</version><OPNsense><Kea/></OPNsense></opnsense>`)
	source := parse(t, `<pfsense><dhcpd/></pfsense>`)
	if got := ResolveEffectiveBackend(RequestAuto, source, target, "opnsense"); got != BackendKea {
		t.Errorf("backend = %v, want kea", got)
	}
}

func TestAutoUsesDetectedBackendForOlderOpnsense(t *testing.T) {
	target := parse(t, `<opnsense><version>24.7</version><dhcpd/></opnsense>`)
	source := parse(t, `<pfsense><dhcpd/></pfsense>`)
	if got := ResolveEffectiveBackend(RequestAuto, source, target, "opnsense"); got != BackendISC {
		t.Errorf("backend = %v, want isc", got)
	}
}

func TestAutoPrefersSourceKeaForOlderOpnsense(t *testing.T) {
	target := parse(t, `<opnsense><version>24.7</version><dhcpd/></opnsense>`)
	source := parse(t, `<pfsense><dhcpbackend>kea</dhcpbackend><dhcpd/></pfsense>`)
	if got := ResolveEffectiveBackend(RequestAuto, source, target, "opnsense"); got != BackendKea {
		t.Errorf("backend = %v, want kea", got)
	}
}

func TestAutoPrefersSourceKeaForPfsenseTarget(t *testing.T) {
	source := parse(t, `<opnsense><OPNsense><Kea><dhcp4><general><enabled>1</enabled></general></dhcp4></Kea></OPNsense></opnsense>`)
	target := parse(t, `<pfsense><dhcpd/></pfsense>`)
	if got := ResolveEffectiveBackend(RequestAuto, source, target, "pfsense"); got != BackendKea {
		t.Errorf("backend = %v, want kea", got)
	}
}

func TestHasLegacyDataIncludesDhcpd6Alias(t *testing.T) {
	if !HasLegacyData(parse(t, `<opnsense><dhcpd6/></opnsense>`)) {
		t.Error("dhcpd6 alias should count as legacy data")
	}
}

func TestIscReadinessAcceptsDhcpd6AliasOnOpnsense(t *testing.T) {
	target := parse(t, `<opnsense><version>26.1</version><system><firmware><plugins>os-isc-dhcp</plugins></firmware></system><dhcpd6/></opnsense>`)
	if err := EnsureBackendReadiness(target, RequestISC, BackendISC); err != nil {
		t.Errorf("readiness check failed: %v", err)
	}
}

func TestKeaReadinessRequiresKeaSubtree(t *testing.T) {
	target := parse(t, `<opnsense><version>26.1</version></opnsense>`)
	if err := EnsureBackendReadiness(target, RequestAuto, BackendKea); err == nil {
		t.Error("expected error for missing OPNsense.Kea subtree")
	}
}

func TestIscEnforcementKeepsKeaContainerButDisablesIt(t *testing.T) {
	root := parse(t, `<opnsense><OPNsense><Kea><dhcp4><general><enabled>1</enabled></general></dhcp4><dhcp6><general><enabled>1</enabled></general></dhcp6></Kea></OPNsense></opnsense>`)
	EnforceOutputBackend(root, BackendISC, "opnsense", false)

	if v, _ := root.TextAt("OPNsense", "Kea", "dhcp4", "general", "enabled"); v != "0" {
		t.Errorf("dhcp4 enabled = %q, want 0", v)
	}
	if v, _ := root.TextAt("OPNsense", "Kea", "dhcp6", "general", "enabled"); v != "0" {
		t.Errorf("dhcp6 enabled = %q, want 0", v)
	}
}

func TestKeaEnforcementPreservesDhcpdv6WhenRequested(t *testing.T) {
	root := parse(t, `<opnsense><dhcpd/><dhcpdv6/><dhcpd6/></opnsense>`)
	EnforceOutputBackend(root, BackendKea, "opnsense", true)

	if !root.HasChild("dhcpdv6") || !root.HasChild("dhcpd6") {
		t.Error("IPv6 legacy sections should be preserved")
	}
	if root.HasChild("dhcpd") {
		t.Error("dhcpd should be removed")
	}
}

func TestKeaEnforcementRemovesIscForPfsense(t *testing.T) {
	root := parse(t, `<pfsense><dhcpd/><dhcpdv6/><dhcpd6/></pfsense>`)
	EnforceOutputBackend(root, BackendKea, "pfsense", false)

	if root.HasChild("dhcpd") || root.HasChild("dhcpdv6") || root.HasChild("dhcpd6") {
		t.Error("legacy sections should be removed")
	}
	if !root.HasChild("kea") {
		t.Error("kea container should exist")
	}
	if v, _ := root.TextAt("dhcpbackend"); v != "kea" {
		t.Errorf("dhcpbackend = %q, want kea", v)
	}
}

func TestDisableAllLegacySections(t *testing.T) {
	root := parse(t, `<pfsense><dhcpd><lan><enable>1</enable></lan></dhcpd><dhcpdv6><lan/></dhcpdv6></pfsense>`)
	DisableAll(root)

	lan4 := root.Find("dhcpd", "lan")
	if v, _ := lan4.TextAt("enable"); v != "0" {
		t.Errorf("dhcpd.lan.enable = %q, want 0", v)
	}
	if v, _ := lan4.TextAt("disabled"); v != "1" {
		t.Errorf("dhcpd.lan.disabled = %q, want 1", v)
	}
	if v, _ := root.Find("dhcpdv6", "lan").TextAt("disabled"); v != "1" {
		t.Errorf("dhcpdv6.lan.disabled = %q, want 1", v)
	}
}

func TestDisableAllKeaFlags(t *testing.T) {
	root := parse(t, `<opnsense><OPNsense><Kea><dhcp4><general><enabled>1</enabled></general></dhcp4><dhcp6><general><enabled>1</enabled></general></dhcp6></Kea></OPNsense></opnsense>`)
	DisableAll(root)

	if v, _ := root.TextAt("OPNsense", "Kea", "dhcp4", "general", "enabled"); v != "0" {
		t.Errorf("dhcp4 enabled = %q, want 0", v)
	}
	if v, _ := root.TextAt("OPNsense", "Kea", "dhcp6", "general", "enabled"); v != "0" {
		t.Errorf("dhcp6 enabled = %q, want 0", v)
	}
}

func TestDisableAllPfsenseKeaStyleFlags(t *testing.T) {
	root := parse(t, `<pfsense><dhcpbackend>kea</dhcpbackend><kea><dhcp4><general><enabled>1</enabled></general></dhcp4><ctrl_agent><general><enable>1</enable></general></ctrl_agent></kea></pfsense>`)
	DisableAll(root)

	if v, _ := root.TextAt("kea", "dhcp4", "general", "enabled"); v != "0" {
		t.Errorf("kea.dhcp4 enabled = %q, want 0", v)
	}
	if v, _ := root.TextAt("kea", "ctrl_agent", "general", "enable"); v != "0" {
		t.Errorf("kea.ctrl_agent enable = %q, want 0", v)
	}
}

func TestMigrateCreatesSubnetAndReservation(t *testing.T) {
	source := parse(t, `<pfsense>
		<interfaces><lan><ipaddr>192.168.1.1</ipaddr><subnet>24</subnet></lan></interfaces>
		<dhcpd><lan>
			<enable/>
			<range><from>192.168.1.100</from><to>192.168.1.200</to></range>
			<staticmap><mac>00:11:22:33:44:55</mac><ipaddr>192.168.1.50</ipaddr><hostname>printer</hostname></staticmap>
		</lan></dhcpd>
	</pfsense>`)
	out := parse(t, `<opnsense/>`)

	stats, err := MigrateISCToKea(out, source)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if stats.SubnetsAddedV4 != 1 {
		t.Errorf("subnets added = %d, want 1", stats.SubnetsAddedV4)
	}
	if stats.ReservationsAddedV4 != 1 {
		t.Errorf("reservations added = %d, want 1", stats.ReservationsAddedV4)
	}

	subnet := out.Find("OPNsense", "Kea", "dhcp4", "subnets", "subnet4")
	if subnet == nil {
		t.Fatal("subnet4 not created")
	}
	if v, _ := subnet.TextAt("subnet"); v != "192.168.1.0/24" {
		t.Errorf("subnet = %q, want 192.168.1.0/24", v)
	}
	if v, _ := subnet.TextAt("pools"); v != "192.168.1.100-192.168.1.200" {
		t.Errorf("pools = %q", v)
	}

	res := out.Find("OPNsense", "Kea", "dhcp4", "reservations", "reservation")
	if res == nil {
		t.Fatal("reservation not created")
	}
	if v, _ := res.TextAt("hw_address"); v != "00:11:22:33:44:55" {
		t.Errorf("hw_address = %q", v)
	}
	if v, _ := res.TextAt("hostname"); v != "printer" {
		t.Errorf("hostname = %q, want printer", v)
	}

	general := out.Find("OPNsense", "Kea", "dhcp4", "general")
	if v, _ := general.TextAt("enabled"); v != "1" {
		t.Errorf("general.enabled = %q, want 1", v)
	}
	if v, _ := general.TextAt("interfaces"); v != "lan" {
		t.Errorf("general.interfaces = %q, want lan", v)
	}
}

func TestMigrateBareDisabledElementStillMigrates(t *testing.T) {
	source := parse(t, `<pfsense>
		<interfaces><lan><ipaddr>192.168.1.1</ipaddr><subnet>24</subnet></lan></interfaces>
		<dhcpd><lan>
			<disabled/>
			<range><from>192.168.1.100</from><to>192.168.1.200</to></range>
		</lan></dhcpd>
	</pfsense>`)
	out := parse(t, `<opnsense/>`)

	stats, err := MigrateISCToKea(out, source)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if stats.SubnetsAddedV4 != 1 {
		t.Errorf("subnets added = %d, want 1 (empty <disabled/> is not truthy)", stats.SubnetsAddedV4)
	}
}

func TestMigrateSkipsTruthyDisabledInterface(t *testing.T) {
	source := parse(t, `<pfsense>
		<interfaces><lan><ipaddr>192.168.1.1</ipaddr><subnet>24</subnet></lan></interfaces>
		<dhcpd><lan>
			<disabled>1</disabled>
			<range><from>192.168.1.100</from><to>192.168.1.200</to></range>
		</lan></dhcpd>
	</pfsense>`)
	out := parse(t, `<opnsense/>`)

	stats, err := MigrateISCToKea(out, source)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if stats.SubnetsAddedV4 != 0 {
		t.Errorf("subnets added = %d, want 0", stats.SubnetsAddedV4)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	source := parse(t, `<pfsense>
		<interfaces><lan><ipaddr>10.0.0.1</ipaddr><subnet>24</subnet></lan></interfaces>
		<dhcpd><lan>
			<staticmap><mac>aa:bb:cc:dd:ee:ff</mac><ipaddr>10.0.0.9</ipaddr></staticmap>
		</lan></dhcpd>
	</pfsense>`)
	out := parse(t, `<opnsense/>`)

	if _, err := MigrateISCToKea(out, source); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	stats, err := MigrateISCToKea(out, source)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if stats.SubnetsAddedV4 != 0 {
		t.Errorf("second run added %d subnets, want 0", stats.SubnetsAddedV4)
	}
	if stats.ReservationsSkippedConflictV4 != 1 {
		t.Errorf("second run skipped %d, want 1", stats.ReservationsSkippedConflictV4)
	}
}

func TestMigrateFailsWithoutInterfaceNetwork(t *testing.T) {
	source := parse(t, `<pfsense>
		<dhcpd><lan><range><from>10.0.0.5</from><to>10.0.0.9</to></range></lan></dhcpd>
	</pfsense>`)
	out := parse(t, `<opnsense/>`)

	if _, err := MigrateISCToKea(out, source); err == nil {
		t.Error("expected error for interface without network info")
	}
}

func TestMigratePreservesUnmappableDhcpdv6(t *testing.T) {
	source := parse(t, `<pfsense>
		<interfaces><lan><ipaddr>10.0.0.1</ipaddr><subnet>24</subnet><ipaddrv6>track6</ipaddrv6></lan></interfaces>
		<dhcpdv6><lan><range><from>::1000</from><to>::2000</to></range></lan></dhcpdv6>
	</pfsense>`)
	out := parse(t, `<opnsense/>`)

	stats, err := MigrateISCToKea(out, source)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(stats.PreservedDHCPv6Ifaces) != 1 || stats.PreservedDHCPv6Ifaces[0] != "lan" {
		t.Errorf("preserved ifaces = %v, want [lan]", stats.PreservedDHCPv6Ifaces)
	}
	if len(stats.Warnings) != 1 {
		t.Errorf("warnings = %d, want 1", len(stats.Warnings))
	}
	if stats.SubnetsAddedV6 != 0 {
		t.Errorf("subnets added v6 = %d, want 0", stats.SubnetsAddedV6)
	}
}

func TestMigrateExpandsAbbreviatedIPv6(t *testing.T) {
	source := parse(t, `<pfsense>
		<interfaces><lan><ipaddrv6>fd00::1</ipaddrv6><subnetv6>64</subnetv6></lan></interfaces>
		<dhcpdv6><lan>
			<range><from>::1000</from><to>::2000</to></range>
			<staticmap><duid>00:01:00:01</duid><ipaddrv6>::50</ipaddrv6></staticmap>
		</lan></dhcpdv6>
	</pfsense>`)
	out := parse(t, `<opnsense/>`)

	if _, err := MigrateISCToKea(out, source); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	subnet := out.Find("OPNsense", "Kea", "dhcp6", "subnets", "subnet6")
	if subnet == nil {
		t.Fatal("subnet6 not created")
	}
	if v, _ := subnet.TextAt("pools"); v != "fd00::1000-fd00::2000" {
		t.Errorf("pools = %q, want fd00::1000-fd00::2000", v)
	}
	res := out.Find("OPNsense", "Kea", "dhcp6", "reservations", "reservation")
	if res == nil {
		t.Fatal("reservation not created")
	}
	if v, _ := res.TextAt("ip_address"); v != "fd00::50" {
		t.Errorf("ip_address = %q, want fd00::50", v)
	}
}

func TestMigrateAppliesOptions(t *testing.T) {
	source := parse(t, `<pfsense>
		<interfaces><lan><ipaddr>192.168.1.1</ipaddr><subnet>24</subnet></lan></interfaces>
		<dhcpd><lan>
			<dnsserver>192.168.1.1</dnsserver>
			<dnsserver>1.1.1.1</dnsserver>
			<gateway>192.168.1.1</gateway>
			<domain>lan.example</domain>
			<domainsearchlist>lan.example;corp.example</domainsearchlist>
		</lan></dhcpd>
	</pfsense>`)
	out := parse(t, `<opnsense/>`)

	stats, err := MigrateISCToKea(out, source)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if stats.OptionsAppliedV4 != 1 {
		t.Errorf("options applied = %d, want 1", stats.OptionsAppliedV4)
	}

	optionData := out.Find("OPNsense", "Kea", "dhcp4", "subnets", "subnet4", "option_data")
	if optionData == nil {
		t.Fatal("option_data missing")
	}
	if v, _ := optionData.TextAt("domain_name_servers"); v != "192.168.1.1,1.1.1.1" {
		t.Errorf("domain_name_servers = %q", v)
	}
	if v, _ := optionData.TextAt("routers"); v != "192.168.1.1" {
		t.Errorf("routers = %q", v)
	}
	if v, _ := optionData.TextAt("domain_search"); v != "lan.example corp.example" {
		t.Errorf("domain_search = %q", v)
	}
}
