// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package convert

import "testing"

func TestPrunesPfsensePackagesWhenTargetIsOpnsense(t *testing.T) {
	out := parse(t, `<opnsense><system/><interfaces/><installedpackages/><openvpn/></opnsense>`)
	target := parse(t, `<opnsense><system/><interfaces/></opnsense>`)

	removed := PruneImportedIncompatibleSections(out, "opnsense", target)
	if len(removed) != 1 || removed[0] != "installedpackages" {
		t.Errorf("removed = %v, want [installedpackages]", removed)
	}
	if out.HasChild("installedpackages") {
		t.Error("installedpackages should be pruned")
	}
	if !out.HasChild("openvpn") {
		t.Error("openvpn should survive")
	}
}

func TestPrunesOpnsenseContainerWhenTargetIsPfsense(t *testing.T) {
	out := parse(t, `<pfsense><system/><interfaces/><OPNsense/><openvpn/></pfsense>`)
	target := parse(t, `<pfsense><system/><interfaces/></pfsense>`)

	removed := PruneImportedIncompatibleSections(out, "pfsense", target)
	if len(removed) != 1 || removed[0] != "OPNsense" {
		t.Errorf("removed = %v, want [OPNsense]", removed)
	}
	if out.HasChild("OPNsense") {
		t.Error("OPNsense container should be pruned")
	}
}

func TestKeepsOpnsenseContainerWhenTargetIsOpnsense(t *testing.T) {
	out := parse(t, `<opnsense><system/><interfaces/><OPNsense/></opnsense>`)
	target := parse(t, `<opnsense><system/><interfaces/></opnsense>`)

	removed := PruneImportedIncompatibleSections(out, "opnsense", target)
	if len(removed) != 0 {
		t.Errorf("removed = %v, want none", removed)
	}
	if !out.HasChild("OPNsense") {
		t.Error("OPNsense container should survive")
	}
}

func TestKeepsRelaySectionsAbsentFromBaseline(t *testing.T) {
	out := parse(t, `<opnsense><system/><interfaces/>
	  <dhcrelay><enable>1</enable></dhcrelay>
	  <dhcp6relay><enable>1</enable></dhcp6relay>
	</opnsense>`)
	target := parse(t, `<opnsense><system/><interfaces/></opnsense>`)

	removed := PruneImportedIncompatibleSections(out, "opnsense", target)
	if len(removed) != 0 {
		t.Errorf("removed = %v, want none", removed)
	}
	if !out.HasChild("dhcrelay") || !out.HasChild("dhcp6relay") {
		t.Error("relay sections should survive pruning")
	}
}

func TestBaselineSectionsAlwaysSurvive(t *testing.T) {
	out := parse(t, `<opnsense><system/><customsection/></opnsense>`)
	target := parse(t, `<opnsense><system/><customsection/></opnsense>`)

	removed := PruneImportedIncompatibleSections(out, "opnsense", target)
	if len(removed) != 0 {
		t.Errorf("removed = %v, want none", removed)
	}
	if !out.HasChild("customsection") {
		t.Error("baseline-backed section should survive")
	}
}
