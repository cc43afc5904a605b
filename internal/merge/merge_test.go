// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package merge

import (
	"testing"

	"github.com/google/uuid"

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

func TestMergesOnlyLeftNodesIntoRightTarget(t *testing.T) {
	left := parse(t, `<root><items><item><id>1</id></item><item><id>2</id></item></items></root>`)
	right := parse(t, `<root><items><item><id>1</id></item></items></root>`)
	entries := xmltree.Diff(left, right)

	hasOnlyLeft := false
	for _, e := range entries {
		if e.Kind == xmltree.DiffOnlyLeft {
			hasOnlyLeft = true
		}
	}
	if !hasOnlyLeft {
		t.Fatal("expected an only-left entry")
	}

	merged, err := ApplySafeMerge(left, right, entries, TargetRight, DefaultOptions())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	items := merged.Child("items")
	if items == nil || len(items.ChildList("item")) != 2 {
		t.Errorf("merged items = %v", items)
	}
}

func TestTransfersOpenVPNCertDependencyByDefault(t *testing.T) {
	left := parse(t, `<pfsense>
		<system/>
		<openvpn><openvpn-server><certref>cert-pf</certref></openvpn-server></openvpn>
		<cert><refid>cert-pf</refid></cert>
	</pfsense>`)
	right := parse(t, `<opnsense>
		<system/>
		<openvpn><openvpn-server><certref>other-cert</certref></openvpn-server></openvpn>
		<cert><refid>other-cert</refid></cert>
	</opnsense>`)

	merged, err := ApplySafeMerge(left, right, xmltree.Diff(left, right), TargetRight, DefaultOptions())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if countCerts(merged, "cert-pf") != 1 {
		t.Errorf("cert-pf count = %d, want 1", countCerts(merged, "cert-pf"))
	}
}

func TestCanDisableOpenVPNCertDependencyTransfer(t *testing.T) {
	left := parse(t, `<pfsense>
		<system/>
		<openvpn><openvpn-server><certref>cert-pf</certref></openvpn-server></openvpn>
		<cert><refid>cert-pf</refid></cert>
	</pfsense>`)
	right := parse(t, `<opnsense>
		<system/>
		<openvpn><openvpn-server><certref>other-cert</certref></openvpn-server></openvpn>
		<cert><refid>other-cert</refid></cert>
	</opnsense>`)

	opts := DefaultOptions()
	opts.TransferCerts = false
	merged, err := ApplySafeMerge(left, right, xmltree.Diff(left, right), TargetRight, opts)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if countCerts(merged, "cert-pf") != 0 {
		t.Error("cert-pf should not be transferred when disabled")
	}
}

func TestTransfersNestedOpnsenseIPsecSectionsWhenMissing(t *testing.T) {
	left := parse(t, `<opnsense><OPNsense><IPsec><general/></IPsec><Swanctl><Connections/></Swanctl></OPNsense></opnsense>`)
	right := parse(t, `<pfsense><system/></pfsense>`)

	merged, err := ApplySafeMerge(left, right, xmltree.Diff(left, right), TargetRight, DefaultOptions())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Find("OPNsense", "IPsec") == nil {
		t.Error("nested IPsec missing")
	}
	if merged.Find("OPNsense", "Swanctl") == nil {
		t.Error("nested Swanctl missing")
	}
}

func TestTransfersPfsenseAliasesToOpnsenseNested(t *testing.T) {
	left := parse(t, `<pfsense><aliases><alias><name>site_hosts</name></alias></aliases></pfsense>`)
	right := parse(t, `<opnsense><system/></opnsense>`)

	merged, err := ApplySafeMerge(left, right, xmltree.Diff(left, right), TargetRight, DefaultOptions())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	nested := merged.Find("OPNsense", "Firewall", "Alias", "aliases")
	if nested == nil {
		t.Fatal("nested alias container missing")
	}
	if len(nested.ChildList("alias")) != 1 {
		t.Errorf("got %d aliases, want 1", len(nested.ChildList("alias")))
	}
}

func TestTransfersMissingUsernames(t *testing.T) {
	left := parse(t, `<pfsense>
		<system><user><name>alice</name><uid>2001</uid><priv>page-all</priv></user></system>
		<openvpn><openvpn-server><username>alice</username></openvpn-server></openvpn>
	</pfsense>`)
	right := parse(t, `<opnsense><system><user><name>root</name><uid>0</uid></user></system></opnsense>`)

	merged, err := ApplySafeMerge(left, right, xmltree.Diff(left, right), TargetRight, DefaultOptions())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	found := false
	for _, user := range merged.Child("system").ChildList("user") {
		if v, _ := user.TextAt("name"); v == "alice" {
			found = true
		}
	}
	if !found {
		t.Error("referenced user alice should be transferred")
	}
}

func TestPathingHelpers(t *testing.T) {
	if p, ok := splitParentPath("pfsense.filter.rule[3]"); !ok || p != "pfsense.filter" {
		t.Errorf("splitParentPath = %q %v", p, ok)
	}
	if _, ok := splitParentPath("pfsense"); ok {
		t.Error("root path has no parent")
	}
	if got := normalizeRootPath("pfsense.filter", "opnsense", "pfsense", "opnsense"); got != "opnsense.filter" {
		t.Errorf("normalizeRootPath = %q", got)
	}

	tree := parse(t, `<opnsense><filter>
		<rule><descr>first</descr></rule>
		<rule><descr>second</descr></rule>
	</filter></opnsense>`)
	if n := findNodeByPath(tree, "opnsense.filter.rule[2]"); n == nil || n.TextOr("", "descr") != "second" {
		t.Error("positional index lookup failed")
	}
	if n := findNodeByPath(tree, "opnsense.filter.rule[first]"); n == nil || n.TextOr("", "descr") != "first" {
		t.Error("key lookup failed")
	}
	if findNodeByPath(tree, "opnsense.filter.rule[9]") != nil {
		t.Error("out-of-range index should fail")
	}
	if findNodeByPath(tree, "pfsense.filter") != nil {
		t.Error("wrong root tag should fail")
	}
}

func countCerts(root *xmltree.Node, refid string) int {
	count := 0
	for _, cert := range root.ChildList("cert") {
		if v, _ := cert.TextAt("refid"); v == refid {
			count++
		}
	}
	return count
}

func TestRestampsMalformedTransferredUUID(t *testing.T) {
	left := parse(t, `<opnsense>
		<system/>
		<openvpn><openvpn-server><certref>cert-opn</certref></openvpn-server></openvpn>
		<cert uuid="not-a-uuid"><refid>cert-opn</refid></cert>
	</opnsense>`)
	right := parse(t, `<pfsense>
		<system/>
		<openvpn><openvpn-server><certref>other-cert</certref></openvpn-server></openvpn>
		<cert><refid>other-cert</refid></cert>
	</pfsense>`)

	merged, err := ApplySafeMerge(left, right, xmltree.Diff(left, right), TargetRight, DefaultOptions())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	for _, cert := range merged.ChildList("cert") {
		if v, _ := cert.TextAt("refid"); v != "cert-opn" {
			continue
		}
		got, ok := cert.Attr("uuid")
		if !ok {
			t.Fatal("transferred cert lost its uuid attribute")
		}
		if got == "not-a-uuid" {
			t.Error("malformed uuid should have been restamped")
		}
		if _, err := uuid.Parse(got); err != nil {
			t.Errorf("restamped uuid %q does not parse: %v", got, err)
		}
		return
	}
	t.Fatal("cert-opn was not transferred")
}
