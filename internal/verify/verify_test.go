// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"strings"
	"testing"

	"grimm.is/pfopn/internal/xmltree"
)

func parse(t *testing.T, xml string) *xmltree.Node {
	t.Helper()
	node, err := xmltree.Parse([]byte(xml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return node
}

func hasCode(findings []Finding, code string) bool {
	for _, f := range findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func TestDetectsMissingInterfaceReferences(t *testing.T) {
	root := parse(t, `<pfsense><interfaces><lan/></interfaces><filter><rule><interface>opt9</interface></rule></filter></pfsense>`)
	if !hasCode(InterfaceReferenceFindings(root), "missing_interface_reference") {
		t.Error("expected missing_interface_reference")
	}
}

func TestDetectsDuplicateInterfaceAssignment(t *testing.T) {
	root := parse(t, `<pfsense><interfaces><lan/><lan/></interfaces></pfsense>`)
	findings := InterfaceReferenceFindings(root)
	if !hasCode(findings, "duplicate_interface_assignment") {
		t.Errorf("expected duplicate_interface_assignment, got %v", findings)
	}
}

func TestAcceptsBuiltinAndBridgeInterfaceTokens(t *testing.T) {
	root := parse(t, `<pfsense><interfaces><lan/></interfaces><filter>
	  <rule><interface>lan,openvpn bridge0</interface></rule>
	</filter></pfsense>`)
	if findings := InterfaceReferenceFindings(root); len(findings) != 0 {
		t.Errorf("unexpected findings: %v", findings)
	}
}

func TestDetectsEmptyBridgeMembers(t *testing.T) {
	root := parse(t, `<pfsense><interfaces><lan/></interfaces><bridges><bridged/></bridges></pfsense>`)
	if !hasCode(BridgeFindings(root), "empty_bridge_members") {
		t.Error("expected empty_bridge_members")
	}
}

func TestDetectsMissingBridgeMember(t *testing.T) {
	root := parse(t, `<pfsense><interfaces><lan/></interfaces><bridges>
	  <bridged><members>lan,opt7</members></bridged>
	</bridges></pfsense>`)
	findings := BridgeFindings(root)
	if !hasCode(findings, "missing_bridge_member") {
		t.Errorf("expected missing_bridge_member, got %v", findings)
	}
}

func TestWarnsOnUnknownOutboundMode(t *testing.T) {
	root := parse(t, `<pfsense><nat><outbound><mode>strange</mode></outbound></nat></pfsense>`)
	if !hasCode(NATFindings(root), "nat_invalid_outbound_mode") {
		t.Error("expected nat_invalid_outbound_mode")
	}
}

func TestErrorsOnMissingNATInterface(t *testing.T) {
	root := parse(t, `<pfsense><interfaces><lan/></interfaces><nat><rule><interface>opt9</interface></rule></nat></pfsense>`)
	if !hasCode(NATFindings(root), "nat_missing_interface") {
		t.Error("expected nat_missing_interface")
	}
}

func TestWarnsOnMissingAssociatedRule(t *testing.T) {
	root := parse(t, `<pfsense>
	  <filter><rule><associated-rule-id>a</associated-rule-id></rule></filter>
	  <nat><rule><associated-rule-id>b</associated-rule-id></rule></nat>
	</pfsense>`)
	if !hasCode(NATFindings(root), "nat_missing_associated_rule") {
		t.Error("expected nat_missing_associated_rule")
	}
}

func TestDetectsMissingAliasReference(t *testing.T) {
	root := parse(t, `<pfsense>
	  <aliases><alias><name>ok_alias</name></alias></aliases>
	  <filter><rule><source><address>missing_alias</address></source><destination><any/></destination></rule></filter>
	</pfsense>`)
	if !hasCode(RuleReferenceFindings(root), "missing_alias_reference") {
		t.Error("expected missing_alias_reference")
	}
}

func TestAcceptsIPAndCIDRLiterals(t *testing.T) {
	root := parse(t, `<pfsense><filter>
	  <rule><source><address>10.0.0.1</address></source><destination><address>192.168.1.0/24</address></destination></rule>
	</filter></pfsense>`)
	if hasCode(RuleReferenceFindings(root), "missing_alias_reference") {
		t.Error("IP literals should not be treated as alias references")
	}
}

func TestDetectsMissingGatewayReference(t *testing.T) {
	root := parse(t, `<pfsense>
	  <gateways><item><name>GW1</name></item></gateways>
	  <filter><rule><gateway>GW2</gateway></rule></filter>
	</pfsense>`)
	if !hasCode(RuleReferenceFindings(root), "missing_gateway_reference") {
		t.Error("expected missing_gateway_reference")
	}
}

func TestAcceptsDynamicGatewayLiterals(t *testing.T) {
	root := parse(t, `<pfsense><filter><rule><gateway>WAN_DHCP</gateway></rule></filter></pfsense>`)
	if hasCode(RuleReferenceFindings(root), "missing_gateway_reference") {
		t.Error("dynamic gateway names should be accepted")
	}
}

func TestWarnsOnMissingScheduleReference(t *testing.T) {
	root := parse(t, `<pfsense><filter><rule><sched>workhours</sched></rule></filter></pfsense>`)
	if !hasCode(RuleReferenceFindings(root), "missing_schedule_reference") {
		t.Error("expected missing_schedule_reference")
	}
}

func TestAcceptsExistingScheduleReference(t *testing.T) {
	root := parse(t, `<pfsense>
	  <schedules><schedule><name>workhours</name></schedule></schedules>
	  <filter><rule><sched>workhours</sched></rule></filter>
	</pfsense>`)
	if hasCode(RuleReferenceFindings(root), "missing_schedule_reference") {
		t.Error("existing schedule should be accepted")
	}
}

func TestIgnoresDefaultPairWhenIPProtocolDiffers(t *testing.T) {
	root := parse(t, `<pfsense><filter>
	  <rule><type>pass</type><interface>lan</interface><ipprotocol>inet</ipprotocol><source><network>lan</network></source><destination><any/></destination><descr>Default allow LAN to any rule</descr></rule>
	  <rule><type>pass</type><interface>lan</interface><ipprotocol>inet6</ipprotocol><source><network>lan</network></source><destination><any/></destination><descr>Default allow LAN IPv6 to any rule</descr></rule>
	</filter></pfsense>`)
	if findings := RuleDuplicateFindings(root); len(findings) != 0 {
		t.Errorf("unexpected findings: %v", findings)
	}
}

func TestReportsExactDuplicateSignature(t *testing.T) {
	root := parse(t, `<pfsense><filter>
	  <rule><type>pass</type><interface>lan</interface><ipprotocol>inet</ipprotocol><source><any/></source><destination><any/></destination><tracker>1</tracker><descr>Rule A</descr></rule>
	  <rule><type>pass</type><interface>lan</interface><ipprotocol>inet</ipprotocol><source><any/></source><destination><any/></destination><tracker>2</tracker><descr>Rule B</descr></rule>
	</filter></pfsense>`)
	findings := RuleDuplicateFindings(root)
	if !hasCode(findings, "duplicate_firewall_rule") {
		t.Fatalf("expected duplicate_firewall_rule, got %v", findings)
	}
	for _, f := range findings {
		if f.Code == "duplicate_firewall_rule" && !strings.Contains(f.Message, "trackers: 1,2") {
			t.Errorf("message should list trackers: %q", f.Message)
		}
	}
}

func TestReportsDefaultRuleOverlap(t *testing.T) {
	root := parse(t, `<pfsense><filter>
	  <rule><type>pass</type><interface>lan</interface><source><any/></source><destination><any/></destination><descr>Default allow LAN to any rule</descr></rule>
	  <rule><type>pass</type><interface>lan</interface><source><any/></source><destination><any/></destination><descr>My custom rule</descr></rule>
	</filter></pfsense>`)
	if !hasCode(RuleDuplicateFindings(root), "default_rule_overlap") {
		t.Error("expected default_rule_overlap")
	}
}

func TestWarnsWhenEnabledWireGuardHasNoAssignment(t *testing.T) {
	root := parse(t, `<opnsense><interfaces><wan/><lan/></interfaces>
	  <OPNsense><wireguard><server><servers><server><enabled>1</enabled></server></servers></server></wireguard></OPNsense>
	</opnsense>`)
	findings := WireGuardFindings(root)
	if !hasCode(findings, "wireguard_missing_interface_assignment") {
		t.Fatal("expected wireguard_missing_interface_assignment")
	}
	if findings[0].Severity != SeverityWarning {
		t.Errorf("severity = %s, want warning", findings[0].Severity)
	}
}

func TestNoWarningWhenWireGuardHasAssignment(t *testing.T) {
	root := parse(t, `<opnsense><interfaces><wireguard><if>tun_wg0</if></wireguard></interfaces>
	  <OPNsense><wireguard><server><servers><server><enabled>1</enabled></server></servers></server></wireguard></OPNsense>
	</opnsense>`)
	if findings := WireGuardFindings(root); len(findings) != 0 {
		t.Errorf("unexpected findings: %v", findings)
	}
}

func TestBuildFlagsUnknownPlatform(t *testing.T) {
	root := parse(t, `<mystery/>`)
	report := Build(root, "")
	if !hasCode(report.Issues, "unknown_platform") {
		t.Error("expected unknown_platform")
	}
	if report.Errors == 0 {
		t.Error("expected error count > 0")
	}
}

func TestBuildFlagsMissingRequiredSections(t *testing.T) {
	root := parse(t, `<pfsense><filter/></pfsense>`)
	report := Build(root, "")
	count := 0
	for _, issue := range report.Issues {
		if issue.Code == "missing_required_section" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("missing_required_section count = %d, want 2 (system, interfaces)", count)
	}
}

func TestBuildFlagsInconsistentPfsenseBackend(t *testing.T) {
	root := parse(t, `<pfsense>
	  <system/>
	  <interfaces><lan/></interfaces>
	  <dhcpbackend>isc</dhcpbackend>
	  <kea><dhcp4/></kea>
	</pfsense>`)
	report := Build(root, "")
	found := false
	for _, issue := range report.Issues {
		if issue.Code == "dhcp_backend_inconsistent" && strings.Contains(issue.Message, "Kea section is still present") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected backend inconsistency, got %v", report.Issues)
	}
}

func TestBuildAppliesVersionProfile(t *testing.T) {
	root := parse(t, `<pfsense>
	  <system/>
	  <interfaces><lan/></interfaces>
	  <filter><rule><interface>lan</interface></rule></filter>
	</pfsense>`)
	report := Build(root, "")
	if report.ProfilesSource != "embedded" {
		t.Errorf("profiles_source = %q, want embedded", report.ProfilesSource)
	}
	if !hasCode(report.Issues, "profile_rule_missing_required_field") {
		t.Errorf("expected profile rule field warnings, got %v", report.Issues)
	}
}

func TestRenderTextFormatsIssues(t *testing.T) {
	report := Report{
		Platform: "pfsense",
		Version:  "23.1",
		Errors:   1,
		Issues:   []Finding{errFinding("missing_required_section", "required section 'system' is missing")},
	}
	text := RenderText(report, true)
	if !strings.Contains(text, "verify platform=pfsense version=23.1 target=none") {
		t.Errorf("header missing: %q", text)
	}
	if !strings.Contains(text, "Using profiles: none") {
		t.Errorf("verbose profiles line missing: %q", text)
	}
	if !strings.Contains(text, "- [error] missing_required_section: required section 'system' is missing") {
		t.Errorf("issue line missing: %q", text)
	}
}

func TestRenderTextEmptyIssues(t *testing.T) {
	text := RenderText(Report{Platform: "opnsense", Version: "24.7"}, false)
	if !strings.Contains(text, "issues\n- none") {
		t.Errorf("expected '- none': %q", text)
	}
}
