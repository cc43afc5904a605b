// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/profile"
	"grimm.is/pfopn/internal/xmltree"
)

// ProfileFindings checks the configuration against version-profile
// expectations: required and deprecated sections, required rule/gateway/route
// fields, rule ordering keys, and bridge membership. Profile findings are
// always warnings since profiles encode conventions, not hard requirements.
func ProfileFindings(root *xmltree.Node, expected profile.Expected) []Finding {
	var out []Finding
	out = append(out, profileRequiredSectionFindings(root, expected)...)
	out = append(out, profileDeprecatedSectionFindings(root, expected)...)
	out = append(out, profileRuleFieldFindings(root, expected)...)
	out = append(out, profileRuleOrderFindings(root, expected)...)
	out = append(out, profileGatewayFieldFindings(root, expected)...)
	out = append(out, profileRouteFieldFindings(root, expected)...)
	out = append(out, profileBridgeFindings(root, expected)...)
	return out
}

func profileRequiredSectionFindings(root *xmltree.Node, expected profile.Expected) []Finding {
	var out []Finding
	for _, section := range expected.RequiredSections {
		if !root.HasChild(section) {
			out = append(out, warnFinding("profile_missing_required_section",
				fmt.Sprintf("expected section '%s' is missing", section)))
		}
	}
	return out
}

func profileDeprecatedSectionFindings(root *xmltree.Node, expected profile.Expected) []Finding {
	var out []Finding
	for _, section := range expected.DeprecatedSections {
		if root.HasChild(section) {
			out = append(out, warnFinding("profile_deprecated_section_present",
				fmt.Sprintf("deprecated section '%s' is present", section)))
		}
	}
	return out
}

func profileRuleFieldFindings(root *xmltree.Node, expected profile.Expected) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.ChildList("rule") {
		for _, field := range expected.RuleRequiredFields {
			if strings.TrimSpace(rule.TextOr("", field)) == "" {
				out = append(out, warnFinding("profile_rule_missing_required_field",
					fmt.Sprintf("filter rule #%d is missing required field '%s'", idx, field)))
			}
		}
	}
	return out
}

// profileRuleOrderFindings only fires when the profile names an order key and
// at least one rule carries it; configurations that never use the key are
// left alone.
func profileRuleOrderFindings(root *xmltree.Node, expected profile.Expected) []Finding {
	orderKey := expected.FirewallOrderKey
	if orderKey == "" {
		return nil
	}
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	rules := filter.ChildList("rule")
	anyHasOrderKey := false
	for _, rule := range rules {
		if _, ok := rule.TextAt(orderKey); ok {
			anyHasOrderKey = true
			break
		}
	}
	if !anyHasOrderKey {
		return nil
	}
	seen := make(map[string]bool)
	var out []Finding
	for idx, rule := range rules {
		value, ok := rule.TextAt(orderKey)
		if !ok {
			out = append(out, warnFinding("profile_rule_missing_order_key",
				fmt.Sprintf("filter rule #%d is missing order key '%s'", idx, orderKey)))
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			out = append(out, warnFinding("profile_rule_missing_order_key",
				fmt.Sprintf("filter rule #%d has empty order key '%s'", idx, orderKey)))
			continue
		}
		if seen[value] {
			out = append(out, warnFinding("profile_rule_duplicate_order_key",
				fmt.Sprintf("duplicate firewall order key '%s'", value)))
			continue
		}
		seen[value] = true
	}
	return out
}

func profileGatewayFieldFindings(root *xmltree.Node, expected profile.Expected) []Finding {
	gateways := root.Child("gateways")
	if gateways == nil {
		return nil
	}
	var out []Finding
	for idx, gw := range gateways.Children {
		if !hasAnyField(gw, expected.GatewayRequiredFields) {
			continue
		}
		for _, field := range expected.GatewayRequiredFields {
			if strings.TrimSpace(gw.TextOr("", field)) == "" {
				out = append(out, warnFinding("profile_gateway_missing_required_field",
					fmt.Sprintf("gateway #%d is missing required field '%s'", idx, field)))
			}
		}
	}
	return out
}

func profileRouteFieldFindings(root *xmltree.Node, expected profile.Expected) []Finding {
	routes := root.Child("staticroutes")
	if routes == nil {
		return nil
	}
	var out []Finding
	for idx, route := range routes.Children {
		for _, field := range expected.RouteRequiredFields {
			if strings.TrimSpace(route.TextOr("", field)) == "" {
				out = append(out, warnFinding("profile_route_missing_required_field",
					fmt.Sprintf("static route #%d is missing required field '%s'", idx, field)))
			}
		}
		if len(expected.RouteRequiredAnyFields) > 0 {
			hasAny := false
			for _, field := range expected.RouteRequiredAnyFields {
				if strings.TrimSpace(route.TextOr("", field)) != "" {
					hasAny = true
					break
				}
			}
			if !hasAny {
				out = append(out, warnFinding("profile_route_missing_any_required_field",
					fmt.Sprintf("static route #%d is missing one of [%s]",
						idx, strings.Join(expected.RouteRequiredAnyFields, ", "))))
			}
		}
	}
	return out
}

func profileBridgeFindings(root *xmltree.Node, expected profile.Expected) []Finding {
	if !expected.BridgeRequireMembers {
		return nil
	}
	bridges := root.Child("bridges")
	if bridges == nil {
		return nil
	}
	var out []Finding
	for idx, bridge := range bridges.ChildList("bridged") {
		members := strings.TrimSpace(bridge.TextOr("", "members")) != ""
		bridgeif := strings.TrimSpace(bridge.TextOr("", "bridgeif")) != ""
		if !members && !bridgeif {
			out = append(out, warnFinding("profile_bridge_missing_members",
				fmt.Sprintf("bridge #%d has no members according to profile", idx)))
		}
	}
	return out
}

func hasAnyField(node *xmltree.Node, fields []string) bool {
	for _, field := range fields {
		if _, ok := node.TextAt(field); ok {
			return true
		}
	}
	return false
}
