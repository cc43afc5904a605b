// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// RuleReferenceFindings validates that firewall rules and static routes only
// reference aliases, gateways, and schedules that are actually defined.
// Built-in values and address literals are always accepted.
func RuleReferenceFindings(root *xmltree.Node) []Finding {
	aliases := collectAliasNames(root)
	gateways := collectGatewayNames(root)
	schedules := collectScheduleNames(root)

	var out []Finding
	out = append(out, filterRuleAliasFindings(root, aliases)...)
	out = append(out, filterRuleGatewayFindings(root, gateways)...)
	out = append(out, staticRouteGatewayFindings(root, gateways)...)
	out = append(out, filterRuleScheduleFindings(root, schedules)...)
	return out
}

func filterRuleAliasFindings(root *xmltree.Node, aliases map[string]bool) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.ChildList("rule") {
		for _, side := range []string{"source", "destination"} {
			sideNode := rule.Child(side)
			if sideNode == nil {
				continue
			}
			addr, ok := sideNode.TextAt("address")
			if !ok {
				continue
			}
			for _, token := range splitRefTokens(addr) {
				if isBuiltinOrLiteral(token) {
					continue
				}
				if !aliases[strings.ToLower(token)] {
					out = append(out, errFinding("missing_alias_reference",
						fmt.Sprintf("filter rule #%d %s references alias '%s' that does not exist",
							idx, side, token)))
				}
			}
		}
	}
	return out
}

func filterRuleGatewayFindings(root *xmltree.Node, gateways map[string]bool) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.ChildList("rule") {
		gateway := strings.TrimSpace(rule.TextOr("", "gateway"))
		if gateway == "" || isBuiltinOrLiteral(gateway) {
			continue
		}
		if !gateways[strings.ToLower(gateway)] {
			out = append(out, errFinding("missing_gateway_reference",
				fmt.Sprintf("filter rule #%d references gateway '%s' that does not exist", idx, gateway)))
		}
	}
	return out
}

func staticRouteGatewayFindings(root *xmltree.Node, gateways map[string]bool) []Finding {
	routes := root.Child("staticroutes")
	if routes == nil {
		return nil
	}
	var out []Finding
	for idx, route := range routes.Children {
		gateway := strings.TrimSpace(route.TextOr("", "gateway"))
		if gateway == "" || isBuiltinOrLiteral(gateway) {
			continue
		}
		if !gateways[strings.ToLower(gateway)] {
			out = append(out, errFinding("missing_route_gateway",
				fmt.Sprintf("static route #%d references gateway '%s' that does not exist", idx, gateway)))
		}
	}
	return out
}

func filterRuleScheduleFindings(root *xmltree.Node, schedules map[string]bool) []Finding {
	filter := root.Child("filter")
	if filter == nil {
		return nil
	}
	var out []Finding
	for idx, rule := range filter.ChildList("rule") {
		sched := strings.TrimSpace(rule.TextOr(rule.TextOr("", "schedule"), "sched"))
		if sched == "" {
			continue
		}
		if !schedules[strings.ToLower(sched)] {
			out = append(out, warnFinding("missing_schedule_reference",
				fmt.Sprintf("filter rule #%d references schedule '%s' that does not exist", idx, sched)))
		}
	}
	return out
}

func collectAliasNames(root *xmltree.Node) map[string]bool {
	out := make(map[string]bool)
	addFrom := func(aliases *xmltree.Node) {
		if aliases == nil {
			return
		}
		for _, alias := range aliases.ChildList("alias") {
			name := strings.ToLower(strings.TrimSpace(alias.TextOr("", "name")))
			if name != "" {
				out[name] = true
			}
		}
	}
	addFrom(root.Child("aliases"))
	addFrom(root.Find("OPNsense", "Firewall", "Alias", "aliases"))
	return out
}

func collectGatewayNames(root *xmltree.Node) map[string]bool {
	out := make(map[string]bool)
	addFrom := func(gateways *xmltree.Node) {
		if gateways == nil {
			return
		}
		for _, gw := range gateways.Children {
			name := strings.ToLower(strings.TrimSpace(gw.TextOr("", "name")))
			if name != "" {
				out[name] = true
			}
		}
	}
	addFrom(root.Child("gateways"))
	addFrom(root.Find("OPNsense", "Gateways"))
	return out
}

func collectScheduleNames(root *xmltree.Node) map[string]bool {
	out := make(map[string]bool)
	schedules := root.Child("schedules")
	if schedules == nil {
		return out
	}
	for _, s := range schedules.ChildList("schedule") {
		name := strings.ToLower(strings.TrimSpace(s.TextOr("", "name")))
		if name != "" {
			out[name] = true
		}
	}
	return out
}

func splitRefTokens(raw string) []string {
	var out []string
	for _, token := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		token = strings.TrimSpace(token)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

// isBuiltinOrLiteral reports whether an address or gateway value needs no
// lookup: built-in keywords, IP literals, CIDR literals, and the dynamic
// gateway names pfSense generates for DHCP/PPPoE/track6 interfaces.
func isBuiltinOrLiteral(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return true
	}
	switch v {
	case "any", "(self)", "self", "wanip", "lanip",
		"wan address", "lan address", "wan net", "lan net", "this firewall":
		return true
	}
	if net.ParseIP(v) != nil {
		return true
	}
	if isDynamicGatewayLiteral(v) {
		return true
	}
	if ip, mask, found := strings.Cut(v, "/"); found {
		_, err := strconv.ParseUint(mask, 10, 8)
		if net.ParseIP(ip) != nil && err == nil {
			return true
		}
	}
	return false
}

func isDynamicGatewayLiteral(v string) bool {
	return strings.HasSuffix(v, "_dhcp") || strings.HasSuffix(v, "_dhcp6") ||
		strings.HasSuffix(v, "_pppoe") || strings.HasSuffix(v, "_track6")
}
