// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package verify

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// NATFindings validates NAT configuration: the outbound mode must be a
// recognized value, rule interfaces must exist, and port-forward
// associated-rule-id links must resolve to filter rules.
func NATFindings(root *xmltree.Node) []Finding {
	nat := root.Child("nat")
	if nat == nil {
		return nil
	}
	interfaces := CollectDefinedInterfaceNames(root)
	associatedIDs := collectFilterAssociatedIDs(root)

	var out []Finding
	out = append(out, outboundModeFindings(nat)...)
	out = append(out, natInterfaceFindings(nat, interfaces)...)
	out = append(out, natAssociationFindings(nat, associatedIDs)...)
	return out
}

func outboundModeFindings(nat *xmltree.Node) []Finding {
	mode := strings.TrimSpace(nat.TextOr("", "outbound", "mode"))
	if mode == "" {
		return nil
	}
	for _, valid := range []string{"automatic", "hybrid", "manual", "disable", "disabled", "advanced"} {
		if strings.EqualFold(mode, valid) {
			return nil
		}
	}
	return []Finding{warnFinding("nat_invalid_outbound_mode",
		fmt.Sprintf("NAT outbound mode '%s' is not recognized", mode))}
}

func natInterfaceFindings(nat *xmltree.Node, interfaces map[string]bool) []Finding {
	var out []Finding
	for idx, rule := range collectNATRules(nat) {
		interfaceText, ok := rule.TextAt("interface")
		if !ok {
			continue
		}
		for _, token := range splitInterfaceTokens(interfaceText) {
			if isBuiltinNATInterface(token) || interfaces[token] {
				continue
			}
			out = append(out, errFinding("nat_missing_interface",
				fmt.Sprintf("NAT rule #%d references missing interface '%s'", idx, token)))
		}
	}
	return out
}

func natAssociationFindings(nat *xmltree.Node, associatedIDs map[string]bool) []Finding {
	var out []Finding
	for idx, rule := range collectNATRules(nat) {
		assoc := strings.TrimSpace(rule.TextOr("", "associated-rule-id"))
		if assoc == "" || associatedIDs[assoc] {
			continue
		}
		out = append(out, warnFinding("nat_missing_associated_rule",
			fmt.Sprintf("NAT rule #%d associated-rule-id '%s' not found in filter", idx, assoc)))
	}
	return out
}

// collectNATRules gathers port-forward rules and outbound rules in order.
func collectNATRules(nat *xmltree.Node) []*xmltree.Node {
	out := nat.ChildList("rule")
	if outbound := nat.Child("outbound"); outbound != nil {
		out = append(out, outbound.ChildList("rule")...)
	}
	return out
}

func collectFilterAssociatedIDs(root *xmltree.Node) map[string]bool {
	out := make(map[string]bool)
	filter := root.Child("filter")
	if filter == nil {
		return out
	}
	for _, rule := range filter.ChildList("rule") {
		id := strings.TrimSpace(rule.TextOr("", "associated-rule-id"))
		if id != "" {
			out[id] = true
		}
	}
	return out
}

func isBuiltinNATInterface(token string) bool {
	return token == "any" || token == "wan" || token == "lan"
}
