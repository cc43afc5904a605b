// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"sort"
	"strconv"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// NormalizeOpnsenseAssignments renames non-standard interface assignment
// tags (ovpns1, wg1, tailscale0 and friends) to the next free optN slot.
// OPNsense only accepts wan/lan/lo0, the virtual group names, and optN for
// extra interfaces. The returned map (old tag to new tag) feeds
// RewriteLogicalRefs so references elsewhere in the tree follow.
func NormalizeOpnsenseAssignments(out *xmltree.Node) map[string]string {
	rewrites := map[string]string{}
	interfaces := out.Child("interfaces")
	if interfaces == nil {
		return rewrites
	}

	used := map[int]bool{}
	for _, iface := range interfaces.Children {
		if idx, ok := parseOptIndex(iface.Tag); ok {
			used[idx] = true
		}
	}

	for _, iface := range interfaces.Children {
		oldTag := iface.Tag
		if isAllowedOpnsenseLogical(oldTag) {
			continue
		}
		if !isVirtualAssignmentCandidate(oldTag) {
			continue
		}
		newTag := nextOptTag(used)
		iface.Tag = newTag
		rewrites[oldTag] = newTag
	}
	return rewrites
}

func isAllowedOpnsenseLogical(tag string) bool {
	switch tag {
	case "wan", "lan", "lo0", "openvpn", "wireguard", "tailscale":
		return true
	}
	_, ok := parseOptIndex(tag)
	return ok
}

// isVirtualAssignmentCandidate matches the device names OPNsense generates
// for VPN tunnels and similar virtual interfaces.
func isVirtualAssignmentCandidate(tag string) bool {
	lower := strings.ToLower(tag)
	for _, prefix := range []string{"ovpns", "ovpnc", "wg", "tun_wg", "tailscale"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func parseOptIndex(tag string) (int, bool) {
	rest, ok := strings.CutPrefix(tag, "opt")
	if !ok || rest == "" {
		return 0, false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func nextOptTag(used map[int]bool) string {
	idx := 1
	for used[idx] {
		idx++
	}
	used[idx] = true
	return "opt" + strconv.Itoa(idx)
}

// RewriteLogicalRefs rewrites logical interface references across the whole
// tree after assignments are renumbered. The single-name <interface> field
// and the token lists in <members> and <interfaces> are the places logical
// names appear.
func RewriteLogicalRefs(root *xmltree.Node, logicalMap map[string]string) {
	if len(logicalMap) == 0 {
		return
	}
	rewriteLogicalNode(root, logicalMap)
}

func rewriteLogicalNode(node *xmltree.Node, logicalMap map[string]string) {
	switch node.Tag {
	case "members", "interfaces":
		if node.Text != "" {
			node.Text = rewriteTokenList(node.Text, logicalMap)
		}
	case "interface":
		if mapped, ok := logicalMap[strings.TrimSpace(node.Text)]; ok {
			node.Text = mapped
		}
	}
	for _, child := range node.Children {
		rewriteLogicalNode(child, logicalMap)
	}
}

// SortedRewrites renders a rewrite map as "old->new" pairs in stable order
// for logging and summaries.
func SortedRewrites(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"->"+m[k])
	}
	return out
}
