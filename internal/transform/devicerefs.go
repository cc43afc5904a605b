// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// RewriteDeviceRefs rewrites raw device names (igb0 and friends) throughout
// the tree to the target box's devices, using the logical interface mapping
// to pair source and target NICs. Dotted VLAN sub-interface names have only
// their base device rewritten, keeping the tag suffix. PPPoE logical names
// (pppoe0) are never rewritten; for PPPoE uplinks the physical <ports>
// device is mapped instead.
func RewriteDeviceRefs(out, source, target *xmltree.Node, interfaceMap map[string]string) {
	replacements := buildDeviceMap(source, target, interfaceMap)
	if len(replacements) == 0 {
		return
	}
	rewriteDeviceTree(out, replacements, nil)
}

func buildDeviceMap(source, target *xmltree.Node, interfaceMap map[string]string) map[string]string {
	out := map[string]string{}
	src := deviceByLogical(source)
	dst := deviceByLogical(target)

	for logical, srcIf := range src {
		mapped := logical
		if m, ok := interfaceMap[logical]; ok {
			mapped = m
		}
		dstIf, ok := dst[mapped]
		if !ok {
			continue
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(srcIf)), "pppoe") {
			continue
		}
		if srcIf != dstIf {
			out[srcIf] = dstIf
		}
	}
	augmentPPPoEPortMap(source, target, interfaceMap, out)
	return out
}

// augmentPPPoEPortMap maps the physical port behind each PPPoE uplink. The
// interface assignment's <if> holds the logical pppoe0 name while the ppp
// entry's <ports> holds the real device.
func augmentPPPoEPortMap(source, target *xmltree.Node, interfaceMap map[string]string, out map[string]string) {
	ppps := source.Child("ppps")
	if ppps == nil {
		return
	}

	src := deviceByLogical(source)
	dst := deviceByLogical(target)
	logicalByIf := map[string]string{}
	for logical, dev := range src {
		logicalByIf[dev] = logical
	}

	for _, ppp := range ppps.ChildList("ppp") {
		if !strings.EqualFold(strings.TrimSpace(ppp.TextOr("", "type")), "pppoe") {
			continue
		}
		pppIf := strings.TrimSpace(ppp.TextOr("", "if"))
		portIf := strings.TrimSpace(ppp.TextOr("", "ports"))
		if pppIf == "" || portIf == "" {
			continue
		}
		logical, ok := logicalByIf[pppIf]
		if !ok {
			continue
		}
		if m, ok := interfaceMap[logical]; ok {
			logical = m
		}
		dstIf, ok := dst[logical]
		if !ok {
			continue
		}
		if portIf != dstIf {
			out[portIf] = dstIf
		}
	}
}

func deviceByLogical(root *xmltree.Node) map[string]string {
	out := map[string]string{}
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return out
	}
	for _, iface := range interfaces.Children {
		if v, ok := iface.TextAt("if"); ok {
			if name := strings.TrimSpace(v); name != "" {
				out[iface.Tag] = name
			}
		}
	}
	return out
}

func rewriteDeviceTree(node *xmltree.Node, replacements map[string]string, path []string) {
	path = append(path, node.Tag)
	if node.Text != "" && !skipDeviceRewrite(path) {
		node.Text = rewriteDeviceTokens(node.Text, replacements)
	}
	for _, child := range node.Children {
		rewriteDeviceTree(child, replacements, path)
	}
}

// The ppps/ppp/if element names the PPP interface itself and must stay.
func skipDeviceRewrite(path []string) bool {
	n := len(path)
	return n >= 3 && path[n-3] == "ppps" && path[n-2] == "ppp" && path[n-1] == "if"
}

func rewriteDeviceTokens(input string, replacements map[string]string) string {
	var out, token strings.Builder
	flush := func() {
		if token.Len() == 0 {
			return
		}
		t := token.String()
		if mapped, ok := replacements[t]; ok {
			out.WriteString(mapped)
		} else if base, suffix, ok := splitDottedParent(t); ok {
			if newBase, ok := replacements[base]; ok {
				out.WriteString(newBase + "." + suffix)
			} else {
				out.WriteString(t)
			}
		} else {
			out.WriteString(t)
		}
		token.Reset()
	}
	for _, ch := range input {
		if isDelim(ch) {
			flush()
			out.WriteRune(ch)
		} else {
			token.WriteRune(ch)
		}
	}
	flush()
	return out.String()
}

// splitDottedParent splits a VLAN sub-interface name into the base device
// and the tag suffix.
func splitDottedParent(token string) (base, suffix string, ok bool) {
	dot := strings.IndexByte(token, '.')
	if dot <= 0 || dot+1 >= len(token) {
		return "", "", false
	}
	return token[:dot], token[dot+1:], true
}
