// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dhcp

import (
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// staticMapV4 is an ISC dhcpd fixed address assignment for a MAC.
type staticMapV4 struct {
	iface    string
	mac      string
	ipaddr   string
	hostname string
	cid      string
	descr    string
}

// staticMapV6 is an ISC dhcpdv6 fixed address assignment for a DUID.
type staticMapV6 struct {
	iface        string
	duid         string
	ipaddr       string
	hostname     string
	descr        string
	domainSearch string
}

type optsV4 struct {
	dnsServers   []string
	routers      string
	domainName   string
	domainSearch string
	ntpServers   []string
}

type optsV6 struct {
	dnsServers   []string
	domainSearch string
}

type addressRange struct {
	from string
	to   string
}

// ifaceNetwork is an interface's subnet, computed from its address and
// prefix by masking off the host bits.
type ifaceNetwork struct {
	network netip.Addr
	prefix  int
}

// iscIfaceEnabled reports whether an ISC per-interface block is active. ISC
// sections indicate state three ways: a <disabled> element (off only when
// its value is truthy; a bare <disabled/> is inert), an <enable> element
// (empty or truthy means on), or an <enabled> value. Absent flags default
// to enabled.
func iscIfaceEnabled(iface *xmltree.Node) bool {
	if disabled := iface.Child("disabled"); disabled != nil {
		if dhcpTruthy(strings.TrimSpace(disabled.Text)) {
			return false
		}
	}
	if enable := iface.Child("enable"); enable != nil {
		v := strings.TrimSpace(enable.Text)
		return v == "" || dhcpTruthy(v)
	}
	if enabled := iface.Child("enabled"); enabled != nil {
		return dhcpTruthy(enabled.Text)
	}
	return true
}

func extractStaticMapsV4(root *xmltree.Node) []staticMapV4 {
	dhcpd := root.Child("dhcpd")
	if dhcpd == nil {
		return nil
	}
	var out []staticMapV4
	for _, iface := range dhcpd.Children {
		if !iscIfaceEnabled(iface) {
			continue
		}
		for _, sm := range iface.ChildList("staticmap") {
			mac := strings.TrimSpace(sm.TextOr("", "mac"))
			ip := strings.TrimSpace(sm.TextOr("", "ipaddr"))
			if mac == "" || ip == "" {
				continue
			}
			out = append(out, staticMapV4{
				iface:    iface.Tag,
				mac:      mac,
				ipaddr:   ip,
				hostname: strings.TrimSpace(sm.TextOr("", "hostname")),
				cid:      strings.TrimSpace(sm.TextOr("", "cid")),
				descr:    strings.TrimSpace(sm.TextOr("", "descr")),
			})
		}
	}
	return out
}

func extractRangesV4(root *xmltree.Node) map[string][]addressRange {
	out := make(map[string][]addressRange)
	dhcpd := root.Child("dhcpd")
	if dhcpd == nil {
		return out
	}
	for _, iface := range dhcpd.Children {
		if !iscIfaceEnabled(iface) {
			continue
		}
		for _, r := range iface.ChildList("range") {
			from := strings.TrimSpace(r.TextOr("", "from"))
			to := strings.TrimSpace(r.TextOr("", "to"))
			if from == "" || to == "" {
				continue
			}
			out[iface.Tag] = append(out[iface.Tag], addressRange{from, to})
		}
	}
	return out
}

// extractIfaceNetworksV4 computes each interface's IPv4 subnet from the
// <interfaces> section. Kea wants subnets in CIDR notation rather than the
// interface-relative form ISC uses.
func extractIfaceNetworksV4(root *xmltree.Node) map[string]ifaceNetwork {
	out := make(map[string]ifaceNetwork)
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return out
	}
	for _, iface := range interfaces.Children {
		ip, err := netip.ParseAddr(strings.TrimSpace(iface.TextOr("", "ipaddr")))
		if err != nil || !ip.Is4() {
			continue
		}
		prefix := 24
		if v, convErr := strconv.Atoi(strings.TrimSpace(iface.TextOr("", "subnet"))); convErr == nil {
			prefix = v
		}
		if prefix < 0 || prefix > 32 {
			continue
		}
		network, ok := maskAddr(ip, prefix)
		if !ok {
			continue
		}
		out[iface.Tag] = ifaceNetwork{network: network, prefix: prefix}
	}
	return out
}

// extractIfaceNetworksV6 computes each interface's IPv6 subnet. Interfaces
// in track6 or dhcp6 client mode have no usable static prefix and are
// skipped.
func extractIfaceNetworksV6(root *xmltree.Node) map[string]ifaceNetwork {
	out := make(map[string]ifaceNetwork)
	interfaces := root.Child("interfaces")
	if interfaces == nil {
		return out
	}
	for _, iface := range interfaces.Children {
		raw := strings.TrimSpace(iface.TextOr("", "ipaddrv6"))
		if raw == "" || strings.EqualFold(raw, "track6") || strings.EqualFold(raw, "dhcp6") {
			continue
		}
		ip, err := netip.ParseAddr(raw)
		if err != nil || !ip.Is6() || ip.Is4In6() {
			continue
		}
		prefix := 64
		if v, convErr := strconv.Atoi(strings.TrimSpace(iface.TextOr("", "subnetv6"))); convErr == nil {
			prefix = v
		}
		if prefix < 0 || prefix > 128 {
			continue
		}
		network, ok := maskAddr(ip, prefix)
		if !ok {
			continue
		}
		out[iface.Tag] = ifaceNetwork{network: network, prefix: prefix}
	}
	return out
}

func extractOptionsV4(root *xmltree.Node) map[string]optsV4 {
	out := make(map[string]optsV4)
	dhcpd := root.Child("dhcpd")
	if dhcpd == nil {
		return out
	}
	for _, iface := range dhcpd.Children {
		if !iscIfaceEnabled(iface) {
			continue
		}
		var opts optsV4
		for _, child := range iface.Children {
			v := strings.TrimSpace(child.Text)
			if v == "" {
				continue
			}
			switch child.Tag {
			case "dnsserver":
				opts.dnsServers = append(opts.dnsServers, v)
			case "gateway":
				opts.routers = v
			case "domain":
				opts.domainName = v
			case "domainsearchlist":
				opts.domainSearch = normalizeDomainSearch(v)
			case "ntpserver":
				opts.ntpServers = append(opts.ntpServers, v)
			}
		}
		if len(opts.dnsServers) > 0 || opts.routers != "" || opts.domainName != "" ||
			opts.domainSearch != "" || len(opts.ntpServers) > 0 {
			out[iface.Tag] = opts
		}
	}
	return out
}

func extractStaticMapsV6(root *xmltree.Node) []staticMapV6 {
	var out []staticMapV6
	for _, container := range dhcpv6LegacySections(root) {
		for _, iface := range container.Children {
			if !iscIfaceEnabled(iface) {
				continue
			}
			for _, sm := range iface.ChildList("staticmap") {
				duid := strings.TrimSpace(sm.TextOr("", "duid"))
				ip := strings.TrimSpace(sm.TextOr("", "ipaddrv6"))
				if duid == "" || ip == "" {
					continue
				}
				out = append(out, staticMapV6{
					iface:        iface.Tag,
					duid:         duid,
					ipaddr:       ip,
					hostname:     strings.TrimSpace(sm.TextOr("", "hostname")),
					descr:        strings.TrimSpace(sm.TextOr("", "descr")),
					domainSearch: strings.TrimSpace(sm.TextOr("", "domainsearchlist")),
				})
			}
		}
	}
	return out
}

func extractRangesV6(root *xmltree.Node) map[string][]addressRange {
	out := make(map[string][]addressRange)
	for _, container := range dhcpv6LegacySections(root) {
		for _, iface := range container.Children {
			if !iscIfaceEnabled(iface) {
				continue
			}
			for _, r := range iface.ChildList("range") {
				from := strings.TrimSpace(r.TextOr("", "from"))
				to := strings.TrimSpace(r.TextOr("", "to"))
				if from == "" || to == "" {
					continue
				}
				out[iface.Tag] = append(out[iface.Tag], addressRange{from, to})
			}
		}
	}
	return out
}

func extractOptionsV6(root *xmltree.Node) map[string]optsV6 {
	out := make(map[string]optsV6)
	for _, container := range dhcpv6LegacySections(root) {
		for _, iface := range container.Children {
			if !iscIfaceEnabled(iface) {
				continue
			}
			var opts optsV6
			for _, child := range iface.Children {
				v := strings.TrimSpace(child.Text)
				if v == "" {
					continue
				}
				switch child.Tag {
				case "dnsserver":
					opts.dnsServers = append(opts.dnsServers, v)
				case "domainsearchlist":
					opts.domainSearch = normalizeDomainSearch(v)
				}
			}
			if len(opts.dnsServers) == 0 && opts.domainSearch == "" {
				continue
			}
			merged := out[iface.Tag]
			for _, dns := range opts.dnsServers {
				merged.dnsServers = appendUniqueString(merged.dnsServers, dns)
			}
			if merged.domainSearch == "" {
				merged.domainSearch = opts.domainSearch
			}
			out[iface.Tag] = merged
		}
	}
	return out
}

// collectPrefixRangeIntent flags interfaces with prefix delegation config,
// which counts as DHCPv6 demand even without a range or mapping.
func collectPrefixRangeIntent(root *xmltree.Node) map[string]bool {
	out := make(map[string]bool)
	for _, container := range dhcpv6LegacySections(root) {
		for _, iface := range container.Children {
			for _, pr := range iface.ChildList("prefixrange") {
				from := strings.TrimSpace(pr.TextOr("", "from"))
				to := strings.TrimSpace(pr.TextOr("", "to"))
				length := strings.TrimSpace(pr.TextOr("", "prefixlength"))
				if (from != "" || to != "") && length != "" {
					out[iface.Tag] = true
				}
			}
		}
	}
	return out
}

func demandedIfacesV4(maps []staticMapV4, ranges map[string][]addressRange, opts map[string]optsV4) []string {
	set := make(map[string]bool)
	for _, m := range maps {
		set[m.iface] = true
	}
	for k := range ranges {
		set[k] = true
	}
	for k := range opts {
		set[k] = true
	}
	return sortedKeys(set)
}

func demandedIfacesV6(maps []staticMapV6, ranges map[string][]addressRange, opts map[string]optsV6, prefixIntent map[string]bool) []string {
	set := make(map[string]bool)
	for _, m := range maps {
		set[m.iface] = true
	}
	for k := range ranges {
		set[k] = true
	}
	for k := range opts {
		set[k] = true
	}
	for k := range prefixIntent {
		set[k] = true
	}
	return sortedKeys(set)
}

// dhcpv6LegacySections returns the IPv6 ISC sections, covering both the
// dhcpdv6 and dhcpd6 spellings.
func dhcpv6LegacySections(root *xmltree.Node) []*xmltree.Node {
	var out []*xmltree.Node
	if n := root.Child("dhcpdv6"); n != nil {
		out = append(out, n)
	}
	if n := root.Child("dhcpd6"); n != nil {
		out = append(out, n)
	}
	return out
}

// normalizeDomainSearch rewrites ISC's mixed-separator search lists to the
// space-separated form Kea expects.
func normalizeDomainSearch(raw string) string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return strings.Join(parts, " ")
}

// maskAddr clears the host bits of an address for the given prefix length.
func maskAddr(addr netip.Addr, prefix int) (netip.Addr, bool) {
	p, err := addr.Prefix(prefix)
	if err != nil {
		return netip.Addr{}, false
	}
	return p.Addr(), true
}

// expandIPv6InPrefix combines an abbreviated range endpoint with the subnet
// prefix: in fd00::/64, "::10" expands to "fd00::10".
func expandIPv6InPrefix(value string, network netip.Addr, prefix int) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(value))
	if err != nil || !addr.Is6() {
		return "", false
	}
	net16 := network.As16()
	host16 := addr.As16()
	var out [16]byte
	for i := 0; i < 16; i++ {
		mask := maskByte(prefix, i)
		out[i] = net16[i]&mask | host16[i]&^mask
	}
	return netip.AddrFrom16(out).String(), true
}

// maskByte returns byte i of the network mask for a prefix length.
func maskByte(prefix, i int) byte {
	bits := prefix - i*8
	switch {
	case bits >= 8:
		return 0xff
	case bits <= 0:
		return 0
	default:
		return byte(0xff << (8 - bits))
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func appendUniqueString(items []string, value string) []string {
	for _, v := range items {
		if v == value {
			return items
		}
	}
	return append(items, value)
}
