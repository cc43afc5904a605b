// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dhcp

import (
	"sort"
	"strings"

	"grimm.is/pfopn/internal/errors"
	"grimm.is/pfopn/internal/xmltree"
)

// applyReservationsV4 creates a Kea reservation per ISC static mapping,
// linked to its subnet. Mappings whose address already has a reservation are
// counted as conflicts rather than duplicated.
func applyReservationsV4(dhcp4 *xmltree.Node, maps []staticMapV4, subnetByIface map[string]string) (added, skipped int, err error) {
	reservations := dhcp4.EnsureChild("reservations")
	existingIPs := make(map[string]bool)
	for _, node := range reservations.ChildList("reservation") {
		if ip := strings.TrimSpace(node.TextOr("", "ip_address")); ip != "" {
			existingIPs[ip] = true
		}
	}
	for _, m := range maps {
		if existingIPs[m.ipaddr] {
			skipped++
			continue
		}
		subnetID, ok := subnetByIface[m.iface]
		if !ok {
			return added, skipped, errors.Errorf(errors.KindValidation,
				"cannot migrate DHCPv4 reservation %s (iface=%s): no matching Kea subnet", m.ipaddr, m.iface)
		}
		res := xmltree.New("reservation")
		res.AppendText("hw_address", m.mac)
		res.AppendText("ip_address", m.ipaddr)
		res.AppendText("subnet", subnetID)
		if m.hostname != "" {
			res.AppendText("hostname", m.hostname)
		}
		if m.cid != "" {
			res.AppendText("client_id", m.cid)
		}
		if m.descr != "" {
			res.AppendText("description", m.descr)
		}
		reservations.Append(res)
		existingIPs[m.ipaddr] = true
		added++
	}
	return added, skipped, nil
}

// applyReservationsV6 mirrors the IPv4 path but keys conflicts on both the
// address and the DUID, and expands abbreviated addresses into the
// interface's prefix before storing them.
func applyReservationsV6(dhcp6 *xmltree.Node, maps []staticMapV6, subnetByIface map[string]string, ifaceNets map[string]ifaceNetwork) (added, skipped int, err error) {
	reservations := dhcp6.EnsureChild("reservations")
	existingIPs := make(map[string]bool)
	existingDUIDs := make(map[string]bool)
	for _, node := range reservations.ChildList("reservation") {
		if ip := strings.TrimSpace(node.TextOr("", "ip_address")); ip != "" {
			existingIPs[ip] = true
		}
		if duid := strings.TrimSpace(node.TextOr("", "duid")); duid != "" {
			existingDUIDs[duid] = true
		}
	}
	for _, m := range maps {
		if existingIPs[m.ipaddr] || existingDUIDs[m.duid] {
			skipped++
			continue
		}
		subnetID, ok := subnetByIface[m.iface]
		if !ok {
			return added, skipped, errors.Errorf(errors.KindValidation,
				"cannot migrate DHCPv6 reservation %s (iface=%s): no matching Kea subnet", m.ipaddr, m.iface)
		}
		ipValue := m.ipaddr
		if net, ok := ifaceNets[m.iface]; ok {
			if exp, ok := expandIPv6InPrefix(m.ipaddr, net.network, net.prefix); ok {
				ipValue = exp
			}
		}
		res := xmltree.New("reservation")
		res.AppendText("duid", m.duid)
		res.AppendText("ip_address", ipValue)
		res.AppendText("subnet", subnetID)
		if m.hostname != "" {
			res.AppendText("hostname", m.hostname)
		}
		if m.descr != "" {
			res.AppendText("description", m.descr)
		}
		if m.domainSearch != "" {
			res.AppendText("domain_search", normalizeDomainSearch(m.domainSearch))
		}
		reservations.Append(res)
		existingIPs[ipValue] = true
		existingDUIDs[m.duid] = true
		added++
	}
	return added, skipped, nil
}

// applyOptionsV4 fills each subnet's option_data from the interface's ISC
// options. Returns how many subnets received options.
func applyOptionsV4(dhcp4 *xmltree.Node, subnetByIface map[string]string, optsByIface map[string]optsV4) (int, error) {
	applied := 0
	subnets := dhcp4.EnsureChild("subnets")
	for _, iface := range sortedOptKeysV4(optsByIface) {
		opts := optsByIface[iface]
		uuid, ok := subnetByIface[iface]
		if !ok {
			return applied, errors.Errorf(errors.KindValidation,
				"cannot apply DHCPv4 options for iface %q: no matching Kea subnet", iface)
		}
		subnet := subnetByUUID(subnets, "subnet4", uuid)
		if subnet == nil {
			return applied, errors.Errorf(errors.KindValidation,
				"cannot apply DHCPv4 options for iface %q: Kea subnet UUID %q missing", iface, uuid)
		}
		optionData := subnet.EnsureChild("option_data")
		if len(opts.dnsServers) > 0 {
			optionData.SetChildText("domain_name_servers", strings.Join(opts.dnsServers, ","))
		}
		if opts.routers != "" {
			optionData.SetChildText("routers", opts.routers)
		}
		if opts.domainName != "" {
			optionData.SetChildText("domain_name", opts.domainName)
		}
		if opts.domainSearch != "" {
			optionData.SetChildText("domain_search", opts.domainSearch)
		}
		if len(opts.ntpServers) > 0 {
			optionData.SetChildText("ntp_servers", strings.Join(opts.ntpServers, ","))
		}
		applied++
	}
	return applied, nil
}

func applyOptionsV6(dhcp6 *xmltree.Node, subnetByIface map[string]string, optsByIface map[string]optsV6) (int, error) {
	applied := 0
	subnets := dhcp6.EnsureChild("subnets")
	for _, iface := range sortedOptKeysV6(optsByIface) {
		opts := optsByIface[iface]
		uuid, ok := subnetByIface[iface]
		if !ok {
			return applied, errors.Errorf(errors.KindValidation,
				"cannot apply DHCPv6 options for iface %q: no matching Kea subnet", iface)
		}
		subnet := subnetByUUID(subnets, "subnet6", uuid)
		if subnet == nil {
			return applied, errors.Errorf(errors.KindValidation,
				"cannot apply DHCPv6 options for iface %q: Kea subnet UUID %q missing", iface, uuid)
		}
		optionData := subnet.EnsureChild("option_data")
		if len(opts.dnsServers) > 0 {
			optionData.SetChildText("dns_servers", strings.Join(opts.dnsServers, ","))
		}
		if opts.domainSearch != "" {
			optionData.SetChildText("domain_search", opts.domainSearch)
		}
		applied++
	}
	return applied, nil
}

func sortedOptKeysV4(m map[string]optsV4) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedOptKeysV6(m map[string]optsV6) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
