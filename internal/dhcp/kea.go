// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dhcp

import (
	"fmt"
	"sort"
	"strings"

	"grimm.is/pfopn/internal/errors"
	"grimm.is/pfopn/internal/xmltree"
)

// MigrationSeverity classifies a migration finding.
type MigrationSeverity int

const (
	// SeverityWarning marks a non-fatal issue that should be reviewed.
	SeverityWarning MigrationSeverity = iota
	// SeverityError marks a finding that prevented part of the migration.
	SeverityError
)

// MigrationWarning is a single issue encountered while migrating.
type MigrationWarning struct {
	Message  string
	Severity MigrationSeverity
}

// MigrationStats reports what an ISC to Kea migration produced.
type MigrationStats struct {
	ReservationsAddedV4           int
	ReservationsAddedV6           int
	ReservationsSkippedConflictV4 int
	ReservationsSkippedConflictV6 int
	SubnetsAddedV4                int
	SubnetsAddedV6                int
	OptionsAppliedV4              int
	OptionsAppliedV6              int
	Warnings                      []MigrationWarning
	PreservedDHCPv6Ifaces         []string
}

// MigrateISCToKea recreates the source's ISC dhcpd configuration inside the
// output's OPNsense Kea structure: one subnet per interface that has static
// mappings, ranges, or options, with reservations linked to their subnet by
// identifier. IPv6 interfaces whose prefix cannot be determined are left in
// the legacy section and reported in the stats rather than failing the run.
//
// Subnet identifiers use a migrated-subnetN-<id> scheme so converting the
// same input twice is idempotent: an existing subnet with the same CIDR is
// reused and duplicate reservations are skipped as conflicts.
func MigrateISCToKea(out, source *xmltree.Node) (MigrationStats, error) {
	var stats MigrationStats
	nextID := 1

	// IPv4
	mapsV4 := extractStaticMapsV4(source)
	rangesV4 := extractRangesV4(source)
	ifaceNetsV4 := extractIfaceNetworksV4(source)
	optsV4 := extractOptionsV4(source)
	demandedV4 := demandedIfacesV4(mapsV4, rangesV4, optsV4)
	subnetByIfaceV4 := make(map[string]string)

	dhcp4 := out.EnsureChild("OPNsense").EnsureChild("Kea").EnsureChild("dhcp4")
	subnets4 := dhcp4.EnsureChild("subnets")
	dhcp4.EnsureChild("reservations")
	dhcp4.EnsureChild("general")

	for _, iface := range demandedV4 {
		net, ok := ifaceNetsV4[iface]
		if !ok {
			return stats, errors.Errorf(errors.KindValidation,
				"cannot migrate DHCPv4 interface %q: missing interfaces.%s.ipaddr/subnet", iface, iface)
		}
		cidr := fmt.Sprintf("%s/%d", net.network, net.prefix)
		if uuid, ok := subnetUUIDByCIDR(subnets4, "subnet4", cidr); ok {
			subnetByIfaceV4[iface] = uuid
			continue
		}

		uuid := fmt.Sprintf("migrated-subnet4-%d", nextID)
		nextID++
		subnet := xmltree.New("subnet4")
		subnet.SetAttr("uuid", uuid)
		subnet.AppendText("subnet", cidr)
		subnet.AppendText("option_data_autocollect", "1")
		appendOptionDataDefaultsV4(subnet)
		subnet.AppendText("match-client-id", "1")
		if pools := joinPools(rangesV4[iface], nil); pools != "" {
			subnet.AppendText("pools", pools)
		}
		subnets4.Append(subnet)
		subnetByIfaceV4[iface] = uuid
		stats.SubnetsAddedV4++
	}

	applied4, err := applyOptionsV4(dhcp4, subnetByIfaceV4, optsV4)
	if err != nil {
		return stats, err
	}
	stats.OptionsAppliedV4 += applied4

	added4, skipped4, err := applyReservationsV4(dhcp4, mapsV4, subnetByIfaceV4)
	if err != nil {
		return stats, err
	}
	stats.ReservationsAddedV4 += added4
	stats.ReservationsSkippedConflictV4 += skipped4

	if len(subnetByIfaceV4) > 0 || stats.ReservationsAddedV4 > 0 {
		enableFamilyInterfaces(dhcp4.EnsureChild("general"), subnetByIfaceV4)
	}

	// IPv6
	mapsV6 := extractStaticMapsV6(source)
	rangesV6 := extractRangesV6(source)
	ifaceNetsV6 := extractIfaceNetworksV6(source)
	optsV6 := extractOptionsV6(source)
	prefixIntent := collectPrefixRangeIntent(source)
	demandedV6 := demandedIfacesV6(mapsV6, rangesV6, optsV6, prefixIntent)
	subnetByIfaceV6 := make(map[string]string)

	dhcp6 := out.EnsureChild("OPNsense").EnsureChild("Kea").EnsureChild("dhcp6")
	subnets6 := dhcp6.EnsureChild("subnets")
	dhcp6.EnsureChild("reservations")
	dhcp6.EnsureChild("general")

	for _, iface := range demandedV6 {
		net, ok := ifaceNetsV6[iface]
		if !ok {
			reason := v6ReadinessReason(prefixIntent[iface])
			stats.Warnings = append(stats.Warnings, MigrationWarning{
				Message: fmt.Sprintf(
					"DHCPv6 range on %s but unable to determine IPv6 prefix (%s); preserving legacy block; no Kea dhcp6 for %s.",
					iface, reason, iface),
				Severity: SeverityWarning,
			})
			stats.PreservedDHCPv6Ifaces = append(stats.PreservedDHCPv6Ifaces, iface)
			continue
		}
		cidr := fmt.Sprintf("%s/%d", net.network, net.prefix)
		if uuid, ok := subnetUUIDByCIDR(subnets6, "subnet6", cidr); ok {
			subnetByIfaceV6[iface] = uuid
			continue
		}

		uuid := fmt.Sprintf("migrated-subnet6-%d", nextID)
		nextID++
		subnet := xmltree.New("subnet6")
		subnet.SetAttr("uuid", uuid)
		subnet.AppendText("subnet", cidr)
		appendOptionDataDefaultsV6(subnet)
		if pools := joinPools(rangesV6[iface], &net); pools != "" {
			subnet.AppendText("pools", pools)
		}
		subnet.AppendText("interface", iface)
		subnet.AppendText("description", "")
		subnets6.Append(subnet)
		subnetByIfaceV6[iface] = uuid
		stats.SubnetsAddedV6++
	}

	applied6, err := applyOptionsV6(dhcp6, subnetByIfaceV6, optsV6)
	if err != nil {
		return stats, err
	}
	stats.OptionsAppliedV6 += applied6

	added6, skipped6, err := applyReservationsV6(dhcp6, mapsV6, subnetByIfaceV6, ifaceNetsV6)
	if err != nil {
		return stats, err
	}
	stats.ReservationsAddedV6 += added6
	stats.ReservationsSkippedConflictV6 += skipped6

	if len(subnetByIfaceV6) > 0 || stats.ReservationsAddedV6 > 0 {
		enableFamilyInterfaces(dhcp6.EnsureChild("general"), subnetByIfaceV6)
	}

	return stats, nil
}

// joinPools renders ranges as from-to pairs joined by commas. When net is
// non-nil the endpoints are IPv6 and may use abbreviated notation that
// assumes the subnet prefix; those are expanded first.
func joinPools(ranges []addressRange, net *ifaceNetwork) string {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		from, to := r.from, r.to
		if net != nil {
			if exp, ok := expandIPv6InPrefix(from, net.network, net.prefix); ok {
				from = exp
			}
			if exp, ok := expandIPv6InPrefix(to, net.network, net.prefix); ok {
				to = exp
			}
		}
		parts = append(parts, from+"-"+to)
	}
	return strings.Join(parts, ",")
}

func v6ReadinessReason(hasPD bool) string {
	if hasPD {
		return "no static IPv6"
	}
	return "no static IPv6 or no PD indicators"
}

func subnetUUIDByCIDR(subnets *xmltree.Node, tag, cidr string) (string, bool) {
	for _, subnet := range subnets.ChildList(tag) {
		if strings.TrimSpace(subnet.TextOr("", "subnet")) == cidr {
			if uuid, ok := subnet.Attr("uuid"); ok {
				return uuid, true
			}
		}
	}
	return "", false
}

func subnetByUUID(subnets *xmltree.Node, tag, uuid string) *xmltree.Node {
	for _, subnet := range subnets.ChildList(tag) {
		if v, _ := subnet.Attr("uuid"); v == uuid {
			return subnet
		}
	}
	return nil
}

// Kea expects explicit option_data entries even when empty; the UI surfaces
// them as blank fields. Populated later during option migration.
func appendOptionDataDefaultsV4(subnet *xmltree.Node) {
	optionData := subnet.EnsureChild("option_data")
	for _, key := range []string{
		"domain_name_servers", "domain_search", "routers", "static_routes",
		"classless_static_route", "domain_name", "ntp_servers", "time_servers",
		"tftp_server_name", "boot_file_name", "v6_only_preferred", "v4_dnr",
	} {
		optionData.SetChildText(key, "")
	}
}

func appendOptionDataDefaultsV6(subnet *xmltree.Node) {
	optionData := subnet.EnsureChild("option_data")
	for _, key := range []string{"dns_servers", "domain_search", "v6_dnr"} {
		optionData.SetChildText(key, "")
	}
}

// enableFamilyInterfaces turns the family on and records the migrated
// interfaces as a sorted comma list.
func enableFamilyInterfaces(general *xmltree.Node, subnetByIface map[string]string) {
	general.SetChildText("enabled", "1")
	ifaces := make([]string, 0, len(subnetByIface))
	for iface := range subnetByIface {
		ifaces = append(ifaces, iface)
	}
	sort.Strings(ifaces)
	if len(ifaces) > 0 {
		general.SetChildText("interfaces", strings.Join(ifaces, ","))
	}
}
