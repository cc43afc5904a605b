// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package convert

import (
	"fmt"
	"io"
	"strings"

	"grimm.is/pfopn/internal/dhcp"
)

// printMigrationSummary reports the ISC to Kea migration outcome per address
// family, but only when the migration actually did something or preserved
// legacy DHCPv6 interfaces.
func printMigrationSummary(w io.Writer, stats dhcp.MigrationStats, finalBackend dhcp.EffectiveBackend, preserveLegacyIPv6 bool) {
	hasV4 := stats.SubnetsAddedV4 > 0 || stats.ReservationsAddedV4 > 0 || stats.OptionsAppliedV4 > 0
	hasV6 := stats.SubnetsAddedV6 > 0 || stats.ReservationsAddedV6 > 0 || stats.OptionsAppliedV6 > 0

	if !hasV4 && !hasV6 && len(stats.PreservedDHCPv6Ifaces) == 0 {
		return
	}

	v4Status := familyStatus(finalBackend, hasV4, stats.SubnetsAddedV4, stats.ReservationsAddedV4, stats.OptionsAppliedV4)

	var v6Status string
	if preserveLegacyIPv6 {
		v6Status = fmt.Sprintf("isc-legacy (%s)", strings.Join(stats.PreservedDHCPv6Ifaces, ", "))
	} else {
		v6Status = familyStatus(finalBackend, hasV6, stats.SubnetsAddedV6, stats.ReservationsAddedV6, stats.OptionsAppliedV6)
	}

	fmt.Fprintf(w, "dhcp migration: v4=%s v6=%s\n", v4Status, v6Status)

	if stats.ReservationsSkippedConflictV4 > 0 || stats.ReservationsSkippedConflictV6 > 0 {
		fmt.Fprintf(w, "dhcp migration: skipped_conflicts v4=%d v6=%d\n",
			stats.ReservationsSkippedConflictV4, stats.ReservationsSkippedConflictV6)
	}
}

func familyStatus(backend dhcp.EffectiveBackend, hasActivity bool, subnets, reservations, optionSets int) string {
	if backend == dhcp.BackendISC {
		return "isc-fallback"
	}
	if !hasActivity {
		return "kea (no changes)"
	}
	return fmt.Sprintf("kea (%d subnet%s, %d reservation%s, %d option set%s)",
		subnets, plural(subnets), reservations, plural(reservations), optionSets, plural(optionSets))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
