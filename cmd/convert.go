// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"flag"
	"fmt"

	"grimm.is/pfopn/internal/convert"
	"grimm.is/pfopn/internal/merge"
)

// RunConvert implements the 'pfopn convert' command.
func RunConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	output := fs.String("output", "", "Output file path")
	fs.StringVar(output, "o", "", "Output file path (shorthand)")
	from := fs.String("from", "auto", "Source platform: auto, pfsense, or opnsense")
	to := fs.String("to", "", "Destination platform: pfsense or opnsense")
	targetFile := fs.String("target-file", "", "Target baseline/template config (required unless --minimal-template is set)")
	minimalTemplate := fs.Bool("minimal-template", false, "Build from a minimal target root instead of requiring --target-file (dev/testing only)")
	noTransferUsers := fs.Bool("no-transfer-users", false, "Do not transfer referenced system users for OpenVPN dependencies")
	noTransferCerts := fs.Bool("no-transfer-certs", false, "Do not transfer referenced certificates for OpenVPN dependencies")
	noTransferCAs := fs.Bool("no-transfer-cas", false, "Do not transfer referenced CAs for OpenVPN dependencies")
	lanIP := fs.String("lan-ip", "", "Set LAN IPv4 address on generated output and remap LAN DHCP IPv4 values accordingly")
	disableDHCP := fs.Bool("disable-dhcp", false, "Disable DHCP services in generated output (safety guard for lab restores)")
	backend := fs.String("backend", "auto", "DHCP backend policy: auto, kea, or isc")
	var ifMapPairs stringList
	fs.Var(&ifMapPairs, "if-map", "Override interface pairing as src=dst (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: pfopn convert <input> -o <output> --to <platform> [flags]")
	}
	if *output == "" {
		return fmt.Errorf("convert requires -o/--output")
	}
	if *to == "" {
		return fmt.Errorf("convert requires --to pfsense|opnsense")
	}
	if *targetFile == "" && !*minimalTemplate {
		return fmt.Errorf("convert requires --target-file unless --minimal-template is set")
	}
	cfg := loadToolConfig()
	if *backend == "auto" && cfg.DHCPBackend != "" {
		*backend = cfg.DHCPBackend
	}
	ifMap, err := parseIfMap(ifMapPairs)
	if err != nil {
		return err
	}

	return convert.Run(convert.Options{
		Input:           fs.Arg(0),
		Output:          *output,
		From:            *from,
		To:              *to,
		TargetFile:      *targetFile,
		MinimalTemplate: *minimalTemplate,
		Backend:         *backend,
		LANIP:           *lanIP,
		DisableDHCP:     *disableDHCP,
		IfMap:           ifMap,
		Merge: merge.Options{
			TransferUsers: !*noTransferUsers,
			TransferCerts: !*noTransferCerts,
			TransferCAs:   !*noTransferCAs,
		},
	})
}
