// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"flag"
	"fmt"

	"grimm.is/pfopn/internal/dhcp"
	"grimm.is/pfopn/internal/platform"
	"grimm.is/pfopn/internal/report"
	"grimm.is/pfopn/internal/scan"
	"grimm.is/pfopn/internal/xmltree"
)

// RunInspect implements the 'pfopn inspect' command.
func RunInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	section := fs.String("section", "", "Show only this top-level section")
	depth := fs.Int("depth", 3, "Maximum tree depth to render")
	detect := fs.Bool("detect", false, "Print platform, version, and DHCP backend detection")
	plugins := fs.Bool("plugins", false, "Show common plugin detection (declared/configured/enabled)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: pfopn inspect <file> [flags]")
	}

	loadToolConfig()

	file := fs.Arg(0)
	node, err := xmltree.ParseFile(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	if *detect {
		flavor := platform.Detect(node)
		version := platform.DetectVersionInfo(node)
		backend := dhcp.DetectBackend(node)
		fmt.Printf("type=%s version=%s version_source=%s version_confidence=%s dhcp_backend=%s backend_reason=%s\n",
			flavor, version.Value, version.Source, version.Confidence, backend.Mode, backend.Reason)
	}

	if *plugins {
		inventory := scan.DetectPlugins(node)
		fmt.Printf("plugins platform=%s\n", inventory.Platform)
		for _, plugin := range inventory.Plugins {
			fmt.Printf("- %s declared=%t configured=%t enabled=%t\n",
				plugin.Plugin, plugin.Declared, plugin.Configured, plugin.Enabled)
			for _, evidence := range plugin.Evidence {
				fmt.Printf("  evidence: %s\n", evidence)
			}
		}
	}

	target := node
	if *section != "" {
		target = node.Child(*section)
		if target == nil {
			return fmt.Errorf("section '%s' not found", *section)
		}
	}

	fmt.Print(report.RenderTree(target, *depth))
	return nil
}
