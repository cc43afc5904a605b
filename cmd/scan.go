// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"flag"
	"fmt"

	"grimm.is/pfopn/internal/scan"
	"grimm.is/pfopn/internal/xmltree"
)

// RunScan implements the 'pfopn scan' command.
func RunScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	to := fs.String("to", "", "Target platform for compatibility hints: pfsense or opnsense")
	targetVersion := fs.String("target-version", "", "Target version metadata override (informational only)")
	format := fs.String("format", "text", "Output format: text, json, or yaml")
	mappingsDir := fs.String("mappings-dir", "", "Mappings directory (expects sections.toml, plugins.toml)")
	verbose := fs.Bool("verbose", false, "Show data source metadata")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: pfopn scan <file> [flags]")
	}
	target, err := parseTargetPlatform(*to)
	if err != nil {
		return err
	}
	outFormat, err := parseOutputFormat(*format)
	if err != nil {
		return err
	}
	cfg := loadToolConfig()
	if *mappingsDir == "" {
		*mappingsDir = cfg.MappingsDir
	}

	file := fs.Arg(0)
	node, err := xmltree.ParseFile(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	rep := scan.BuildWithVersion(node, target, *targetVersion, *mappingsDir)

	if outFormat == "text" {
		fmt.Println(scan.RenderText(rep, *verbose))
		return nil
	}
	out, err := marshalReport(outFormat, rep)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
