// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"flag"
	"fmt"

	"grimm.is/pfopn/internal/migratecheck"
	"grimm.is/pfopn/internal/xmltree"
)

// RunMigrateCheck implements the 'pfopn migrate-check' command.
func RunMigrateCheck(args []string) error {
	fs := flag.NewFlagSet("migrate-check", flag.ExitOnError)
	to := fs.String("to", "", "Required target platform: pfsense or opnsense")
	targetVersion := fs.String("target-version", "", "Target schema/profile version override (for example 24.7, 2.7.2)")
	format := fs.String("format", "text", "Output format: text, json, or yaml")
	profilesDir := fs.String("profiles-dir", "", "Profiles directory (expects <dir>/<platform>/<version>.toml)")
	verbose := fs.Bool("verbose", false, "Show data source metadata")
	strict := fs.Bool("strict", false, "Treat warnings as failures")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: pfopn migrate-check <file> --to <platform> [flags]")
	}
	target, err := parseTargetPlatform(*to)
	if err != nil {
		return err
	}
	if target == "" {
		return fmt.Errorf("migrate-check requires --to pfsense|opnsense")
	}
	outFormat, err := parseOutputFormat(*format)
	if err != nil {
		return err
	}
	cfg := loadToolConfig()
	if *profilesDir == "" {
		*profilesDir = cfg.ProfilesDir
	}
	strictMode := *strict || cfg.Strict

	file := fs.Arg(0)
	node, err := xmltree.ParseFile(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	rep := migratecheck.BuildWithVersion(node, target, *targetVersion, *profilesDir)

	if outFormat == "text" {
		fmt.Println(migratecheck.RenderText(rep, *verbose))
	} else {
		out, err := marshalReport(outFormat, rep)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}

	if !rep.Pass {
		return fmt.Errorf("migrate-check failed: one or more required checks did not pass")
	}
	if strictMode && rep.Warnings > 0 {
		return fmt.Errorf("migrate-check failed in strict mode: %d warnings", rep.Warnings)
	}
	return nil
}
