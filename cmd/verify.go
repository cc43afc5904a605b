// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"flag"
	"fmt"

	"grimm.is/pfopn/internal/verify"
	"grimm.is/pfopn/internal/xmltree"
)

// RunVerify implements the 'pfopn verify' command.
func RunVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	to := fs.String("to", "", "Target platform for compatibility checks: pfsense or opnsense")
	targetVersion := fs.String("target-version", "", "Target schema/profile version override (for example 24.7, 2.7.2)")
	format := fs.String("format", "text", "Output format: text, json, or yaml")
	profilesDir := fs.String("profiles-dir", "", "Profiles directory (expects <dir>/<platform>/<version>.toml)")
	verbose := fs.Bool("verbose", false, "Show data source metadata")
	strict := fs.Bool("strict", false, "Treat warnings as failures")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: pfopn verify <file> [flags]")
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
	if *profilesDir == "" {
		*profilesDir = cfg.ProfilesDir
	}
	strictMode := *strict || cfg.Strict

	file := fs.Arg(0)
	node, err := xmltree.ParseFile(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	rep := verify.BuildWithVersion(node, target, *targetVersion, *profilesDir)

	if outFormat == "text" {
		fmt.Println(verify.RenderText(rep, *verbose))
	} else {
		out, err := marshalReport(outFormat, rep)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}

	if rep.Errors > 0 {
		return fmt.Errorf("verify failed: %d errors", rep.Errors)
	}
	if strictMode && rep.Warnings > 0 {
		return fmt.Errorf("verify failed in strict mode: %d warnings", rep.Warnings)
	}
	return nil
}
