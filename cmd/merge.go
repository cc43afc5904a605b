// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"flag"
	"fmt"

	"grimm.is/pfopn/internal/analyze"
	"grimm.is/pfopn/internal/convert"
	"grimm.is/pfopn/internal/merge"
	"grimm.is/pfopn/internal/sections"
	"grimm.is/pfopn/internal/xmltree"
)

// RunMerge implements the 'pfopn merge' command: apply the safe
// (non-conflicting) merge actions between two files and write the
// result. Manual conflicts are never applied; use diff to review them.
func RunMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	output := fs.String("output", "", "Write merged XML to this path (required)")
	fs.StringVar(output, "o", "", "Write merged XML to this path (shorthand)")
	mergeTo := fs.String("to", "right", "Merge base: left or right")
	strict := fs.Bool("strict", false, "Fail when manual conflicts are detected")
	noTransferUsers := fs.Bool("no-transfer-users", false, "Do not transfer referenced system users for OpenVPN dependencies")
	noTransferCerts := fs.Bool("no-transfer-certs", false, "Do not transfer referenced certificates for OpenVPN dependencies")
	noTransferCAs := fs.Bool("no-transfer-cas", false, "Do not transfer referenced CAs for OpenVPN dependencies")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: pfopn merge <file1> <file2> --output <path> [flags]")
	}
	if *output == "" {
		return fmt.Errorf("merge requires --output")
	}
	target := merge.TargetRight
	switch *mergeTo {
	case "left":
		target = merge.TargetLeft
	case "right":
	default:
		return fmt.Errorf("unknown merge target %q (expected left or right)", *mergeTo)
	}
	cfg := loadToolConfig()
	strictMode := *strict || cfg.Strict

	file1, file2 := fs.Arg(0), fs.Arg(1)
	if err := convert.EnsureOutputNotSame(*output, file1, file2); err != nil {
		return err
	}
	left, err := xmltree.ParseFile(file1)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file1, err)
	}
	right, err := xmltree.ParseFile(file2)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file2, err)
	}

	opts := xmltree.DefaultDiffOptions()
	opts.KeyFields = sections.DefaultKeyFields()
	entries := xmltree.DiffWithOptions(left, right, opts)

	analysis := analyze.Analyze(entries)
	applied, conflicts := 0, 0
	for _, entry := range analysis {
		switch entry.Action {
		case analyze.ActionConflictManual:
			conflicts++
		case analyze.ActionInsertLeftToRight, analyze.ActionInsertRightToLeft:
			applied++
		}
	}
	if strictMode && conflicts > 0 {
		return fmt.Errorf("strict mode failed: manual conflicts detected")
	}

	mergeOpts := merge.Options{
		TransferUsers: !*noTransferUsers,
		TransferCerts: !*noTransferCerts,
		TransferCAs:   !*noTransferCAs,
	}
	merged, err := merge.ApplySafeMerge(left, right, entries, target, mergeOpts)
	if err != nil {
		return fmt.Errorf("failed while applying safe merge actions: %w", err)
	}
	if err := xmltree.WriteFile(merged, *output); err != nil {
		return fmt.Errorf("failed to write output XML %s: %w", *output, err)
	}
	fmt.Printf("merged into %s: safe_actions=%d conflicts_skipped=%d\n", *output, applied, conflicts)
	return nil
}
