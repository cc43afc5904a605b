// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"grimm.is/pfopn/internal/analyze"
	"grimm.is/pfopn/internal/convert"
	"grimm.is/pfopn/internal/dhcp"
	"grimm.is/pfopn/internal/merge"
	"grimm.is/pfopn/internal/report"
	"grimm.is/pfopn/internal/sections"
	"grimm.is/pfopn/internal/xmltree"
)

// diffReport is the JSON payload for `diff --format json`.
type diffReport struct {
	Entries           []xmltree.DiffEntry     `json:"entries"`
	Analysis          []analyze.Entry         `json:"analysis"`
	SectionStats      []sections.SectionStats `json:"section_stats"`
	LeftBackend       dhcp.Detection          `json:"left_backend"`
	RightBackend      dhcp.Detection          `json:"right_backend"`
	BackendTransition string                  `json:"backend_transition"`
}

// RunDiff implements the 'pfopn diff' command.
func RunDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	section := fs.String("section", "", "Limit output to one logical section")
	var ignore stringList
	fs.Var(&ignore, "ignore", "Path prefix or tag to suppress (repeatable)")
	format := fs.String("format", "text", "Output format: text, json, or yaml")
	summary := fs.Bool("summary", false, "Show only summary counts")
	verbose := fs.Bool("verbose", false, "Include identical subtrees")
	fs.BoolVar(verbose, "v", false, "Include identical subtrees (shorthand)")
	quiet := fs.Bool("quiet", false, "Suppress per-entry output")
	fs.BoolVar(quiet, "q", false, "Suppress per-entry output (shorthand)")
	plan := fs.String("plan", "", "Write action analysis JSON to this path")
	output := fs.String("output", "", "Write safe-merged XML to this path")
	strict := fs.Bool("strict", false, "Fail when manual conflicts are detected")
	mergeTo := fs.String("merge-to", "right", "Merge base: left or right")
	noTransferUsers := fs.Bool("no-transfer-users", false, "Do not transfer referenced system users for OpenVPN dependencies")
	noTransferCerts := fs.Bool("no-transfer-certs", false, "Do not transfer referenced certificates for OpenVPN dependencies")
	noTransferCAs := fs.Bool("no-transfer-cas", false, "Do not transfer referenced CAs for OpenVPN dependencies")
	sectionSummary := fs.Bool("section-summary", false, "Show per-section summary table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: pfopn diff <file1> <file2> [flags]")
	}
	outFormat, err := parseOutputFormat(*format)
	if err != nil {
		return err
	}
	cfg := loadToolConfig()
	strictMode := *strict || cfg.Strict

	file1, file2 := fs.Arg(0), fs.Arg(1)
	left, err := xmltree.ParseFile(file1)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file1, err)
	}
	right, err := xmltree.ParseFile(file2)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file2, err)
	}

	opts := xmltree.DefaultDiffOptions()
	opts.IncludeIdentical = *verbose
	opts.IgnorePaths = ignore
	opts.KeyFields = sections.DefaultKeyFields()

	entries := xmltree.DiffWithOptions(left, right, opts)
	if *section != "" {
		entries = filterSection(entries, *section)
	}

	analysis := analyze.Analyze(entries)
	sectionStats := sections.SummarizeBySection(entries, analysis)
	leftBackend := dhcp.DetectBackend(left)
	rightBackend := dhcp.DetectBackend(right)
	transition := dhcp.Transition(leftBackend, rightBackend)

	if strictMode {
		for _, entry := range analysis {
			if entry.Action == analyze.ActionConflictManual {
				return fmt.Errorf("strict mode failed: manual conflicts detected")
			}
		}
	}

	if *plan != "" {
		planJSON, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(*plan, planJSON, 0o644); err != nil {
			return fmt.Errorf("failed to write plan file %s: %w", *plan, err)
		}
	}

	if *output != "" {
		if err := convert.EnsureOutputNotSame(*output, file1, file2); err != nil {
			return err
		}
		target := merge.TargetRight
		switch *mergeTo {
		case "left":
			target = merge.TargetLeft
		case "right":
		default:
			return fmt.Errorf("unknown merge-to %q (expected left or right)", *mergeTo)
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
	}

	if *quiet || *summary {
		fmt.Printf("left_backend=%s right_backend=%s backend_transition=%s\n",
			leftBackend.Mode, rightBackend.Mode, transition)
		fmt.Println(report.RenderSummary(entries))
		fmt.Println(analyze.Summarize(analysis))
		if *sectionSummary {
			fmt.Println()
			fmt.Println("Section Summary")
			fmt.Println(report.RenderSectionStats(sectionStats))
		}
		return nil
	}

	switch outFormat {
	case "text":
		fmt.Println(report.RenderText(entries))
		fmt.Println()
		fmt.Println("Action Analysis")
		fmt.Println(report.RenderAnalysis(analysis))
		if *sectionSummary {
			fmt.Println()
			fmt.Println("Section Summary")
			fmt.Println(report.RenderSectionStats(sectionStats))
		}
	case "json", "yaml":
		payload := diffReport{
			Entries:           entries,
			Analysis:          analysis,
			SectionStats:      sectionStats,
			LeftBackend:       leftBackend,
			RightBackend:      rightBackend,
			BackendTransition: transition,
		}
		out, err := marshalReport(outFormat, payload)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}

	return nil
}

// filterSection keeps entries whose path falls under a logical section.
// Known section groups expand to their member tags, anything else is
// matched as a literal tag name.
func filterSection(entries []xmltree.DiffEntry, section string) []xmltree.DiffEntry {
	var needles []string
	if tags, ok := sections.SectionTags(section); ok {
		for _, tag := range tags {
			needles = append(needles, "."+tag)
		}
	} else {
		needles = []string{"." + section}
	}

	var kept []xmltree.DiffEntry
	for _, entry := range entries {
		for _, needle := range needles {
			if strings.Contains(entry.Path, needle) || strings.HasPrefix(entry.Path, needle[1:]) {
				kept = append(kept, entry)
				break
			}
		}
	}
	return kept
}
