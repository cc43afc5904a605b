// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"grimm.is/pfopn/internal/analyze"
	"grimm.is/pfopn/internal/report"
	"grimm.is/pfopn/internal/sections"
	"grimm.is/pfopn/internal/xmltree"
)

// analyzeReport is the JSON payload for `analyze --format json`.
type analyzeReport struct {
	Analysis []analyze.Entry `json:"analysis"`
	Summary  string          `json:"summary"`
}

// RunAnalyze implements the 'pfopn analyze' command. It is the action
// analysis half of diff on its own: classify every difference between
// two files into safe inserts, manual conflicts, and noops.
func RunAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	section := fs.String("section", "", "Limit output to one logical section")
	var ignore stringList
	fs.Var(&ignore, "ignore", "Path prefix or tag to suppress (repeatable)")
	format := fs.String("format", "text", "Output format: text, json, or yaml")
	plan := fs.String("plan", "", "Write action analysis JSON to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: pfopn analyze <file1> <file2> [flags]")
	}
	outFormat, err := parseOutputFormat(*format)
	if err != nil {
		return err
	}
	loadToolConfig()

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
	opts.IgnorePaths = ignore
	opts.KeyFields = sections.DefaultKeyFields()

	entries := xmltree.DiffWithOptions(left, right, opts)
	if *section != "" {
		entries = filterSection(entries, *section)
	}
	analysis := analyze.Analyze(entries)

	if *plan != "" {
		planJSON, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(*plan, planJSON, 0o644); err != nil {
			return fmt.Errorf("failed to write plan file %s: %w", *plan, err)
		}
	}

	switch outFormat {
	case "text":
		fmt.Println(report.RenderAnalysis(analysis))
		fmt.Println(analyze.Summarize(analysis))
	case "json", "yaml":
		payload := analyzeReport{Analysis: analysis, Summary: analyze.Summarize(analysis)}
		out, err := marshalReport(outFormat, payload)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}

	return nil
}
