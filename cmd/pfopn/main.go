// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command pfopn compares, inspects, verifies, and converts pfSense and
// OPNsense firewall XML configurations.
package main

import (
	"fmt"
	"os"

	"grimm.is/pfopn/cmd"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	sub := os.Args[1]
	args := os.Args[2:]

	var err error
	switch sub {
	case "diff":
		err = cmd.RunDiff(args)
	case "analyze":
		err = cmd.RunAnalyze(args)
	case "merge":
		err = cmd.RunMerge(args)
	case "inspect":
		err = cmd.RunInspect(args)
	case "sections":
		err = cmd.RunSections(args)
	case "scan":
		err = cmd.RunScan(args)
	case "verify":
		err = cmd.RunVerify(args)
	case "migrate-check":
		err = cmd.RunMigrateCheck(args)
	case "convert":
		err = cmd.RunConvert(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", sub)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: pfopn <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  diff           Compare two XML files and show differences")
	fmt.Println("  analyze        Classify differences into safe and manual merge actions")
	fmt.Println("  merge          Apply the safe merge actions between two files")
	fmt.Println("  inspect        Show parsed structure of a single XML file")
	fmt.Println("  sections       List top-level sections and suggest mapping hints between two files")
	fmt.Println("  scan           Scan one config and report migration readiness")
	fmt.Println("  verify         Verify one config for pre-restore readiness")
	fmt.Println("  migrate-check  Strict go/no-go migration gate for one config")
	fmt.Println("  convert        Convert one config toward a target platform")
}
