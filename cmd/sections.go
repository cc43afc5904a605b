// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"grimm.is/pfopn/internal/mappings"
	"grimm.is/pfopn/internal/report"
	"grimm.is/pfopn/internal/sections"
	"grimm.is/pfopn/internal/xmltree"
)

// RunSections implements the 'pfopn sections' command.
func RunSections(args []string) error {
	fs := flag.NewFlagSet("sections", flag.ExitOnError)
	format := fs.String("format", "text", "Output format: text, json, or yaml")
	verbose := fs.Bool("verbose", false, "Show data source metadata")
	extras := fs.Bool("extras", false, "Enable heuristic extras (moved/renamed section hints)")
	extrasJSON := fs.Bool("extras-json", false, "Emit grouped extras/unmatched payload as JSON")
	mappingsFile := fs.String("mappings-file", "", "Mappings TOML file")
	mappingsDir := fs.String("mappings-dir", "", "Mappings directory (expects sections.toml, plugins.toml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: pfopn sections <file1> <file2> [flags]")
	}
	if *mappingsFile != "" && *mappingsDir != "" {
		return fmt.Errorf("--mappings-file and --mappings-dir are mutually exclusive")
	}
	outFormat, err := parseOutputFormat(*format)
	if err != nil {
		return err
	}
	cfg := loadToolConfig()
	if *mappingsFile == "" && *mappingsDir == "" {
		*mappingsDir = cfg.MappingsDir
	}

	file1, file2 := fs.Arg(0), fs.Arg(1)
	left, err := xmltree.ParseFile(file1)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file1, err)
	}
	right, err := xmltree.ParseFile(file2)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file2, err)
	}

	sectionMappings, mappingsSource := resolveMappings(*mappingsFile, *mappingsDir)
	inventory := sections.BuildInventory(left, right, *extras || *extrasJSON, sectionMappings, mappingsSource)

	if *extrasJSON {
		data, err := json.MarshalIndent(sections.ExtrasJSON(inventory), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if outFormat == "text" {
		if *verbose {
			fmt.Printf("Using mappings: %s\n", mappingsSource)
		}
		fmt.Println(report.RenderSectionInventory(inventory))
		return nil
	}
	out, err := marshalReport(outFormat, inventory)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// resolveMappings loads section mappings from an explicit file, from a
// mappings directory, or falls back to the embedded defaults. Load
// failures warn and fall back instead of aborting.
func resolveMappings(mappingsFile, mappingsDir string) ([]mappings.SectionMapping, string) {
	chosen := mappingsFile
	if chosen == "" && mappingsDir != "" {
		chosen = filepath.Join(mappingsDir, "sections.toml")
	}
	if chosen == "" {
		return mappings.DefaultSectionMappings(), "embedded"
	}

	loaded, err := mappings.LoadSectionMappings(chosen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load mappings from %s (%v); using embedded defaults\n", chosen, err)
		return mappings.DefaultSectionMappings(), "embedded"
	}
	return loaded, "file:" + chosen
}
