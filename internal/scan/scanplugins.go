// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"grimm.is/pfopn/internal/mappings"
	"grimm.is/pfopn/internal/xmltree"
)

func detectKnownPluginsPresent(root *xmltree.Node, pf string, known PluginInventory, matrix mappings.PluginMatrix) []string {
	present := make(map[string]bool)
	for _, p := range known.Plugins {
		if p.Declared || p.Configured {
			present[p.Plugin] = true
		}
	}

	for _, marker := range collectDeclaredPluginMarkers(root, pf) {
		if entry, ok := matrix.FindByMarker(pf, marker); ok {
			present[entry.ID] = true
		}
	}

	return sortedSet(present)
}

func detectUnsupportedPlugins(root *xmltree.Node, pf string, matrix mappings.PluginMatrix) []string {
	out := make(map[string]bool)
	for _, marker := range collectDeclaredPluginMarkers(root, pf) {
		entry, ok := matrix.FindByMarker(pf, marker)
		switch {
		case ok && entry.Status == mappings.StatusUnsupported:
			out[entry.ID] = true
		case !ok:
			out[strings.ToLower(marker)] = true
		}
	}
	return sortedSet(out)
}

func detectMissingTargetCompat(present []string, sourcePlatform, target string, matrix mappings.PluginMatrix) []string {
	if target == "" || sourcePlatform == target {
		return nil
	}

	out := make(map[string]bool)
	for _, plugin := range present {
		if !matrix.IsTargetCompatible(plugin, target) {
			out[plugin] = true
		}
	}
	return sortedSet(out)
}

// loadPluginMatrixWithSource resolves the plugin matrix from an optional
// mappings directory, falling back to the embedded table with a warning
// when the file cannot be used.
func loadPluginMatrixWithSource(mappingsDir string) (mappings.PluginMatrix, string) {
	if mappingsDir == "" {
		return mappings.DefaultPluginMatrix(), "embedded"
	}
	path := filepath.Join(mappingsDir, "plugins.toml")
	matrix, err := mappings.LoadPluginMatrix(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load plugin matrix from %s (%v); using embedded defaults\n", path, err)
		return mappings.DefaultPluginMatrix(), "embedded"
	}
	return matrix, "file:" + path
}

func collectDeclaredPluginMarkers(root *xmltree.Node, pf string) []string {
	switch pf {
	case "pfsense":
		var out []string
		for _, name := range collectPfsenseInstalledPackages(root) {
			out = append(out, strings.ToLower(name))
		}
		return out
	case "opnsense":
		var out []string
		for _, name := range collectOpnsenseDeclaredPlugins(root) {
			out = append(out, strings.ToLower(name))
		}
		return out
	}
	return nil
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
