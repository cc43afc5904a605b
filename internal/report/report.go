// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package report renders diff results, action analysis, and section
// inventories for terminal output. All functions return plain strings;
// color is applied per line with lipgloss and degrades to plain text
// when no terminal is attached.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/pfopn/internal/analyze"
	"grimm.is/pfopn/internal/sections"
	"grimm.is/pfopn/internal/xmltree"
)

var (
	styleAdded      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	styleRemoved    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	styleModified   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleStructural = lipgloss.NewStyle().Foreground(lipgloss.Color("201")) // magenta
	styleSummary    = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))  // cyan
)

// SetColorEnabled turns colored rendering off (or back on). Commands
// call this with the TTY check and the tool config's color setting.
func SetColorEnabled(enabled bool) {
	if enabled {
		styleAdded = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		styleRemoved = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		styleModified = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
		styleStructural = lipgloss.NewStyle().Foreground(lipgloss.Color("201"))
		styleSummary = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
		return
	}
	plain := lipgloss.NewStyle()
	styleAdded = plain
	styleRemoved = plain
	styleModified = plain
	styleStructural = plain
	styleSummary = plain
}

// RenderText colorizes the plain-text diff listing: additions green,
// removals red, modifications yellow, structural mismatches magenta.
// Modified values that span lines get a unified diff instead of the
// one-line left/right pair.
func RenderText(entries []xmltree.DiffEntry) string {
	var out []string
	for _, e := range entries {
		switch e.Kind {
		case xmltree.DiffIdentical:
			out = append(out, "= "+e.Path)
		case xmltree.DiffModified:
			out = append(out, styleModified.Render("~ "+e.Path))
			out = append(out, renderModifiedValues(e)...)
		case xmltree.DiffOnlyLeft:
			out = append(out, styleRemoved.Render("- "+e.Path))
		case xmltree.DiffOnlyRight:
			out = append(out, styleAdded.Render("+ "+e.Path))
		case xmltree.DiffStructural:
			out = append(out, styleStructural.Render(fmt.Sprintf("! %s: %s", e.Path, e.Description)))
		}
	}
	return strings.Join(out, "\n")
}

func renderModifiedValues(e xmltree.DiffEntry) []string {
	if !strings.Contains(e.Left, "\n") && !strings.Contains(e.Right, "\n") {
		return []string{"  left:  " + e.Left, "  right: " + e.Right}
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(e.Left),
		B:        difflib.SplitLines(e.Right),
		FromFile: "left",
		ToFile:   "right",
		Context:  2,
	})
	if err != nil {
		return []string{"  left:  " + e.Left, "  right: " + e.Right}
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimRight(unified, "\n"), "\n") {
		lines = append(lines, "  "+line)
	}
	return lines
}

// RenderSummary renders the one-line diff counts.
func RenderSummary(entries []xmltree.DiffEntry) string {
	return styleSummary.Render(xmltree.FormatSummary(entries))
}

// RenderAnalysis renders recommended-action lines. Inserts are SAFE to
// apply mechanically, conflicts need MANUAL review, identical paths are
// NOOP.
func RenderAnalysis(entries []analyze.Entry) string {
	var out []string
	for _, entry := range entries {
		var prefix string
		switch entry.Action {
		case analyze.ActionInsertLeftToRight, analyze.ActionInsertRightToLeft:
			prefix = "SAFE"
		case analyze.ActionConflictManual:
			prefix = "MANUAL"
		default:
			prefix = "NOOP"
		}
		out = append(out, fmt.Sprintf("%s action=%s path=%s reason=%s", prefix, entry.Action, entry.Path, entry.Reason))
	}
	return strings.Join(out, "\n")
}

// RenderSectionStats renders per-section counts, hottest sections first:
// manual conflicts, then modifications, then section name.
func RenderSectionStats(rows []sections.SectionStats) string {
	sorted := make([]sections.SectionStats, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ConflictManual != b.ConflictManual {
			return a.ConflictManual > b.ConflictManual
		}
		if a.Modified != b.Modified {
			return a.Modified > b.Modified
		}
		return a.Section < b.Section
	})

	out := []string{"section_summary"}
	for _, row := range sorted {
		out = append(out, fmt.Sprintf(
			"- %s: modified=%d only_left=%d only_right=%d structural=%d conflicts=%d safe=%d",
			row.Section, row.Modified, row.OnlyLeft, row.OnlyRight,
			row.Structural, row.ConflictManual, row.SafeActions))
	}
	return strings.Join(out, "\n")
}

// RenderSectionInventory renders the top-level section inventory with
// mapping hints and optional extras.
func RenderSectionInventory(inv sections.Inventory) string {
	var out []string
	out = append(out, "roots")
	out = append(out, fmt.Sprintf("- left: %s version=%s source=%s confidence=%s",
		inv.LeftRoot, inv.LeftVersion.Value, inv.LeftVersion.Source, inv.LeftVersion.Confidence))
	out = append(out, fmt.Sprintf("- right: %s version=%s source=%s confidence=%s",
		inv.RightRoot, inv.RightVersion.Value, inv.RightVersion.Source, inv.RightVersion.Confidence))
	out = append(out, "")

	out = append(out, "dhcp_backend")
	out = append(out, fmt.Sprintf("- left: %s (%s)", inv.LeftDHCPBackend.Mode, inv.LeftDHCPBackend.Reason))
	out = appendListWithPrefix(out, "  evidence: ", inv.LeftDHCPBackend.EvidencePaths)
	out = append(out, fmt.Sprintf("- right: %s (%s)", inv.RightDHCPBackend.Mode, inv.RightDHCPBackend.Reason))
	out = appendListWithPrefix(out, "  evidence: ", inv.RightDHCPBackend.EvidencePaths)
	out = append(out, "")

	out = append(out, "common")
	out = appendList(out, inv.Common)
	out = append(out, "")
	out = append(out, "left_only")
	out = appendList(out, inv.LeftOnly)
	out = append(out, "")
	out = append(out, "right_only")
	out = appendList(out, inv.RightOnly)
	out = append(out, "")

	out = append(out, "suggested_mappings")
	if len(inv.SuggestedMappings) == 0 {
		out = append(out, "- none")
	} else {
		for _, m := range inv.SuggestedMappings {
			out = append(out, fmt.Sprintf("- %s -> %s [%s] %s", m.Left, m.Right, m.Confidence, m.Reason))
		}
	}
	out = append(out, "")

	out = append(out, "alias_locations")
	out = append(out, "left")
	out = appendList(out, inv.LeftAliasPaths)
	out = append(out, "right")
	out = appendList(out, inv.RightAliasPaths)

	if len(inv.Extras) > 0 {
		out = append(out, "")
		out = append(out, "extras")
		for _, finding := range inv.Extras {
			out = append(out, fmt.Sprintf("- %s %s [%s] %s", finding.Side, finding.Section, finding.Kind, finding.Reason))
			for _, path := range finding.Paths {
				out = append(out, fmt.Sprintf("  path: %s", path))
			}
		}
		out = append(out, "")
		out = append(out, "unmatched_left_only")
		out = appendList(out, inv.UnmatchedLeftOnly)
		out = append(out, "unmatched_right_only")
		out = appendList(out, inv.UnmatchedRightOnly)
	}

	return strings.Join(out, "\n")
}

func appendList(out []string, items []string) []string {
	if len(items) == 0 {
		return append(out, "- none")
	}
	for _, item := range items {
		out = append(out, "- "+item)
	}
	return out
}

func appendListWithPrefix(out []string, prefix string, items []string) []string {
	if len(items) == 0 {
		return append(out, prefix+"none")
	}
	for _, item := range items {
		out = append(out, prefix+item)
	}
	return out
}
