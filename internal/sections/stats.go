// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sections

import (
	"sort"
	"strings"

	"grimm.is/pfopn/internal/analyze"
	"grimm.is/pfopn/internal/xmltree"
)

// SectionStats counts diff entries and recommended actions for one
// top-level section.
type SectionStats struct {
	Section        string `json:"section"`
	Modified       int    `json:"modified"`
	OnlyLeft       int    `json:"only_left"`
	OnlyRight      int    `json:"only_right"`
	Structural     int    `json:"structural"`
	ConflictManual int    `json:"conflict_manual"`
	SafeActions    int    `json:"safe_actions"`
}

// SummarizeBySection aggregates diff entries and analysis actions by the
// top-level section each path belongs to, sorted by section name.
func SummarizeBySection(entries []xmltree.DiffEntry, analysis []analyze.Entry) []SectionStats {
	stats := make(map[string]*SectionStats)
	row := func(section string) *SectionStats {
		if existing, ok := stats[section]; ok {
			return existing
		}
		created := &SectionStats{Section: section}
		stats[section] = created
		return created
	}

	for _, entry := range entries {
		r := row(sectionFromPath(entry.Path))
		switch entry.Kind {
		case xmltree.DiffModified:
			r.Modified++
		case xmltree.DiffOnlyLeft:
			r.OnlyLeft++
		case xmltree.DiffOnlyRight:
			r.OnlyRight++
		case xmltree.DiffStructural:
			r.Structural++
		}
	}

	for _, action := range analysis {
		r, ok := stats[sectionFromPath(action.Path)]
		if !ok {
			continue
		}
		if action.Safe {
			r.SafeActions++
		} else {
			r.ConflictManual++
		}
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]SectionStats, 0, len(names))
	for _, name := range names {
		out = append(out, *stats[name])
	}
	return out
}

// sectionFromPath extracts the top-level section from a dotted diff path,
// stripping any [n] index suffix. A path with only the root yields "(root)".
func sectionFromPath(path string) string {
	segments := strings.SplitN(path, ".", 3)
	if len(segments) < 2 {
		return "(root)"
	}
	section, _, _ := strings.Cut(segments[1], "[")
	return section
}
