// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package xmltree

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders diff entries as plain text, one prefixed line per
// outcome: `=` identical, `~` modified, `-` only left, `+` only right,
// `!` structural.
func FormatText(entries []DiffEntry) string {
	lines := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		switch e.Kind {
		case DiffIdentical:
			lines = append(lines, "= "+e.Path)
		case DiffModified:
			lines = append(lines, "~ "+e.Path)
			lines = append(lines, "  left:  "+e.Left)
			lines = append(lines, "  right: "+e.Right)
		case DiffOnlyLeft:
			lines = append(lines, "- "+e.Path)
		case DiffOnlyRight:
			lines = append(lines, "+ "+e.Path)
		case DiffStructural:
			lines = append(lines, fmt.Sprintf("! %s: %s", e.Path, e.Description))
		}
	}
	return strings.Join(lines, "\n")
}

// DiffCounts tallies entries by kind.
type DiffCounts struct {
	Identical  int `json:"identical"`
	Modified   int `json:"modified"`
	OnlyLeft   int `json:"only_left"`
	OnlyRight  int `json:"only_right"`
	Structural int `json:"structural"`
}

// CountEntries tallies diff entries by kind.
func CountEntries(entries []DiffEntry) DiffCounts {
	var c DiffCounts
	for _, e := range entries {
		switch e.Kind {
		case DiffIdentical:
			c.Identical++
		case DiffModified:
			c.Modified++
		case DiffOnlyLeft:
			c.OnlyLeft++
		case DiffOnlyRight:
			c.OnlyRight++
		case DiffStructural:
			c.Structural++
		}
	}
	return c
}

// FormatSummary renders a one-line count summary.
func FormatSummary(entries []DiffEntry) string {
	c := CountEntries(entries)
	return fmt.Sprintf("identical=%d modified=%d only_left=%d only_right=%d structural=%d",
		c.Identical, c.Modified, c.OnlyLeft, c.OnlyRight, c.Structural)
}

// MarshalJSON serializes a diff entry as a tagged object, carrying only the
// fields relevant for its kind.
func (e DiffEntry) MarshalJSON() ([]byte, error) {
	obj := map[string]any{
		"type": e.Kind.String(),
		"path": e.Path,
	}
	switch e.Kind {
	case DiffModified:
		obj["left"] = e.Left
		obj["right"] = e.Right
	case DiffOnlyLeft, DiffOnlyRight:
		obj["node"] = e.Node
	case DiffStructural:
		obj["description"] = e.Description
	}
	return json.Marshal(obj)
}

// FormatJSON renders diff entries as indented JSON.
func FormatJSON(entries []DiffEntry) (string, error) {
	if entries == nil {
		entries = []DiffEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
