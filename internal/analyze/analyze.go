// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package analyze turns raw diff entries into recommended merge actions.
package analyze

import (
	"fmt"

	"grimm.is/pfopn/internal/xmltree"
)

// Action is the recommended handling for one diff entry.
type Action string

const (
	// ActionInsertLeftToRight is a safe insert from left into the right tree.
	ActionInsertLeftToRight Action = "insert_left_to_right"
	// ActionInsertRightToLeft is a safe insert from right into the left tree.
	ActionInsertRightToLeft Action = "insert_right_to_left"
	// ActionConflictManual requires manual reconciliation.
	ActionConflictManual Action = "conflict_manual"
	// ActionNoop needs no action.
	ActionNoop Action = "noop"
)

// Entry is the action-oriented analysis record for one path.
type Entry struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
	Safe   bool   `json:"safe"`
	Reason string `json:"reason"`
}

// Analyze classifies diff entries into recommended actions. Additions are
// safe; modifications and structural mismatches need a human.
func Analyze(entries []xmltree.DiffEntry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		switch entry.Kind {
		case xmltree.DiffIdentical:
			out = append(out, Entry{Path: entry.Path, Action: ActionNoop, Safe: true, Reason: "identical"})
		case xmltree.DiffOnlyLeft:
			out = append(out, Entry{Path: entry.Path, Action: ActionInsertLeftToRight, Safe: true, Reason: "missing on right"})
		case xmltree.DiffOnlyRight:
			out = append(out, Entry{Path: entry.Path, Action: ActionInsertRightToLeft, Safe: true, Reason: "missing on left"})
		case xmltree.DiffModified:
			out = append(out, Entry{Path: entry.Path, Action: ActionConflictManual, Safe: false, Reason: "value differs on both sides"})
		case xmltree.DiffStructural:
			out = append(out, Entry{Path: entry.Path, Action: ActionConflictManual, Safe: false,
				Reason: "structural mismatch: " + entry.Description})
		}
	}
	return out
}

// Summarize counts analysis outcomes by action type.
func Summarize(entries []Entry) string {
	var l2r, r2l, conflict, noop int
	for _, entry := range entries {
		switch entry.Action {
		case ActionInsertLeftToRight:
			l2r++
		case ActionInsertRightToLeft:
			r2l++
		case ActionConflictManual:
			conflict++
		case ActionNoop:
			noop++
		}
	}
	return fmt.Sprintf("insert_left_to_right=%d insert_right_to_left=%d conflict_manual=%d noop=%d",
		l2r, r2l, conflict, noop)
}
