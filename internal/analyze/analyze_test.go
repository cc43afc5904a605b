// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package analyze

import (
	"testing"

	"grimm.is/pfopn/internal/xmltree"
)

func TestClassifiesDiffEntries(t *testing.T) {
	entries := []xmltree.DiffEntry{
		{Kind: xmltree.DiffOnlyLeft, Path: "root.item[1]", Node: xmltree.New("item")},
		{Kind: xmltree.DiffOnlyRight, Path: "root.item[2]", Node: xmltree.New("item")},
		{Kind: xmltree.DiffModified, Path: "root.value[1]", Left: "a", Right: "b"},
	}
	actions := Analyze(entries)
	if actions[0].Action != ActionInsertLeftToRight {
		t.Errorf("actions[0] = %s", actions[0].Action)
	}
	if actions[1].Action != ActionInsertRightToLeft {
		t.Errorf("actions[1] = %s", actions[1].Action)
	}
	if actions[2].Action != ActionConflictManual || actions[2].Safe {
		t.Errorf("actions[2] = %+v", actions[2])
	}
}

func TestSummarizeCountsActions(t *testing.T) {
	entries := []Entry{
		{Action: ActionInsertLeftToRight},
		{Action: ActionInsertLeftToRight},
		{Action: ActionConflictManual},
		{Action: ActionNoop},
	}
	got := Summarize(entries)
	want := "insert_left_to_right=2 insert_right_to_left=0 conflict_manual=1 noop=1"
	if got != want {
		t.Errorf("Summarize = %q, want %q", got, want)
	}
}
