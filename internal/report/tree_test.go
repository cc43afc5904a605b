// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package report

import (
	"testing"

	"grimm.is/pfopn/internal/xmltree"
)

func TestRenderTreeRespectsDepth(t *testing.T) {
	root, err := xmltree.Parse([]byte(`<pfsense><system><hostname>fw</hostname></system><filter><rule/></filter></pfsense>`))
	if err != nil {
		t.Fatal(err)
	}

	got := RenderTree(root, 1)
	want := "pfsense\n  system\n  filter\n"
	if got != want {
		t.Errorf("depth 1 = %q, want %q", got, want)
	}

	got = RenderTree(root, 3)
	want = "pfsense\n  system\n    hostname\n  filter\n    rule\n"
	if got != want {
		t.Errorf("depth 3 = %q, want %q", got, want)
	}
}

func TestRenderTreeDepthZeroRootOnly(t *testing.T) {
	root := xmltree.New("opnsense")
	root.Append(xmltree.New("system"))
	if got := RenderTree(root, 0); got != "opnsense\n" {
		t.Errorf("depth 0 = %q", got)
	}
}
