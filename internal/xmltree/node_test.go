// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package xmltree

import (
	"testing"
)

func TestTextAtWalksNestedPath(t *testing.T) {
	root := New("root")
	parent := New("parent")
	parent.AppendText("child", "value")
	root.Append(parent)

	if got, ok := root.TextAt("parent", "child"); !ok || got != "value" {
		t.Errorf("TextAt = %q ok=%v", got, ok)
	}
	if _, ok := root.TextAt("parent", "missing"); ok {
		t.Error("missing path should not resolve")
	}
}

func TestSetChildTextReplacesOrInserts(t *testing.T) {
	n := New("system")
	n.SetChildText("hostname", "a")
	n.SetChildText("hostname", "b")
	if len(n.ChildList("hostname")) != 1 {
		t.Fatal("hostname duplicated")
	}
	if got, _ := n.TextAt("hostname"); got != "b" {
		t.Errorf("hostname = %q", got)
	}
}

func TestEnsureChildTextDoesNotOverwrite(t *testing.T) {
	n := New("vlan")
	n.AppendText("pcp", "3")
	n.EnsureChildText("pcp", "0")
	if got, _ := n.TextAt("pcp"); got != "3" {
		t.Errorf("pcp = %q", got)
	}
}

func TestEnsureChildReturnsExisting(t *testing.T) {
	n := mustParse(t, `<r><a><b>t</b></a></r>`)
	if got := n.EnsureChild("a"); !got.HasChild("b") {
		t.Error("expected existing child")
	}
	n.EnsureChild("c")
	if !n.HasChild("c") {
		t.Error("expected created child")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := mustParse(t, `<r><a x="1"><b>t</b></a></r>`)
	copied := orig.Clone()
	copied.Child("a").SetAttr("x", "2")
	copied.Child("a").Child("b").Text = "changed"

	if v, _ := orig.Child("a").Attr("x"); v != "1" {
		t.Error("clone shares attributes")
	}
	if got, _ := orig.TextAt("a", "b"); got != "t" {
		t.Error("clone shares children")
	}
}

func TestEqual(t *testing.T) {
	a := mustParse(t, `<r><a x="1">t</a></r>`)
	b := mustParse(t, `<r><a x="1">t</a></r>`)
	c := mustParse(t, `<r><a x="2">t</a></r>`)
	if !a.Equal(b) {
		t.Error("equal trees reported unequal")
	}
	if a.Equal(c) {
		t.Error("differing attr reported equal")
	}
}

func TestRetainChildren(t *testing.T) {
	n := mustParse(t, `<filter><rule><d>1</d></rule><rule><d>2</d></rule><sep/></filter>`)
	n.RetainChildren(func(c *Node) bool {
		v, _ := c.TextAt("d")
		return c.Tag != "rule" || v != "1"
	})
	if len(n.ChildList("rule")) != 1 || !n.HasChild("sep") {
		t.Errorf("children = %v", n.Children)
	}
}

func TestStringCompactRender(t *testing.T) {
	n := mustParse(t, `<a x="1"><b>t</b></a>`)
	if got := n.String(); got != `<a x="1"><b>t</b></a>` {
		t.Errorf("String = %s", got)
	}
}
