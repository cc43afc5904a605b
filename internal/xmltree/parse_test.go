// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package xmltree

import (
	"strings"
	"testing"
)

func TestParseBasicTree(t *testing.T) {
	root, err := Parse([]byte(`<pfsense><system><hostname>gw</hostname></system></pfsense>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if root.Tag != "pfsense" {
		t.Errorf("root tag = %s", root.Tag)
	}
	if got, _ := root.TextAt("system", "hostname"); got != "gw" {
		t.Errorf("hostname = %q", got)
	}
}

func TestParseAttributes(t *testing.T) {
	root, err := Parse([]byte(`<opnsense><bridged uuid="ab-cd"><members>lan</members></bridged></opnsense>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bridged := root.Child("bridged")
	if bridged == nil {
		t.Fatal("bridged missing")
	}
	if v, ok := bridged.Attr("uuid"); !ok || v != "ab-cd" {
		t.Errorf("uuid attr = %q ok=%v", v, ok)
	}
}

func TestParseFoldsCDATA(t *testing.T) {
	root, err := Parse([]byte(`<r><descr><![CDATA[a & b]]></descr></r>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, _ := root.TextAt("descr"); got != "a & b" {
		t.Errorf("descr = %q", got)
	}
}

func TestParseDropsCommentsAndWhitespace(t *testing.T) {
	root, err := Parse([]byte("<r>\n  <!-- note -->\n  <a>x</a>\n</r>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("children = %d", len(root.Children))
	}
	if root.Text != "" {
		t.Errorf("whitespace text kept: %q", root.Text)
	}
}

func TestParseRejectsMultipleRoots(t *testing.T) {
	_, err := Parse([]byte(`<a/><b/>`))
	if err == nil {
		t.Fatal("expected error for multiple top-level elements")
	}
	if !strings.Contains(err.Error(), "XML") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseRejectsEmptyInput(t *testing.T) {
	if _, err := Parse([]byte("  ")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestRoundTripStable(t *testing.T) {
	input := []byte(`<opnsense>
  <system>
    <hostname>fw</hostname>
    <domain>example.net</domain>
  </system>
  <interfaces>
    <lan>
      <if>igb1</if>
      <ipaddr>192.168.1.1</ipaddr>
    </lan>
  </interfaces>
  <snmpd/>
</opnsense>`)
	first, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	written := Write(first)
	second, err := Parse(written)
	if err != nil {
		t.Fatalf("re-parse: %v\n%s", err, written)
	}
	if !first.Equal(second) {
		t.Errorf("round-trip not structurally equal:\n%s", written)
	}
	// A second write of the re-parsed tree must be byte-identical.
	if string(Write(second)) != string(written) {
		t.Error("write not stable across round-trip")
	}
}

func TestWriteSelfClosesEmpties(t *testing.T) {
	root := New("dhcrelay")
	root.AppendText("enable", "")
	out := string(Write(root))
	if !strings.Contains(out, "<enable/>") {
		t.Errorf("expected self-closing enable, got %s", out)
	}
}

func TestWriteEscapes(t *testing.T) {
	root := New("r")
	root.AppendText("descr", `a < b & "c"`)
	root.SetAttr("note", `x"y`)
	out := string(Write(root))
	if !strings.Contains(out, "a &lt; b &amp;") {
		t.Errorf("text not escaped: %s", out)
	}
	if !strings.Contains(out, `note="x&quot;y"`) {
		t.Errorf("attr not escaped: %s", out)
	}
	if _, err := Parse([]byte(out)); err != nil {
		t.Errorf("escaped output must re-parse: %v", err)
	}
}

func TestWriteSortsAttributes(t *testing.T) {
	root := New("vlan")
	root.SetAttr("uuid", "u")
	root.SetAttr("alpha", "a")
	out := string(Write(root))
	if out != `<vlan alpha="a" uuid="u"/>` {
		t.Errorf("attribute order unstable: %s", out)
	}
}
