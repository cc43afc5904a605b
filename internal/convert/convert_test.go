// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grimm.is/pfopn/internal/merge"
	"grimm.is/pfopn/internal/xmltree"
)

func parse(t *testing.T, xml string) *xmltree.Node {
	t.Helper()
	node, err := xmltree.Parse([]byte(xml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return node
}

func writeTemp(t *testing.T, dir, name, xml string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(xml), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const pfSource = `<pfsense>
  <version>23.1</version>
  <system>
    <hostname>edge-fw</hostname>
    <domain>lab.example</domain>
  </system>
  <interfaces>
    <lan>
      <if>igb0</if>
      <ipaddr>192.168.1.1</ipaddr>
      <subnet>24</subnet>
    </lan>
  </interfaces>
  <filter>
    <rule><descr>allow lan</descr></rule>
  </filter>
</pfsense>`

const opnTarget = `<opnsense>
  <version>24.7</version>
  <system>
    <hostname>fresh</hostname>
  </system>
  <interfaces>
    <lan>
      <if>vtnet0</if>
      <ipaddr>192.168.1.1</ipaddr>
      <subnet>24</subnet>
    </lan>
  </interfaces>
</opnsense>`

func TestRunConvertsPfsenseToOpnsense(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "source.xml", pfSource)
	target := writeTemp(t, dir, "target.xml", opnTarget)
	output := filepath.Join(dir, "out.xml")

	var stdout, stderr strings.Builder
	err := Run(Options{
		Input:      input,
		Output:     output,
		To:         "opnsense",
		TargetFile: target,
		Backend:    "auto",
		Merge:      merge.DefaultOptions(),
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	out, err := xmltree.ParseFile(output)
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if out.Tag != "opnsense" {
		t.Errorf("root tag = %q, want opnsense", out.Tag)
	}
	if got := out.TextOr("", "system", "hostname"); got != "edge-fw" {
		t.Errorf("hostname = %q, want edge-fw", got)
	}
	if got := out.TextOr("", "interfaces", "lan", "if"); got != "vtnet0" {
		t.Errorf("lan if = %q, want target device vtnet0", got)
	}
	if !strings.Contains(stdout.String(), "convert_summary") {
		t.Errorf("stdout missing conversion summary: %q", stdout.String())
	}
}

func TestRunRefusesSamePlatform(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "source.xml", pfSource)

	err := Run(Options{
		Input:           input,
		Output:          filepath.Join(dir, "out.xml"),
		To:              "pfsense",
		MinimalTemplate: true,
	})
	if err == nil || !strings.Contains(err.Error(), "same platform") {
		t.Fatalf("err = %v, want same platform refusal", err)
	}
}

func TestRunRequiresExplicitTo(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "source.xml", pfSource)

	err := Run(Options{
		Input:           input,
		Output:          filepath.Join(dir, "out.xml"),
		To:              "auto",
		MinimalTemplate: true,
	})
	if err == nil || !strings.Contains(err.Error(), "--to cannot be auto") {
		t.Fatalf("err = %v, want explicit --to error", err)
	}
}

func TestRunRequiresTargetFileOrMinimalTemplate(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "source.xml", pfSource)

	err := Run(Options{
		Input:  input,
		Output: filepath.Join(dir, "out.xml"),
		To:     "opnsense",
	})
	if err == nil || !strings.Contains(err.Error(), "missing --target-file") {
		t.Fatalf("err = %v, want missing target-file error", err)
	}
}

func TestRunRejectsMismatchedTargetFile(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "source.xml", pfSource)
	target := writeTemp(t, dir, "target.xml", `<pfsense><interfaces><lan/></interfaces></pfsense>`)

	err := Run(Options{
		Input:      input,
		Output:     filepath.Join(dir, "out.xml"),
		To:         "opnsense",
		TargetFile: target,
	})
	if err == nil || !strings.Contains(err.Error(), "does not match --to") {
		t.Fatalf("err = %v, want target-file mismatch error", err)
	}
}

func TestEnsureOutputNotSameRefusesInputPath(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "source.xml", pfSource)

	if err := EnsureOutputNotSame(input, input); err == nil {
		t.Fatal("expected refusal when output matches input")
	}
	if err := EnsureOutputNotSame(filepath.Join(dir, "out.xml"), input); err != nil {
		t.Fatalf("distinct paths should pass: %v", err)
	}
}

func TestSummarizeCountsObjects(t *testing.T) {
	root := parse(t, `<opnsense>
	  <interfaces><wan/><lan/></interfaces>
	  <bridges><bridged/><bridged/></bridges>
	  <filter><rule/><rule/><rule/><separator/></filter>
	  <staticroutes><route/></staticroutes>
	  <openvpn><openvpn-server/><openvpn-csc/></openvpn>
	  <OPNsense><IPsec/><wireguard/><Firewall><Alias><aliases><alias/><alias/></aliases></Alias></Firewall></OPNsense>
	</opnsense>`)

	s := Summarize(root)
	if s.Interfaces != 2 || s.Bridges != 2 || s.Aliases != 2 || s.Rules != 3 || s.Routes != 1 {
		t.Errorf("summary counts = %+v", s)
	}
	// one openvpn-server + nested IPsec + nested wireguard
	if s.VPNs != 3 {
		t.Errorf("vpns = %d, want 3", s.VPNs)
	}
	if !strings.Contains(s.Render(), "rules=3") {
		t.Errorf("render = %q", s.Render())
	}
}
