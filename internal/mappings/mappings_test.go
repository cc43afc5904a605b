// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package mappings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadsValidMappingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sections.toml")
	content := `
[[mapping]]
left = "foo"
right = ["bar", "baz"]
category = "test"
note = "example"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	mappings, err := LoadSectionMappings(path)
	if err != nil {
		t.Fatalf("LoadSectionMappings: %v", err)
	}
	if len(mappings) != 1 || mappings[0].Left != "foo" {
		t.Errorf("mappings = %+v", mappings)
	}
	if len(mappings[0].Right) != 2 || mappings[0].Right[0] != "bar" {
		t.Errorf("right = %v", mappings[0].Right)
	}
}

func TestReturnsParseErrorForInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSectionMappings(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefaultMappingsCoverCoreSections(t *testing.T) {
	defaults := DefaultSectionMappings()
	if len(defaults) == 0 {
		t.Fatal("default mappings should not be empty")
	}
	found := false
	for _, m := range defaults {
		if m.Left == "installedpackages" {
			found = true
		}
	}
	if !found {
		t.Error("expected installedpackages mapping in defaults")
	}
}

func TestLoadsPluginMatrixFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugins.toml")
	content := `
[[plugin]]
id = "example"
pfsense_markers = ["pkg-example"]
opnsense_markers = ["os-example"]
compatible_targets = ["pfsense"]
status = "partial"
note = "example mapping"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	matrix, err := LoadPluginMatrix(path)
	if err != nil {
		t.Fatalf("LoadPluginMatrix: %v", err)
	}
	entry, ok := matrix.FindByID("example")
	if !ok || entry.Status != StatusPartial {
		t.Errorf("entry = %+v ok=%v", entry, ok)
	}
	if _, ok := matrix.FindByMarker("pfsense", "pkg-example"); !ok {
		t.Error("marker pkg-example should resolve")
	}
	if matrix.IsTargetCompatible("example", "opnsense") {
		t.Error("example should not be opnsense-compatible")
	}
}

func TestDefaultMatrixCoversCorePluginIDs(t *testing.T) {
	matrix := DefaultPluginMatrix()
	for _, id := range []string{"wireguard", "tailscale", "openvpn", "ipsec", "isc-dhcp", "kea-dhcp"} {
		if _, ok := matrix.FindByID(id); !ok {
			t.Errorf("missing plugin id %q in default matrix", id)
		}
	}
}

func TestEmbeddedMatrixIncludesStrongswanMarker(t *testing.T) {
	matrix := DefaultPluginMatrix()
	entry, ok := matrix.FindByID("ipsec")
	if !ok {
		t.Fatal("ipsec entry missing")
	}
	found := false
	for _, m := range entry.OpnsenseMarkers {
		if m == "os-strongswan-legacy" {
			found = true
		}
	}
	if !found {
		t.Errorf("opnsense markers = %v, want os-strongswan-legacy", entry.OpnsenseMarkers)
	}
}
