// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package testutil holds small helpers shared by the heavier test
// suites.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"grimm.is/pfopn/internal/xmltree"
)

// ParseTree parses inline XML or fails the test.
func ParseTree(t *testing.T, xml string) *xmltree.Node {
	t.Helper()
	node, err := xmltree.Parse([]byte(xml))
	require.NoError(t, err, "parse test XML")
	return node
}

// WriteXMLFile writes content under the test temp dir and returns the
// path.
func WriteXMLFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// RequireTreesConverge diffs two trees and fails on modified or
// structural outcomes. Inserted-only differences are allowed; the
// conversion pipeline leaves platform bookkeeping sections behind.
func RequireTreesConverge(t *testing.T, left, right *xmltree.Node) {
	t.Helper()
	counts := xmltree.CountEntries(xmltree.Diff(left, right))
	require.Zero(t, counts.Modified, "modified paths between trees")
	require.Zero(t, counts.Structural, "structural mismatches between trees")
}
