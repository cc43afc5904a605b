// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package convert

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"grimm.is/pfopn/internal/merge"
	"grimm.is/pfopn/internal/testutil"
	"grimm.is/pfopn/internal/xmltree"
)

const roundtripOpn = `<opnsense>
<version>24.7</version>
<system/>
<interfaces><lan><if>igc1</if><subnet>24</subnet></lan></interfaces>
<filter><rule><interface>lan</interface><type>pass</type></rule></filter>
</opnsense>`

const roundtripPf = `<pfsense>
<version>2.7.2</version>
<system/>
<interfaces><lan><if>igc1</if><subnet>24</subnet></lan></interfaces>
<filter><rule><interface>lan</interface><type>pass</type></rule></filter>
</pfsense>`

func runConvert(t *testing.T, input, from, to, targetFile, output string) {
	t.Helper()
	var stdout, stderr strings.Builder
	err := Run(Options{
		Input:      input,
		Output:     output,
		From:       from,
		To:         to,
		TargetFile: targetFile,
		Backend:    "auto",
		Merge:      merge.DefaultOptions(),
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	require.NoError(t, err, "convert %s -> %s\nstderr:\n%s", from, to, stderr.String())
}

func TestRoundtripOpnsenseToPfsenseAndBack(t *testing.T) {
	dir := t.TempDir()
	opnSrc := testutil.WriteXMLFile(t, "opn-src.xml", roundtripOpn)
	pfBase := testutil.WriteXMLFile(t, "pf-base.xml", roundtripPf)
	toPf := filepath.Join(dir, "opn-to-pf.xml")
	backToOpn := filepath.Join(dir, "opn-back.xml")

	runConvert(t, opnSrc, "opnsense", "pfsense", pfBase, toPf)
	runConvert(t, toPf, "pfsense", "opnsense", opnSrc, backToOpn)

	original, err := xmltree.ParseFile(opnSrc)
	require.NoError(t, err)
	back, err := xmltree.ParseFile(backToOpn)
	require.NoError(t, err)
	testutil.RequireTreesConverge(t, original, back)
}

func TestRoundtripPfsenseToOpnsenseAndBack(t *testing.T) {
	dir := t.TempDir()
	pfSrc := testutil.WriteXMLFile(t, "pf-src.xml", roundtripPf)
	opnBase := testutil.WriteXMLFile(t, "opn-base.xml", roundtripOpn)
	toOpn := filepath.Join(dir, "pf-to-opn.xml")
	backToPf := filepath.Join(dir, "pf-back.xml")

	runConvert(t, pfSrc, "pfsense", "opnsense", opnBase, toOpn)
	runConvert(t, toOpn, "opnsense", "pfsense", pfSrc, backToPf)

	original, err := xmltree.ParseFile(pfSrc)
	require.NoError(t, err)
	back, err := xmltree.ParseFile(backToPf)
	require.NoError(t, err)
	testutil.RequireTreesConverge(t, original, back)
}
