// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"grimm.is/pfopn/internal/xmltree"
)

// PPPs replaces the output's <ppps> section with the source's. The section
// format is identical on both platforms, so this is a straight copy; when
// the source has none, the output section is removed.
func PPPs(out, source, _ *xmltree.Node) {
	out.RemoveChildren("ppps")
	if ppps := source.Child("ppps"); ppps != nil {
		out.Append(ppps.Clone())
	}
}
