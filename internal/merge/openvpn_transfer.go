// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package merge

import (
	"strings"

	"github.com/google/uuid"

	"grimm.is/pfopn/internal/inventory"
	"grimm.is/pfopn/internal/xmltree"
)

// OpenVPN instances reference CAs, certificates, and system users that must
// exist on the target or the tunnel imports cleanly and fails at runtime.
// The transfer copies only the missing dependencies, checking existing
// entries so nothing is duplicated when the base merge already inserted one.
func applyOpenVPNDependencyTransfer(out, left, right *xmltree.Node, target Target, options Options) {
	report := inventory.CompareOpenVPNDependencies(left, right)

	source, targetTree := left, right
	gap := report.LeftToRight
	if target == TargetLeft {
		source, targetTree = right, left
		gap = report.RightToLeft
	}

	if options.TransferCAs {
		transferSectionByRefIDs(out, source, "ca", gap.MissingCAIDs)
	}
	if options.TransferCerts {
		transferSectionByRefIDs(out, source, "cert", gap.MissingCertIDs)
	}
	if options.TransferUsers {
		transferUsers(out, source, targetTree, gap.MissingUsernames)
	}
}

// transferSectionByRefIDs copies top-level <ca> or <cert> entries matched by
// <refid> from the source, skipping refids already present in the output.
func transferSectionByRefIDs(out, source *xmltree.Node, sectionTag string, missingIDs []string) {
	if len(missingIDs) == 0 {
		return
	}

	existing := map[string]bool{}
	for _, node := range out.ChildList(sectionTag) {
		if id := refID(node); id != "" {
			existing[id] = true
		}
	}

	for _, missing := range missingIDs {
		if existing[missing] {
			continue
		}
		for _, node := range source.ChildList(sectionTag) {
			if refID(node) == missing {
				clone := node.Clone()
				restampInvalidUUID(clone, missing)
				out.Append(clone)
				existing[missing] = true
				break
			}
		}
	}
}

// restampInvalidUUID replaces a carried-over uuid attribute that is not a
// well-formed UUID. The replacement is a v5 UUID derived from the refid, so
// repeated transfers of the same entry agree.
func restampInvalidUUID(node *xmltree.Node, refid string) {
	v, ok := node.Attr("uuid")
	if !ok {
		return
	}
	if _, err := uuid.Parse(v); err != nil {
		node.SetAttr("uuid", uuid.NewSHA1(uuid.NameSpaceOID, []byte(refid)).String())
	}
}

// transferUsers copies system users matched by name. Presence is checked
// against the original target tree rather than the output, which the base
// merge may already have modified.
func transferUsers(out, source, targetTree *xmltree.Node, missingUsers []string) {
	if len(missingUsers) == 0 {
		return
	}

	existing := map[string]bool{}
	if system := targetTree.Child("system"); system != nil {
		for _, user := range system.ChildList("user") {
			if name := userName(user); name != "" {
				existing[name] = true
			}
		}
	}

	srcSystem := source.Child("system")
	outSystem := out.Child("system")
	if srcSystem == nil || outSystem == nil {
		return
	}

	for _, missing := range missingUsers {
		if existing[missing] {
			continue
		}
		for _, user := range srcSystem.ChildList("user") {
			if userName(user) == missing {
				outSystem.Append(user.Clone())
				break
			}
		}
	}
}

func refID(node *xmltree.Node) string {
	v, _ := node.TextAt("refid")
	return strings.TrimSpace(v)
}

func userName(user *xmltree.Node) string {
	v, _ := user.TextAt("name")
	return strings.TrimSpace(v)
}
