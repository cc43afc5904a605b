// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package merge builds a combined config tree from two sides of a diff. The
// merge is insert-only: nodes present on the source side but missing on the
// target side are added, and nothing on the target side is removed. After
// the base inserts, the platform transform chain runs so the merged tree is
// valid for its root platform rather than a mechanical union.
package merge

import (
	"grimm.is/pfopn/internal/errors"
	"grimm.is/pfopn/internal/transform"
	"grimm.is/pfopn/internal/xmltree"
)

// Target selects which side the merged output is built from.
type Target int

const (
	// TargetLeft builds output from the left tree and inserts missing
	// right-side nodes.
	TargetLeft Target = iota
	// TargetRight builds output from the right tree and inserts missing
	// left-side nodes.
	TargetRight
)

// Options controls merge-time transfer of dependency-backed sections.
type Options struct {
	TransferUsers bool
	TransferCerts bool
	TransferCAs   bool
}

// DefaultOptions enables every dependency transfer.
func DefaultOptions() Options {
	return Options{TransferUsers: true, TransferCerts: true, TransferCAs: true}
}

// ApplySafeMerge applies the safe insert-only actions from a diff and
// returns the merged tree. Structural and modified entries are skipped: only
// only-left/only-right inserts toward the chosen target are applied, then
// OpenVPN dependencies are transferred and the platform transform chain runs.
func ApplySafeMerge(left, right *xmltree.Node, entries []xmltree.DiffEntry, target Target, options Options) (*xmltree.Node, error) {
	var out *xmltree.Node
	switch target {
	case TargetLeft:
		out = left.Clone()
	default:
		out = right.Clone()
	}

	for _, entry := range entries {
		insert := (target == TargetRight && entry.Kind == xmltree.DiffOnlyLeft) ||
			(target == TargetLeft && entry.Kind == xmltree.DiffOnlyRight)
		if !insert {
			continue
		}
		parentPath, ok := splitParentPath(entry.Path)
		if !ok {
			return nil, errors.Errorf(errors.KindValidation, "unsupported diff path for merge: %s", entry.Path)
		}
		parent := out
		if parentPath != left.Tag && parentPath != right.Tag {
			normalized := normalizeRootPath(parentPath, out.Tag, left.Tag, right.Tag)
			parent = findNodeByPath(out, normalized)
			if parent == nil {
				return nil, errors.Errorf(errors.KindNotFound, "parent path not found in target tree: %s", parentPath)
			}
		}
		parent.Append(entry.Node.Clone())
	}

	applyOpenVPNDependencyTransfer(out, left, right, target, options)

	source, baseline := left, right
	if target == TargetLeft {
		source, baseline = right, left
	}
	transform.SyncSharedSections(out, source)
	runTransformChain(out, source, baseline)
	return out, nil
}

// runTransformChain applies the platform-specific section transforms in
// dependency order: identity and users first, then the VPN stacks (OpenVPN
// before WireGuard and IPsec, which may reference transferred certs), then
// routes, relay, and finally certificate uuid stamping.
func runTransformChain(out, source, baseline *xmltree.Node) {
	type pass func(out, source, baseline *xmltree.Node)
	var chain []pass
	switch out.Tag {
	case "opnsense":
		chain = []pass{
			transform.SystemIdentity,
			transform.UsersToOpnsense,
			transform.SystemUsersToOpnsense,
			transform.AliasesToOpnsense,
			transform.TailscaleToOpnsense,
			transform.OpenVPNToOpnsense,
			transform.PPPs,
			transform.WireGuardToOpnsense,
			transform.IPsecToOpnsense,
			transform.StaticRoutesToOpnsense,
			transform.RelayToOpnsense,
			transform.CertsToOpnsense,
		}
	case "pfsense":
		chain = []pass{
			transform.SystemIdentity,
			transform.UsersToPfsense,
			transform.SystemUsersToPfsense,
			transform.AliasesToPfsense,
			transform.TailscaleToPfsense,
			transform.OpenVPNToPfsense,
			transform.PPPs,
			transform.WireGuardToPfsense,
			transform.IPsecToPfsense,
			transform.StaticRoutesToPfsense,
			transform.RelayToPfsense,
			transform.CertsToPfsense,
		}
	default:
		return
	}
	for _, p := range chain {
		p(out, source, baseline)
	}
}
