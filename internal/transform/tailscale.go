// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"grimm.is/pfopn/internal/xmltree"
)

// Tailscale config lives under <installedpackages> on pfSense and under the
// <OPNsense> container on OPNsense. These passes move both the main
// <tailscale> section and its <tailscaleauth> companion to the right home.

// TailscaleToOpnsense moves Tailscale config into the OPNsense container.
func TailscaleToOpnsense(out, source, _ *xmltree.Node) {
	dst := out.EnsureChild("OPNsense")
	dst.RemoveChildren("tailscale")
	dst.RemoveChildren("tailscaleauth")

	main := pfsenseTailscale(source, "tailscale")
	if main == nil {
		return
	}
	dst.Append(main.Clone())
	if auth := pfsenseTailscale(source, "tailscaleauth"); auth != nil {
		dst.Append(auth.Clone())
	}
}

// TailscaleToPfsense moves Tailscale config into <installedpackages>.
func TailscaleToPfsense(out, source, _ *xmltree.Node) {
	installed := out.EnsureChild("installedpackages")
	installed.RemoveChildren("tailscale")
	installed.RemoveChildren("tailscaleauth")

	opn := source.Child("OPNsense")
	if opn == nil {
		return
	}
	main := opn.Child("tailscale")
	if main == nil {
		return
	}
	installed.Append(main.Clone())
	if auth := opn.Child("tailscaleauth"); auth != nil {
		installed.Append(auth.Clone())
	}
}

// pfsenseTailscale looks in the legacy top-level location first, then in the
// standard installedpackages location.
func pfsenseTailscale(root *xmltree.Node, tag string) *xmltree.Node {
	if n := root.Child(tag); n != nil {
		return n
	}
	if ip := root.Child("installedpackages"); ip != nil {
		return ip.Child(tag)
	}
	return nil
}
