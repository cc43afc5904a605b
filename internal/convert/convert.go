// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package convert orchestrates a full platform conversion: guards, diff,
// safe merge, the transform chain, DHCP backend policy, and the output
// summary. The result always builds from the target baseline with source
// data merged in, never the other way around.
package convert

import (
	"fmt"
	"io"
	"os"

	"grimm.is/pfopn/internal/dhcp"
	"grimm.is/pfopn/internal/errors"
	"grimm.is/pfopn/internal/merge"
	"grimm.is/pfopn/internal/platform"
	"grimm.is/pfopn/internal/transform"
	"grimm.is/pfopn/internal/xmltree"
)

// Options carries everything a conversion run needs.
type Options struct {
	Input  string
	Output string

	// From is the source platform name; empty or "auto" detects from the
	// root tag. To must be explicit.
	From string
	To   string

	// TargetFile is the destination baseline config. MinimalTemplate
	// builds from a bare root instead, for dev and testing only.
	TargetFile      string
	MinimalTemplate bool

	// Backend is the DHCP backend policy: "auto", "kea", or "isc".
	Backend string

	// LANIP renumbers the LAN interface and its DHCP scope when set.
	LANIP       string
	DisableDHCP bool

	// IfMap overrides logical interface pairing when carrying settings
	// from source to target (source name -> target name).
	IfMap map[string]string

	Merge merge.Options

	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the conversion pipeline and writes the output file.
func Run(opts Options) error {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	inputs := []string{opts.Input}
	if opts.TargetFile != "" {
		inputs = append(inputs, opts.TargetFile)
	}
	if err := EnsureOutputNotSame(opts.Output, inputs...); err != nil {
		return err
	}

	input, err := xmltree.ParseFile(opts.Input)
	if err != nil {
		return errors.Wrapf(err, errors.KindValidation, "failed to parse %s", opts.Input)
	}

	from, err := resolveFromPlatform(opts.From, input)
	if err != nil {
		return err
	}
	to, err := normalizeToPlatform(opts.To)
	if err != nil {
		return err
	}
	if from == to {
		return errors.Errorf(errors.KindValidation,
			"from and to are the same platform (%s); conversion requires different platforms", from)
	}

	target, err := resolveTarget(opts, to)
	if err != nil {
		return err
	}

	requested, err := dhcp.ParseRequestedBackend(opts.Backend)
	if err != nil {
		return err
	}
	sourceBackend := dhcp.DetectBackend(input)
	effective := dhcp.ResolveEffectiveBackend(requested, input, target, to)
	if err := dhcp.EnsureBackendReadiness(target, requested, effective); err != nil {
		return err
	}

	if err := EnforceInterfaceCompat(input, target); err != nil {
		return err
	}

	diffOpts := xmltree.DefaultDiffOptions()
	diffOpts.IncludeIdentical = false
	entries := xmltree.DiffWithOptions(input, target, diffOpts)

	out, err := merge.ApplySafeMerge(input, target, entries, merge.TargetRight, opts.Merge)
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "failed while applying safe conversion merge")
	}

	out.Tag = to

	transform.ApplyInterfaceSettings(out, input, target, opts.IfMap)
	transform.PruneMissingInterfaces(out, target)

	// Logical names (wan/lan/optN) shift when OPNsense assignments are
	// renormalized, so references must be rewritten with the same map.
	var logicalMap map[string]string
	if to == "opnsense" {
		if m := transform.NormalizeOpnsenseAssignments(out); len(m) > 0 {
			logicalMap = m
		}
	}
	transform.RewriteLogicalRefs(out, logicalMap)

	PruneImportedIncompatibleSections(out, to, target)

	transform.RewriteDeviceRefs(out, input, target, nil)

	if to == "opnsense" {
		transform.PrunePfBlockerFloatingRules(out)
		transform.VLANIfNamesForOpnsense(out)
		transform.NormalizeOpnsenseWireguardIfNames(out)
		transform.BridgesToOpnsense(out)
		transform.IfGroupsToOpnsense(out)
	} else {
		transform.BridgesToPfsense(out)
		transform.IfGroupsToPfsense(out)
	}

	if opts.LANIP != "" {
		if err := transform.RenumberLAN(out, opts.LANIP); err != nil {
			return err
		}
	}

	if to == "pfsense" && effective == dhcp.BackendKea {
		seedPfsenseKeaFromSource(out, input)
	}

	if to == "opnsense" && effective == dhcp.BackendKea {
		stats, err := dhcp.MigrateISCToKea(out, input)
		switch {
		case err == nil:
			finalBackend := effective
			if hasErrorWarning(stats.Warnings) {
				finalBackend = dhcp.BackendISC
				fmt.Fprintln(stderr, "warning: Kea migration skipped due to fatal errors; falling back to ISC backend")
			}
			preserveLegacyIPv6 := finalBackend == dhcp.BackendKea && len(stats.PreservedDHCPv6Ifaces) > 0
			dhcp.EnforceOutputBackend(out, finalBackend, to, preserveLegacyIPv6)
			effective = finalBackend

			for _, warning := range stats.Warnings {
				fmt.Fprintf(stderr, "warning: %s\n", warning.Message)
			}
			printMigrationSummary(stdout, stats, finalBackend, preserveLegacyIPv6)
		case requested == dhcp.RequestAuto:
			fmt.Fprintf(stderr, "warning: Kea migration failed in auto mode (%v); falling back to ISC backend\n", err)
			effective = dhcp.BackendISC
			dhcp.EnforceOutputBackend(out, effective, to, false)
		default:
			return err
		}
	} else {
		dhcp.EnforceOutputBackend(out, effective, to, false)
	}

	// A Kea-only source downgraded to ISC would silently lose its DHCP
	// configuration, so refuse unless legacy data exists to carry over.
	if effective == dhcp.BackendISC && sourceBackend.Mode == "kea" && !dhcp.HasLegacyData(input) {
		if to == "pfsense" {
			return errors.New(errors.KindRefused,
				"cannot convert Kea-only source to pfSense ISC without source legacy DHCP data; use --backend kea or provide ISC-backed source")
		}
		return errors.New(errors.KindRefused,
			"cannot convert Kea-only source to OPNsense ISC without source legacy DHCP data; use --backend kea or provide ISC-backed source")
	}

	if opts.DisableDHCP {
		dhcp.DisableAll(out)
	}

	if err := xmltree.WriteFile(out, opts.Output); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "failed to write output XML %s", opts.Output)
	}

	fmt.Fprintln(stdout, Summarize(out).Render())
	return nil
}

func resolveFromPlatform(name string, node *xmltree.Node) (string, error) {
	switch flavor := platform.FromString(name); flavor {
	case platform.PfSense, platform.OpnSense:
		return flavor.String(), nil
	}
	detected := platform.Detect(node)
	if detected == platform.Unknown {
		return "", errors.New(errors.KindValidation, "unable to auto-detect platform from root tag")
	}
	return detected.String(), nil
}

func normalizeToPlatform(name string) (string, error) {
	switch flavor := platform.FromString(name); flavor {
	case platform.PfSense, platform.OpnSense:
		return flavor.String(), nil
	}
	return "", errors.New(errors.KindValidation, "--to cannot be auto; specify pfsense or opnsense")
}

func resolveTarget(opts Options, to string) (*xmltree.Node, error) {
	if opts.TargetFile != "" {
		parsed, err := xmltree.ParseFile(opts.TargetFile)
		if err != nil {
			return nil, errors.Wrapf(err, errors.KindValidation, "failed to parse %s", opts.TargetFile)
		}
		targetFlavor, err := resolveFromPlatform("", parsed)
		if err != nil {
			return nil, err
		}
		if targetFlavor != to {
			return nil, errors.Errorf(errors.KindValidation,
				"target-file platform (%s) does not match --to (%s); provide a matching baseline file", targetFlavor, to)
		}
		return parsed, nil
	}

	if opts.MinimalTemplate {
		return xmltree.New(to), nil
	}

	return nil, errors.New(errors.KindValidation,
		"missing --target-file; provide a destination baseline config or use --minimal-template for dev/testing")
}

func hasErrorWarning(warnings []dhcp.MigrationWarning) bool {
	for _, w := range warnings {
		if w.Severity == dhcp.SeverityError {
			return true
		}
	}
	return false
}

// seedPfsenseKeaFromSource copies the source's Kea section onto a pfSense
// output, looking under both the pfSense <kea> and OPNsense <OPNsense><Kea>
// layouts and normalizing the tag to <kea>.
func seedPfsenseKeaFromSource(out, source *xmltree.Node) {
	kea := source.Child("kea")
	if kea == nil {
		kea = source.Find("OPNsense", "Kea")
	}
	if kea == nil {
		return
	}
	seeded := kea.Clone()
	seeded.Tag = "kea"
	out.RemoveChildren("kea")
	out.Append(seeded)
}
