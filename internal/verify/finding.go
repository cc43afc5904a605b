// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package verify checks a single firewall configuration for internal
// consistency: dangling interface, alias, gateway, and schedule references,
// malformed bridges and NAT rules, duplicate rule signatures, DHCP backend
// mismatches, and version-profile expectations.
package verify

// Severity classifies a finding. Errors indicate configuration that will
// misbehave on the target; warnings flag things worth a manual look.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one problem located in a configuration.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

func errFinding(code, message string) Finding {
	return Finding{Severity: SeverityError, Code: code, Message: message}
}

func warnFinding(code, message string) Finding {
	return Finding{Severity: SeverityWarning, Code: code, Message: message}
}
