// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package platform identifies the configuration flavor and firmware version
// of a parsed tree.
package platform

import (
	"fmt"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// Flavor is the configuration dialect of a tree.
type Flavor int

const (
	Unknown Flavor = iota
	PfSense
	OpnSense
)

func (f Flavor) String() string {
	switch f {
	case PfSense:
		return "pfsense"
	case OpnSense:
		return "opnsense"
	default:
		return "unknown"
	}
}

// RootTag returns the root element tag a flavor uses.
func (f Flavor) RootTag() string {
	switch f {
	case PfSense:
		return "pfsense"
	case OpnSense:
		return "opnsense"
	default:
		return ""
	}
}

// FromString parses a flavor name; empty and "auto" map to Unknown.
func FromString(s string) Flavor {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pfsense":
		return PfSense
	case "opnsense":
		return OpnSense
	default:
		return Unknown
	}
}

// Detect identifies the flavor from the root tag alone.
func Detect(node *xmltree.Node) Flavor {
	switch node.Tag {
	case "pfsense":
		return PfSense
	case "opnsense":
		return OpnSense
	default:
		return Unknown
	}
}

// VersionDetection is a version value with where it was found and how
// trustworthy that location is.
type VersionDetection struct {
	Value      string `json:"value"`
	Source     string `json:"source"`
	Confidence string `json:"confidence"`
}

// DetectVersion returns the root-level <version> text, if any.
func DetectVersion(node *xmltree.Node) (string, bool) {
	return node.TextAt("version")
}

// DetectVersionInfo searches the well-known version locations in order:
// root <version>, <system><version>, then the version attribute on
// <system><firmware>. Blank text counts as absent.
func DetectVersionInfo(node *xmltree.Node) VersionDetection {
	if v, ok := node.TextAt("version"); ok && strings.TrimSpace(v) != "" {
		return VersionDetection{
			Value:      v,
			Source:     fmt.Sprintf("%s.version", node.Tag),
			Confidence: "high",
		}
	}

	if system := node.Child("system"); system != nil {
		if v, ok := system.TextAt("version"); ok && strings.TrimSpace(v) != "" {
			return VersionDetection{
				Value:      v,
				Source:     fmt.Sprintf("%s.system.version", node.Tag),
				Confidence: "medium",
			}
		}
		if firmware := system.Child("firmware"); firmware != nil {
			if attr, ok := firmware.Attr("version"); ok {
				return VersionDetection{
					Value:      attr,
					Source:     fmt.Sprintf("%s.system.firmware@version", node.Tag),
					Confidence: "low",
				}
			}
		}
	}

	return VersionDetection{Value: "unknown", Source: "not found", Confidence: "low"}
}

// MajorVersion extracts the leading numeric component of a version string.
func MajorVersion(version string) string {
	v := strings.TrimSpace(version)
	if idx := strings.IndexAny(v, "._-"); idx > 0 {
		return v[:idx]
	}
	return v
}
