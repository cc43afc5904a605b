// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// UsersToOpnsense copies all named users from the source system section,
// renaming the default admin account (admin on pfSense, root on OPNsense).
func UsersToOpnsense(out, source, _ *xmltree.Node) {
	transferUsers(out, source, "admin", "root")
}

// UsersToPfsense is the reverse mapping (root becomes admin).
func UsersToPfsense(out, source, _ *xmltree.Node) {
	transferUsers(out, source, "root", "admin")
}

// transferUsers copies users wholesale: entries whose name already exists in
// the output are skipped, and the default admin name is remapped. It never
// rewrites credentials or privileges on existing users; MapLoginUser and
// PreserveGUIUsers handle that deeper merge.
func transferUsers(out, source *xmltree.Node, fromDefault, toDefault string) {
	srcSystem := source.Child("system")
	if srcSystem == nil {
		return
	}
	var srcUsers []*xmltree.Node
	for _, u := range srcSystem.ChildList("user") {
		if _, ok := u.TextAt("name"); ok {
			srcUsers = append(srcUsers, u.Clone())
		}
	}
	if len(srcUsers) == 0 {
		return
	}
	outSystem := out.Child("system")
	if outSystem == nil {
		return
	}

	existing := func(name string) bool {
		for _, u := range outSystem.ChildList("user") {
			if n, ok := u.TextAt("name"); ok && strings.EqualFold(n, name) {
				return true
			}
		}
		return false
	}

	for _, user := range srcUsers {
		name, _ := user.TextAt("name")
		if strings.EqualFold(name, fromDefault) {
			if !existing(toDefault) {
				user.SetChildText("name", toDefault)
				outSystem.Append(user)
			}
			continue
		}
		if existing(name) {
			continue
		}
		outSystem.Append(user)
	}
}
