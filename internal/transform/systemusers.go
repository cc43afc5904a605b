// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"fmt"
	"os"
	"strings"

	"grimm.is/pfopn/internal/xmltree"
)

// The default admin account differs between platforms in both name and
// credential storage: pfSense has "admin" with <bcrypt-hash>, OPNsense has
// "root" with <password> (still a hash despite the tag). These passes map
// the login user across, carry over GUI users, and drop the stale default.

// SystemUsersToOpnsense maps admin to root and converts credential tags.
func SystemUsersToOpnsense(out, source, _ *xmltree.Node) {
	mapLoginUser(out, source, "admin", "root", "password")
	preserveGUIUsers(out, source, "password")
	removeUserByName(out, "admin")
}

// SystemUsersToPfsense maps root to admin and converts credential tags.
func SystemUsersToPfsense(out, source, _ *xmltree.Node) {
	mapLoginUser(out, source, "root", "admin", "bcrypt-hash")
	preserveGUIUsers(out, source, "bcrypt-hash")
	removeUserByName(out, "root")
}

// mapLoginUser carries the source admin account (found by name, falling back
// to uid 0 for renamed admins) onto the target's admin candidates. When the
// target has no candidate at all, the source user is inserted under the
// target name.
func mapLoginUser(out, source *xmltree.Node, sourceName, targetName, credentialTag string) {
	srcUser := findUser(source, sourceName)
	if srcUser == nil {
		srcUser = findUserByUID(source, "0")
	}
	if srcUser == nil {
		return
	}
	credential := userCredential(srcUser)

	outSystem := out.Child("system")
	if outSystem == nil {
		return
	}

	updated := false
	for _, user := range outSystem.ChildList("user") {
		name, _ := user.TextAt("name")
		uid, _ := user.TextAt("uid")
		if strings.EqualFold(strings.TrimSpace(name), targetName) || strings.TrimSpace(uid) == "0" {
			setUserCredential(user, credentialTag, credential)
			updated = true
		}
	}
	if updated {
		return
	}

	newUser := srcUser.Clone()
	newUser.SetChildText("name", targetName)
	setUserCredential(newUser, credentialTag, credential)
	outSystem.Append(newUser)
}

func findUser(root *xmltree.Node, name string) *xmltree.Node {
	system := root.Child("system")
	if system == nil {
		return nil
	}
	for _, user := range system.ChildList("user") {
		if v, ok := user.TextAt("name"); ok && strings.EqualFold(strings.TrimSpace(v), name) {
			return user
		}
	}
	return nil
}

func findUserByUID(root *xmltree.Node, uid string) *xmltree.Node {
	system := root.Child("system")
	if system == nil {
		return nil
	}
	return userByUID(system, uid)
}

func userByUID(system *xmltree.Node, uid string) *xmltree.Node {
	for _, user := range system.ChildList("user") {
		if v, ok := user.TextAt("uid"); ok && strings.TrimSpace(v) == uid {
			return user
		}
	}
	return nil
}

// userCredential returns the first non-empty hash, preferring <password>,
// then <bcrypt-hash>, then the legacy <sha512-hash>.
func userCredential(user *xmltree.Node) string {
	for _, tag := range []string{"password", "bcrypt-hash", "sha512-hash"} {
		if v, ok := user.TextAt(tag); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// setUserCredential writes the hash under the platform's preferred tag,
// renaming an existing credential child rather than leaving two behind.
func setUserCredential(user *xmltree.Node, preferredTag, value string) {
	if value == "" {
		return
	}
	if node := user.Child(preferredTag); node != nil {
		node.Text = value
		return
	}
	for _, node := range user.Children {
		switch node.Tag {
		case "password", "bcrypt-hash", "sha512-hash":
			node.Tag = preferredTag
			node.Text = value
			return
		}
	}
	user.AppendText(preferredTag, value)
}

func removeUserByName(root *xmltree.Node, name string) {
	system := root.Child("system")
	if system == nil {
		return
	}
	system.RetainChildren(func(n *xmltree.Node) bool {
		if n.Tag != "user" {
			return true
		}
		v, ok := n.TextAt("name")
		return !(ok && strings.EqualFold(strings.TrimSpace(v), name))
	})
}

type guiUser struct {
	name string
	uid  string
	node *xmltree.Node
}

// preserveGUIUsers carries non-root web-interface users across, matching by
// uid first and then by name, updating privileges and credentials in place.
func preserveGUIUsers(out, source *xmltree.Node, credentialTag string) {
	users := collectGUIUsers(source)
	if len(users) == 0 {
		return
	}
	outSystem := out.Child("system")
	if outSystem == nil {
		return
	}
	for _, gu := range users {
		applyGUIUser(outSystem, gu, credentialTag)
	}
}

// collectGUIUsers gathers enabled, non-uid-0 users with GUI access (admins
// group membership or any page-* privilege), sanitized to the fields safe
// to transfer between platforms.
func collectGUIUsers(root *xmltree.Node) []guiUser {
	system := root.Child("system")
	if system == nil {
		return nil
	}
	var out []guiUser
	for _, user := range system.ChildList("user") {
		uid := ""
		if v, ok := user.TextAt("uid"); ok {
			uid = strings.TrimSpace(v)
		}
		if uid == "0" {
			continue
		}
		if v, ok := user.TextAt("disabled"); ok && strings.TrimSpace(v) == "1" {
			continue
		}
		if !hasGUIPrivileges(user) {
			continue
		}
		sanitized := sanitizeGUIUser(user)
		name := strings.TrimSpace(sanitized.TextOr("", "name"))
		if name == "" && uid == "" {
			continue
		}
		out = append(out, guiUser{name: name, uid: uid, node: sanitized})
	}
	return out
}

func hasGUIPrivileges(user *xmltree.Node) bool {
	if v, ok := user.TextAt("groupname"); ok && strings.EqualFold(strings.TrimSpace(v), "admins") {
		return true
	}
	for _, p := range user.ChildList("priv") {
		if strings.HasPrefix(strings.TrimSpace(p.Text), "page-") {
			return true
		}
	}
	return false
}

func sanitizeGUIUser(user *xmltree.Node) *xmltree.Node {
	allowed := map[string]bool{
		"name": true, "uid": true, "disabled": true, "descr": true,
		"scope": true, "groupname": true, "priv": true, "password": true,
		"bcrypt-hash": true, "sha512-hash": true, "authorizedkeys": true,
	}
	sanitized := xmltree.New("user")
	for k, v := range user.Attributes {
		sanitized.SetAttr(k, v)
	}
	for _, child := range user.Children {
		if allowed[child.Tag] {
			sanitized.Append(child.Clone())
		}
	}
	return sanitized
}

func applyGUIUser(outSystem *xmltree.Node, gu guiUser, credentialTag string) {
	if gu.uid != "" && gu.uid != "0" {
		if dest := userByUID(outSystem, gu.uid); dest != nil {
			if v, _ := dest.TextAt("name"); strings.TrimSpace(v) != strings.TrimSpace(gu.name) {
				fmt.Fprintf(os.Stderr, "warning: UID collision for GUI user %s (uid %s); falling back to name match\n", gu.name, gu.uid)
			}
			updateGUIUser(dest, gu, credentialTag)
			return
		}
	}
	for _, user := range outSystem.ChildList("user") {
		if v, ok := user.TextAt("name"); ok && strings.TrimSpace(v) == strings.TrimSpace(gu.name) {
			updateGUIUser(user, gu, credentialTag)
			return
		}
	}
	newUser := gu.node.Clone()
	setUserCredential(newUser, credentialTag, userCredential(gu.node))
	outSystem.Append(newUser)
}

func updateGUIUser(dest *xmltree.Node, gu guiUser, credentialTag string) {
	dest.RemoveChildren("priv")
	for _, p := range gu.node.ChildList("priv") {
		dest.Append(p.Clone())
	}
	for _, tag := range []string{"disabled", "descr", "scope", "groupname", "authorizedkeys"} {
		if v, ok := gu.node.TextAt(tag); ok {
			if s := strings.TrimSpace(v); s != "" {
				dest.SetChildText(tag, s)
			}
		}
	}
	setUserCredential(dest, credentialTag, userCredential(gu.node))
}
