// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"testing"
)

func TestUsersToOpnsenseRenamesAdmin(t *testing.T) {
	out := parse(t, `<opnsense><system></system></opnsense>`)
	source := parse(t, `<pfsense><system>
		<user><name>admin</name><uid>0</uid></user>
		<user><name>alice</name><uid>2000</uid></user>
	</system></pfsense>`)
	UsersToOpnsense(out, source, nil)

	sys := out.Child("system")
	users := sys.ChildList("user")
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
	if textAt(t, users[0], "name") != "root" {
		t.Error("admin should be renamed to root")
	}
	if textAt(t, users[1], "name") != "alice" {
		t.Error("named user not copied")
	}
}

func TestUsersToPfsenseSkipsExisting(t *testing.T) {
	out := parse(t, `<pfsense><system>
		<user><name>admin</name><uid>0</uid></user>
		<user><name>Alice</name><uid>2000</uid></user>
	</system></pfsense>`)
	source := parse(t, `<opnsense><system>
		<user><name>root</name><uid>0</uid></user>
		<user><name>alice</name><uid>2001</uid></user>
		<user><name>bob</name><uid>2002</uid></user>
	</system></opnsense>`)
	UsersToPfsense(out, source, nil)

	users := out.Child("system").ChildList("user")
	if len(users) != 3 {
		t.Fatalf("got %d users, want 3 (admin, Alice, bob)", len(users))
	}
	if textAt(t, users[2], "name") != "bob" {
		t.Error("bob should be appended")
	}
}

func TestSystemUsersToOpnsenseMapsCredential(t *testing.T) {
	out := parse(t, `<opnsense><system>
		<user><name>root</name><uid>0</uid><password>$2y$stale</password></user>
	</system></opnsense>`)
	source := parse(t, `<pfsense><system>
		<user><name>admin</name><uid>0</uid><bcrypt-hash>$2y$10$real</bcrypt-hash></user>
	</system></pfsense>`)
	SystemUsersToOpnsense(out, source, nil)

	users := out.Child("system").ChildList("user")
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1", len(users))
	}
	root := users[0]
	if textAt(t, root, "name") != "root" {
		t.Error("root account lost")
	}
	if textAt(t, root, "password") != "$2y$10$real" {
		t.Error("credential not carried into <password>")
	}
	if root.HasChild("bcrypt-hash") {
		t.Error("pfSense credential tag should not appear on OPNsense side")
	}
}

func TestSystemUsersToPfsenseRenamesCredentialTag(t *testing.T) {
	out := parse(t, `<pfsense><system>
		<user><name>admin</name><uid>0</uid><bcrypt-hash>$2y$stale</bcrypt-hash></user>
	</system></pfsense>`)
	source := parse(t, `<opnsense><system>
		<user><name>root</name><uid>0</uid><password>$2y$10$opn</password></user>
	</system></opnsense>`)
	SystemUsersToPfsense(out, source, nil)

	admin := out.Child("system").Child("user")
	if textAt(t, admin, "bcrypt-hash") != "$2y$10$opn" {
		t.Error("credential not written to bcrypt-hash")
	}
	if admin.HasChild("password") {
		t.Error("OPNsense credential tag should be renamed, not duplicated")
	}
}

func TestSystemUsersRenamedAdminFoundByUID(t *testing.T) {
	out := parse(t, `<opnsense><system>
		<user><name>root</name><uid>0</uid><password>old</password></user>
	</system></opnsense>`)
	source := parse(t, `<pfsense><system>
		<user><name>sysop</name><uid>0</uid><bcrypt-hash>$2y$10$renamed</bcrypt-hash></user>
	</system></pfsense>`)
	SystemUsersToOpnsense(out, source, nil)
	if textAt(t, out, "system", "user", "password") != "$2y$10$renamed" {
		t.Error("uid-0 fallback should find the renamed admin")
	}
}

func TestPreserveGUIUsersCarriesPrivsAndHash(t *testing.T) {
	out := parse(t, `<opnsense><system>
		<user><name>root</name><uid>0</uid><password>h</password></user>
	</system></opnsense>`)
	source := parse(t, `<pfsense><system>
		<user><name>admin</name><uid>0</uid><bcrypt-hash>h</bcrypt-hash></user>
		<user>
			<name>operator</name><uid>2001</uid><scope>user</scope>
			<priv>page-all</priv>
			<bcrypt-hash>$2y$10$op</bcrypt-hash>
			<shell>/bin/sh</shell>
		</user>
		<user><name>svc</name><uid>2002</uid><bcrypt-hash>x</bcrypt-hash></user>
		<user><name>off</name><uid>2003</uid><disabled>1</disabled><priv>page-all</priv></user>
	</system></pfsense>`)
	SystemUsersToOpnsense(out, source, nil)

	users := out.Child("system").ChildList("user")
	if len(users) != 2 {
		t.Fatalf("got %d users, want root + operator", len(users))
	}
	oper := users[1]
	if textAt(t, oper, "name") != "operator" {
		t.Fatalf("operator not preserved, got %s", oper.TextOr("", "name"))
	}
	if textAt(t, oper, "priv") != "page-all" {
		t.Error("privilege not carried")
	}
	if textAt(t, oper, "password") != "$2y$10$op" {
		t.Error("credential not converted to password tag")
	}
	if oper.HasChild("shell") {
		t.Error("non-portable field should be sanitized away")
	}
}

func TestPreserveGUIUsersUpdatesByUID(t *testing.T) {
	out := parse(t, `<pfsense><system>
		<user><name>admin</name><uid>0</uid><bcrypt-hash>h</bcrypt-hash></user>
		<user><name>carol</name><uid>2005</uid><priv>page-dashboard</priv></user>
	</system></pfsense>`)
	source := parse(t, `<opnsense><system>
		<user><name>root</name><uid>0</uid><password>h</password></user>
		<user><name>carol</name><uid>2005</uid><priv>page-all</priv><password>$2y$10$c</password></user>
	</system></opnsense>`)
	SystemUsersToPfsense(out, source, nil)

	carol := userByUID(out.Child("system"), "2005")
	if carol == nil {
		t.Fatal("carol missing")
	}
	privs := carol.ChildList("priv")
	if len(privs) != 1 || privs[0].Text != "page-all" {
		t.Errorf("privs should be replaced from source, got %+v", privs)
	}
	if textAt(t, carol, "bcrypt-hash") != "$2y$10$c" {
		t.Error("credential not updated in place")
	}
}
