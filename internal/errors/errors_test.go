// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errors

import (
	"testing"
)

func TestError(t *testing.T) {
	err := New(KindValidation, "invalid input")
	if err.Error() != "invalid input" {
		t.Errorf("expected 'invalid input', got '%s'", err.Error())
	}

	wrapped := Wrap(err, KindInternal, "failed to validate")
	if wrapped.Error() != "failed to validate: invalid input" {
		t.Errorf("expected 'failed to validate: invalid input', got '%s'", wrapped.Error())
	}
}

func TestGetKind(t *testing.T) {
	err := New(KindRefused, "output would overwrite input")
	if GetKind(err) != KindRefused {
		t.Errorf("expected KindRefused, got %v", GetKind(err))
	}

	plain := Errorf(KindValidation, "bad value %q", "x")
	if GetKind(plain) != KindValidation {
		t.Errorf("expected KindValidation, got %v", GetKind(plain))
	}

	if GetKind(Unwrap(Wrap(plain, KindInternal, "wrapped"))) != KindValidation {
		t.Error("unwrap should surface the inner kind")
	}
}

func TestAttr(t *testing.T) {
	err := Attr(New(KindNotFound, "missing baseline"), "path", "/tmp/base.xml")
	var e *Error
	if !As(err, &e) {
		t.Fatal("expected *Error")
	}
	if e.Attributes["path"] != "/tmp/base.xml" {
		t.Errorf("attribute not attached: %v", e.Attributes)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindInternal:   "internal",
		KindValidation: "validation",
		KindNotFound:   "not_found",
		KindConflict:   "conflict",
		KindRefused:    "refused",
		KindUnknown:    "unknown",
	}
	for kind, want := range cases {
		if kind.String() != want {
			t.Errorf("Kind(%d).String() = %s, want %s", kind, kind.String(), want)
		}
	}
}
