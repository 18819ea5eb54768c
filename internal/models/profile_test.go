package models

import "testing"

func TestNormalizeRole(t *testing.T) {
	cases := map[string]Role{
		"employee":  RoleEmployee,
		"ceo":       RoleCEO,
		"developer": RoleDeveloper,
		"admin":     RoleEmployee,
		"CEO":       RoleEmployee,
		"":          RoleEmployee,
		"root":      RoleEmployee,
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeRoleIdempotent(t *testing.T) {
	for _, in := range []string{"employee", "ceo", "developer", "garbage"} {
		once := NormalizeRole(in)
		twice := NormalizeRole(string(once))
		if once != twice {
			t.Fatalf("normalization not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestDefaultDepartment(t *testing.T) {
	if got := DefaultDepartment(RoleDeveloper); got != "IT" {
		t.Fatalf("developer department = %q, want IT", got)
	}
	if got := DefaultDepartment(RoleEmployee); got != "General" {
		t.Fatalf("employee department = %q, want General", got)
	}
	if got := DefaultDepartment(RoleCEO); got != "General" {
		t.Fatalf("ceo department = %q, want General", got)
	}
}
