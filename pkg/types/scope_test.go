package types

import "testing"

func TestScopeAllows(t *testing.T) {
	std := StandardScope()
	if !std.Allows(RefImportStatement) {
		t.Error("standard scope should allow imports")
	}
	if !std.Allows(RefStringLiteralPath) {
		t.Error("standard scope should allow string literal paths")
	}
	if std.Allows(RefComment) {
		t.Error("standard scope should not allow comments")
	}
	if std.Allows(RefProse) {
		t.Error("standard scope should not allow prose")
	}

	if !EverythingScope().Allows(RefProse) {
		t.Error("everything scope should allow prose")
	}
	if CodeScope().Allows(RefDocLink) {
		t.Error("code scope should not allow doc links")
	}
}

func TestScopePreset(t *testing.T) {
	for _, name := range []string{"code", "standard", "comments", "everything", ""} {
		if _, ok := ScopePreset(name); !ok {
			t.Errorf("preset %q not resolved", name)
		}
	}
	if _, ok := ScopePreset("bogus"); ok {
		t.Error("unknown preset should not resolve")
	}
}

func TestScopeExcludes(t *testing.T) {
	s := Scope{ExcludeGlobs: []string{"vendor/**", "**/*.min.js", "build/*"}}

	cases := []struct {
		path string
		want bool
	}{
		{"vendor/lib/x.go", true},
		{"vendor/x.go", true},
		{"src/app.min.js", true},
		{"app.min.js", true},
		{"build/out.txt", true},
		{"build/sub/out.txt", false},
		{"src/app.js", false},
		{"vendored/x.go", false},
	}
	for _, tc := range cases {
		if got := s.Excludes(tc.path); got != tc.want {
			t.Errorf("Excludes(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
