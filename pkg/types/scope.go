package types

import (
	"path/filepath"
	"strings"
)

// Scope controls which reference kinds an operation is allowed to touch.
// The zero value touches nothing; callers usually start from a preset.
type Scope struct {
	UpdateCode           bool     `json:"update_code" yaml:"update_code"`
	UpdateStringLiterals bool     `json:"update_string_literals" yaml:"update_string_literals"`
	UpdateDocs           bool     `json:"update_docs" yaml:"update_docs"`
	UpdateConfigs        bool     `json:"update_configs" yaml:"update_configs"`
	UpdateComments       bool     `json:"update_comments" yaml:"update_comments"`
	// UpdateProse opts in to bare prose mentions in documentation. Off by
	// default: the false-positive rate is unacceptably high.
	UpdateProse bool `json:"update_prose" yaml:"update_prose"`
	// UpdateExactMatches opts in to exact identifier matches in config
	// values that are not path-shaped.
	UpdateExactMatches bool     `json:"update_exact_matches" yaml:"update_exact_matches"`
	ExcludeGlobs       []string `json:"exclude_globs,omitempty" yaml:"exclude_globs"`
}

// CodeScope touches code imports and qualified paths only.
func CodeScope() Scope {
	return Scope{UpdateCode: true}
}

// StandardScope is the default: code, path-like string literals, docs links,
// and config path values. Comments and prose stay untouched.
func StandardScope() Scope {
	return Scope{
		UpdateCode:           true,
		UpdateStringLiterals: true,
		UpdateDocs:           true,
		UpdateConfigs:        true,
	}
}

// CommentScope extends StandardScope with code comments.
func CommentScope() Scope {
	s := StandardScope()
	s.UpdateComments = true
	return s
}

// EverythingScope enables every reference kind, including prose mentions
// and exact config matches.
func EverythingScope() Scope {
	return Scope{
		UpdateCode:           true,
		UpdateStringLiterals: true,
		UpdateDocs:           true,
		UpdateConfigs:        true,
		UpdateComments:       true,
		UpdateProse:          true,
		UpdateExactMatches:   true,
	}
}

// ScopePreset resolves a preset name to a Scope.
func ScopePreset(name string) (Scope, bool) {
	switch name {
	case "code":
		return CodeScope(), true
	case "standard", "":
		return StandardScope(), true
	case "comments":
		return CommentScope(), true
	case "everything":
		return EverythingScope(), true
	}
	return Scope{}, false
}

// Allows reports whether the scope permits updating references of kind.
func (s Scope) Allows(kind ReferenceKind) bool {
	switch kind {
	case RefImportStatement, RefQualifiedPath:
		return s.UpdateCode
	case RefStringLiteralPath:
		return s.UpdateStringLiterals
	case RefDocLink:
		return s.UpdateDocs
	case RefConfigPathValue:
		return s.UpdateConfigs
	case RefComment:
		return s.UpdateComments
	case RefProse:
		return s.UpdateProse
	}
	return false
}

// Excludes reports whether path matches one of the scope's exclude globs.
// Patterns support ** for any number of path segments.
func (s Scope) Excludes(path string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range s.ExcludeGlobs {
		if matchGlob(filepath.ToSlash(pattern), path) {
			return true
		}
	}
	return false
}

// matchGlob extends path.Match with ** support. A ** segment matches zero or
// more whole path segments.
func matchGlob(pattern, path string) bool {
	pSegs := strings.Split(pattern, "/")
	return matchSegs(pSegs, strings.Split(path, "/"))
}

func matchSegs(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(path); i++ {
			if matchSegs(pattern[1:], path[i:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], path[0])
	if err != nil || !ok {
		return false
	}
	return matchSegs(pattern[1:], path[1:])
}
