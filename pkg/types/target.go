package types

// TargetKind discriminates what a plan-producing operation is anchored on.
type TargetKind string

const (
	TargetFile             TargetKind = "file"
	TargetDirectory        TargetKind = "directory"
	TargetSymbolAtPosition TargetKind = "symbol-at-position"
)

// Target identifies the subject of a refactoring request.
type Target struct {
	Kind TargetKind `json:"kind"`
	// Path is the file or directory path for file/directory targets, and the
	// file containing the symbol for symbol-at-position targets.
	Path string `json:"path"`
	// Symbol is the symbol name, when known by name rather than position.
	Symbol string `json:"symbol,omitempty"`
	// Line and Col locate the symbol for symbol-at-position targets
	// (zero-based).
	Line int `json:"line,omitempty"`
	Col  int `json:"col,omitempty"`
}

// Validate checks the target is well-formed for its kind.
func (t Target) Validate() error {
	switch t.Kind {
	case TargetFile, TargetDirectory:
		if t.Path == "" {
			return NewInvalidRequest("%s target requires a path", t.Kind)
		}
	case TargetSymbolAtPosition:
		if t.Path == "" {
			return NewInvalidRequest("symbol target requires the containing file path")
		}
		if t.Symbol == "" && t.Line == 0 && t.Col == 0 {
			return NewInvalidRequest("symbol target requires a symbol name or a position")
		}
	default:
		return NewInvalidRequest("unknown target kind %q", t.Kind)
	}
	return nil
}
