package types

// FileOpKind classifies a whole-file operation carried by a plan.
type FileOpKind string

const (
	FileCreate FileOpKind = "create"
	FileDelete FileOpKind = "delete"
	FileRename FileOpKind = "rename"
)

// FileOp is a whole-file operation: creating an extracted package's files,
// deleting a removed module, or renaming/moving a file. The execution
// engine applies these after the textual edits, under the same snapshot and
// rollback discipline.
type FileOp struct {
	Kind FileOpKind `json:"kind"`
	Path string     `json:"path"`
	// NewPath is the destination for rename operations.
	NewPath string `json:"newPath,omitempty"`
	// Content is the initial content for create operations.
	Content string `json:"content,omitempty"`
}
