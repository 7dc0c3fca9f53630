// Package oracle defines the consumed interface to the external
// code-intelligence collaborator. Plan generators consult it
// opportunistically; it is never required, and every call is bounded by a
// timeout so a hung oracle degrades to the native fallback instead of
// stalling planning.
package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/mamaar/reshape/pkg/types"
)

// ErrUnsupported is the oracle's "capability unsupported" signal: it cannot
// serve this operation for this file's language. Generators fall back.
var ErrUnsupported = errors.New("oracle: operation unsupported")

// Request asks the oracle for the edits implementing one operation.
type Request struct {
	// Operation is the verb name ("rename", "extract_function", ...).
	Operation string
	File      string
	Location  types.EditLocation
	// NewName carries the replacement name for renaming operations.
	NewName string
}

// Edit is one location-keyed replacement in the oracle's response.
type Edit struct {
	File     string
	Location types.EditLocation
	NewText  string
}

// WorkspaceEdit is the oracle's structured response.
type WorkspaceEdit struct {
	Edits []Edit
}

// Client is implemented by the transport layer that talks to the external
// analysis process.
type Client interface {
	Query(ctx context.Context, req Request) (*WorkspaceEdit, error)
}

// Query runs one oracle call under a timeout. A deadline maps to a Timeout
// error so callers can distinguish "slow" from "unsupported".
func Query(ctx context.Context, c Client, req Request, timeout time.Duration) (*WorkspaceEdit, error) {
	if c == nil {
		return nil, ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	we, err := c.Query(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, types.NewTimeout("oracle query", err)
		}
		return nil, err
	}
	return we, nil
}

// ReadFileFunc reads a file and returns its content with a checksum; the
// project handle satisfies it.
type ReadFileFunc func(path string) ([]byte, string, error)

// Normalize converts a workspace edit into plan text edits, filling in the
// original text each edit replaces so the plan is self-describing.
func Normalize(we *WorkspaceEdit, readFile ReadFileFunc) ([]types.TextEdit, error) {
	contents := make(map[string][]byte)
	edits := make([]types.TextEdit, 0, len(we.Edits))
	for _, e := range we.Edits {
		content, ok := contents[e.File]
		if !ok {
			data, _, err := readFile(e.File)
			if err != nil {
				return nil, err
			}
			contents[e.File] = data
			content = data
		}
		original, err := types.ExtractRange(content, e.Location)
		if err != nil {
			return nil, err
		}
		edits = append(edits, types.TextEdit{
			FilePath:     e.File,
			Location:     e.Location,
			OriginalText: original,
			NewText:      e.NewText,
		})
	}
	return edits, nil
}
