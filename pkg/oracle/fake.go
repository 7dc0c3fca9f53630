package oracle

import (
	"context"
	"sync"
)

// Fake is an in-memory oracle for tests. Responses are keyed by operation
// name; unset operations report ErrUnsupported like a real oracle would.
type Fake struct {
	mu        sync.Mutex
	responses map[string]*WorkspaceEdit
	err       error
	delay     func(ctx context.Context) error
	calls     []Request
}

func NewFake() *Fake {
	return &Fake{responses: make(map[string]*WorkspaceEdit)}
}

// Respond registers the workspace edit returned for an operation.
func (f *Fake) Respond(operation string, we *WorkspaceEdit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[operation] = we
}

// Fail makes every query return err.
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Hang makes every query block until its context is done, simulating an
// unresponsive oracle.
func (f *Fake) Hang() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
}

// Calls returns the requests received so far.
func (f *Fake) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}

func (f *Fake) Query(ctx context.Context, req Request) (*WorkspaceEdit, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	err := f.err
	delay := f.delay
	we, ok := f.responses[req.Operation]
	f.mu.Unlock()

	if delay != nil {
		if err := delay(ctx); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnsupported
	}
	return we, nil
}
