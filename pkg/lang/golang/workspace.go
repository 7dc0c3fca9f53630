package golang

import (
	"fmt"

	"golang.org/x/mod/modfile"
)

// workspaceSupport mutates go.mod and go.work files through x/mod, which
// preserves comments and formatting on write-back.
type workspaceSupport Plugin

// AddPathDependency adds a require plus a replace directive pointing at a
// local directory, the go.mod idiom for a path dependency.
func (s *workspaceSupport) AddPathDependency(manifest []byte, name, relPath string) ([]byte, error) {
	f, err := modfile.Parse("go.mod", manifest, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if err := f.AddRequire(name, "v0.0.0"); err != nil {
		return nil, fmt.Errorf("failed to add require %s: %w", name, err)
	}
	if err := f.AddReplace(name, "", relPath, ""); err != nil {
		return nil, fmt.Errorf("failed to add replace %s: %w", name, err)
	}
	f.Cleanup()
	return f.Format()
}

func (s *workspaceSupport) RemovePathDependency(manifest []byte, name string) ([]byte, error) {
	f, err := modfile.Parse("go.mod", manifest, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if err := f.DropRequire(name); err != nil {
		return nil, fmt.Errorf("failed to drop require %s: %w", name, err)
	}
	if err := f.DropReplace(name, ""); err != nil {
		return nil, fmt.Errorf("failed to drop replace %s: %w", name, err)
	}
	f.Cleanup()
	return f.Format()
}

// Members returns the use directives of a go.work file.
func (s *workspaceSupport) Members(manifest []byte) ([]string, error) {
	f, err := modfile.ParseWork("go.work", manifest, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.work: %w", err)
	}
	members := make([]string, 0, len(f.Use))
	for _, u := range f.Use {
		members = append(members, u.Path)
	}
	return members, nil
}

func (s *workspaceSupport) SetMembers(manifest []byte, members []string) ([]byte, error) {
	f, err := modfile.ParseWork("go.work", manifest, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.work: %w", err)
	}
	for _, u := range f.Use {
		if err := f.DropUse(u.Path); err != nil {
			return nil, fmt.Errorf("failed to drop use %s: %w", u.Path, err)
		}
	}
	for _, m := range members {
		if err := f.AddUse(m, ""); err != nil {
			return nil, fmt.Errorf("failed to add use %s: %w", m, err)
		}
	}
	f.Cleanup()
	return modfile.Format(f.Syntax), nil
}
