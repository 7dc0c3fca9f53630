package lang

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/mamaar/reshape/pkg/types"
)

// Descriptor is the static capability record for one registered plugin,
// computed once at registry build time.
type Descriptor struct {
	Language     string   `json:"language"`
	Extensions   []string `json:"extensions"`
	Capabilities []string `json:"capabilities"`
}

// Has reports whether the descriptor lists the named capability.
func (d Descriptor) Has(capability string) bool {
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Registry maps file extensions and manifest names to language plugins. It
// is built once at startup and read-only afterwards; pass it as a dependency
// rather than holding it as process-global state.
type Registry struct {
	byName     map[string]Plugin
	byExt      map[string]Plugin
	byManifest map[string]Plugin
	order      []string
}

// NewRegistry builds a registry from the given plugins. Later plugins win
// extension conflicts; in practice extensions are disjoint.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{
		byName:     make(map[string]Plugin, len(plugins)),
		byExt:      make(map[string]Plugin),
		byManifest: make(map[string]Plugin),
	}
	for _, p := range plugins {
		r.byName[p.Name()] = p
		r.order = append(r.order, p.Name())
		for _, ext := range p.Extensions() {
			r.byExt[strings.ToLower(ext)] = p
		}
		for _, m := range p.ManifestNames() {
			r.byManifest[m] = p
		}
	}
	sort.Strings(r.order)
	return r
}

// ForLanguage returns the plugin registered under the canonical name.
func (r *Registry) ForLanguage(name string) (Plugin, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, types.NewResourceNotFound("language plugin", name)
	}
	return p, nil
}

// ForFile returns the plugin owning path's extension or manifest basename,
// or nil when no plugin claims it.
func (r *Registry) ForFile(path string) Plugin {
	base := filepath.Base(path)
	if p, ok := r.byManifest[base]; ok {
		return p
	}
	if p, ok := r.byExt[strings.ToLower(filepath.Ext(base))]; ok {
		return p
	}
	return nil
}

// Languages returns the registered language names in sorted order.
func (r *Registry) Languages() []string {
	return r.order
}

// Descriptors returns the capability descriptor for every registered plugin.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Describe(r.byName[name]))
	}
	return out
}

// Describe computes the capability descriptor for one plugin.
func Describe(p Plugin) Descriptor {
	d := Descriptor{Language: p.Name(), Extensions: p.Extensions()}
	if p.Imports() != nil {
		d.Capabilities = append(d.Capabilities, CapImportSupport)
	}
	if p.Workspace() != nil {
		d.Capabilities = append(d.Capabilities, CapWorkspaceSupport)
	}
	if p.Refactor() != nil {
		d.Capabilities = append(d.Capabilities, CapRefactorSupport)
	}
	return d
}

// RequireRefactor returns the plugin's RefactorSupport or a capability error
// naming the missing trait.
func RequireRefactor(p Plugin) (RefactorSupport, error) {
	if rs := p.Refactor(); rs != nil {
		return rs, nil
	}
	return nil, types.NewCapabilityUnsupported(p.Name(), CapRefactorSupport)
}

// RequireImports returns the plugin's ImportSupport or a capability error.
func RequireImports(p Plugin) (ImportSupport, error) {
	if is := p.Imports(); is != nil {
		return is, nil
	}
	return nil, types.NewCapabilityUnsupported(p.Name(), CapImportSupport)
}

// RequireWorkspace returns the plugin's WorkspaceSupport or a capability error.
func RequireWorkspace(p Plugin) (WorkspaceSupport, error) {
	if ws := p.Workspace(); ws != nil {
		return ws, nil
	}
	return nil, types.NewCapabilityUnsupported(p.Name(), CapWorkspaceSupport)
}
