// Package project provides the project handle passed to plan generators and
// the reference updater: the root directory, file enumeration with ignore
// rules, and checksummed reads.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

// Ignored directory names, in addition to anything hidden.
var ignoredDirs = map[string]struct{}{
	"vendor":       {},
	"node_modules": {},
	"__pycache__":  {},
	"target":       {},
	"dist":         {},
}

// Project is the handle for one project root. It holds no mutable state
// beyond its configuration; enumeration and reads always reflect current
// disk content.
type Project struct {
	root     string
	registry *lang.Registry
	config   Config
	logger   *slog.Logger
}

// Open resolves root to an absolute path and loads the project config file
// if one exists.
func Open(root string, registry *lang.Registry, logger *slog.Logger) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, types.NewResourceNotFound("project root", root)
	}
	if !info.IsDir() {
		return nil, types.NewInvalidRequest("project root is not a directory: %s", root)
	}
	cfg, err := LoadConfig(abs)
	if err != nil {
		return nil, err
	}
	return &Project{root: abs, registry: registry, config: cfg, logger: logger}, nil
}

func (p *Project) Root() string             { return p.root }
func (p *Project) Registry() *lang.Registry { return p.registry }
func (p *Project) Config() Config           { return p.config }

// Abs resolves a project-relative path against the root. Absolute paths
// pass through unchanged.
func (p *Project) Abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.root, path)
}

// Rel returns path relative to the project root when possible.
func (p *Project) Rel(path string) string {
	rel, err := filepath.Rel(p.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// Files enumerates every regular file under the root, skipping hidden and
// generated directories plus the configured exclude globs. Paths come back
// absolute, sorted by the walk order.
func (p *Project) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == p.root {
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, skip := ignoredDirs[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		// .gitignore is scanned for config values despite being hidden.
		if strings.HasPrefix(name, ".") && name != ".gitignore" {
			return nil
		}
		if p.config.Scope.Excludes(p.Rel(path)) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate project files: %w", err)
	}
	return files, nil
}

// ReadFile reads a project file and returns its content with the SHA-256
// hex checksum of the bytes read.
func (p *Project) ReadFile(path string) ([]byte, string, error) {
	abs := p.Abs(path)
	content, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", types.NewResourceNotFound("file", path)
		}
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, Checksum(content), nil
}

// Checksum returns the SHA-256 hex digest of content.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ChecksumFile reads and checksums the file at path.
func ChecksumFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Checksum(content), nil
}

// PluginFor returns the plugin owning path, or a capability-shaped nil when
// no registered language claims it.
func (p *Project) PluginFor(path string) lang.Plugin {
	return p.registry.ForFile(path)
}
