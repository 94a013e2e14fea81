// Package workspace confines the files browser commands write (screenshots,
// PDFs) to a workspace directory and any extra directories allowed for output.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Guard enforces workspace boundary restrictions on output paths.
type Guard struct {
	workspaceDir    string   // Absolute path to workspace root
	whitelistedDirs []string // Additional allowed directories outside workspace
}

// NewGuard creates a guard rooted at workspaceDir, which must exist.
// The path is made absolute and its symlinks are evaluated.
func NewGuard(workspaceDir string) (*Guard, error) {
	if workspaceDir == "" {
		return nil, fmt.Errorf("workspace directory cannot be empty")
	}

	absPath, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace directory: %w", err)
	}

	evalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate workspace directory symlinks: %w", err)
	}

	return &Guard{workspaceDir: evalPath}, nil
}

// ValidatePath checks that path resolves inside the workspace or a
// whitelisted directory.
func (g *Guard) ValidatePath(path string) error {
	_, err := g.checked(path)
	return err
}

func (g *Guard) checked(path string) (string, error) {
	resolved, err := g.ResolvePath(path)
	if err != nil {
		return "", err
	}
	if !g.IsWithinWorkspace(resolved) {
		return "", fmt.Errorf("path '%s' is outside workspace boundaries", path)
	}
	return resolved, nil
}

// ResolvePath converts a relative or absolute path to a clean absolute path.
// Relative paths are taken from the workspace root and ~/ expands to the
// home directory. Symlinks in the existing part of the path are evaluated.
func (g *Guard) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	expanded := path
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand ~: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	absPath := filepath.Clean(expanded)
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(g.workspaceDir, absPath)
	}
	return resolveSymlinks(absPath), nil
}

// IsWithinWorkspace reports whether absPath is the workspace, a child of it,
// or inside a whitelisted directory.
func (g *Guard) IsWithinWorkspace(absPath string) bool {
	evalPath := resolveSymlinks(absPath)
	if within(evalPath, g.workspaceDir) {
		return true
	}
	for _, dir := range g.whitelistedDirs {
		if within(evalPath, dir) {
			return true
		}
	}
	return false
}

func within(path, dir string) bool {
	sep := string(filepath.Separator)
	return path == dir || strings.HasPrefix(path+sep, dir+sep)
}

// resolveSymlinks evaluates symlinks in path. For paths that do not exist yet
// the nearest existing ancestor is evaluated and the rest re-appended.
func resolveSymlinks(path string) string {
	var components []string
	current := path
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			for i := len(components) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, components[i])
			}
			return resolved
		}

		dir := filepath.Dir(current)
		if dir == current || dir == "." {
			return filepath.Clean(path)
		}
		components = append(components, filepath.Base(current))
		current = dir
	}
}

// WorkspaceDir returns the absolute path of the workspace directory.
func (g *Guard) WorkspaceDir() string {
	return g.workspaceDir
}

// MakeRelative converts an absolute path to a path relative to the workspace.
func (g *Guard) MakeRelative(absPath string) (string, error) {
	if !g.IsWithinWorkspace(absPath) {
		return "", fmt.Errorf("path '%s' is not within workspace", absPath)
	}
	rel, err := filepath.Rel(g.workspaceDir, resolveSymlinks(absPath))
	if err != nil {
		return "", fmt.Errorf("failed to make path relative: %w", err)
	}
	return rel, nil
}

// WriteFile validates path, creates its parent directories and writes data.
// It returns the absolute path written.
func (g *Guard) WriteFile(path string, data []byte) (string, error) {
	resolved, err := g.checked(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return resolved, nil
}
