package workspace

import (
	"fmt"
	"path/filepath"
)

// AddWhitelist allows output inside dir even though it lies outside the
// workspace, e.g. a shared artifacts directory. dir does not have to exist yet.
func (g *Guard) AddWhitelist(dir string) error {
	if dir == "" {
		return fmt.Errorf("whitelist directory cannot be empty")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve whitelist directory: %w", err)
	}
	evalPath := resolveSymlinks(absPath)

	for _, existing := range g.whitelistedDirs {
		if existing == evalPath {
			return nil
		}
	}
	g.whitelistedDirs = append(g.whitelistedDirs, evalPath)
	return nil
}

// Whitelist returns the whitelisted directories.
func (g *Guard) Whitelist() []string {
	return append([]string(nil), g.whitelistedDirs...)
}

// ClearWhitelist removes all whitelisted directories.
func (g *Guard) ClearWhitelist() {
	g.whitelistedDirs = nil
}
