package app

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// analyzableExtensions are the files worth feeding to the engine:
// GraphQL documents plus the JS/TS source family.
var analyzableExtensions = map[string]bool{
	".graphql":  true,
	".gql":      true,
	".graphqls": true,
	".js":       true,
	".jsx":      true,
	".mjs":      true,
	".cjs":      true,
	".ts":       true,
	".mts":      true,
	".cts":      true,
	".tsx":      true,
}

// isTestFile matches the common JS test-suite naming conventions.
func isTestFile(base string) bool {
	name := strings.ToLower(base)
	return strings.Contains(name, ".test.") || strings.Contains(name, ".spec.")
}

// ScanDirectories enumerates analyzable files under the given roots,
// skipping excluded directories and files by base-name glob.
func (a *App) ScanDirectories(roots []string, excludeDirs, excludeFiles []string) ([]string, error) {
	var files []string

	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				if a.Config.Scan.SkipTests && base == "__tests__" {
					return filepath.SkipDir
				}
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !analyzableExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			if a.Config.Scan.SkipTests && isTestFile(base) {
				return nil
			}

			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
