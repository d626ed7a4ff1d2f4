// Package gcov discovers gcov coverage-data artifacts.
package gcov

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DataSuffix matches the counter files instrumented test binaries write.
const DataSuffix = ".gcda"

// Scanner finds coverage-data files under a build tree.
type Scanner struct{}

// Scan walks buildDir recursively and returns every .gcda file found, in
// walk order. Unreadable subtrees abort the scan with an error.
func (Scanner) Scan(buildDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(buildDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), DataSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
