package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Scan returns the input artifacts of a repository folder: every regular file
// whose name matches "*.*", except "__init__.py", sorted by name.
func Scan(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("repository folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository folder %s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.*"))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, m := range matches {
		if filepath.Base(m) == "__init__.py" {
			continue
		}
		fi, err := os.Stat(m)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}
