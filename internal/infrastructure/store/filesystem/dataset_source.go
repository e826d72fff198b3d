package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DatasetSource serves dataset files from a single directory. Names are
// flattened to their base component so a request can never escape the
// directory.
type DatasetSource struct {
	baseDir string
}

func NewDatasetSource(baseDir string) (*DatasetSource, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("dataset dir is empty")
	}

	info, err := os.Stat(baseDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("create dataset dir %s: %w", baseDir, err)
		}
		return &DatasetSource{baseDir: baseDir}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat dataset dir %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset path %s is not a directory", baseDir)
	}

	return &DatasetSource{baseDir: baseDir}, nil
}

func (s *DatasetSource) Open(name string) (io.ReadCloser, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("dataset name is empty")
	}

	f, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", name, err)
	}
	return f, nil
}
