package labordash

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileFetcher loads a dataset from a local CSV or JSON file. Relative paths
// resolve against the data directory first, then by base name against the
// fallback directory.
type FileFetcher struct {
	BaseFetcher
	path        string
	dataDir     string
	fallbackDir string
	format      Format
}

func NewFileFetcher(src Source, dataDir, fallbackDir string) *FileFetcher {
	return &FileFetcher{
		BaseFetcher: NewBaseFetcher(src.Name, src.Priority),
		path:        src.Location,
		dataDir:     dataDir,
		fallbackDir: fallbackDir,
		format:      src.Format,
	}
}

// Resolve returns the first existing candidate path, or the primary
// candidate when none exists.
func (f *FileFetcher) Resolve() string {
	if filepath.IsAbs(f.path) {
		return f.path
	}

	primary := filepath.Join(f.dataDir, f.path)
	if fileExists(primary) {
		return primary
	}

	if f.fallbackDir != "" {
		alt := filepath.Join(f.fallbackDir, filepath.Base(f.path))
		if fileExists(alt) {
			return alt
		}
	}

	return primary
}

func (f *FileFetcher) Fetch(ctx context.Context, desc *Descriptor) (*RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := f.Resolve()
	body, err := os.ReadFile(path)
	if err != nil {
		reason := "unreadable file"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "file not found"
		}
		return nil, NewUnavailableError(desc.Name, f.Name(), reason, err)
	}

	raw, err := Decode(f.format, body)
	if err != nil {
		return nil, NewUnavailableError(desc.Name, f.Name(), "malformed file", err)
	}
	return raw, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
