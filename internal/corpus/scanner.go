// Package corpus finds documents on disk for bulk indexing.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"sermon-rag/internal/extract"
)

// File is a document found while scanning a corpus directory.
type File struct {
	RelPath string // relative to the scan root, slash separated
	AbsPath string
	Size    int64
}

// Scan walks root and returns every file extract can handle, sorted by path.
// Hidden files and directories are skipped.
func Scan(ctx context.Context, root string) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !extract.Supported(path) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		files = append(files, File{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
			Size:    fi.Size(),
		})
		return nil
	})
	if err != nil {
		return files, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})
	return files, nil
}

// DocumentID derives a stable document id for a corpus file, so indexing the
// same tree again replaces the earlier chunks instead of duplicating them.
func DocumentID(ownerID int64, relPath string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file:"+filepath.ToSlash(relPath)))
	return fmt.Sprintf("doc_%d_%s", ownerID, id)
}
