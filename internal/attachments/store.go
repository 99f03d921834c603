// Package attachments is the opaque content store for message files.
// The ledger only ever sees the returned path and type tag.
package attachments

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"deskchat/internal/models"
	"deskchat/internal/observability"
)

// ErrTooLarge is returned before any copy when the source file exceeds
// the configured ceiling.
var ErrTooLarge = errors.New("attachment exceeds size limit")

// StoredFile is the stable reference returned by Put.
type StoredFile struct {
	Path string
	Type string
	Size int64
}

// Store copies files into a dedicated attachment directory using a
// timestamp-prefixed naming scheme.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore constructs a Store rooted at dir with the given size ceiling.
func NewStore(dir string, maxBytes int64) *Store {
	return &Store{dir: dir, maxBytes: maxBytes}
}

// Put copies the source file into the attachment directory and returns
// its stable reference. If the subsequent ledger write fails, the caller
// is responsible for Remove-ing the copy.
func (s *Store) Put(sourcePath string) (StoredFile, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return StoredFile{}, fmt.Errorf("stat attachment: %w", err)
	}
	if info.Size() > s.maxBytes {
		return StoredFile{}, ErrTooLarge
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("create attachment directory: %w", err)
	}

	name := fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(sourcePath))
	destPath := filepath.Join(s.dir, name)

	if err := copyFile(sourcePath, destPath); err != nil {
		return StoredFile{}, fmt.Errorf("copy attachment: %w", err)
	}

	observability.IncAttachmentStored()
	return StoredFile{
		Path: destPath,
		Type: Classify(sourcePath),
		Size: info.Size(),
	}, nil
}

// Remove deletes a stored file. Used only for cleanup when the ledger
// write after a Put fails; committed attachments are never removed.
func (s *Store) Remove(path string) error {
	return os.Remove(path)
}

// Classify maps a filename to its coarse attachment type tag.
func Classify(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp":
		return models.AttachmentImage
	case ".mp4", ".avi", ".mov", ".wmv":
		return models.AttachmentVideo
	default:
		return models.AttachmentDocument
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
