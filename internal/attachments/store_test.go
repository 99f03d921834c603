package attachments

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskchat/internal/models"
)

func writeSource(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestPutCopiesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "attachments")
	store := NewStore(dir, 1<<20)

	content := []byte("fake png bytes")
	src := writeSource(t, "cat.png", content)

	stored, err := store.Put(src)
	require.NoError(t, err)
	assert.Equal(t, models.AttachmentImage, stored.Type)
	assert.Equal(t, int64(len(content)), stored.Size)

	copied, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, content, copied)

	// the source file stays where it was
	_, err = os.Stat(src)
	require.NoError(t, err)
}

func TestPutNamesWithTimestampPrefix(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "attachments")
	store := NewStore(dir, 1<<20)

	src := writeSource(t, "report.pdf", []byte("pdf"))
	stored, err := store.Put(src)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(stored.Path))
	assert.Regexp(t, regexp.MustCompile(`^\d+_report\.pdf$`), filepath.Base(stored.Path))
}

func TestPutRejectsOversizeBeforeCopy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "attachments")
	store := NewStore(dir, 4)

	src := writeSource(t, "big.bin", []byte("more than four bytes"))
	_, err := store.Put(src)
	require.ErrorIs(t, err, ErrTooLarge)

	// nothing was written, not even the directory
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestPutMissingSource(t *testing.T) {
	store := NewStore(t.TempDir(), 1<<20)
	_, err := store.Put(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "attachments")
	store := NewStore(dir, 1<<20)

	src := writeSource(t, "note.txt", []byte("note"))
	stored, err := store.Put(src)
	require.NoError(t, err)

	require.NoError(t, store.Remove(stored.Path))
	_, err = os.Stat(stored.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"cat.png":      models.AttachmentImage,
		"photo.JPG":    models.AttachmentImage,
		"anim.gif":     models.AttachmentImage,
		"clip.mp4":     models.AttachmentVideo,
		"holiday.MOV":  models.AttachmentVideo,
		"report.pdf":   models.AttachmentDocument,
		"archive.zip":  models.AttachmentDocument,
		"noextension":  models.AttachmentDocument,
		"weird.tar.gz": models.AttachmentDocument,
	}
	for name, want := range cases {
		assert.Equal(t, want, Classify(name), name)
	}
}
