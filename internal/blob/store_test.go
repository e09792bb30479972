package blob

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndServeURL(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads", 1024)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "report.pdf", strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))
}

func TestSaveRejectsDeclaredOversize(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads", 10)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "big.bin", strings.NewReader("irrelevant"), 11)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveRejectsActualOversize(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/uploads", 4)
	require.NoError(t, err)

	// declared size lies; the copy must still enforce the cap
	_, err = store.Save(context.Background(), "big.bin", strings.NewReader("123456789"), 3)
	require.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file must not survive a rejected upload")
}
