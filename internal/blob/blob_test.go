package blob

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"socialhub/internal/apperr"
)

// pngBytes is a PNG signature followed by filler; enough for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)

func newTestStore(t *testing.T) (*DiskStore, string) {
	t.Helper()
	root := t.TempDir()
	d, err := NewDiskStore(root, "http://localhost:8080/")
	require.NoError(t, err)
	return d, root
}

// TestPutGet_RoundTrip 保存した画像を取得
func TestPutGet_RoundTrip(t *testing.T) {
	req := require.New(t)
	d, root := newTestStore(t)

	handle, err := d.Put(context.Background(), Posts, "cat.PNG", bytes.NewReader(pngBytes))
	req.NoError(err)
	req.True(strings.HasSuffix(handle, ".png"), handle)

	b, err := d.Get(Posts, handle)
	req.NoError(err)
	req.Equal(filepath.Join(root, "posts", handle), b.Path)
	req.Equal("image/png", b.ContentType)
	req.Equal(int64(len(pngBytes)), b.Size)

	got, err := os.ReadFile(b.Path)
	req.NoError(err)
	req.Equal(pngBytes, got)

	req.Equal("http://localhost:8080/images/posts/"+handle, d.URL(Posts, handle))
}

// TestPut_ExtensionFromContent 拡張子なしは内容から補完
func TestPut_ExtensionFromContent(t *testing.T) {
	d, _ := newTestStore(t)
	handle, err := d.Put(context.Background(), Avatars, "noext", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(handle, ".png"), handle)
}

// TestPut_RejectsNonImage 画像以外・空ファイルを拒否
func TestPut_RejectsNonImage(t *testing.T) {
	req := require.New(t)
	d, root := newTestStore(t)

	_, err := d.Put(context.Background(), Posts, "x.png", strings.NewReader("just some text"))
	req.True(apperr.IsValidation(err), "got %v", err)

	_, err = d.Put(context.Background(), Posts, "x.png", strings.NewReader(""))
	req.True(apperr.IsValidation(err), "got %v", err)

	entries, err := os.ReadDir(filepath.Join(root, "posts"))
	req.NoError(err)
	req.Empty(entries)
}

// TestGet_NotFound 存在しない・不正なハンドル
func TestGet_NotFound(t *testing.T) {
	d, _ := newTestStore(t)
	for _, handle := range []string{"missing.png", "", "..", "../avatars/x.png", `..\x.png`} {
		_, err := d.Get(Posts, handle)
		require.True(t, apperr.IsNotFound(err), "handle %q: %v", handle, err)
	}
	_, err := d.Get(Kind("secrets"), "x.png")
	require.True(t, apperr.IsNotFound(err))
}

// TestDelete 削除は冪等
func TestDelete(t *testing.T) {
	req := require.New(t)
	d, _ := newTestStore(t)

	handle, err := d.Put(context.Background(), Avatars, "a.png", bytes.NewReader(pngBytes))
	req.NoError(err)
	req.NoError(d.Delete(Avatars, handle))
	req.NoError(d.Delete(Avatars, handle))

	_, err = d.Get(Avatars, handle)
	req.True(apperr.IsNotFound(err))
}

// TestURL_Empty 空ハンドルは空URL
func TestURL_Empty(t *testing.T) {
	d, _ := newTestStore(t)
	require.Equal(t, "", d.URL(Avatars, ""))
}
