// Package blob stores uploaded images on local disk.
//
// Files live under <root>/<kind>/<handle>, where handle is a random UUID plus
// the extension of the uploaded file. Handles never contain path separators.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"socialhub/internal/apperr"
)

// Kind selects the directory a blob is stored in.
type Kind string

const (
	Avatars Kind = "avatars"
	Posts   Kind = "posts"
)

// sniffLen is how many leading bytes are inspected to detect the content type.
const sniffLen = 3072

// Blob describes a stored file.
type Blob struct {
	Path        string
	ContentType string
	Size        int64
}

// DiskStore keeps blobs in a directory tree.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates the kind directories under root.
func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	for _, k := range []Kind{Avatars, Posts} {
		if err := os.MkdirAll(filepath.Join(root, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("blob: create %s dir: %w", k, err)
		}
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes r as a new blob and returns its handle. Content that does not
// sniff as an image is rejected with a ValidationError.
func (d *DiskStore) Put(ctx context.Context, kind Kind, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !kind.valid() {
		return "", apperr.ValidationError{Op: "blob.put", Msg: fmt.Sprintf("unknown kind %q", kind)}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("blob.put: read: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", apperr.ValidationError{Op: "blob.put", Msg: "empty file"}
	}

	mtype := mimetype.Detect(head)
	if !isImage(mtype) {
		return "", apperr.ValidationError{Op: "blob.put", Msg: "file is not an image: " + mtype.String()}
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" || len(ext) > 8 {
		ext = mtype.Extension()
	}
	handle := uuid.NewString() + ext

	dir := filepath.Join(d.root, string(kind))
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("blob.put: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("blob.put: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("blob.put: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, handle)); err != nil {
		return "", fmt.Errorf("blob.put: rename: %w", err)
	}
	return handle, nil
}

// Get resolves a handle to its file.
func (d *DiskStore) Get(kind Kind, handle string) (Blob, error) {
	path, ok := d.path(kind, handle)
	if !ok {
		return Blob{}, apperr.NotFoundError{Op: "blob.get", Resource: "file"}
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return Blob{}, apperr.NotFoundError{Op: "blob.get", Resource: "file"}
	}
	if err != nil {
		return Blob{}, fmt.Errorf("blob.get: %w", err)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Blob{}, fmt.Errorf("blob.get: detect: %w", err)
	}
	return Blob{Path: path, ContentType: mtype.String(), Size: info.Size()}, nil
}

// Delete removes a blob. A missing blob is not an error.
func (d *DiskStore) Delete(kind Kind, handle string) error {
	path, ok := d.path(kind, handle)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob.delete: %w", err)
	}
	return nil
}

// URL returns the public URL of a handle, or "" for an empty handle.
func (d *DiskStore) URL(kind Kind, handle string) string {
	if handle == "" {
		return ""
	}
	return d.baseURL + "/images/" + string(kind) + "/" + handle
}

func (d *DiskStore) path(kind Kind, handle string) (string, bool) {
	if !kind.valid() || handle == "" || handle == "." || handle == ".." ||
		strings.ContainsAny(handle, `/\`) || handle != filepath.Base(handle) {
		return "", false
	}
	return filepath.Join(d.root, string(kind), handle), true
}

func (k Kind) valid() bool { return k == Avatars || k == Posts }

func isImage(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}
