// Package media stores post images.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("uploaded file is not an image")
	ErrTooLarge = errors.New("uploaded file is too large")
)

type Upload struct {
	Name string
	Body io.Reader
}

type Storage interface {
	// Save 返回保存后的引用（相对路径），用于 Post.Image
	Save(ctx context.Context, postID uint64, up Upload) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// LocalStorage 本地磁盘存储，文件名 posts/<postID>-<uuid><ext>
type LocalStorage struct {
	Root      string
	URLPrefix string
	MaxBytes  int64
}

func NewLocalStorage(root, urlPrefix string, maxBytes int64) *LocalStorage {
	return &LocalStorage{Root: root, URLPrefix: urlPrefix, MaxBytes: maxBytes}
}

func (s *LocalStorage) Save(ctx context.Context, postID uint64, up Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r := up.Body
	if s.MaxBytes > 0 {
		r = io.LimitReader(up.Body, s.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}

	ref := path.Join("posts", fmt.Sprintf("%d-%s%s", postID, uuid.NewString(), mt.Extension()))
	full := filepath.Join(s.Root, filepath.FromSlash(ref))
	if err = os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return ref, nil
}

// Delete 文件不存在时视为成功
func (s *LocalStorage) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	clean := path.Clean("/" + ref)[1:]
	if clean == "" {
		return fmt.Errorf("invalid media ref %q", ref)
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return strings.TrimSuffix(s.URLPrefix, "/") + "/" + ref
}

var _ Storage = (*LocalStorage)(nil)
