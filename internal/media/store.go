// Package media 帖子图片上传存储
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// 仅接受位图格式，SVG 可携带脚本
var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var (
	ErrNotImage = errors.New("upload a valid image")
	ErrTooLarge = errors.New("image is too large")
)

// Store 保存上传文件，返回相对媒体根目录的路径
type Store interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// FSStore 写入 afero 文件系统的 posts/ 目录
type FSStore struct {
	fs       afero.Fs
	maxBytes int64
}

// NewFSStore maxBytes <= 0 时不限制大小
func NewFSStore(fs afero.Fs, dir string, maxBytes int64) *FSStore {
	return &FSStore{fs: afero.NewBasePathFs(fs, dir), maxBytes: maxBytes}
}

// NewLocalStore 本地磁盘存储
func NewLocalStore(dir string, maxBytes int64) *FSStore {
	return NewFSStore(afero.NewOsFs(), dir, maxBytes)
}

func (s *FSStore) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if err := s.fs.MkdirAll("posts", 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	name := path.Join("posts", uuid.New().String()+mt.Extension())
	dst, err := s.fs.Create(name)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(dst, contextReader{ctx: ctx, r: src}); err != nil {
		dst.Close()
		_ = s.fs.Remove(name)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return name, nil
}

// HTTP 只读文件服务
func (s *FSStore) HTTP() http.FileSystem {
	return afero.NewHttpFs(afero.NewReadOnlyFs(s.fs))
}

// contextReader ctx 结束后停止复制
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
