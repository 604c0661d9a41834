package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidBucket 表示存储桶名称不合法。
	ErrInvalidBucket = errors.New("invalid bucket name")
	// ErrInvalidObject 表示对象名称不合法。
	ErrInvalidObject = errors.New("invalid object name")
)

var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Object 描述一个已存储的对象。
type Object struct {
	Bucket    string
	Name      string
	Path      string
	PublicURL string
	Size      int64
}

// LocalStorage 把对象写入本地目录，并通过静态路径对外提供访问。
type LocalStorage struct {
	root    string
	urlPath string
	now     func() time.Time
}

// NewLocalStorage 构造本地对象存储，root 为磁盘目录，urlPath 为公开访问前缀。
func NewLocalStorage(root, urlPath string) *LocalStorage {
	return &LocalStorage{
		root:    filepath.Clean(root),
		urlPath: "/" + strings.Trim(strings.TrimSpace(urlPath), "/"),
		now:     time.Now,
	}
}

// Root 返回存储根目录。
func (s *LocalStorage) Root() string {
	return s.root
}

// URLPath 返回公开访问前缀。
func (s *LocalStorage) URLPath() string {
	return s.urlPath
}

// ValidBucket 判断存储桶名称是否合法：小写字母数字开头，可含 - 与 _。
func ValidBucket(bucket string) bool {
	return bucketNamePattern.MatchString(bucket)
}

// Upload 以 "日期-uuid.扩展名" 命名写入对象，不做去重。
func (s *LocalStorage) Upload(ctx context.Context, bucket, originalName string, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if !ValidBucket(bucket) {
		return Object{}, Invalid("upload", bucket, ErrInvalidBucket)
	}

	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Object{}, wrap("upload", bucket, err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	name := fmt.Sprintf("%s-%s%s", s.now().Format("20060102"), uuid.New().String(), ext)
	fullPath := filepath.Join(dir, name)

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, wrap("upload", bucket, err)
	}
	size, copyErr := io.Copy(file, r)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(fullPath)
		return Object{}, wrap("upload", bucket, errors.Join(copyErr, closeErr))
	}

	return Object{
		Bucket:    bucket,
		Name:      name,
		Path:      fullPath,
		PublicURL: s.PublicURL(bucket, name),
		Size:      size,
	}, nil
}

// PublicURL 返回对象的公开访问地址。
func (s *LocalStorage) PublicURL(bucket, name string) string {
	return path.Join(s.urlPath, bucket, name)
}

// Resolve 把公开路径（相对 urlPath）还原为磁盘路径，拒绝越界访问。
func (s *LocalStorage) Resolve(relative string) (string, error) {
	if strings.Contains(relative, "..") {
		return "", ErrInvalidObject
	}
	cleaned := path.Clean("/" + strings.TrimSpace(relative))
	if cleaned == "/" {
		return "", ErrInvalidObject
	}
	full := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/")))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidObject
	}
	return full, nil
}

// OptimizedURL 在已存储对象的地址上附加缩放与质量参数；width、quality 为 0 时不附加。
func OptimizedURL(rawURL string, width, quality int) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" || (width <= 0 && quality <= 0) {
		return trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	values := parsed.Query()
	if width > 0 {
		values.Set("width", strconv.Itoa(width))
	}
	if quality > 0 {
		if quality > 100 {
			quality = 100
		}
		values.Set("quality", strconv.Itoa(quality))
	}
	parsed.RawQuery = values.Encode()
	return parsed.String()
}
