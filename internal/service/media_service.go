package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/imaging"
	"github.com/visualizer/internal/store"
	"gorm.io/gorm"
)

// MaxUploadBytes 限制单个上传文件的大小。
const MaxUploadBytes int64 = 200 << 20

// ErrUnsupportedMedia 表示上传的文件既不是图片也不是视频。
var ErrUnsupportedMedia = errors.New("only image or video files are allowed")

// UploadInput 描述一次上传。Bucket 为空时使用最近一次使用的存储桶。
type UploadInput struct {
	Bucket      string
	Filename    string
	ContentType string
	Body        io.Reader
}

// MediaService 把文件写入存储桶并登记媒体记录；替换图片时不会删除旧文件。
type MediaService struct {
	table    *store.Table[db.MediaAsset]
	storage  *store.LocalStorage
	settings *SystemSettingService
}

// NewMediaService 构造 MediaService。
func NewMediaService(gdb *gorm.DB, storage *store.LocalStorage, settings *SystemSettingService) *MediaService {
	return &MediaService{
		table:    store.NewTable[db.MediaAsset](gdb, "media_assets"),
		storage:  storage,
		settings: settings,
	}
}

// Upload 保存文件并返回可公开访问的媒体记录。
func (s *MediaService) Upload(ctx context.Context, input UploadInput) (db.MediaAsset, error) {
	data, err := imaging.ReadAllLimited(input.Body, MaxUploadBytes)
	if err != nil {
		return db.MediaAsset{}, store.Invalid("upload", "media_assets", err)
	}

	mimeType := mediaType(input.ContentType, data)
	if !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(mimeType, "video/") {
		return db.MediaAsset{}, store.Invalid("upload", "media_assets", ErrUnsupportedMedia)
	}

	bucket := strings.TrimSpace(input.Bucket)
	if bucket == "" && s.settings != nil {
		settings, err := s.settings.GetSettings(ctx)
		if err != nil {
			return db.MediaAsset{}, fmt.Errorf("upload media: %w", err)
		}
		bucket = settings.UploadBucket
	}

	object, err := s.storage.Upload(ctx, bucket, input.Filename, bytes.NewReader(data))
	if err != nil {
		return db.MediaAsset{}, fmt.Errorf("upload media: %w", err)
	}

	asset := db.MediaAsset{
		Bucket:   object.Bucket,
		Name:     object.Name,
		URL:      object.PublicURL,
		MimeType: mimeType,
		Size:     object.Size,
	}
	if strings.HasPrefix(mimeType, "image/") {
		if info, err := imaging.Inspect(data); err == nil {
			asset.Width = info.Width
			asset.Height = info.Height
			asset.TakenAt = info.TakenAt
		}
	}
	if err := s.table.Insert(ctx, &asset); err != nil {
		return db.MediaAsset{}, fmt.Errorf("upload media: %w", err)
	}

	if s.settings != nil {
		if err := s.settings.RememberBucket(ctx, bucket); err != nil {
			return asset, fmt.Errorf("remember bucket: %w", err)
		}
	}
	return asset, nil
}

// List 返回最近上传的媒体。
func (s *MediaService) List(ctx context.Context, limit int) ([]db.MediaAsset, error) {
	opts := []store.Option{store.OrderBy("created_at", false)}
	if limit > 0 {
		opts = append(opts, store.Limit(limit))
	}
	return s.table.Select(ctx, opts...)
}

func mediaType(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if idx := strings.Index(declared, ";"); idx >= 0 {
		declared = strings.TrimSpace(declared[:idx])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}
