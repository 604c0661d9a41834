package handler

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/visualizer/internal/service"
	"go.uber.org/zap"
)

const uploadCacheControl = "public, max-age=31536000, immutable"

// UploadMedia 处理后台图片与视频上传，返回可直接写入记录的公开地址。
func (a *API) UploadMedia(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadBytes+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "no file was uploaded")
		return
	}
	if file.Size > service.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	defer src.Close()

	asset, err := a.services.Media.Upload(c.Request.Context(), service.UploadInput{
		Bucket:      c.PostForm("bucket"),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Body:        src,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}

	a.logger.Info("media uploaded",
		zap.String("bucket", asset.Bucket),
		zap.String("name", asset.Name),
		zap.Int64("size", asset.Size),
	)
	c.JSON(http.StatusCreated, gin.H{
		"url":   asset.URL,
		"asset": asset,
	})
}

// ListMedia 返回最近上传的媒体记录。
func (a *API) ListMedia(c *gin.Context) {
	rows, err := a.services.Media.List(c.Request.Context(), parsePositiveInt(c.Query("limit"), 0))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": rows})
}

// ServeUpload 读取已上传的对象；图片带 ?width=&quality= 时返回缩放后的缓存副本。
func (a *API) ServeUpload(c *gin.Context) {
	path, err := a.storage.Resolve(c.Param("filepath"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.Status(http.StatusNotFound)
		return
	}

	width := parsePositiveInt(c.Query("width"), 0)
	quality := parsePositiveInt(c.Query("quality"), 0)
	if a.processor != nil && (width > 0 || quality > 0) {
		variant, err := a.processor.Variant(path, width, quality)
		switch {
		case err == nil:
			path = variant
		case errors.Is(err, os.ErrNotExist):
			c.Status(http.StatusNotFound)
			return
		default:
			a.logger.Warn("image variant failed", zap.String("path", path), zap.Error(err))
		}
	}

	c.Header("Cache-Control", uploadCacheControl)
	c.File(path)
}
