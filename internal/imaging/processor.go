package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // 注册 webp 解码
)

const (
	// MaxVariantWidth 限制按需缩放的最大宽度。
	MaxVariantWidth = 2400
	// DefaultQuality 为未指定质量时的 JPEG 编码质量。
	DefaultQuality = 82
)

// ErrUnsupportedFormat 表示不是可处理的位图格式。
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Info 是上传图片的元数据。
type Info struct {
	Width    int
	Height   int
	MimeType string
	TakenAt  *time.Time
}

// Processor 负责读取图片元数据并生成按宽度缩放的缓存副本。
type Processor struct {
	cacheDir string
}

// NewProcessor 构造处理器，cacheDir 用于存放缩放后的副本。
func NewProcessor(cacheDir string) *Processor {
	return &Processor{cacheDir: cacheDir}
}

// CacheDir 返回缓存目录。
func (p *Processor) CacheDir() string {
	return p.cacheDir
}

// Inspect 读取图片尺寸、MIME 与 EXIF 拍摄时间；非图片返回 ErrUnsupportedFormat。
func Inspect(data []byte) (Info, error) {
	format := detectFormat(data)
	if format == "" {
		return Info{}, ErrUnsupportedFormat
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("read image config: %w", err)
	}

	info := Info{
		Width:    cfg.Width,
		Height:   cfg.Height,
		MimeType: "image/" + format,
	}

	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		if orientation := exifOrientation(x); orientation >= 5 {
			info.Width, info.Height = info.Height, info.Width
		}
		if taken, err := x.DateTime(); err == nil {
			info.TakenAt = &taken
		}
	}

	return info, nil
}

// Variant 返回 source 按 width/quality 缩放后的缓存文件路径，缓存存在时直接复用。
// 原图宽度不超过 width 且未指定质量时返回原图路径。
func (p *Processor) Variant(source string, width, quality int) (string, error) {
	if width > MaxVariantWidth {
		width = MaxVariantWidth
	}
	if width < 0 {
		width = 0
	}
	if quality <= 0 || quality > 100 {
		quality = 0
	}
	if width == 0 && quality == 0 {
		return source, nil
	}

	format := formatFromFilename(source)
	if format == "" {
		return source, nil
	}

	target := p.variantPath(source, width, quality, format)
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return target, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		img = applyOrientation(img, exifOrientation(x))
	}

	if width > 0 && img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	} else if quality == 0 {
		return source, nil
	}

	if quality == 0 {
		quality = DefaultQuality
	}
	encoded, err := encode(img, format, quality)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return target, nil
}

// Prune 删除缓存目录中早于 cutoff 的副本，返回删除数量。
func (p *Processor) Prune(cutoff time.Time) (int, error) {
	removed := 0
	err := filepath.WalkDir(p.cacheDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return removed, err
	}
	return removed, nil
}

func (p *Processor) variantPath(source string, width, quality int, format string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	parent := filepath.Base(filepath.Dir(source))
	ext := "." + format
	if format == "webp" {
		ext = ".jpeg"
	}
	name := fmt.Sprintf("%s_w%d_q%d%s", base, width, quality, ext)
	return filepath.Join(p.cacheDir, parent, name)
}

func exifOrientation(x *exif.Exif) int {
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		// webp 没有编码器，统一输出 JPEG
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func formatFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		return ""
	}
}

// ReadAllLimited 读取至多 limit 字节，超出时返回错误。
func ReadAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}
