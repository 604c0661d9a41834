package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestInspectPNG(t *testing.T) {
	info, err := Inspect(samplePNG(t, 40, 20))
	require.NoError(t, err)
	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 20, info.Height)
	assert.Equal(t, "image/png", info.MimeType)
	assert.Nil(t, info.TakenAt)
}

func TestInspectRejectsNonImage(t *testing.T) {
	_, err := Inspect([]byte("hello world, not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestVariantResizesAndCaches(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "media", "poster.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0o755))
	require.NoError(t, os.WriteFile(source, samplePNG(t, 64, 32), 0o644))

	p := NewProcessor(filepath.Join(dir, ".variants"))
	out, err := p.Variant(source, 16, 0)
	require.NoError(t, err)
	assert.NotEqual(t, source, out)
	assert.True(t, strings.HasPrefix(out, p.CacheDir()))

	f, err := os.Open(out)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)

	again, err := p.Variant(source, 16, 0)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestVariantPassThrough(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "small.png")
	require.NoError(t, os.WriteFile(source, samplePNG(t, 8, 8), 0o644))

	p := NewProcessor(filepath.Join(dir, ".variants"))

	out, err := p.Variant(source, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, source, out)

	out, err = p.Variant(source, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, source, out, "no upscaling")

	doc := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0o644))
	out, err = p.Variant(doc, 10, 50)
	require.NoError(t, err)
	assert.Equal(t, doc, out)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	old := filepath.Join(dir, "media", "old.jpeg")
	fresh := filepath.Join(dir, "media", "fresh.jpeg")
	require.NoError(t, os.MkdirAll(filepath.Dir(old), 0o755))
	require.NoError(t, os.WriteFile(old, []byte("o"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("f"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := p.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	missing := NewProcessor(filepath.Join(dir, "absent"))
	removed, err = missing.Prune(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestReadAllLimited(t *testing.T) {
	data, err := ReadAllLimited(strings.NewReader("abc"), 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	_, err = ReadAllLimited(strings.NewReader("abcd"), 3)
	assert.Error(t, err)
}
