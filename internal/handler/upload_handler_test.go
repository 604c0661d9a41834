package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/visualizer/internal/db"
)

func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadMediaThenServeVariant(t *testing.T) {
	api := newTestAPI(t)
	router, _ := newTestRouter(api)
	router.POST("/admin/api/upload", api.UploadMedia)
	router.GET("/static/uploads/*filepath", api.ServeUpload)

	body, contentType := multipartUpload(t, "hero.png", "image/png", testPNG(t, 64, 32))
	request := httptest.NewRequest(http.MethodPost, "/admin/api/upload", body)
	request.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		URL   string        `json:"url"`
		Asset db.MediaAsset `json:"asset"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(payload.URL, "/static/uploads/media/") {
		t.Fatalf("expected url in media bucket, got %q", payload.URL)
	}
	if payload.Asset.Width != 64 || payload.Asset.Height != 32 {
		t.Fatalf("expected recorded dimensions, got %dx%d", payload.Asset.Width, payload.Asset.Height)
	}

	original := httptest.NewRecorder()
	router.ServeHTTP(original, httptest.NewRequest(http.MethodGet, payload.URL, nil))
	if original.Code != http.StatusOK {
		t.Fatalf("expected original to be served, got %d", original.Code)
	}

	variant := httptest.NewRecorder()
	router.ServeHTTP(variant, httptest.NewRequest(http.MethodGet, payload.URL+"?width=16&quality=80", nil))
	if variant.Code != http.StatusOK {
		t.Fatalf("expected variant to be served, got %d", variant.Code)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(variant.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode variant: %v", err)
	}
	if cfg.Width != 16 {
		t.Fatalf("expected resized width 16, got %d", cfg.Width)
	}
}

func TestUploadMediaRejectsNonMedia(t *testing.T) {
	api := newTestAPI(t)
	router, _ := newTestRouter(api)
	router.POST("/admin/api/upload", api.UploadMedia)

	body, contentType := multipartUpload(t, "notes.txt", "text/plain", []byte("just text"))
	request := httptest.NewRequest(http.MethodPost, "/admin/api/upload", body)
	request.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestServeUploadMissingObject(t *testing.T) {
	api := newTestAPI(t)
	router, _ := newTestRouter(api)
	router.GET("/static/uploads/*filepath", api.ServeUpload)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/static/uploads/media/missing.png", nil)
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)
	router, _ := newTestRouter(api)
	router.GET("/healthz", api.HealthCheck)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"database":"up"`) {
		t.Fatalf("unexpected body %s", recorder.Body.String())
	}
}
