package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/idphoto/pkg/types"
)

// createTestImage creates a test image with a simple pattern
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	p := NewProcessor()

	img, err := p.DecodeImage(encodePNG(t, createTestImage(120, 80)))
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 80 {
		t.Errorf("Expected 120x80, got %v", img.Bounds().Size())
	}
}

func TestDecodeImageGarbage(t *testing.T) {
	p := NewProcessor()

	for _, data := range [][]byte{nil, []byte("not an image"), {0xff, 0xd8, 0xff}} {
		if _, err := p.DecodeImage(data); !errors.Is(err, types.ErrBufferLoad) {
			t.Errorf("Expected ErrBufferLoad for %q, got %v", data, err)
		}
	}
}

func TestValidateImage(t *testing.T) {
	p := NewProcessor()

	if err := p.ValidateImage(createTestImage(200, 300), MinSourceDimension); err != nil {
		t.Errorf("Expected valid image, got %v", err)
	}
	if err := p.ValidateImage(createTestImage(200, 10), MinSourceDimension); !errors.Is(err, types.ErrBufferLoad) {
		t.Errorf("Expected ErrBufferLoad for a thin image, got %v", err)
	}
	if err := p.ValidateImage(nil, MinSourceDimension); !errors.Is(err, types.ErrBufferLoad) {
		t.Errorf("Expected ErrBufferLoad for nil, got %v", err)
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()

	b64, err := p.PrepareImageForModel(createTestImage(2000, 1000), "png", 512, 90)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("Payload is not base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Payload is not a png: %v", err)
	}
	if img.Bounds().Dx() != 512 || img.Bounds().Dy() != 256 {
		t.Errorf("Expected 512x256 after downscale, got %v", img.Bounds().Size())
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"out.png":         "png",
		"out.WEBP":        "webp",
		"out.jpg":         "jpg",
		"out.jpeg":        "jpg",
		"no-extension":    "jpg",
		"dir.png/out.gif": "jpg",
	}
	for path, expected := range tests {
		if got := FormatFromPath(path); got != expected {
			t.Errorf("FormatFromPath(%q): expected %s, got %s", path, expected, got)
		}
	}
}

func TestEncode(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(64, 48)

	for _, format := range []string{"jpg", "png", "webp"} {
		var buf bytes.Buffer
		if err := p.Encode(&buf, img, format, 95, false); err != nil {
			t.Errorf("Encode(%s) failed: %v", format, err)
			continue
		}
		decoded, err := p.DecodeImage(buf.Bytes())
		if err != nil {
			t.Errorf("Encode(%s) produced undecodable output: %v", format, err)
			continue
		}
		if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 48 {
			t.Errorf("Encode(%s): expected 64x48, got %v", format, decoded.Bounds().Size())
		}
	}

	if err := p.Encode(&bytes.Buffer{}, img, "tiff", 95, false); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	img := createTestImage(100, 70)

	for _, name := range []string{"a.png", "b.jpg", "c.webp"} {
		path := filepath.Join(dir, name)
		if err := p.SaveImage(img, path, FormatFromPath(path), 95, true); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", name, err)
		}

		loaded, err := p.LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s) failed: %v", name, err)
		}
		if loaded.Bounds().Dx() != 100 || loaded.Bounds().Dy() != 70 {
			t.Errorf("%s: expected 100x70, got %v", name, loaded.Bounds().Size())
		}
	}

	if _, err := p.LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Expected an error for a missing file")
	}

	// the format argument wins over the extension
	path := filepath.Join(dir, "d.png")
	if err := p.SaveImage(img, path, "jpg", 90, false); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Error("Expected a JPEG stream")
	}

	bad := filepath.Join(dir, "e.tiff")
	if err := p.SaveImage(img, bad, "tiff", 90, false); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("Expected the partial file to be removed")
	}
}

func TestLoadImageFromURL(t *testing.T) {
	payload := encodePNG(t, createTestImage(90, 60))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(payload)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := NewProcessor()
	ctx := context.Background()

	img, err := p.LoadImageSmart(ctx, server.URL+"/photo.png")
	if err != nil {
		t.Fatalf("LoadImageSmart failed: %v", err)
	}
	if img.Bounds().Dx() != 90 || img.Bounds().Dy() != 60 {
		t.Errorf("Expected 90x60, got %v", img.Bounds().Size())
	}

	if _, err := p.LoadImageFromURL(ctx, server.URL+"/page"); err == nil {
		t.Error("Expected an error for a non-image content type")
	}
	if _, err := p.LoadImageFromURL(ctx, server.URL+"/missing"); err == nil {
		t.Error("Expected an error for HTTP 404")
	}
	if _, err := p.LoadImageFromURL(ctx, "ftp://example.com/a.png"); err == nil {
		t.Error("Expected an error for an unsupported scheme")
	}
}

func TestCreateDebugOverlay(t *testing.T) {
	p := NewProcessor()
	src := image.NewNRGBA(image.Rect(0, 0, 400, 400))

	face := &types.FaceDetection{
		Box: types.NormalizedBox{XMin: 0.25, YMin: 0.25, XMax: 0.75, YMax: 0.75},
		Landmarks: &types.EyePair{
			LeftEye:  types.Point{X: 0.4, Y: 0.4},
			RightEye: types.Point{X: 0.6, Y: 0.4},
		},
	}
	crop := &types.NormalizedRect{X: -0.1, Y: 0.05, Width: 0.9, Height: 0.9}

	out := p.CreateDebugOverlay(src, face, crop)
	nrgba, ok := out.(*image.NRGBA)
	if !ok {
		t.Fatalf("Expected *image.NRGBA, got %T", out)
	}

	if got := nrgba.NRGBAAt(100, 200); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("Expected face box edge at (100,200), got %v", got)
	}
	if got := nrgba.NRGBAAt(160, 160); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("Expected left eye marker at (160,160), got %v", got)
	}
	if got := nrgba.NRGBAAt(0, 200); got != (color.NRGBA{255, 204, 0, 255}) {
		t.Errorf("Expected crop edge clamped to the left border, got %v", got)
	}

	if src.NRGBAAt(100, 200) != (color.NRGBA{}) {
		t.Error("Source image was modified")
	}
}

func TestCreateDebugOverlayWithoutFace(t *testing.T) {
	p := NewProcessor()
	src := createTestImage(50, 50)

	out := p.CreateDebugOverlay(src, nil, nil)
	if out.Bounds() != src.Bounds() {
		t.Errorf("Expected bounds %v, got %v", src.Bounds(), out.Bounds())
	}
}
