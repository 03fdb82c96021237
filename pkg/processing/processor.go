package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/idphoto/pkg/types"
)

// MinSourceDimension is the smallest edge accepted for a source portrait
const MinSourceDimension = 64

// Processor handles image I/O at the edge of the pipeline
type Processor struct {
	httpClient *http.Client
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadImageFromURL downloads and decodes an image from a URL
func (p *Processor) LoadImageFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "idphoto/1.0 (+https://github.com/menta2k/idphoto)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return p.DecodeImage(imageData)
}

// LoadImage loads an image from a file path, applying EXIF orientation
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := p.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(ctx context.Context, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(ctx, source)
	}
	return p.LoadImage(source)
}

// DecodeImage decodes an encoded buffer (jpeg, png, gif, webp).
// Undecodable data is reported as types.ErrBufferLoad.
func (p *Processor) DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", types.ErrBufferLoad)
	}

	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("%w: unknown or unsupported format", types.ErrBufferLoad)
}

// ValidateImage rejects empty or tiny sources before they reach the pipeline
func (p *Processor) ValidateImage(img image.Image, minDim int) error {
	if img == nil {
		return fmt.Errorf("%w: no image", types.ErrBufferLoad)
	}
	b := img.Bounds()
	if b.Dx() < minDim || b.Dy() < minDim {
		return fmt.Errorf("%w: image is %dx%d, need at least %dx%d", types.ErrBufferLoad, b.Dx(), b.Dy(), minDim, minDim)
	}
	return nil
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// FormatFromPath maps a file extension to an output format, defaulting to jpg
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	default:
		return "jpg"
	}
}

// Encode writes img to w in the given format
func (p *Processor) Encode(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	case "jpg", "jpeg", "":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// SaveImage saves an image to a file in the given format, whatever the
// file extension says
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := p.Encode(f, img, format, quality, lossless); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// CreateDebugOverlay draws the detected face box, eye centers and crop
// rectangle over a copy of img. Either input may be nil.
func (p *Processor) CreateDebugOverlay(img image.Image, face *types.FaceDetection, crop *types.NormalizedRect) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	green := color.NRGBA{0, 255, 0, 255}  // face box
	gold := color.NRGBA{255, 204, 0, 255} // crop rect
	red := color.NRGBA{255, 0, 0, 255}    // eyes
	blue := color.NRGBA{0, 170, 255, 255} // image center
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))
	cross := int(math.Max(4, 0.01*float64(min(w, h))))

	if face != nil {
		b := face.Box
		drawBox(nrgba, b.XMin, b.YMin, b.XMax, b.YMax, w, h, green, stroke)

		if face.Landmarks != nil {
			for _, eye := range []types.Point{face.Landmarks.LeftEye, face.Landmarks.RightEye} {
				px := int(clamp(eye.X, 0, 1)*float64(w) + 0.5)
				py := int(clamp(eye.Y, 0, 1)*float64(h) + 0.5)
				drawHLine(nrgba, py, px-cross, px+cross, red)
				drawVLine(nrgba, px, py-cross, py+cross, red)
			}
		}
	}

	if crop != nil && crop.Valid() {
		drawBox(nrgba, crop.X, crop.Y, crop.X+crop.Width, crop.Y+crop.Height, w, h, gold, stroke)
	}

	ix, iy := w/2, h/2
	drawHLine(nrgba, iy, ix-6, ix+6, blue)
	drawVLine(nrgba, ix, iy-6, iy+6, blue)

	return nrgba
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toPixels(x0, y0, x1, y1 float64, w, h int) (int, int, int, int) {
	px0 := int(clamp(x0, 0, 1)*float64(w) + 0.5)
	py0 := int(clamp(y0, 0, 1)*float64(h) + 0.5)
	px1 := int(clamp(x1, 0, 1)*float64(w) + 0.5)
	py1 := int(clamp(y1, 0, 1)*float64(h) + 0.5)
	if px1 <= px0 {
		px1 = px0 + 1
	}
	if py1 <= py0 {
		py1 = py0 + 1
	}
	return px0, py0, px1, py1
}

func drawBox(img *image.NRGBA, x0, y0, x1, y1 float64, w, h int, c color.NRGBA, stroke int) {
	px0, py0, px1, py1 := toPixels(x0, y0, x1, y1, w, h)
	for s := 0; s < stroke; s++ {
		drawHLine(img, py0+s, px0, px1, c)
		drawHLine(img, py1-1-s, px0, px1, c)
		drawVLine(img, px0+s, py0, py1, c)
		drawVLine(img, px1-1-s, py0, py1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0, x1 = max(x0, 0), min(x1, img.Bounds().Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0, y1 = max(y0, 0), min(y1, img.Bounds().Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
