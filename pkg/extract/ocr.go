package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "image/jpeg"
)

const (
	ocrDPI          = 300
	ocrMinShortEdge = 1200
)

// Page segmentation modes tried per image; the longest plausible result
// wins. 3 = fully automatic, 6 = single uniform block, 4 = single column.
var ocrPSModes = []int{3, 6, 4}

// ocrEngine shells out to tesseract and pdftoppm. Binaries are resolved
// once; a missing binary degrades OCR to a no-op with a warning rather than
// failing extraction outright.
type ocrEngine struct {
	tesseractPath string
	pdftoppmPath  string
}

func newOCREngine() *ocrEngine {
	e := &ocrEngine{}
	if p, err := exec.LookPath("tesseract"); err == nil {
		e.tesseractPath = p
	} else {
		slog.Warn("tesseract not found on PATH, OCR fallback disabled")
	}
	if p, err := exec.LookPath("pdftoppm"); err == nil {
		e.pdftoppmPath = p
	}
	return e
}

func (e *ocrEngine) available() bool {
	return e.tesseractPath != ""
}

// ImageToText OCRs a single image. The image is upscaled so its short edge
// is at least 1200px before recognition; tesseract's own preprocessing
// (denoise, deskew, adaptive threshold) runs on top.
func (e *ocrEngine) ImageToText(ctx context.Context, data []byte) (string, error) {
	if !e.available() {
		return "", fmt.Errorf("tesseract is not available")
	}

	if upscaled, err := upscaleImage(data); err == nil {
		data = upscaled
	}

	tmpDir, err := os.MkdirTemp("", "talentvec-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(imgPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}

	return e.runBestPSM(ctx, imgPath), nil
}

// PDFToText rasterizes a PDF at 300 DPI and OCRs every page.
func (e *ocrEngine) PDFToText(ctx context.Context, data []byte) (string, error) {
	if !e.available() {
		return "", fmt.Errorf("tesseract is not available")
	}
	if e.pdftoppmPath == "" {
		return "", fmt.Errorf("pdftoppm is not available")
	}

	tmpDir, err := os.MkdirTemp("", "talentvec-pdfocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write temp pdf: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.pdftoppmPath,
		"-r", strconv.Itoa(ocrDPI), "-png", pdfPath, filepath.Join(tmpDir, "page"))
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pages, err := filepath.Glob(filepath.Join(tmpDir, "page-*.png"))
	if err != nil || len(pages) == 0 {
		pages, _ = filepath.Glob(filepath.Join(tmpDir, "page*.png"))
	}
	sort.Strings(pages)
	if len(pages) == 0 {
		return "", fmt.Errorf("pdftoppm produced no pages")
	}

	var parts []string
	for _, page := range pages {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if text := e.runBestPSM(ctx, page); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// runBestPSM OCRs one image under every configured page-segmentation mode
// and keeps the longest plausible output.
func (e *ocrEngine) runBestPSM(ctx context.Context, imgPath string) string {
	best := ""
	for _, psm := range ocrPSModes {
		text, err := e.runTesseract(ctx, imgPath, psm)
		if err != nil {
			slog.Debug("tesseract pass failed", "psm", psm, "error", err)
			continue
		}
		if len(text) > len(best) && plausibleOCR(text) {
			best = text
		}
	}
	return best
}

func (e *ocrEngine) runTesseract(ctx context.Context, imgPath string, psm int) (string, error) {
	cmd := exec.CommandContext(ctx, e.tesseractPath, imgPath, "stdout",
		"--psm", strconv.Itoa(psm), "--oem", "1", "-l", "eng")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// plausibleOCR rejects outputs that are mostly garbage glyphs.
func plausibleOCR(text string) bool {
	if len(text) < 10 {
		return false
	}
	alnum := 0
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			alnum++
		}
	}
	return float64(alnum)/float64(len(text)) > 0.3
}

// upscaleImage re-encodes an image so its short edge is >= 1200px using
// nearest-neighbor scaling. Small scans OCR badly at native resolution.
// Formats the stdlib cannot decode (bmp, tiff) pass through untouched;
// tesseract reads them natively.
func upscaleImage(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	short := w
	if h < w {
		short = h
	}
	if short >= ocrMinShortEdge || short == 0 {
		return data, nil
	}

	scale := (ocrMinShortEdge + short - 1) / short
	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		for x := 0; x < w*scale; x++ {
			dst.Set(x, y, color.RGBAModel.Convert(img.At(bounds.Min.X+x/scale, bounds.Min.Y+y/scale)))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// imageHandler OCRs standalone image files.
type imageHandler struct {
	ocr *ocrEngine
}

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "bmp": true, "tif": true, "tiff": true,
}

func (h *imageHandler) CanHandle(ext string) bool {
	return imageExtensions[ext]
}

func (h *imageHandler) Extract(ctx context.Context, data []byte, filename string, _ Options) (string, error) {
	text, err := h.ocr.ImageToText(ctx, data)
	if err != nil {
		return "", &Error{Filename: filename, Reason: "extraction_error", Err: err}
	}
	return text, nil
}
