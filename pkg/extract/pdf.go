package extract

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfHandler extracts the embedded text layer first and falls back to OCR
// when the layer looks like a scan. The better of the two results wins.
type pdfHandler struct {
	ocr *ocrEngine
}

func (h *pdfHandler) CanHandle(ext string) bool {
	return ext == "pdf"
}

func (h *pdfHandler) Extract(ctx context.Context, data []byte, filename string, opts Options) (string, error) {
	textLayer := h.extractTextLayer(ctx, data)

	needOCR := opts.ForceOCR || isImageLike(textLayer)
	if !needOCR {
		return textLayer, nil
	}

	if !h.ocr.available() {
		if textLayer != "" {
			return textLayer, nil
		}
		return "", &Error{Filename: filename, Reason: "insufficient_text", Err: ErrInsufficientText}
	}

	ocrText, err := h.ocr.PDFToText(ctx, data)
	if err != nil {
		slog.Warn("PDF OCR fallback failed", "file", filename, "error", err)
		return textLayer, nil
	}

	// Keep whichever pass recovered more.
	if len(strings.TrimSpace(ocrText)) > len(strings.TrimSpace(textLayer)) {
		return ocrText, nil
	}
	return textLayer, nil
}

func (h *pdfHandler) extractTextLayer(ctx context.Context, data []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Debug("PDF text layer unavailable", "error", err)
		return ""
	}

	var parts []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if ctx.Err() != nil {
			break
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Debug("PDF page extraction failed", "page", pageNum, "error", err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
