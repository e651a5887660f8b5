// Package extract turns raw resume bytes into normalized text.
//
// Extraction is polymorphic on the file extension. Each handler shares the
// same contract: bytes in, UTF-8 text out, or an *Error. OCR is a fallback
// layered over the PDF and image handlers, not a handler of its own.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	// Below this many characters the extraction is considered failed; the
	// orchestrator records failed:insufficient_text.
	minTextChars = 50

	// A PDF text layer with fewer characters or word tokens than this is
	// treated as image-only and sent through OCR.
	imageLikeCharThreshold = 100
	imageLikeWordThreshold = 10
)

// ErrInsufficientText marks extractions that completed but yielded too
// little text to be usable.
var ErrInsufficientText = errors.New("insufficient text extracted")

// Error is the extraction failure type surfaced to the orchestrator.
type Error struct {
	Filename string
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s (%s): %v", e.Filename, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.Filename, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Options tune a single extraction run.
type Options struct {
	// ForceOCR skips the cheap text-layer shortcut and always runs the OCR
	// fallback where one exists. Used by the retry path.
	ForceOCR bool
}

type handler interface {
	CanHandle(ext string) bool
	Extract(ctx context.Context, data []byte, filename string, opts Options) (string, error)
}

// Extractor routes bytes to the handler for the file's extension.
type Extractor struct {
	handlers []handler
	ocr      *ocrEngine
}

func New() *Extractor {
	ocr := newOCREngine()
	return &Extractor{
		ocr: ocr,
		handlers: []handler{
			&pdfHandler{ocr: ocr},
			&docxHandler{ocr: ocr},
			&docHandler{},
			&imageHandler{ocr: ocr},
			&htmlHandler{ocr: ocr},
			&textHandler{},
		},
	}
}

// Extract converts bytes to normalized text. Unknown extensions are decoded
// as UTF-8 with replacement.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string, opts Options) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	var text string
	var err error

	h := e.findHandler(ext)
	if h != nil {
		text, err = h.Extract(ctx, data, filename, opts)
	} else {
		text = decodeUTF8Lossy(data)
	}

	if err != nil {
		var exErr *Error
		if errors.As(err, &exErr) {
			return "", err
		}
		return "", &Error{Filename: filename, Reason: "extraction_error", Err: err}
	}

	text = NormalizeWhitespace(text)
	if len(text) < minTextChars {
		return "", &Error{Filename: filename, Reason: "insufficient_text", Err: ErrInsufficientText}
	}
	return text, nil
}

func (e *Extractor) findHandler(ext string) handler {
	for _, h := range e.handlers {
		if h.CanHandle(ext) {
			return h
		}
	}
	return nil
}

// NormalizeWhitespace collapses runs of whitespace into single spaces while
// preserving line structure: newlines survive as newlines, everything else
// becomes a single space.
func NormalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	lastNewline := false
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			if !lastNewline {
				b.WriteByte('\n')
			}
			lastNewline = true
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && !lastNewline {
				b.WriteByte(' ')
			}
			lastSpace = true
		default:
			b.WriteRune(r)
			lastSpace = false
			lastNewline = false
		}
	}
	return strings.TrimSpace(b.String())
}

func decodeUTF8Lossy(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

// isImageLike reports whether a PDF text layer looks like a scan: too few
// characters or too few word tokens to be a real text layer.
func isImageLike(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < imageLikeCharThreshold {
		return true
	}
	return len(strings.Fields(trimmed)) < imageLikeWordThreshold
}

// textHandler covers .txt and is also the terminal fallback for unknown
// extensions.
type textHandler struct{}

func (h *textHandler) CanHandle(ext string) bool {
	return ext == "txt"
}

func (h *textHandler) Extract(_ context.Context, data []byte, _ string, _ Options) (string, error) {
	return decodeUTF8Lossy(data), nil
}
