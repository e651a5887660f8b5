package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// docHandler covers legacy .doc binaries through a converter cascade:
// antiword, headless office conversion to docx, catdoc, a direct DOCX parse
// (some .doc files are mislabeled docx), and finally a printable-ASCII scan
// of the raw bytes.
type docHandler struct{}

func (h *docHandler) CanHandle(ext string) bool {
	return ext == "doc"
}

func (h *docHandler) Extract(ctx context.Context, data []byte, filename string, _ Options) (string, error) {
	type pass struct {
		name string
		run  func(context.Context, []byte) (string, error)
	}
	passes := []pass{
		{"antiword", runAntiword},
		{"soffice", runSofficeConvert},
		{"catdoc", runCatdoc},
		{"docx", parseAsDocx},
		{"ascii", scanPrintableASCII},
	}

	for _, p := range passes {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		text, err := p.run(ctx, data)
		if err != nil {
			slog.Debug("doc conversion pass failed", "pass", p.name, "error", err)
			continue
		}
		if len(strings.TrimSpace(text)) >= minTextChars {
			return text, nil
		}
	}

	return "", &Error{Filename: filename, Reason: "insufficient_text", Err: ErrInsufficientText}
}

func runAntiword(ctx context.Context, data []byte) (string, error) {
	return runConverterStdin(ctx, data, "antiword", "-")
}

func runCatdoc(ctx context.Context, data []byte) (string, error) {
	return runConverterStdin(ctx, data, "catdoc", "-")
}

func runConverterStdin(ctx context.Context, data []byte, name string, args ...string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not available: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// runSofficeConvert converts .doc to .docx with a headless office install
// and parses the result.
func runSofficeConvert(ctx context.Context, data []byte) (string, error) {
	sofficePath, err := exec.LookPath("soffice")
	if err != nil {
		return "", fmt.Errorf("soffice not available: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "talentvec-doc-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	docPath := filepath.Join(tmpDir, "input.doc")
	if err := os.WriteFile(docPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write temp doc: %w", err)
	}

	cmd := exec.CommandContext(ctx, sofficePath,
		"--headless", "--convert-to", "docx", "--outdir", tmpDir, docPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("soffice conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	converted, err := os.ReadFile(filepath.Join(tmpDir, "input.docx"))
	if err != nil {
		return "", fmt.Errorf("converted docx missing: %w", err)
	}
	return parseAsDocx(ctx, converted)
}

func parseAsDocx(ctx context.Context, data []byte) (string, error) {
	h := &docxHandler{ocr: &ocrEngine{}} // no OCR on this path
	text, err := h.Extract(ctx, data, "converted.docx", Options{})
	if err != nil {
		return "", err
	}
	return text, nil
}

// scanPrintableASCII is the last resort: pull printable runs out of the
// binary and keep the ones long enough to be words.
func scanPrintableASCII(_ context.Context, data []byte) (string, error) {
	var b strings.Builder
	var run []byte

	flush := func() {
		if len(run) >= 4 {
			b.Write(run)
			b.WriteByte(' ')
		}
		run = run[:0]
	}

	for _, c := range data {
		if c >= 0x20 && c < 0x7f {
			run = append(run, c)
		} else {
			flush()
		}
	}
	flush()

	return b.String(), nil
}
