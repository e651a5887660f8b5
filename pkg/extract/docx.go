package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// docxHandler pulls paragraphs, table cells, headers, footers, and text runs
// from the document archive, OCRs embedded images, and falls back to a raw
// text-node sweep of every XML part when the structured pass comes up thin.
type docxHandler struct {
	ocr *ocrEngine
}

func (h *docxHandler) CanHandle(ext string) bool {
	return ext == "docx"
}

func (h *docxHandler) Extract(ctx context.Context, data []byte, filename string, _ Options) (string, error) {
	var parts []string

	if body := h.libraryPass(data); body != "" {
		parts = append(parts, body)
	}

	headersFooters, media, allXML := h.archivePass(ctx, data)
	if headersFooters != "" {
		parts = append(parts, headersFooters)
	}

	if len(media) > 0 && h.ocr.available() {
		for _, img := range media {
			if text, err := h.ocr.ImageToText(ctx, img); err == nil && text != "" {
				parts = append(parts, text)
			}
		}
	}

	combined := strings.Join(parts, "\n")
	if len(strings.TrimSpace(combined)) < minTextChars && allXML != "" {
		// Some generators split runs in ways the structured walk misses;
		// sweep every text node in the archive.
		combined = allXML
	}

	if strings.TrimSpace(combined) == "" {
		return "", &Error{Filename: filename, Reason: "insufficient_text", Err: ErrInsufficientText}
	}
	return combined, nil
}

// libraryPass reads word/document.xml through the docx library and walks it
// for paragraphs, runs, and table cells.
func (h *docxHandler) libraryPass(data []byte) string {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		slog.Debug("docx library parse failed", "error", err)
		return ""
	}
	defer doc.Close()

	return walkWordXML(doc.Editable().GetContent())
}

// archivePass opens the raw zip and returns header/footer text, embedded
// media bytes, and a full text-node sweep of every XML part.
func (h *docxHandler) archivePass(ctx context.Context, data []byte) (string, [][]byte, string) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, ""
	}

	var headerFooter []string
	var media [][]byte
	var all []string

	for _, f := range reader.File {
		if ctx.Err() != nil {
			break
		}
		name := f.Name
		switch {
		case strings.HasPrefix(name, "word/header") && strings.HasSuffix(name, ".xml"),
			strings.HasPrefix(name, "word/footer") && strings.HasSuffix(name, ".xml"):
			if content := readZipFile(f); content != nil {
				if text := walkWordXML(string(content)); text != "" {
					headerFooter = append(headerFooter, text)
				}
			}
		case strings.HasPrefix(name, "word/media/"):
			if content := readZipFile(f); content != nil {
				media = append(media, content)
			}
		case strings.HasSuffix(name, ".xml"):
			if content := readZipFile(f); content != nil {
				if text := walkWordXML(string(content)); text != "" {
					all = append(all, text)
				}
			}
		}
	}

	return strings.Join(headerFooter, "\n"), media, strings.Join(all, "\n")
}

func readZipFile(f *zip.File) []byte {
	rc, err := f.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return content
}

// walkWordXML concatenates text nodes from WordprocessingML, emitting a
// newline per paragraph and "|" between table cells.
func walkWordXML(content string) string {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.Strict = false

	var b strings.Builder
	inCell := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				if inCell {
					b.WriteString(" | ")
				}
				inCell = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				b.WriteByte('\n')
			case "tr":
				b.WriteByte('\n')
				inCell = false
			}
		case xml.CharData:
			b.Write(t)
		}
	}
	return strings.TrimSpace(b.String())
}
