package extract

import (
	"context"
	"encoding/base64"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Forwarded-email preambles that recruiters leave above the actual resume.
// Everything before the first resume marker is dropped so the recruiter's
// own contact details are not extracted as the candidate's.
var (
	forwardMarkers = []string{"Personal Profile", "Name:", "Curriculum Vitae", "CURRICULUM VITAE"}

	forwardHeaderLine = regexp.MustCompile(`(?i)^(from|to|cc|sent|date|subject|forwarded by|reply-to)\s*:`)

	contactKeywords = []string{"contact", "email", "phone", "mobile", "address", "profile", "summary"}

	inlineImageSrc = regexp.MustCompile(`^data:image/[a-z]+;base64,`)
)

type htmlHandler struct {
	ocr *ocrEngine
}

func (h *htmlHandler) CanHandle(ext string) bool {
	return ext == "html" || ext == "htm"
}

func (h *htmlHandler) Extract(ctx context.Context, data []byte, filename string, _ Options) (string, error) {
	content := StripForwardedSections(decodeUTF8Lossy(data))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		slog.Debug("HTML parse failed, falling back to tag stripping", "file", filename, "error", err)
		return stripTags(content), nil
	}

	var parts []string
	seen := map[string]bool{}
	add := func(text string) {
		text = strings.TrimSpace(text)
		if text != "" && !seen[text] {
			seen[text] = true
			parts = append(parts, text)
		}
	}

	doc.Find("title").Each(func(_ int, s *goquery.Selection) { add(s.Text()) })
	doc.Find("header").Each(func(_ int, s *goquery.Selection) { add(s.Text()) })
	doc.Find("pre").Each(func(_ int, s *goquery.Selection) { add(s.Text()) })

	doc.Find("[class],[id]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		attr := strings.ToLower(class + " " + id)
		for _, kw := range contactKeywords {
			if strings.Contains(attr, kw) {
				add(s.Text())
				return
			}
		}
	})

	add(doc.Find("body").Text())

	if h.ocr.available() {
		doc.Find("img").Each(func(_ int, s *goquery.Selection) {
			src, ok := s.Attr("src")
			if !ok || !inlineImageSrc.MatchString(src) {
				return
			}
			encoded := src[strings.Index(src, ",")+1:]
			imgData, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return
			}
			if text, err := h.ocr.ImageToText(ctx, imgData); err == nil {
				add(text)
			}
		})
	}

	result := strings.Join(parts, "\n")
	if strings.TrimSpace(result) == "" {
		result = stripTags(content)
	}
	return result, nil
}

// StripForwardedSections removes mail headers that precede the first resume
// marker. If no marker is found the content is returned unchanged; dropping
// text on a guess loses real resumes.
func StripForwardedSections(content string) string {
	markerIdx := -1
	for _, marker := range forwardMarkers {
		if idx := strings.Index(content, marker); idx >= 0 && (markerIdx < 0 || idx < markerIdx) {
			markerIdx = idx
		}
	}
	if markerIdx <= 0 {
		return content
	}

	head := content[:markerIdx]
	if !containsForwardHeaders(head) {
		return content
	}
	return content[markerIdx:]
}

func containsForwardHeaders(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		if forwardHeaderLine.MatchString(strings.TrimSpace(stripTags(line))) {
			return true
		}
	}
	return false
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}
