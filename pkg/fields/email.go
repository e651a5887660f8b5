package fields

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaskedEmail is stored when the only addresses found belong to
	// job-board proxy domains.
	MaskedEmail = "masked_email"

	emailColumnLimit = 255

	headerWindow = 3000
	footerWindow = 1500
	atWindow     = 80
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Variants the plain pattern misses.
	mailtoPattern    = regexp.MustCompile(`mailto:\s*([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})`)
	bracketedPattern = regexp.MustCompile(`[<\[(]\s*([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})\s*[>\])]`)
	labeledPattern   = regexp.MustCompile(`(?i)e-?mail\s*(?:id)?\s*[:\-]\s*([a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,})`)

	forwardLinePattern = regexp.MustCompile(`(?i)^(from|to|cc|bcc|sent|reply-to|forwarded by)\s*:`)

	// Job boards mask candidate addresses behind relay domains.
	proxyDomains = []string{
		"naukri.com", "monster.com", "monsterindia.com", "indeed.com",
		"shine.com", "timesjobs.com", "ziprecruiter.com", "relay.jobs",
	}
)

// ExtractEmail collects all candidate email addresses, comma-joined and
// truncated to the column limit. Regex passes are authoritative; the LLM
// pass is additive only.
func ExtractEmail(ctx context.Context, deps *Deps, in Input) (string, error) {
	text := in.Text
	if isHTMLFile(in.Filename) {
		text = exciseForwardingLines(text)
	}

	found := collectEmails(text)

	// The LLM sometimes recovers addresses the regexes mangle (OCR noise,
	// spaced-out "name at domain" forms).
	if llmEmails, err := emailsViaLLM(ctx, deps, text); err == nil {
		for _, e := range llmEmails {
			found = appendUnique(found, e)
		}
	}

	if len(found) == 0 {
		return "", nil
	}

	real := make([]string, 0, len(found))
	for _, e := range found {
		if !isProxyEmail(e) {
			real = append(real, e)
		}
	}
	if len(real) == 0 {
		return MaskedEmail, nil
	}

	joined := strings.Join(real, ",")
	if len(joined) > emailColumnLimit {
		joined = truncateAtComma(joined, emailColumnLimit)
	}
	return joined, nil
}

// collectEmails runs every pattern over the whole text, the header window,
// the footer window, and a context window around each '@'.
func collectEmails(text string) []string {
	var found []string

	regions := []string{
		text,
		head(text, headerWindow),
		tail(text, footerWindow),
	}
	for _, idx := range atPositions(text) {
		lo := max(0, idx-atWindow)
		hi := min(len(text), idx+atWindow)
		regions = append(regions, text[lo:hi])
	}

	for _, region := range regions {
		for _, m := range mailtoPattern.FindAllStringSubmatch(region, -1) {
			found = appendUnique(found, m[1])
		}
		for _, m := range bracketedPattern.FindAllStringSubmatch(region, -1) {
			found = appendUnique(found, m[1])
		}
		for _, m := range labeledPattern.FindAllStringSubmatch(region, -1) {
			found = appendUnique(found, m[1])
		}
		for _, m := range emailPattern.FindAllString(region, -1) {
			found = appendUnique(found, m)
		}
	}
	return found
}

func emailsViaLLM(ctx context.Context, deps *Deps, text string) ([]string, error) {
	prompt := fmt.Sprintf(`List every email address that belongs to the candidate in this resume.

Resume text:
%s

Return JSON: {"emails": ["addr1", "addr2"]} or {"emails": []} if none.`, head(text, 4000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range stringSliceField(obj, "emails") {
		// Only accept strings that actually look like addresses.
		if m := emailPattern.FindString(e); m != "" {
			out = append(out, m)
		}
	}
	return out, nil
}

func exciseForwardingLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if forwardLinePattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isProxyEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, proxy := range proxyDomains {
		if domain == proxy || strings.HasSuffix(domain, "."+proxy) {
			return true
		}
	}
	return false
}

func isHTMLFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".html" || ext == ".htm"
}

func atPositions(s string) []int {
	var out []int
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			out = append(out, i)
		}
	}
	return out
}

func appendUnique(list []string, item string) []string {
	item = strings.ToLower(strings.TrimSpace(item))
	if item == "" {
		return list
	}
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func truncateAtComma(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := strings.LastIndexByte(s[:limit], ',')
	if cut <= 0 {
		return s[:limit]
	}
	return s[:cut]
}
