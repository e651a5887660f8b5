package fields

import (
	"context"
	"fmt"
	"regexp"
)

var (
	// Dense header formats like (708)927-5276 with no separator between the
	// area code and the exchange; the general pattern misses these when the
	// header crams contact details onto one line.
	headerPhonePattern = regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.\s]?\d{4}`)

	fullPhonePattern = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

	digitsOnly = regexp.MustCompile(`\D`)

	phoneSymbolStrip = regexp.MustCompile(`[^\w\s@.+\-()]`)
)

// ExtractMobile finds the candidate's mobile number and normalizes it to 10
// digits. Order: header regex, full-text regex, LLM, then a joint
// email+mobile LLM pass over symbol-stripped text.
func ExtractMobile(ctx context.Context, deps *Deps, in Input) (string, error) {
	header := head(in.Text, 600)

	if m := headerPhonePattern.FindString(header); m != "" {
		if normalized := NormalizePhone(m); normalized != "" {
			return normalized, nil
		}
	}

	for _, m := range fullPhonePattern.FindAllString(in.Text, -1) {
		if normalized := NormalizePhone(m); normalized != "" {
			return normalized, nil
		}
	}

	if phone, err := mobileViaLLM(ctx, deps, in.Text); err == nil && phone != "" {
		return phone, nil
	}

	return jointContactViaLLM(ctx, deps, in.Text)
}

// NormalizePhone reduces a raw phone string to exactly 10 digits. An
// 11-digit number with a leading country code 1 loses that digit. Anything
// else normalizes to empty. The function is idempotent.
func NormalizePhone(raw string) string {
	digits := digitsOnly.ReplaceAllString(raw, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return digits
}

func mobileViaLLM(ctx context.Context, deps *Deps, text string) (string, error) {
	prompt := fmt.Sprintf(`Extract the candidate's mobile/phone number from this resume.

Resume text:
%s

Return JSON: {"mobile": "<number>"} or {"mobile": null} if not found.`, head(text, 3000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", err
	}
	return NormalizePhone(stringField(obj, "mobile")), nil
}

// jointContactViaLLM is the last resort: symbol noise from OCR often breaks
// both the regexes and the single-field prompt, so ask for email and mobile
// together over cleaned text.
func jointContactViaLLM(ctx context.Context, deps *Deps, text string) (string, error) {
	cleaned := phoneSymbolStrip.ReplaceAllString(head(text, 3000), " ")

	prompt := fmt.Sprintf(`Extract the candidate's contact details from this resume text.

Resume text:
%s

Return JSON: {"email": "<email or null>", "mobile": "<number or null>"}.`, cleaned)

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", fmt.Errorf("mobile extraction failed: %w", err)
	}

	if phone := NormalizePhone(stringField(obj, "mobile")); phone != "" {
		return phone, nil
	}
	return "", nil
}
