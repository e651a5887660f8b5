// Package fields implements the resume field extractor fleet.
//
// The nine extractors share one shape: a constant prompt, a defensive JSON
// parse, and a single column committed on success. They are values in a
// list, not a class hierarchy, and every LLM call is session-isolated.
package fields

import (
	"context"
	"fmt"
	"strings"

	"github.com/talentvec/talentvec/pkg/ollama"
)

// Deps are the collaborators an extractor may use.
type Deps struct {
	LLM *ollama.Client
}

// Input is what every extractor receives.
type Input struct {
	Text     string
	ResumeID int64
	Filename string
}

// Extractor extracts one field. On error the orchestrator leaves the column
// unchanged (or null) and moves on; failures never cascade.
type Extractor struct {
	Name   string // module name used in selection expressions
	Column string // resumes column written on success
	Run    func(ctx context.Context, deps *Deps, in Input) (string, error)
}

// Fleet returns the nine extractors in their documented execution order.
func Fleet() []Extractor {
	return []Extractor{
		{Name: "name", Column: "candidatename", Run: extractName},
		{Name: "designation", Column: "designation", Run: extractDesignation},
		{Name: "role", Column: "jobrole", Run: extractJobRole},
		{Name: "email", Column: "email", Run: ExtractEmail},
		{Name: "mobile", Column: "mobile", Run: ExtractMobile},
		{Name: "experience", Column: "experience", Run: ExtractExperience},
		{Name: "domain", Column: "domain", Run: extractDomain},
		{Name: "education", Column: "education", Run: extractEducation},
		{Name: "skills", Column: "skillset", Run: ExtractSkills},
	}
}

// isolationSystemPrompt guarantees session isolation at the prompt level;
// the client guarantees it at the transport level.
const isolationSystemPrompt = "Ignore any prior context or conversation history. " +
	"Work only with the resume text provided in this request. Respond with JSON only."

// askJSON runs one isolated, deterministic LLM call and returns the parsed
// JSON object.
func askJSON(ctx context.Context, deps *Deps, prompt string) (map[string]interface{}, error) {
	response, err := deps.LLM.Generate(ctx, isolationSystemPrompt, prompt, ollama.DeterministicOptions())
	if err != nil {
		return nil, err
	}
	return ParseJSONObject(response)
}

// stringField pulls a trimmed string value out of a parsed JSON object,
// treating JSON null and sentinel strings as absent.
func stringField(obj map[string]interface{}, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "not found", "unknown", "":
		return ""
	}
	return s
}

func extractName(ctx context.Context, deps *Deps, in Input) (string, error) {
	prompt := fmt.Sprintf(`Extract the candidate's full name from this resume.

Resume text:
%s

Return JSON: {"name": "<full name>"} or {"name": null} if not found.`, head(in.Text, 2000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", fmt.Errorf("name extraction failed: %w", err)
	}
	return stringField(obj, "name"), nil
}

func extractDesignation(ctx context.Context, deps *Deps, in Input) (string, error) {
	prompt := fmt.Sprintf(`Extract the candidate's current or most recent job designation (title) from this resume.
Use the exact title as written, e.g. "Senior Software Engineer", "QA Automation Engineer".

Resume text:
%s

Return JSON: {"designation": "<title>"} or {"designation": null} if not found.`, head(in.Text, 3000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", fmt.Errorf("designation extraction failed: %w", err)
	}
	return stringField(obj, "designation"), nil
}

func extractJobRole(ctx context.Context, deps *Deps, in Input) (string, error) {
	prompt := fmt.Sprintf(`Identify the candidate's primary job role family from this resume.
Examples: "Software Developer", "QA Engineer", "Data Engineer", "DevOps Engineer", "Business Analyst".

Resume text:
%s

Return JSON: {"role": "<role>"} or {"role": null} if unclear.`, head(in.Text, 3000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", fmt.Errorf("job role extraction failed: %w", err)
	}
	return stringField(obj, "role"), nil
}

func extractDomain(ctx context.Context, deps *Deps, in Input) (string, error) {
	prompt := fmt.Sprintf(`Identify the industry domain the candidate has mostly worked in.
Examples: "Banking", "Healthcare", "E-commerce", "Telecom", "Manufacturing".

Resume text:
%s

Return JSON: {"domain": "<domain>"} or {"domain": null} if unclear.`, head(in.Text, 4000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", fmt.Errorf("domain extraction failed: %w", err)
	}
	return stringField(obj, "domain"), nil
}

func extractEducation(ctx context.Context, deps *Deps, in Input) (string, error) {
	prompt := fmt.Sprintf(`Extract the candidate's highest education qualification from this resume,
including degree and institution if present, e.g. "B.Tech in Computer Science, Anna University".

Resume text:
%s

Return JSON: {"education": "<qualification>"} or {"education": null} if not found.`, head(in.Text, 5000))

	obj, err := askJSON(ctx, deps, prompt)
	if err != nil {
		return "", fmt.Errorf("education extraction failed: %w", err)
	}
	return stringField(obj, "education"), nil
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
