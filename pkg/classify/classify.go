// Package classify assigns a resume its mastercategory (IT / NON_IT) and a
// category from a closed, mastercategory-specific label set.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/talentvec/talentvec/pkg/ollama"
)

const (
	MasterIT    = "IT"
	MasterNonIT = "NON_IT"

	// Only the head of the resume is classified; the opening block carries
	// the signal and keeps prompts small.
	classifyWindow = 1000
)

// ITCategories is the closed label set for the IT mastercategory.
var ITCategories = []string{
	"Full Stack Development (Python)",
	"Full Stack Development (Java)",
	"Full Stack Development (JavaScript)",
	"Frontend Development",
	"Backend Development",
	"Mobile Development",
	"Data Engineering",
	"Data Science & Machine Learning",
	"Artificial Intelligence",
	"DevOps & Site Reliability",
	"Cloud Engineering",
	"QA & Test Automation",
	"Manual Testing",
	"Database Administration",
	"Cybersecurity",
	"Network Engineering",
	"Embedded Systems",
	"ERP & SAP",
	"Business Intelligence",
	"UI/UX Design",
	"IT Support & Helpdesk",
	"IT Project Management",
}

// NonITCategories is the closed label set for the NON_IT mastercategory.
var NonITCategories = []string{
	"Accounting & Finance",
	"Banking & Insurance",
	"Sales & Business Development",
	"Marketing & Advertising",
	"Digital Marketing",
	"Human Resources",
	"Recruitment & Staffing",
	"Customer Service",
	"Operations Management",
	"Supply Chain & Logistics",
	"Procurement",
	"Manufacturing & Production",
	"Mechanical Engineering",
	"Electrical Engineering",
	"Civil Engineering",
	"Construction Management",
	"Healthcare & Nursing",
	"Pharmacy",
	"Medical & Clinical Research",
	"Teaching & Education",
	"Training & Development",
	"Legal & Compliance",
	"Content Writing & Editing",
	"Graphic Design",
	"Hospitality & Tourism",
	"Retail Management",
	"Real Estate",
	"Administration & Office Support",
	"Quality Assurance (Non-IT)",
	"Research & Analytics",
}

// Classifier runs the two-stage classification over the head of the text.
type Classifier struct {
	llm *ollama.Client
}

func New(llm *ollama.Client) *Classifier {
	return &Classifier{llm: llm}
}

// MasterCategory returns IT or NON_IT for the resume text.
func (c *Classifier) MasterCategory(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Classify this resume as IT or NON_IT.

IT covers software development, testing, data, cloud, networks, security, and other technology roles.
NON_IT covers everything else.

Resume text:
%s

Answer with exactly one word: IT or NON_IT. No explanation.`, head(text, classifyWindow))

	response, err := c.llm.Generate(ctx, isolationSystemPrompt, prompt, ollama.DeterministicOptions())
	if err != nil {
		return "", fmt.Errorf("mastercategory classification failed: %w", err)
	}

	answer := strings.ToUpper(firstLine(response))
	answer = strings.ReplaceAll(answer, "-", "_")
	answer = strings.ReplaceAll(answer, " ", "_")
	switch {
	case strings.Contains(answer, "NON_IT") || strings.Contains(answer, "NONIT"):
		return MasterNonIT, nil
	case strings.Contains(answer, "IT"):
		return MasterIT, nil
	}
	return "", fmt.Errorf("unrecognized mastercategory response: %q", answer)
}

// Category returns a category label from the closed set for the given
// mastercategory.
func (c *Classifier) Category(ctx context.Context, text, mastercategory string) (string, error) {
	labels := CategoriesFor(mastercategory)
	if len(labels) == 0 {
		return "", fmt.Errorf("unknown mastercategory: %q", mastercategory)
	}

	prompt := fmt.Sprintf(`Classify this resume into exactly one of these categories:

%s

Resume text:
%s

Answer with the category name only, exactly as written above. No explanation.`,
		strings.Join(labels, "\n"), head(text, classifyWindow))

	response, err := c.llm.Generate(ctx, isolationSystemPrompt, prompt, ollama.DeterministicOptions())
	if err != nil {
		return "", fmt.Errorf("category classification failed: %w", err)
	}

	answer := firstLine(response)
	if label, ok := matchLabel(answer, labels); ok {
		return label, nil
	}
	return "", fmt.Errorf("category %q is not in the %s label set", answer, mastercategory)
}

// CategoriesFor returns the closed label set for a mastercategory, or nil.
func CategoriesFor(mastercategory string) []string {
	switch mastercategory {
	case MasterIT:
		return ITCategories
	case MasterNonIT:
		return NonITCategories
	}
	return nil
}

const isolationSystemPrompt = "Ignore any prior context or conversation. Answer only from the text provided in this request."

// firstLine strips code fences and quotes and returns the first non-empty
// line of a model response.
func firstLine(response string) string {
	response = strings.ReplaceAll(response, "```", "")
	for _, line := range strings.Split(response, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"'`)
		if line != "" {
			return line
		}
	}
	return ""
}

func matchLabel(answer string, labels []string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	for _, label := range labels {
		if strings.ToLower(label) == normalized {
			return label, true
		}
	}
	// Models occasionally echo the label inside a sentence.
	for _, label := range labels {
		if strings.Contains(normalized, strings.ToLower(label)) {
			return label, true
		}
	}
	return "", false
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
