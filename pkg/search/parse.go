// Package search turns free-text recruiter queries into scored, tiered
// candidate lists over the partitioned vector store and the SQL repository.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentvec/talentvec/pkg/fields"
	"github.com/talentvec/talentvec/pkg/logger"
	"github.com/talentvec/talentvec/pkg/ollama"
)

// Search types.
const (
	TypeSemantic = "semantic"
	TypeName     = "name"
	TypeHybrid   = "hybrid"
)

// Filters is the structured filter block of a parsed query.
type Filters struct {
	Designation   string
	MustHaveAll   []string
	OneOfGroups   [][]string
	MinExperience *float64
	MaxExperience *float64
	Location      string
	CandidateName string
}

// ParsedQuery is the structured form of a recruiter query.
type ParsedQuery struct {
	SearchType       string
	TextForEmbedding string
	Filters          Filters
	MasterCategory   string
	Category         string
}

// HasHardFilters reports whether any filter would narrow retrieval.
func (q *ParsedQuery) HasHardFilters() bool {
	f := q.Filters
	return len(f.MustHaveAll) > 0 || len(f.OneOfGroups) > 0 ||
		f.MinExperience != nil || f.MaxExperience != nil || f.Location != ""
}

// Parser converts free-text queries to ParsedQuery via the LLM, with a
// defensive fallback that never fails the search.
type Parser struct {
	llm *ollama.Client
	log *slog.Logger
}

func NewParser(llm *ollama.Client) *Parser {
	return &Parser{llm: llm, log: logger.GetLogger()}
}

const parsePromptTemplate = `Convert a recruiter search query into JSON.

Output exactly this JSON structure, no other text:
{
  "search_type": "semantic" | "name" | "hybrid",
  "text_for_embedding": "...",
  "filters": {
    "designation": "..." or null,
    "must_have_all": ["skill", ...],
    "must_have_one_of_groups": [["skill", ...], ...],
    "min_experience": number or null,
    "max_experience": number or null,
    "location": "..." or null,
    "candidate_name": "..." or null
  }
}

Rules:
- "name": the query is only a person's name (2-3 personal tokens, no skills or roles). Put the name in candidate_name.
- "hybrid": the query combines a designation with skills and experience requirements.
- "semantic": everything else.
- must_have_all: skills the candidate must all have.
- must_have_one_of_groups: OR alternatives. Each alternative is its own group, e.g. "django or flask" -> [["django"],["flask"]].
- Experience phrasings: "with 5 years" / "5+ years" -> min_experience 5; "3-5 years" -> min 3, max 5; "at least 4 years" -> min 4; "up to 6 years" -> max 6.
- text_for_embedding: rebuild the query in the order designation, skills, experience, location.
- Never invent skills or experience numbers that are not in the query.

Query: %s`

// Parse converts a query. explicitMaster/explicitCategory are caller-side
// overrides applied on top of the parse.
func (p *Parser) Parse(ctx context.Context, query, explicitMaster, explicitCategory string) *ParsedQuery {
	parsed := p.parseViaLLM(ctx, query)
	if parsed == nil {
		parsed = defaultParse(query)
	}

	applyOverrides(parsed, explicitMaster, explicitCategory)

	if parsed.TextForEmbedding == "" {
		parsed.TextForEmbedding = query
	}
	return parsed
}

// applyOverrides pins the caller's mastercategory and category onto the
// parse. A master alone narrows broad retrieval to one index; a category
// also pins the namespace and downgrades a "name" verdict to semantic.
func applyOverrides(parsed *ParsedQuery, explicitMaster, explicitCategory string) {
	if explicitMaster != "" {
		parsed.MasterCategory = explicitMaster
	}
	if explicitCategory == "" {
		return
	}
	parsed.Category = explicitCategory
	if parsed.SearchType == TypeName {
		parsed.SearchType = TypeSemantic
		parsed.Filters.CandidateName = ""
	}
}

func (p *Parser) parseViaLLM(ctx context.Context, query string) *ParsedQuery {
	response, err := p.llm.Generate(ctx, isolationPrompt,
		fmt.Sprintf(parsePromptTemplate, query), ollama.DeterministicOptions())
	if err != nil {
		p.log.Warn("Query parse LLM call failed, using default parse", "error", err)
		return nil
	}

	obj, err := fields.ParseJSONObject(response)
	if err != nil {
		p.log.Warn("Query parse returned unparseable JSON, using default parse", "error", err)
		return nil
	}

	parsed := &ParsedQuery{
		SearchType:       stringAt(obj, "search_type"),
		TextForEmbedding: stringAt(obj, "text_for_embedding"),
	}
	switch parsed.SearchType {
	case TypeSemantic, TypeName, TypeHybrid:
	default:
		parsed.SearchType = TypeSemantic
	}

	if filters, ok := obj["filters"].(map[string]interface{}); ok {
		parsed.Filters = Filters{
			Designation:   stringAt(filters, "designation"),
			MustHaveAll:   sliceAt(filters, "must_have_all"),
			OneOfGroups:   groupsAt(filters, "must_have_one_of_groups"),
			MinExperience: floatAt(filters, "min_experience"),
			MaxExperience: floatAt(filters, "max_experience"),
			Location:      stringAt(filters, "location"),
			CandidateName: stringAt(filters, "candidate_name"),
		}
	}
	return parsed
}

func defaultParse(query string) *ParsedQuery {
	return &ParsedQuery{
		SearchType:       TypeSemantic,
		TextForEmbedding: query,
	}
}

const isolationPrompt = "Ignore any prior context or conversation. Answer only from the text provided in this request."

func stringAt(obj map[string]interface{}, key string) string {
	if s, ok := obj[key].(string); ok {
		s = strings.TrimSpace(s)
		if !isNullish(s) {
			return s
		}
	}
	return ""
}

func sliceAt(obj map[string]interface{}, key string) []string {
	v, ok := obj[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" && !isNullish(s) {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" && !isNullish(part) {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}

func groupsAt(obj map[string]interface{}, key string) [][]string {
	raw, ok := obj[key].([]interface{})
	if !ok {
		return nil
	}
	var out [][]string
	for _, item := range raw {
		switch t := item.(type) {
		case []interface{}:
			var group []string
			for _, member := range t {
				if s, ok := member.(string); ok {
					if s = strings.TrimSpace(s); s != "" {
						group = append(group, s)
					}
				}
			}
			if len(group) > 0 {
				out = append(out, group)
			}
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, []string{s})
			}
		}
	}
	return out
}

func floatAt(obj map[string]interface{}, key string) *float64 {
	switch t := obj[key].(type) {
	case float64:
		if t >= 0 {
			v := t
			return &v
		}
	case string:
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%f", &v); err == nil && v >= 0 {
			return &v
		}
	}
	return nil
}

func isNullish(s string) bool {
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "not specified", "unknown":
		return true
	}
	return false
}
