package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/talentvec/talentvec/pkg/fields"
	"github.com/talentvec/talentvec/pkg/logger"
	"github.com/talentvec/talentvec/pkg/ollama"
)

const (
	matcherTimeout = 10 * time.Second

	// maxLLMMatchesPerQuery bounds designation LLM calls per search.
	maxLLMMatchesPerQuery = 50
)

type matchVerdict struct {
	match      bool
	confidence float64
}

// DesignationMatcher asks the LLM whether two role titles describe the same
// job. Verdicts are cached per (query role, candidate role) pair for the
// process lifetime; recruiter queries repeat the same handful of roles.
type DesignationMatcher struct {
	llm *ollama.Client
	log *slog.Logger

	mu    sync.Mutex
	cache map[string]matchVerdict
}

func NewDesignationMatcher(llm *ollama.Client) *DesignationMatcher {
	return &DesignationMatcher{
		llm:   llm,
		log:   logger.GetLogger(),
		cache: make(map[string]matchVerdict),
	}
}

// Match returns whether candidateRole is equivalent to queryRole and the
// model's confidence in [0,1]. Errors degrade to a non-match.
func (m *DesignationMatcher) Match(ctx context.Context, queryRole, candidateRole string) (bool, float64) {
	queryRole = strings.TrimSpace(queryRole)
	candidateRole = strings.TrimSpace(candidateRole)
	if queryRole == "" || candidateRole == "" {
		return false, 0
	}

	key := strings.ToLower(queryRole) + "\x00" + strings.ToLower(candidateRole)
	m.mu.Lock()
	if v, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return v.match, v.confidence
	}
	m.mu.Unlock()

	verdict := m.ask(ctx, queryRole, candidateRole)

	m.mu.Lock()
	m.cache[key] = verdict
	m.mu.Unlock()
	return verdict.match, verdict.confidence
}

func (m *DesignationMatcher) ask(ctx context.Context, queryRole, candidateRole string) matchVerdict {
	ctx, cancel := context.WithTimeout(ctx, matcherTimeout)
	defer cancel()

	prompt := fmt.Sprintf(`Are these two job titles the same role?

Title A: %s
Title B: %s

Consider synonyms and common abbreviations (SDET = QA automation engineer,
SRE = site reliability engineer). Different seniority of the same role still
counts as the same role. Different disciplines do not.

Answer with JSON only: {"match": true or false, "confidence": 0.0 to 1.0}`,
		queryRole, candidateRole)

	response, err := m.llm.Generate(ctx, isolationPrompt, prompt, ollama.DeterministicOptions())
	if err != nil {
		m.log.Debug("Designation match call failed", "error", err)
		return matchVerdict{}
	}

	obj, err := fields.ParseJSONObject(response)
	if err != nil {
		return matchVerdict{}
	}

	verdict := matchVerdict{}
	if b, ok := obj["match"].(bool); ok {
		verdict.match = b
	}
	if c, ok := obj["confidence"].(float64); ok {
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		verdict.confidence = c
	}
	return verdict
}

// matchBoost maps a positive verdict's confidence to the score bonus.
func matchBoost(confidence float64) float64 {
	switch {
	case confidence >= 0.9:
		return 50
	case confidence >= 0.7:
		return 40
	case confidence >= 0.5:
		return 30
	default:
		return 20
	}
}
