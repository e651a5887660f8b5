package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talentvec/talentvec/pkg/classify"
	"github.com/talentvec/talentvec/pkg/config"
	"github.com/talentvec/talentvec/pkg/embedder"
	"github.com/talentvec/talentvec/pkg/fields"
	"github.com/talentvec/talentvec/pkg/logger"
	"github.com/talentvec/talentvec/pkg/store"
	"github.com/talentvec/talentvec/pkg/vector"
)

const (
	// fanoutTimeout bounds the whole broad-mode namespace fan-out. Partial
	// results are acceptable.
	fanoutTimeout = 10 * time.Second

	// broadTopNamespaces is how many namespaces per index broad mode
	// queries when nothing narrows the choice.
	broadTopNamespaces = 5

	// genericEmbedPhrase re-anchors minimal queries in the fallback
	// cascade.
	genericEmbedPhrase = "professional candidate resume experience skills"

	// defaultEmbedPhrase is the last-resort embedding text.
	defaultEmbedPhrase = "candidate resume"
)

// Result is one scored candidate.
type Result struct {
	ResumeID       int64    `json:"resume_id"`
	CandidateName  string   `json:"candidate_name"`
	Designation    string   `json:"designation"`
	JobRole        string   `json:"job_role,omitempty"`
	Experience     string   `json:"experience"`
	Location       string   `json:"location"`
	Email          string   `json:"email"`
	Mobile         string   `json:"mobile"`
	MasterCategory string   `json:"mastercategory,omitempty"`
	Category       string   `json:"category,omitempty"`
	SemanticScore  float64  `json:"semantic_score"`
	Score          float64  `json:"score"`
	Fit            string   `json:"fit"`
	MatchedSkills  []string `json:"matched_skills,omitempty"`
}

// Response is a finished search.
type Response struct {
	Query      string   `json:"query"`
	QueryID    int64    `json:"query_id,omitempty"`
	SearchType string   `json:"search_type"`
	Results    []Result `json:"results"`
	Total      int      `json:"total"`
}

// The engine sees its collaborators through narrow views so retrieval
// orchestration stays testable without a database or a vector backend.
type candidateStore interface {
	SearchByName(ctx context.Context, fullName string, tokens []string) ([]store.NameCandidate, error)
	GetResumesByIDs(ctx context.Context, ids []int64) (map[int64]*store.Resume, error)
	LogSearchQuery(ctx context.Context, queryText, userID string) (int64, error)
	SaveSearchResults(ctx context.Context, queryID int64, resultsJSON string) error
}

type vectorIndex interface {
	Query(ctx context.Context, master, namespace string, vec []float32, topK int, filter map[string]interface{}) ([]vector.Match, error)
	ListNamespaces(ctx context.Context, master string) ([]string, error)
}

type queryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type roleMatcher interface {
	Match(ctx context.Context, queryRole, candidateRole string) (bool, float64)
}

// Engine runs searches over the repository and the vector store.
type Engine struct {
	store   candidateStore
	vec     vectorIndex
	embed   queryEmbedder
	parser  *Parser
	matcher roleMatcher
	cfg     config.SearchConfig
	log     *slog.Logger
}

func NewEngine(st *store.Store, vec *vector.Client, embed *embedder.Embedder,
	parser *Parser, matcher *DesignationMatcher, cfg config.SearchConfig) *Engine {
	return &Engine{
		store:   st,
		vec:     vec,
		embed:   embed,
		parser:  parser,
		matcher: matcher,
		cfg:     cfg,
		log:     logger.GetLogger(),
	}
}

// Search executes a free-text query. explicitMaster/explicitCategory, when
// set, pin retrieval to a single index and namespace.
func (e *Engine) Search(ctx context.Context, query, explicitMaster, explicitCategory string, topK int) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if topK <= 0 {
		topK = e.cfg.TopKResults
	}

	parsed := e.parser.Parse(ctx, query, explicitMaster, explicitCategory)
	e.log.Info("Parsed search query", "type", parsed.SearchType,
		"designation", parsed.Filters.Designation, "skills", parsed.Filters.MustHaveAll)

	var results []Result
	var err error
	if parsed.SearchType == TypeName {
		results, err = e.searchByName(ctx, query, parsed, topK)
	} else {
		results, err = e.searchSemantic(ctx, query, parsed, topK)
	}
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Query:      query,
		SearchType: parsed.SearchType,
		Results:    results,
		Total:      len(results),
	}
	e.persistAudit(ctx, resp)
	return resp, nil
}

// persistAudit logs the query and its result snapshot. Audit failures never
// fail the search.
func (e *Engine) persistAudit(ctx context.Context, resp *Response) {
	queryID, err := e.store.LogSearchQuery(ctx, resp.Query, "")
	if err != nil {
		e.log.Warn("Failed to log search query", "error", err)
		return
	}
	resp.QueryID = queryID

	payload, err := json.Marshal(resp.Results)
	if err == nil {
		err = e.store.SaveSearchResults(ctx, queryID, string(payload))
	}
	if err != nil {
		e.log.Warn("Failed to save search results", "query_id", queryID, "error", err)
	}
}

// ---- name path ----

func (e *Engine) searchByName(ctx context.Context, query string, parsed *ParsedQuery, topK int) ([]Result, error) {
	name := parsed.Filters.CandidateName
	if name == "" {
		name = query
	}
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return nil, nil
	}

	candidates, err := e.store.SearchByName(ctx, name, tokens)
	if err != nil {
		return nil, fmt.Errorf("name search failed: %w", err)
	}

	var results []Result
	for _, c := range candidates {
		score := scoreName(name, tokens, c.CandidateName)
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			ResumeID:      c.ID,
			CandidateName: c.CandidateName,
			Designation:   c.Designation,
			Experience:    c.Experience,
			Location:      c.Location,
			Email:         c.Email,
			Mobile:        c.Mobile,
			Score:         score,
			Fit:           nameFit(score),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ---- semantic paths ----

type target struct {
	master    string
	namespace string
}

type hit struct {
	resumeID int64
	semantic float64
}

func (e *Engine) searchSemantic(ctx context.Context, query string, parsed *ParsedQuery, topK int) ([]Result, error) {
	embedText := e.embeddingText(parsed)
	queryVec, err := e.embed.Embed(ctx, embedText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filter := compileQueryFilter(parsed)
	explicit := parsed.Category != ""

	var targets []target
	identifiedMaster := parsed.MasterCategory
	if explicit {
		targets = []target{{master: parsed.MasterCategory, namespace: vector.Namespace(parsed.Category)}}
	} else {
		targets, identifiedMaster = e.broadTargets(ctx, query, parsed)
	}

	hits := e.fanout(ctx, targets, queryVec, topK, filter)

	if len(hits) == 0 && !explicit {
		hits = e.fallbackCascade(ctx, query, parsed, queryVec, topK, filter, identifiedMaster)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	return e.scoreHits(ctx, parsed, query, hits, identifiedMaster, explicit, topK)
}

// embeddingText picks the text to embed, falling back to a filter-derived
// phrase and finally a constant.
func (e *Engine) embeddingText(parsed *ParsedQuery) string {
	if s := strings.TrimSpace(parsed.TextForEmbedding); s != "" {
		return s
	}
	var parts []string
	f := parsed.Filters
	if f.Designation != "" {
		parts = append(parts, f.Designation)
	}
	parts = append(parts, f.MustHaveAll...)
	if f.MinExperience != nil {
		parts = append(parts, fmt.Sprintf("%.0f years experience", *f.MinExperience))
	}
	if f.Location != "" {
		parts = append(parts, f.Location)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return defaultEmbedPhrase
}

func compileQueryFilter(parsed *ParsedQuery) map[string]interface{} {
	f := parsed.Filters
	return vector.CompileFilter(vector.FilterSpec{
		MustHaveAll:   f.MustHaveAll,
		OneOfGroups:   f.OneOfGroups,
		MinExperience: f.MinExperience,
		MaxExperience: f.MaxExperience,
		Location:      NormalizeLocation(f.Location),
	})
}

// broadTargets picks namespaces for broad mode. A caller-pinned
// mastercategory restricts retrieval to that index; otherwise role-family
// namespaces win, then keyword-inferred mastercategory with its most
// relevant namespaces, else the top namespaces of both indexes.
func (e *Engine) broadTargets(ctx context.Context, query string, parsed *ParsedQuery) ([]target, string) {
	if master := parsed.MasterCategory; master != "" {
		// Role families are IT namespaces, so they only apply there.
		if master == classify.MasterIT {
			if family := roleFamilyNamespaces(query + " " + parsed.Filters.Designation); family != nil {
				return familyTargets(family), master
			}
		}
		return e.masterTargets(ctx, master, query, parsed), master
	}

	if family := roleFamilyNamespaces(query + " " + parsed.Filters.Designation); family != nil {
		return familyTargets(family), classify.MasterIT
	}

	if master := inferMasterFromSkills(parsed, query); master != "" {
		return e.masterTargets(ctx, master, query, parsed), master
	}

	var targets []target
	for _, master := range []string{classify.MasterIT, classify.MasterNonIT} {
		targets = append(targets, e.masterTargets(ctx, master, query, parsed)...)
	}
	return targets, ""
}

func familyTargets(namespaces []string) []target {
	targets := make([]target, 0, len(namespaces))
	for _, ns := range namespaces {
		targets = append(targets, target{master: classify.MasterIT, namespace: ns})
	}
	return targets
}

func (e *Engine) masterTargets(ctx context.Context, master, query string, parsed *ParsedQuery) []target {
	namespaces := e.relevantNamespaces(ctx, master, query, parsed, broadTopNamespaces)
	targets := make([]target, 0, len(namespaces))
	for _, ns := range namespaces {
		targets = append(targets, target{master: master, namespace: ns})
	}
	return targets
}

// relevantNamespaces ranks an index's namespaces by token overlap with the
// query and returns the top n. With no overlap the first n alphabetical
// namespaces are used.
func (e *Engine) relevantNamespaces(ctx context.Context, master, query string, parsed *ParsedQuery, n int) []string {
	namespaces, err := e.vec.ListNamespaces(ctx, master)
	if err != nil || len(namespaces) == 0 {
		e.log.Warn("Failed to list namespaces, using uncategorized", "master", master, "error", err)
		return []string{vector.UncategorizedNamespace}
	}

	tokens := strings.Fields(strings.ToLower(query + " " + parsed.Filters.Designation +
		" " + strings.Join(parsed.Filters.MustHaveAll, " ")))

	type ranked struct {
		name  string
		score int
	}
	rankings := make([]ranked, 0, len(namespaces))
	for _, ns := range namespaces {
		score := 0
		for _, token := range tokens {
			if len(token) > 2 && strings.Contains(ns, token) {
				score++
			}
		}
		rankings = append(rankings, ranked{name: ns, score: score})
	}
	sort.SliceStable(rankings, func(i, j int) bool { return rankings[i].score > rankings[j].score })

	if len(rankings) > n {
		rankings = rankings[:n]
	}
	out := make([]string, len(rankings))
	for i, r := range rankings {
		out[i] = r.name
	}
	return out
}

var itSkillKeywords = map[string]bool{
	"python": true, "java": true, "javascript": true, "typescript": true,
	"react": true, "angular": true, "vue": true, "node": true, "go": true,
	"c++": true, "c#": true, ".net": true, "php": true, "ruby": true,
	"sql": true, "mysql": true, "postgresql": true, "mongodb": true,
	"aws": true, "azure": true, "gcp": true, "docker": true, "kubernetes": true,
	"selenium": true, "cypress": true, "playwright": true, "appium": true,
	"linux": true, "git": true, "jenkins": true, "terraform": true,
	"spark": true, "hadoop": true, "kafka": true, "django": true, "flask": true,
	"spring": true, "spring boot": true, "tensorflow": true, "pytorch": true,
}

var nonITKeywords = map[string]bool{
	"sales": true, "marketing": true, "accounting": true, "finance": true,
	"recruitment": true, "payroll": true, "hr": true, "nursing": true,
	"teaching": true, "logistics": true, "procurement": true, "tally": true,
	"auditing": true, "banking": true, "insurance": true, "seo": true,
}

// inferMasterFromSkills guesses the mastercategory from skill keywords in
// the filters and the raw query. Returns "" when the signal is absent or
// mixed toward neither side.
func inferMasterFromSkills(parsed *ParsedQuery, query string) string {
	it, nonIT := 0, 0
	count := func(s string) {
		if itSkillKeywords[s] {
			it++
		}
		if nonITKeywords[s] {
			nonIT++
		}
	}
	for _, skill := range parsed.Filters.MustHaveAll {
		count(fields.NormalizeSkill(skill))
	}
	for _, group := range parsed.Filters.OneOfGroups {
		for _, skill := range group {
			count(fields.NormalizeSkill(skill))
		}
	}
	for _, token := range strings.Fields(strings.ToLower(query)) {
		count(strings.Trim(token, ",."))
	}

	switch {
	case it > nonIT:
		return classify.MasterIT
	case nonIT > it:
		return classify.MasterNonIT
	}
	return ""
}

// fanout queries every target concurrently under a shared timeout and
// unions the hits, keeping the best semantic score per resume. A timed-out
// fan-out returns whatever arrived.
func (e *Engine) fanout(ctx context.Context, targets []target, queryVec []float32, topK int, filter map[string]interface{}) map[int64]hit {
	if len(targets) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, fanoutTimeout)
	defer cancel()

	results := make([][]vector.Match, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			matches, err := e.vec.Query(gctx, t.master, t.namespace, queryVec, topK, filter)
			if err != nil {
				// Partial results are fine; a slow or missing namespace
				// must not sink the whole query.
				e.log.Debug("Namespace query failed", "master", t.master,
					"namespace", t.namespace, "error", err)
				return nil
			}
			results[i] = matches
			return nil
		})
	}
	_ = g.Wait()

	hits := make(map[int64]hit)
	for _, matches := range results {
		for _, m := range matches {
			resumeID := resumeIDFromMatch(m)
			if resumeID <= 0 {
				continue
			}
			if prev, ok := hits[resumeID]; !ok || float64(m.Score) > prev.semantic {
				hits[resumeID] = hit{resumeID: resumeID, semantic: float64(m.Score)}
			}
		}
	}
	return hits
}

// resumeIDFromMatch reads the resume id from chunk metadata, falling back
// to the resume_<id>_chunk_<k> id convention.
func resumeIDFromMatch(m vector.Match) int64 {
	if m.Metadata != nil {
		switch v := m.Metadata["resume_id"].(type) {
		case float64:
			return int64(v)
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				return id
			}
		}
	}
	parts := strings.Split(m.ID, "_")
	if len(parts) >= 2 && parts[0] == "resume" {
		if id, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// fallbackCascade widens retrieval when broad mode found nothing. Broad
// mode already queried the role-family namespaces when a family keyword
// hit, so widening starts from the full namespace list.
func (e *Engine) fallbackCascade(ctx context.Context, query string, parsed *ParsedQuery,
	queryVec []float32, topK int, filter map[string]interface{}, identifiedMaster string) map[int64]hit {

	// All namespaces of the identified mastercategory, filters kept.
	if identifiedMaster != "" && filter != nil {
		if namespaces, err := e.vec.ListNamespaces(ctx, identifiedMaster); err == nil {
			targets := make([]target, 0, len(namespaces))
			for _, ns := range namespaces {
				targets = append(targets, target{master: identifiedMaster, namespace: ns})
			}
			if hits := e.fanout(ctx, targets, queryVec, topK, filter); len(hits) > 0 {
				return hits
			}
		}
	}

	// Minimal queries re-anchor on a generic phrase.
	if isMinimalQuery(query) && parsed.HasHardFilters() {
		if genericVec, err := e.embed.Embed(ctx, genericEmbedPhrase); err == nil {
			targets, _ := e.broadTargets(ctx, query, parsed)
			if hits := e.fanout(ctx, targets, genericVec, topK, filter); len(hits) > 0 {
				return hits
			}
		}
	}

	// Last resort: drop the filters for a pure semantic pass.
	if filter != nil {
		targets, _ := e.broadTargets(ctx, query, parsed)
		if hits := e.fanout(ctx, targets, queryVec, topK, nil); len(hits) > 0 {
			return hits
		}
	}
	return nil
}

func isMinimalQuery(query string) bool {
	tokens := strings.Fields(query)
	return len(tokens) <= 3 && roleFamilyNamespaces(query) == nil
}

// ---- scoring ----

type scored struct {
	resume        *store.Resume
	semantic      float64
	relevance     float64
	weakRole      bool
	matchedSkills []string
	allSkills     bool
}

func (e *Engine) scoreHits(ctx context.Context, parsed *ParsedQuery, query string,
	hits map[int64]hit, identifiedMaster string, strict bool, topK int) ([]Result, error) {

	ids := make([]int64, 0, len(hits))
	for id := range hits {
		ids = append(ids, id)
	}
	resumes, err := e.store.GetResumesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	queryMaster := parsed.MasterCategory
	if queryMaster == "" {
		queryMaster = identifiedMaster
	}
	qaFlavored := isQAFlavored(parsed, query)

	var candidates []*scored
	for id, h := range hits {
		resume, ok := resumes[id]
		if !ok || resume.Status != store.StatusCompleted {
			continue
		}

		s := &scored{resume: resume, semantic: h.semantic}
		skills := candidateSkillSet(resume.SkillSet)

		var skillPts float64
		skillPts, s.matchedSkills = skillScore(skills, parsed.Filters, qaFlavored)
		s.allSkills = len(parsed.Filters.MustHaveAll) > 0 &&
			len(s.matchedSkills) == len(parsed.Filters.MustHaveAll)

		var rolePts float64
		rolePts, s.weakRole = designationScore(parsed.Filters.Designation, resume)

		years := fields.ParseYears(resume.Experience)
		expPts := experienceScore(years, years >= 0, parsed.Filters.MinExperience, parsed.Filters.MaxExperience)

		masterPts := masterScore(queryMaster, resume.MasterCategory, strict)

		s.relevance = skillPts + rolePts + expPts + masterPts

		if strict && parsed.Category != "" && resume.Category != parsed.Category {
			s.relevance = categoryMismatchPenalty
		}
		if strict && masterPts == strictMasterPenalty {
			s.relevance = strictMasterPenalty
		}
		candidates = append(candidates, s)
	}

	e.applyLLMDesignationBoosts(ctx, parsed, candidates)

	results := make([]Result, 0, len(candidates))
	for _, s := range candidates {
		norm := normalizeCombined(s.semantic, s.relevance)
		results = append(results, Result{
			ResumeID:       s.resume.ID,
			CandidateName:  s.resume.CandidateName,
			Designation:    s.resume.Designation,
			JobRole:        s.resume.JobRole,
			Experience:     s.resume.Experience,
			Location:       s.resume.Location,
			Email:          s.resume.Email,
			Mobile:         s.resume.Mobile,
			MasterCategory: s.resume.MasterCategory,
			Category:       s.resume.Category,
			SemanticScore:  s.semantic,
			Score:          norm,
			Fit:            fitTier(norm, parsed, s.resume, s.allSkills),
			MatchedSkills:  s.matchedSkills,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	results = postFilter(results, parsed, queryMaster)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// applyLLMDesignationBoosts runs the second-stage matcher over the top
// candidates whose rule-based role signal was weak. Bounded per query.
func (e *Engine) applyLLMDesignationBoosts(ctx context.Context, parsed *ParsedQuery, candidates []*scored) {
	if parsed.Filters.Designation == "" {
		return
	}

	bySemantic := make([]*scored, len(candidates))
	copy(bySemantic, candidates)
	sort.SliceStable(bySemantic, func(i, j int) bool { return bySemantic[i].semantic > bySemantic[j].semantic })

	calls := 0
	for _, s := range bySemantic {
		if calls >= maxLLMMatchesPerQuery {
			break
		}
		if !s.weakRole {
			continue
		}
		candidateRole := s.resume.Designation
		if candidateRole == "" {
			candidateRole = s.resume.JobRole
		}
		if candidateRole == "" {
			continue
		}
		calls++
		if match, confidence := e.matcher.Match(ctx, parsed.Filters.Designation, candidateRole); match {
			s.relevance += matchBoost(confidence)
		}
	}
}

// postFilter narrows by dominant mastercategory and dominant normalized
// role, never below two results.
func postFilter(results []Result, parsed *ParsedQuery, queryMaster string) []Result {
	if queryMaster != "" {
		var kept []Result
		for _, r := range results {
			if r.MasterCategory == queryMaster {
				kept = append(kept, r)
			}
		}
		if len(kept) >= 2 {
			results = kept
		}
	}

	if queryRole, ok := NormalizeRole(parsed.Filters.Designation); ok {
		var kept []Result
		for _, r := range results {
			candRole, known := NormalizeRole(r.Designation)
			if !known {
				candRole, known = NormalizeRole(r.JobRole)
			}
			if known && candRole == queryRole {
				kept = append(kept, r)
			}
		}
		if len(kept) >= 2 {
			results = kept
		}
	}
	return results
}
