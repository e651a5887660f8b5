package search

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentvec/talentvec/pkg/config"
	"github.com/talentvec/talentvec/pkg/logger"
	"github.com/talentvec/talentvec/pkg/store"
	"github.com/talentvec/talentvec/pkg/vector"
)

type fakeStore struct {
	resumes map[int64]*store.Resume
	names   []store.NameCandidate
}

func (f *fakeStore) SearchByName(ctx context.Context, fullName string, tokens []string) ([]store.NameCandidate, error) {
	return f.names, nil
}

func (f *fakeStore) GetResumesByIDs(ctx context.Context, ids []int64) (map[int64]*store.Resume, error) {
	out := make(map[int64]*store.Resume, len(ids))
	for _, id := range ids {
		if r, ok := f.resumes[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (f *fakeStore) LogSearchQuery(ctx context.Context, queryText, userID string) (int64, error) {
	return 1, nil
}

func (f *fakeStore) SaveSearchResults(ctx context.Context, queryID int64, resultsJSON string) error {
	return nil
}

type queryCall struct {
	master    string
	namespace string
	filter    map[string]interface{}
}

type fakeVector struct {
	mu         sync.Mutex
	calls      []queryCall
	namespaces map[string][]string
	respond    func(call queryCall) []vector.Match
}

func (f *fakeVector) Query(ctx context.Context, master, namespace string, vec []float32, topK int, filter map[string]interface{}) ([]vector.Match, error) {
	call := queryCall{master: master, namespace: namespace, filter: filter}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(call), nil
}

func (f *fakeVector) ListNamespaces(ctx context.Context, master string) ([]string, error) {
	return f.namespaces[master], nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeMatcher struct {
	mu    sync.Mutex
	calls int
	match bool
	conf  float64
}

func (f *fakeMatcher) Match(ctx context.Context, queryRole, candidateRole string) (bool, float64) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.match, f.conf
}

func newTestEngine(fs *fakeStore, fv *fakeVector, fm *fakeMatcher) *Engine {
	if fm == nil {
		fm = &fakeMatcher{}
	}
	return &Engine{
		store:   fs,
		vec:     fv,
		embed:   fakeEmbedder{},
		matcher: fm,
		cfg:     config.SearchConfig{TopKResults: 10},
		log:     logger.GetLogger(),
	}
}

func chunkMatch(resumeID int64, score float32) vector.Match {
	return vector.Match{
		ID:       fmt.Sprintf("resume_%d_chunk_0", resumeID),
		Score:    score,
		Metadata: map[string]interface{}{"resume_id": float64(resumeID)},
	}
}

func TestSearchSemanticExplicitSingleNamespace(t *testing.T) {
	fs := &fakeStore{resumes: map[int64]*store.Resume{
		7: {ID: 7, Status: store.StatusCompleted, MasterCategory: "IT",
			Category: "Backend Development", CandidateName: "Asha Rao",
			Designation: "Python Developer", Experience: "5 years",
			SkillSet: "python, django"},
	}}
	fv := &fakeVector{respond: func(queryCall) []vector.Match {
		return []vector.Match{chunkMatch(7, 0.82)}
	}}
	e := newTestEngine(fs, fv, nil)

	parsed := &ParsedQuery{
		SearchType:       TypeSemantic,
		TextForEmbedding: "python developer",
		MasterCategory:   "IT",
		Category:         "Backend Development",
		Filters: Filters{
			MustHaveAll:   []string{"python", "django"},
			MinExperience: floatPtr(5),
		},
	}
	results, err := e.searchSemantic(context.Background(), "python developer with 5 years", parsed, 10)
	require.NoError(t, err)

	// An explicit category pins retrieval to exactly one namespace.
	require.Len(t, fv.calls, 1)
	call := fv.calls[0]
	assert.Equal(t, "IT", call.master)
	assert.Equal(t, "backend_development", call.namespace)
	assert.Equal(t, map[string]interface{}{
		"$and": []interface{}{
			map[string]interface{}{"skills": map[string]interface{}{"$in": []interface{}{"python"}}},
			map[string]interface{}{"skills": map[string]interface{}{"$in": []interface{}{"django"}}},
			map[string]interface{}{"experience_years": map[string]interface{}{"$gte": 5.0}},
		},
	}, call.filter)

	require.Len(t, results, 1)
	assert.Equal(t, int64(7), results[0].ResumeID)
	assert.InDelta(t, 0.82, results[0].SemanticScore, 1e-6)
}

func TestSearchSemanticBroadHonorsExplicitMaster(t *testing.T) {
	fs := &fakeStore{resumes: map[int64]*store.Resume{
		11: {ID: 11, Status: store.StatusCompleted, MasterCategory: "NON_IT",
			Category: "Accounting & Finance", Designation: "Accountant",
			SkillSet: "tally, auditing"},
	}}
	fv := &fakeVector{
		namespaces: map[string][]string{
			"NON_IT": {"accounting_finance", "sales_business_development"},
		},
		respond: func(call queryCall) []vector.Match {
			if call.namespace == "accounting_finance" {
				return []vector.Match{chunkMatch(11, 0.7)}
			}
			return nil
		},
	}
	e := newTestEngine(fs, fv, nil)

	parsed := &ParsedQuery{
		SearchType:       TypeSemantic,
		TextForEmbedding: "accountant",
		MasterCategory:   "NON_IT",
		Filters:          Filters{Designation: "Accountant"},
	}
	results, err := e.searchSemantic(context.Background(), "accountant with tally", parsed, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// A master-only override restricts every query to that index.
	require.NotEmpty(t, fv.calls)
	for _, call := range fv.calls {
		assert.Equal(t, "NON_IT", call.master)
	}
	assert.Equal(t, int64(11), results[0].ResumeID)
}

func TestFallbackCascadeOrder(t *testing.T) {
	family := roleFamilyNamespaces("qa automation engineer")
	require.NotEmpty(t, family)

	all := append([]string{}, family...)
	all = append(all, "backend_development")

	fs := &fakeStore{resumes: map[int64]*store.Resume{
		3: {ID: 3, Status: store.StatusCompleted, MasterCategory: "IT",
			Designation: "QA Engineer", SkillSet: "selenium"},
	}}
	fv := &fakeVector{
		namespaces: map[string][]string{"IT": all},
		respond: func(call queryCall) []vector.Match {
			// Only the filterless last-resort pass finds anything.
			if call.filter == nil {
				return []vector.Match{chunkMatch(3, 0.6)}
			}
			return nil
		},
	}
	e := newTestEngine(fs, fv, nil)

	parsed := &ParsedQuery{
		SearchType:       TypeSemantic,
		TextForEmbedding: "qa automation engineer",
		Filters: Filters{
			Designation: "QA Automation Engineer",
			MustHaveAll: []string{"selenium"},
		},
	}
	results, err := e.searchSemantic(context.Background(), "qa automation engineer", parsed, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	n := len(family)
	require.Len(t, fv.calls, n+len(all)+n)

	phase := func(calls []queryCall) []string {
		var names []string
		for _, c := range calls {
			names = append(names, c.namespace)
		}
		return names
	}

	// Broad mode queries the role-family namespaces with the filter.
	assert.ElementsMatch(t, family, phase(fv.calls[:n]))
	for _, c := range fv.calls[:n] {
		assert.NotNil(t, c.filter)
	}

	// Widening covers every namespace of the identified index, filter kept,
	// without re-running the family pass.
	assert.ElementsMatch(t, all, phase(fv.calls[n:n+len(all)]))
	for _, c := range fv.calls[n : n+len(all)] {
		assert.NotNil(t, c.filter)
	}

	// Last resort drops the filter over the broad targets.
	assert.ElementsMatch(t, family, phase(fv.calls[n+len(all):]))
	for _, c := range fv.calls[n+len(all):] {
		assert.Nil(t, c.filter)
	}
}

func TestSearchByNameScoresAndSorts(t *testing.T) {
	fs := &fakeStore{names: []store.NameCandidate{
		{ID: 1, CandidateName: "John Smith"},
		{ID: 2, CandidateName: "Jon Smyth"},
		{ID: 3, CandidateName: "Priya Sharma"},
	}}
	e := newTestEngine(fs, &fakeVector{}, nil)

	parsed := &ParsedQuery{SearchType: TypeName, Filters: Filters{CandidateName: "John Smith"}}
	results, err := e.searchByName(context.Background(), "John Smith", parsed, 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ResumeID)
	assert.Equal(t, FitPerfect, results[0].Fit)
	assert.Equal(t, int64(2), results[1].ResumeID)
}

func TestApplyLLMDesignationBoosts(t *testing.T) {
	fm := &fakeMatcher{match: true, conf: 0.95}
	e := newTestEngine(&fakeStore{}, &fakeVector{}, fm)

	parsed := &ParsedQuery{Filters: Filters{Designation: "Payroll Specialist"}}
	weak := &scored{resume: &store.Resume{Designation: "Payroll Executive"}, semantic: 0.9, weakRole: true, relevance: 10}
	strong := &scored{resume: &store.Resume{Designation: "Payroll Specialist"}, semantic: 0.8, weakRole: false, relevance: 50}
	noRole := &scored{resume: &store.Resume{}, semantic: 0.7, weakRole: true}

	e.applyLLMDesignationBoosts(context.Background(), parsed, []*scored{strong, weak, noRole})

	assert.Equal(t, 1, fm.calls)
	assert.InDelta(t, 60.0, weak.relevance, 1e-9)
	assert.InDelta(t, 50.0, strong.relevance, 1e-9)
	assert.InDelta(t, 0.0, noRole.relevance, 1e-9)
}

func TestApplyLLMDesignationBoostsCallCap(t *testing.T) {
	fm := &fakeMatcher{match: true, conf: 0.6}
	e := newTestEngine(&fakeStore{}, &fakeVector{}, fm)

	parsed := &ParsedQuery{Filters: Filters{Designation: "QA Engineer"}}
	candidates := make([]*scored, 0, maxLLMMatchesPerQuery+10)
	for i := 0; i < maxLLMMatchesPerQuery+10; i++ {
		candidates = append(candidates, &scored{
			resume:   &store.Resume{Designation: "Test Analyst"},
			semantic: float64(i),
			weakRole: true,
		})
	}
	e.applyLLMDesignationBoosts(context.Background(), parsed, candidates)
	assert.Equal(t, maxLLMMatchesPerQuery, fm.calls)
}

func TestPostFilter(t *testing.T) {
	parsed := &ParsedQuery{Filters: Filters{Designation: "Java Developer"}}
	results := []Result{
		{ResumeID: 1, MasterCategory: "IT", Designation: "Java Developer"},
		{ResumeID: 2, MasterCategory: "IT", Designation: "Senior Java Developer"},
		{ResumeID: 3, MasterCategory: "NON_IT", Designation: "Accountant"},
		{ResumeID: 4, MasterCategory: "IT", Designation: "Zookeeper"},
	}

	got := postFilter(results, parsed, "IT")
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ResumeID)
	assert.Equal(t, int64(2), got[1].ResumeID)

	// Never narrows below two results.
	got = postFilter(results, &ParsedQuery{}, "NON_IT")
	assert.Len(t, got, 4)
}

func TestResumeIDFromMatch(t *testing.T) {
	assert.Equal(t, int64(7), resumeIDFromMatch(vector.Match{
		Metadata: map[string]interface{}{"resume_id": float64(7)},
	}))
	assert.Equal(t, int64(12), resumeIDFromMatch(vector.Match{
		Metadata: map[string]interface{}{"resume_id": "12"},
	}))
	assert.Equal(t, int64(9), resumeIDFromMatch(vector.Match{ID: "resume_9_chunk_2"}))
	assert.Equal(t, int64(0), resumeIDFromMatch(vector.Match{ID: "junk"}))
	assert.Equal(t, int64(0), resumeIDFromMatch(vector.Match{
		ID:       "junk",
		Metadata: map[string]interface{}{"resume_id": "abc"},
	}))
}

func TestEmbeddingTextFallback(t *testing.T) {
	e := newTestEngine(&fakeStore{}, &fakeVector{}, nil)

	assert.Equal(t, "java developer", e.embeddingText(&ParsedQuery{TextForEmbedding: "java developer"}))

	derived := e.embeddingText(&ParsedQuery{Filters: Filters{
		Designation:   "Java Developer",
		MustHaveAll:   []string{"java", "spring"},
		MinExperience: floatPtr(4),
		Location:      "pune",
	}})
	assert.Equal(t, "Java Developer java spring 4 years experience pune", derived)

	assert.Equal(t, defaultEmbedPhrase, e.embeddingText(&ParsedQuery{}))
}
