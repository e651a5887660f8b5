package search

import (
	"strings"

	"github.com/talentvec/talentvec/pkg/fields"
	"github.com/talentvec/talentvec/pkg/store"
)

// Fit tiers.
const (
	FitPerfect = "Perfect Match"
	FitGood    = "Good Match"
	FitPartial = "Partial Match"
	FitLow     = "Low Match"
)

const (
	categoryMismatchPenalty = -100
	strictMasterPenalty     = -100
)

// qaKeywords flavor both queries and skill boosts for testing roles.
var qaKeywords = []string{
	"selenium", "cypress", "playwright", "testng", "junit", "appium",
	"postman", "automation", "testing", "qa", "api testing", "rest assured",
}

func isQAFlavored(q *ParsedQuery, rawQuery string) bool {
	if role, ok := NormalizeRole(q.Filters.Designation); ok && role == "qa_automation_engineer" {
		return true
	}
	lower := strings.ToLower(rawQuery)
	for _, kw := range qaKeywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// skillScore rewards required-skill coverage. must_have_all contributes up
// to 40, the best OR group up to 30, and QA-keyword hits add +5 each when
// the query itself is QA-flavored.
func skillScore(candSkills map[string]bool, f Filters, qaFlavored bool) (float64, []string) {
	var score float64
	var matched []string

	if len(f.MustHaveAll) > 0 {
		hits := 0
		for _, skill := range f.MustHaveAll {
			norm := fields.NormalizeSkill(skill)
			if candSkills[norm] {
				hits++
				matched = append(matched, norm)
			}
		}
		score += 40 * float64(hits) / float64(len(f.MustHaveAll))
	}

	var bestGroup float64
	for _, group := range f.OneOfGroups {
		if len(group) == 0 {
			continue
		}
		hits := 0
		for _, skill := range group {
			if candSkills[fields.NormalizeSkill(skill)] {
				hits++
			}
		}
		if g := 30 * float64(hits) / float64(len(group)); g > bestGroup {
			bestGroup = g
		}
	}
	score += bestGroup

	if qaFlavored {
		for _, kw := range qaKeywords {
			if candSkills[fields.NormalizeSkill(kw)] {
				score += 5
			}
		}
	}
	return score, matched
}

// designationScore compares the query role against the candidate's
// designation and job role. Rule-based first: canonical-role equality wins,
// then canonical substring, then plain substring on the raw fields. The
// second return reports whether the signal is weak enough to be worth an
// LLM second opinion.
func designationScore(queryRole string, candidate *store.Resume) (float64, bool) {
	if queryRole == "" {
		return 0, false
	}

	queryNorm, queryKnown := NormalizeRole(queryRole)
	candNorm, candKnown := NormalizeRole(candidate.Designation)
	if !candKnown {
		candNorm, candKnown = NormalizeRole(candidate.JobRole)
	}

	if queryKnown && candKnown {
		if queryNorm == candNorm {
			return 50, false
		}
		if strings.Contains(queryNorm, candNorm) || strings.Contains(candNorm, queryNorm) {
			return 40, false
		}
	}

	queryLower := strings.ToLower(strings.TrimSpace(queryRole))
	if queryLower != "" {
		if d := strings.ToLower(candidate.Designation); d != "" &&
			(strings.Contains(d, queryLower) || strings.Contains(queryLower, d)) {
			return 25, false
		}
		if r := strings.ToLower(candidate.JobRole); r != "" &&
			(strings.Contains(r, queryLower) || strings.Contains(queryLower, r)) {
			return 15, true
		}
	}
	return -40, true
}

// experienceScore rates the candidate's years against the query bounds.
// Unknown candidate experience is neutral.
func experienceScore(candYears int, known bool, min, max *float64) float64 {
	if !known || (min == nil && max == nil) {
		return 0
	}
	years := float64(candYears)
	var score float64

	if min != nil {
		switch {
		case years >= *min-1 && years <= *min+1:
			score += 10
		case years >= *min:
			score += 8
		case years >= *min-2:
			score += 3
		default:
			score += -15
		}
	}
	if max != nil && years > *max {
		score += -5
	}
	if min != nil && max != nil && years >= *min && years <= *max {
		score += 5
	}
	return score
}

// masterScore rates mastercategory agreement. Strict mode removes
// mismatches outright.
func masterScore(queryMaster, candMaster string, strict bool) float64 {
	if queryMaster == "" || candMaster == "" {
		return 0
	}
	if queryMaster == candMaster {
		return 10
	}
	if strict {
		return strictMasterPenalty
	}
	return -50
}

// normalizeCombined folds a semantic similarity in [0,1] and a relevance
// score (typically [-100,100]) into a [0,1] score.
func normalizeCombined(semantic, relevance float64) float64 {
	combined := 100*semantic + relevance
	norm := combined / 200
	if norm < 0 {
		return 0
	}
	if norm > 1 {
		return 1
	}
	return norm
}

func fitForScore(norm float64) string {
	switch {
	case norm >= 0.85:
		return FitPerfect
	case norm >= 0.70:
		return FitGood
	case norm >= 0.50:
		return FitPartial
	default:
		return FitLow
	}
}

var traineeWords = []string{"student", "intern", "trainee"}

func mentionsTrainee(s string) bool {
	lower := strings.ToLower(s)
	for _, w := range traineeWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// fitTier buckets the normalized score, then applies the override rules
// that pin obviously wrong or obviously right candidates regardless of the
// blended score.
func fitTier(norm float64, q *ParsedQuery, candidate *store.Resume, allSkillsMatched bool) string {
	fit := fitForScore(norm)

	queryRole, queryKnown := NormalizeRole(q.Filters.Designation)
	candRole, candKnown := NormalizeRole(candidate.Designation)
	if !candKnown {
		candRole, candKnown = NormalizeRole(candidate.JobRole)
	}

	if q.MasterCategory != "" && candidate.MasterCategory != "" &&
		q.MasterCategory != candidate.MasterCategory {
		return FitLow
	}
	if mentionsTrainee(candidate.Designation) &&
		!mentionsTrainee(q.Filters.Designation) && !mentionsTrainee(q.TextForEmbedding) {
		return FitLow
	}
	if queryKnown && candKnown && queryRole != candRole {
		return FitLow
	}

	if queryKnown && candKnown && queryRole == candRole {
		years := fields.ParseYears(candidate.Experience)
		if experienceSatisfied(years, q.Filters.MinExperience, q.Filters.MaxExperience) {
			return FitPerfect
		}
		return FitGood
	}

	if allSkillsMatched && len(q.Filters.MustHaveAll) > 0 &&
		roleKeywordOverlap(q.Filters.Designation, candidate.Designation) >= 0.3 {
		if fit == FitLow {
			return FitPartial
		}
	}
	return fit
}

func experienceSatisfied(years int, min, max *float64) bool {
	if years < 0 {
		return min == nil && max == nil
	}
	if min != nil && float64(years) < *min {
		return false
	}
	if max != nil && float64(years) > *max {
		return false
	}
	return true
}

// roleKeywordOverlap measures shared word fraction between two role strings.
func roleKeywordOverlap(a, b string) float64 {
	aw := strings.Fields(strings.ToLower(a))
	bw := strings.Fields(strings.ToLower(b))
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	set := make(map[string]bool, len(aw))
	for _, w := range aw {
		set[w] = true
	}
	hits := 0
	for _, w := range bw {
		if set[w] {
			hits++
		}
	}
	denom := len(aw)
	if len(bw) < denom {
		denom = len(bw)
	}
	return float64(hits) / float64(denom)
}

// candidateSkillSet splits and canonicalizes a stored skillset.
func candidateSkillSet(skillset string) map[string]bool {
	out := make(map[string]bool)
	for _, skill := range fields.SplitSkillSet(skillset) {
		if norm := fields.NormalizeSkill(skill); norm != "" {
			out[norm] = true
		}
	}
	return out
}
