package search

import "strings"

// scoreName rates how well a candidate name matches the queried name.
// Exact match outranks substring, which outranks phonetic agreement.
func scoreName(queryName string, queryTokens []string, candidateName string) float64 {
	query := strings.ToLower(strings.TrimSpace(queryName))
	candidate := strings.ToLower(strings.TrimSpace(candidateName))
	if query == "" || candidate == "" {
		return 0
	}

	if query == candidate {
		return 1.0
	}
	if strings.Contains(candidate, query) || strings.Contains(query, candidate) {
		return 0.8
	}

	matched := 0
	for _, token := range queryTokens {
		if strings.Contains(candidate, strings.ToLower(token)) {
			matched++
		}
	}
	if matched > 0 {
		return 0.6 * float64(matched) / float64(len(queryTokens))
	}

	queryCode := soundex(query)
	candCode := soundex(candidate)
	if queryCode != "" && queryCode == candCode {
		return 0.5
	}
	if len(queryCode) >= 2 && len(candCode) >= 2 && queryCode[:2] == candCode[:2] {
		return 0.4
	}

	// Per-token phonetic agreement is the weakest accepted signal.
	candTokens := strings.Fields(candidate)
	for _, qt := range queryTokens {
		if len(qt) <= 2 {
			continue
		}
		qc := soundex(qt)
		for _, ct := range candTokens {
			if qc != "" && qc == soundex(ct) {
				return 0.3
			}
		}
	}
	return 0
}

// nameFit buckets a name score into a fit tier.
func nameFit(score float64) string {
	switch {
	case score >= 0.9:
		return FitPerfect
	case score >= 0.7:
		return FitGood
	case score >= 0.5:
		return FitPartial
	default:
		return FitLow
	}
}
