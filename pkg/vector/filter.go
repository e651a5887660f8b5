package vector

import (
	"github.com/talentvec/talentvec/pkg/fields"
)

// FilterSpec is the structured subset of a parsed query that can be pushed
// down to the vector store as a metadata filter. Designations are never
// pushed down; they are scored post-retrieval to preserve recall.
type FilterSpec struct {
	// MustHaveAll lists skills that must all be present.
	MustHaveAll []string
	// OneOfGroups is OR-of-AND: at least one group must match entirely.
	OneOfGroups [][]string
	// Experience bounds in years.
	MinExperience *float64
	MaxExperience *float64
	// Location, already lowercased and alias-mapped by the caller.
	Location string
}

// CompileFilter translates a FilterSpec into the metadata filter algebra
// ($in, $gte, $lte, $eq, $and, $or). Each required skill gets its own $in
// clause because the backend has no native set-inclusion operator. Skills
// are canonicalized so "react.js" in a query matches a stored "react".
// Returns nil when there is nothing to filter on.
func CompileFilter(f FilterSpec) map[string]interface{} {
	var clauses []interface{}

	for _, skill := range f.MustHaveAll {
		if clause := skillClause(skill); clause != nil {
			clauses = append(clauses, clause)
		}
	}

	var groups []interface{}
	for _, group := range f.OneOfGroups {
		var members []interface{}
		for _, skill := range group {
			if clause := skillClause(skill); clause != nil {
				members = append(members, clause)
			}
		}
		switch len(members) {
		case 0:
		case 1:
			groups = append(groups, members[0])
		default:
			groups = append(groups, map[string]interface{}{"$and": members})
		}
	}
	switch len(groups) {
	case 0:
	case 1:
		clauses = append(clauses, groups[0])
	default:
		clauses = append(clauses, map[string]interface{}{"$or": groups})
	}

	if f.MinExperience != nil || f.MaxExperience != nil {
		exp := map[string]interface{}{}
		if f.MinExperience != nil {
			exp["$gte"] = *f.MinExperience
		}
		if f.MaxExperience != nil {
			exp["$lte"] = *f.MaxExperience
		}
		clauses = append(clauses, map[string]interface{}{"experience_years": exp})
	}

	if f.Location != "" {
		clauses = append(clauses, map[string]interface{}{
			"location": map[string]interface{}{"$eq": f.Location},
		})
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0].(map[string]interface{})
	default:
		return map[string]interface{}{"$and": clauses}
	}
}

func skillClause(skill string) map[string]interface{} {
	normalized := fields.NormalizeSkill(skill)
	if normalized == "" {
		return nil
	}
	return map[string]interface{}{
		"skills": map[string]interface{}{
			"$in": []interface{}{normalized},
		},
	}
}
