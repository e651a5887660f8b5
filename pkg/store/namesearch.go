package store

import (
	"context"
	"fmt"
	"strings"
)

// NameCandidate is a row returned by the name-search SQL pass. Scoring and
// tiering happen in the search engine; the SQL only has to not miss
// plausible matches.
type NameCandidate struct {
	ID            int64
	CandidateName string
	Designation   string
	Experience    string
	Location      string
	Email         string
	Mobile        string
}

// SearchByName retrieves candidates whose name matches any token as a
// case-insensitive substring, or whose name (or any longer token of it)
// matches phonetically via SOUNDEX.
func (s *Store) SearchByName(ctx context.Context, fullName string, tokens []string) ([]NameCandidate, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []interface{}

	for _, token := range tokens {
		clauses = append(clauses, "LOWER(candidatename) LIKE ?")
		args = append(args, "%"+strings.ToLower(token)+"%")
	}

	clauses = append(clauses, "SOUNDEX(candidatename) = SOUNDEX(?)")
	args = append(args, fullName)

	for _, token := range tokens {
		if len(token) > 2 {
			clauses = append(clauses, "SOUNDEX(candidatename) = SOUNDEX(?)")
			args = append(args, token)
		}
	}

	query := fmt.Sprintf(`
SELECT id, COALESCE(candidatename,''), COALESCE(designation,''), COALESCE(experience,''),
       COALESCE(location,''), COALESCE(email,''), COALESCE(mobile,'')
FROM resumes
WHERE candidatename IS NOT NULL AND (%s)
LIMIT 200`, strings.Join(clauses, " OR "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("name search query failed: %w", err)
	}
	defer rows.Close()

	var out []NameCandidate
	for rows.Next() {
		var c NameCandidate
		if err := rows.Scan(&c.ID, &c.CandidateName, &c.Designation,
			&c.Experience, &c.Location, &c.Email, &c.Mobile); err != nil {
			return nil, fmt.Errorf("failed to scan name candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
