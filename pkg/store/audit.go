package store

import (
	"context"
	"fmt"
)

// LogSearchQuery appends a search query to the audit log and returns its id.
func (s *Store) LogSearchQuery(ctx context.Context, queryText, userID string) (int64, error) {
	var userArg interface{} = userID
	if userID == "" {
		userArg = nil
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_search_queries (query_text, user_id) VALUES (?, ?)`,
		queryText, userArg)
	if err != nil {
		return 0, fmt.Errorf("failed to log search query: %w", err)
	}
	return result.LastInsertId()
}

// SaveSearchResults stores a snapshot of the result list for a query.
func (s *Store) SaveSearchResults(ctx context.Context, queryID int64, resultsJSON string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_search_results (search_query_id, results_json) VALUES (?, ?)`,
		queryID, resultsJSON)
	if err != nil {
		return fmt.Errorf("failed to save search results: %w", err)
	}
	return nil
}

// DeleteSearchQuery removes a query; its result snapshots cascade.
func (s *Store) DeleteSearchQuery(ctx context.Context, queryID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_search_queries WHERE id = ?`, queryID)
	if err != nil {
		return fmt.Errorf("failed to delete search query: %w", err)
	}
	return nil
}
