package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Resume is a persisted resume record. Nullable columns are represented as
// empty strings; the repository writes NULL for them.
type Resume struct {
	ID             int64
	MasterCategory string
	Category       string
	CandidateName  string
	JobRole        string
	Designation    string
	Experience     string
	Domain         string
	Mobile         string
	Email          string
	Location       string
	Education      string
	Filename       string
	SkillSet       string
	Status         string
	ResumeText     string
	PineconeStatus int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// resumeColumns is the whitelist for per-field updates. Extractors commit
// through UpdateField and may only touch these.
var resumeColumns = map[string]bool{
	"mastercategory": true,
	"category":       true,
	"candidatename":  true,
	"jobrole":        true,
	"designation":    true,
	"experience":     true,
	"domain":         true,
	"mobile":         true,
	"email":          true,
	"location":       true,
	"education":      true,
	"skillset":       true,
	"resume_text":    true,
}

const selectResumeSQL = `
SELECT id, COALESCE(mastercategory,''), COALESCE(category,''), COALESCE(candidatename,''),
       COALESCE(jobrole,''), COALESCE(designation,''), COALESCE(experience,''),
       COALESCE(domain,''), COALESCE(mobile,''), COALESCE(email,''), COALESCE(location,''),
       COALESCE(education,''), filename, COALESCE(skillset,''), status,
       COALESCE(resume_text,''), pinecone_status, created_at, updated_at
FROM resumes`

func scanResume(row interface{ Scan(...interface{}) error }) (*Resume, error) {
	var r Resume
	err := row.Scan(&r.ID, &r.MasterCategory, &r.Category, &r.CandidateName,
		&r.JobRole, &r.Designation, &r.Experience, &r.Domain, &r.Mobile,
		&r.Email, &r.Location, &r.Education, &r.Filename, &r.SkillSet,
		&r.Status, &r.ResumeText, &r.PineconeStatus, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan resume: %w", err)
	}
	return &r, nil
}

// CreateResume inserts a new record and returns its id.
func (s *Store) CreateResume(ctx context.Context, filename, status string) (int64, error) {
	if filename == "" {
		return 0, fmt.Errorf("filename is required")
	}
	if status == "" {
		status = StatusPending
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO resumes (filename, status) VALUES (?, ?)`, filename, status)
	if err != nil {
		return 0, fmt.Errorf("failed to create resume: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}
	return id, nil
}

// GetResume fetches a record by id.
func (s *Store) GetResume(ctx context.Context, id int64) (*Resume, error) {
	row := s.db.QueryRowContext(ctx, selectResumeSQL+` WHERE id = ?`, id)
	return scanResume(row)
}

// GetResumeByFilename fetches a record by its natural key. Re-uploads of
// the same filename update the existing record instead of creating one.
func (s *Store) GetResumeByFilename(ctx context.Context, filename string) (*Resume, error) {
	row := s.db.QueryRowContext(ctx, selectResumeSQL+` WHERE filename = ? LIMIT 1`, filename)
	return scanResume(row)
}

// GetResumesByIDs fetches several records preserving no particular order.
func (s *Store) GetResumesByIDs(ctx context.Context, ids []int64) (map[int64]*Resume, error) {
	out := make(map[int64]*Resume, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := selectResumeSQL + ` WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resumes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, rows.Err()
}

// UpdateField writes one column of one resume. Empty values are stored as
// NULL so downstream readers can tell "extracted nothing" from "".
func (s *Store) UpdateField(ctx context.Context, id int64, column, value string) error {
	if !resumeColumns[column] {
		return fmt.Errorf("column %q is not updatable", column)
	}

	var arg interface{} = value
	if value == "" {
		arg = nil
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE resumes SET %s = ? WHERE id = ?`, column), arg, id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// SetStatus transitions the lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE resumes SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// SetPineconeStatus records whether the resume's vectors landed.
func (s *Store) SetPineconeStatus(ctx context.Context, id int64, status int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE resumes SET pinecone_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set pinecone status: %w", err)
	}
	return nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ",?"
	}
	return out
}
