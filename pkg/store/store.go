// Package store is the MySQL repository. It is the source of truth for
// resume records; vector metadata is a denormalized copy of what lives here.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/talentvec/talentvec/pkg/config"
)

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS resumes (
    id INT AUTO_INCREMENT PRIMARY KEY,
    mastercategory VARCHAR(255),
    category VARCHAR(255),
    candidatename VARCHAR(255),
    jobrole VARCHAR(255),
    designation VARCHAR(255),
    experience VARCHAR(100),
    domain VARCHAR(255),
    mobile VARCHAR(50),
    email VARCHAR(255),
    location VARCHAR(255),
    education TEXT,
    filename VARCHAR(512) NOT NULL,
    skillset TEXT,
    status VARCHAR(50) DEFAULT 'pending',
    resume_text TEXT,
    pinecone_status INT DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ai_search_queries (
    id INT AUTO_INCREMENT PRIMARY KEY,
    query_text TEXT,
    user_id VARCHAR(255),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ai_search_results (
    id INT AUTO_INCREMENT PRIMARY KEY,
    search_query_id INT NOT NULL,
    results_json LONGTEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_search_results_query (search_query_id),
    CONSTRAINT fk_search_results_query FOREIGN KEY (search_query_id)
        REFERENCES ai_search_queries(id) ON DELETE CASCADE
);
`

// Store wraps the shared connection pool. One instance per process.
type Store struct {
	db *sql.DB
}

// Open connects to MySQL, configures the pool, and ensures the schema.
func Open(cfg *config.MySQLConfig) (*Store, error) {
	db, err := sql.Open("mysql", cfg.DSN()+"&multiStatements=true")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.CheckoutTimeout)*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection. Used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Ping checks database reachability for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
