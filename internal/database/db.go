// Package database persists completed decisions and anomaly reports to
// PostgreSQL for audit. The engine works without it; the server wires it
// in when connection parameters are configured.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Alias1177/OracleGuard/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			id BIGSERIAL PRIMARY KEY,
			submission_id BIGINT NOT NULL,
			result TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			reasoning JSONB NOT NULL,
			error_detail TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS anomaly_reports (
			id BIGSERIAL PRIMARY KEY,
			submission_id BIGINT NOT NULL,
			has_anomalies BOOLEAN NOT NULL,
			anomalies JSONB NOT NULL,
			insufficient_data BOOLEAN NOT NULL DEFAULT FALSE,
			note TEXT,
			generated_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

// SaveDecision appends a completed decision to the audit table.
func (db *DB) SaveDecision(decision models.Decision) error {
	reasoning, err := json.Marshal(decision.Reasoning)
	if err != nil {
		return fmt.Errorf("encoding reasoning: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO decisions (
			submission_id, result, confidence, reasoning, error_detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		decision.SubmissionID,
		string(decision.Result),
		decision.Confidence,
		reasoning,
		nullString(decision.ErrorDetail),
		time.UnixMilli(decision.Timestamp),
	)
	return err
}

// SaveReport appends a completed anomaly report to the audit table.
func (db *DB) SaveReport(report models.AnomalyReport) error {
	anomalies, err := json.Marshal(report.Anomalies)
	if err != nil {
		return fmt.Errorf("encoding anomalies: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO anomaly_reports (
			submission_id, has_anomalies, anomalies, insufficient_data, note, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`,
		report.SubmissionID,
		report.HasAnomalies,
		anomalies,
		report.InsufficientData,
		nullString(report.Note),
		time.UnixMilli(report.GeneratedAt),
	)
	return err
}

// RecentDecisions returns the latest persisted decisions, newest first.
func (db *DB) RecentDecisions(limit int) ([]models.Decision, error) {
	rows, err := db.Query(`
		SELECT submission_id, result, confidence, reasoning, error_detail, created_at
		FROM decisions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var (
			decision    models.Decision
			result      string
			reasoning   []byte
			errorDetail sql.NullString
			createdAt   time.Time
		)
		if err := rows.Scan(
			&decision.SubmissionID, &result, &decision.Confidence,
			&reasoning, &errorDetail, &createdAt,
		); err != nil {
			return nil, err
		}
		decision.Result = models.Verdict(result)
		if err := json.Unmarshal(reasoning, &decision.Reasoning); err != nil {
			return nil, fmt.Errorf("decoding reasoning: %w", err)
		}
		if errorDetail.Valid {
			decision.ErrorDetail = errorDetail.String
		}
		decision.Timestamp = createdAt.UnixMilli()
		decisions = append(decisions, decision)
	}
	return decisions, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
