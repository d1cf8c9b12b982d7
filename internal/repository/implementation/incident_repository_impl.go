package implementation

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nova-drive-be/internal/entity"
	"nova-drive-be/internal/repository/contract"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type incidentRepository struct {
	db *sql.DB
}

// NewIncidentRepository opens (or creates) the SQLite incident log.
func NewIncidentRepository(dbPath string) (contract.IIncidentRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; the escalation handler records at most one incident at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &incidentRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return repo, nil
}

func (r *incidentRepository) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		outcome TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		latitude REAL,
		longitude REAL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_incidents_started ON incidents(started_at);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *incidentRepository) Create(ctx context.Context, in *entity.Incident) error {
	if in.Id == uuid.Nil {
		in.Id = uuid.New()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO incidents (id, outcome, started_at, ended_at, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Id.String(), in.Outcome,
		in.StartedAt.UnixMilli(), in.EndedAt.UnixMilli(),
		nullFloat(in.Latitude), nullFloat(in.Longitude),
		in.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (r *incidentRepository) FindRecent(ctx context.Context, limit, offset int) ([]*entity.Incident, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, outcome, started_at, ended_at, latitude, longitude, created_at
		FROM incidents ORDER BY started_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	var out []*entity.Incident
	for rows.Next() {
		var (
			id                      string
			in                      entity.Incident
			started, ended, created int64
			lat, lon                sql.NullFloat64
		)
		if err := rows.Scan(&id, &in.Outcome, &started, &ended, &lat, &lon, &created); err != nil {
			return nil, fmt.Errorf("scan incident row: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse incident id %q: %w", id, err)
		}
		in.Id = parsed
		in.StartedAt = time.UnixMilli(started)
		in.EndedAt = time.UnixMilli(ended)
		in.CreatedAt = time.UnixMilli(created)
		if lat.Valid && lon.Valid {
			in.Latitude = &lat.Float64
			in.Longitude = &lon.Float64
		}
		out = append(out, &in)
	}
	return out, rows.Err()
}

func (r *incidentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

func (r *incidentRepository) Close() error {
	return r.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
