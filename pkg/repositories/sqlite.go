package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cbodonnell/ducktag/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	statements, err := migrations("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, migration := range statements {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveMatchResult(ctx context.Context, result *models.MatchResult) (*models.MatchResult, error) {
	q := `
	INSERT INTO match_results (replica_id, winner_id, winner_name, started_at, ended_at, participants, deaths, winner_it_time)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	res, err := r.db.ExecContext(ctx, q,
		result.ReplicaID, result.WinnerID, result.WinnerName, result.StartedAt,
		result.EndedAt, result.Participants, result.Deaths, result.WinnerItTime,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match result: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get match result id: %v", err)
	}

	saved := *result
	saved.ID = id
	return &saved, nil
}

func (r *SQLiteRepository) GetMatchResult(ctx context.Context, id int64) (*models.MatchResult, error) {
	q := `
	SELECT id, replica_id, winner_id, winner_name, started_at, ended_at, participants, deaths, winner_it_time
	FROM match_results WHERE id = ?;
	`
	result, err := scanMatchResult(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan match result: %v", err)
	}
	return result, nil
}

func (r *SQLiteRepository) ListMatchResults(ctx context.Context, limit int) ([]*models.MatchResult, error) {
	q := `
	SELECT id, replica_id, winner_id, winner_name, started_at, ended_at, participants, deaths, winner_it_time
	FROM match_results ORDER BY ended_at DESC, id DESC LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query match results: %v", err)
	}
	defer rows.Close()

	results := []*models.MatchResult{}
	for rows.Next() {
		result, err := scanMatchResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match result: %v", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match results: %v", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatchResult(row scanner) (*models.MatchResult, error) {
	result := &models.MatchResult{}
	err := row.Scan(
		&result.ID, &result.ReplicaID, &result.WinnerID, &result.WinnerName, &result.StartedAt,
		&result.EndedAt, &result.Participants, &result.Deaths, &result.WinnerItTime,
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}
