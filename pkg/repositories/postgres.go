package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository connects to the database and applies the migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("unable to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	statements, err := migrations("postgres")
	if err != nil {
		conn.Close(ctx)
		return nil, err
	}
	for _, migration := range statements {
		if _, err := conn.Exec(ctx, migration); err != nil {
			conn.Close(ctx)
			return nil, fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveMatchResult(ctx context.Context, result *models.MatchResult) (*models.MatchResult, error) {
	q := `
	INSERT INTO match_results (replica_id, winner_id, winner_name, started_at, ended_at, participants, deaths, winner_it_time)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id;
	`
	saved := *result
	err := r.conn.QueryRow(ctx, q,
		result.ReplicaID, result.WinnerID, result.WinnerName, result.StartedAt,
		result.EndedAt, result.Participants, result.Deaths, result.WinnerItTime,
	).Scan(&saved.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match result: %v", err)
	}
	return &saved, nil
}

func (r *PostgresRepository) GetMatchResult(ctx context.Context, id int64) (*models.MatchResult, error) {
	q := `
	SELECT id, replica_id, winner_id, winner_name, started_at, ended_at, participants, deaths, winner_it_time
	FROM match_results WHERE id = $1;
	`
	result, err := scanMatchResult(r.conn.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan match result: %v", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListMatchResults(ctx context.Context, limit int) ([]*models.MatchResult, error) {
	q := `
	SELECT id, replica_id, winner_id, winner_name, started_at, ended_at, participants, deaths, winner_it_time
	FROM match_results ORDER BY ended_at DESC, id DESC LIMIT $1;
	`
	rows, err := r.conn.Query(ctx, q, listLimit(limit))
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
