package repositories

import (
	"context"
	"embed"
	"fmt"
	"net/url"

	"github.com/cbodonnell/ducktag/pkg/repositories/models"
)

const (
	// DefaultListLimit is used when a non-positive limit is requested
	DefaultListLimit = 50
)

//go:embed migrations
var migrationsFS embed.FS

// Repository stores match outcomes. It never stores live game state.
type Repository interface {
	Close(ctx context.Context) error
	SaveMatchResult(ctx context.Context, result *models.MatchResult) (*models.MatchResult, error)
	GetMatchResult(ctx context.Context, id int64) (*models.MatchResult, error)
	// ListMatchResults returns the most recent results first
	ListMatchResults(ctx context.Context, limit int) ([]*models.MatchResult, error)
}

// NewRepository opens the repository named by a database URL.
// Supported schemes are sqlite and postgresql.
func NewRepository(ctx context.Context, databaseURL string) (Repository, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %v", err)
	}

	switch u.Scheme {
	case "sqlite":
		return NewSQLiteRepository(ctx, u.Host+u.Path)
	case "postgres", "postgresql":
		return NewPostgresRepository(ctx, u.String())
	default:
		return nil, fmt.Errorf("unknown database type %s", u.Scheme)
	}
}

func migrations(dialect string) ([]string, error) {
	dir := "migrations/" + dialect
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	var statements []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		b, err := migrationsFS.ReadFile(dir + "/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", entry.Name(), err)
		}
		statements = append(statements, string(b))
	}
	return statements, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
