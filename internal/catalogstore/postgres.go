package catalogstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/nucleus/ucl-zuora/internal/core"
)

const postgresScheme = "postgres://catalog_snapshots/"

// PostgresStore keeps catalogs in the catalog_snapshots table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens dsn with driver ("postgres" for lib/pq, "pgx" for
// pgx stdlib) and ensures the schema exists.
func NewPostgresStore(ctx context.Context, driver, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, wrapError(CodeDatabase, false, errors.New("database url is required"))
	}
	if driver == "" {
		driver = "postgres"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, wrapError(CodeDatabase, false, err)
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	store, err := NewPostgresStoreWithDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreWithDB reuses an existing *sql.DB.
func NewPostgresStoreWithDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, wrapError(CodeDatabase, false, errors.New("db is required"))
	}
	if err := ensureTable(ctx, db); err != nil {
		return nil, wrapError(CodeDatabase, true, err)
	}
	return &PostgresStore{db: db}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS catalog_snapshots (
  run_id text PRIMARY KEY,
  stream_count integer NOT NULL,
  catalog jsonb NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now()
);
`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, runID string, catalog *core.Catalog) (string, error) {
	if err := validateRunID(runID); err != nil {
		return "", err
	}
	if catalog == nil {
		return "", wrapError(CodeInvalidCatalog, false, errors.New("catalog is required"))
	}
	data, err := catalog.Marshal()
	if err != nil {
		return "", wrapError(CodeInvalidCatalog, false, err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO catalog_snapshots (run_id, stream_count, catalog) VALUES ($1, $2, $3)
ON CONFLICT (run_id) DO UPDATE SET stream_count = EXCLUDED.stream_count, catalog = EXCLUDED.catalog, created_at = now()`,
		runID, len(catalog.Streams), string(data))
	if err != nil {
		return "", wrapError(CodeDatabase, true, err)
	}
	return postgresScheme + runID, nil
}

func (s *PostgresStore) Load(ctx context.Context, uri string) (*core.Catalog, error) {
	runID, ok := strings.CutPrefix(uri, postgresScheme)
	if !ok {
		return nil, wrapError(CodeInvalidURI, false, fmt.Errorf("%q is not a snapshot uri", uri))
	}
	if err := validateRunID(runID); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT catalog FROM catalog_snapshots WHERE run_id=$1`, runID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrapError(CodeObjectNotFound, false, err)
		}
		return nil, wrapError(CodeDatabase, true, err)
	}
	catalog, err := core.UnmarshalCatalog(data)
	if err != nil {
		return nil, wrapError(CodeInvalidCatalog, false, err)
	}
	return catalog, nil
}

// List returns snapshot URIs, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM catalog_snapshots ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, wrapError(CodeDatabase, true, err)
	}
	defer rows.Close()

	var uris []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, wrapError(CodeDatabase, true, err)
		}
		uris = append(uris, postgresScheme+runID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(CodeDatabase, true, err)
	}
	return uris, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
