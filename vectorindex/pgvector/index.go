package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/vectorindex"
)

// Index is a vectorindex.Index backed by one Postgres table.
type Index struct {
	db     *sql.DB
	schema vectorindex.Schema
	upsert string
	prune  string
	search string
	logger *slog.Logger
}

var _ vectorindex.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithAlgorithm selects the vector search algorithm ("flat" or "hnsw").
func WithAlgorithm(algorithm string) Option {
	return func(i *Index) {
		i.schema = i.schema.WithAlgorithm(algorithm)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Connect opens a pooled database handle and verifies the connection.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrDSNRequired
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// NewIndex creates an index over the table named by schema. The handle is
// shared; closing the index does not close db.
func NewIndex(db *sql.DB, schema vectorindex.Schema, opts ...Option) (*Index, error) {
	if db == nil {
		return nil, ErrDatabaseRequired
	}
	i := &Index{
		db:     db,
		schema: schema,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if err := i.schema.Validate(); err != nil {
		return nil, err
	}
	i.upsert = upsertSQL(i.schema)
	i.prune = pruneSQL(i.schema)
	i.search = searchSQL(i.schema)
	i.logger = i.logger.With("component", "pgvector", "index", i.schema.Name)
	return i, nil
}

// Schema returns the collection layout.
func (i *Index) Schema() vectorindex.Schema {
	return i.schema
}

// Exists reports whether the table exists. An existing table whose
// embedding column has other dimensions yields ErrSchemaMismatch.
func (i *Index) Exists(ctx context.Context) (bool, error) {
	var exists bool
	if err := i.db.QueryRowContext(ctx, existsSQL, i.schema.Name).Scan(&exists); err != nil {
		return false, fmt.Errorf("table check failed: %w", err)
	}
	if !exists {
		return false, nil
	}

	var typmod int
	err := i.db.QueryRowContext(ctx, columnDimsSQL, ident(i.schema.Name), vectorindex.EmbeddingField).Scan(&typmod)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return true, fmt.Errorf("%w: %s has no %s column", vectorindex.ErrSchemaMismatch,
			i.schema.Name, vectorindex.EmbeddingField)
	case err != nil:
		return true, fmt.Errorf("column check failed: %w", err)
	}
	return true, checkDimensions(i.schema, typmod)
}

// Create creates the table, and the ANN index when the schema asks for one.
func (i *Index) Create(ctx context.Context, overwrite bool) error {
	if !overwrite {
		exists, err := i.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return vectorindex.ErrIndexExists
		}
	}

	stmts := []string{createExtensionSQL}
	if overwrite {
		stmts = append(stmts, dropTableSQL(i.schema))
	}
	stmts = append(stmts, createTableSQL(i.schema))
	if ddl := createIndexSQL(i.schema); ddl != "" {
		stmts = append(stmts, ddl)
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	i.logger.Info("index created", "overwrite", overwrite, "dims", i.schema.Dimensions())
	return nil
}

// Load validates all records and upserts them in one transaction. Each item
// in the batch is written whole, so rows of an item whose keys are not in
// the batch are left over from an earlier, longer chunking and are deleted.
func (i *Index) Load(ctx context.Context, records []core.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := vectorindex.ValidateRecords(i.schema, records); err != nil {
		return err
	}

	tx, err := i.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, i.upsert)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, rowArgs(i.schema, r)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %q: %w", r.KeyID, err)
		}
	}

	for _, item := range vectorindex.KeysByItem(records) {
		if _, err := tx.ExecContext(ctx, i.prune, item.ID, item.Keys); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prune %d: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

// Search returns the nearest rows to vector, scored 1 - cosine distance.
func (i *Index) Search(ctx context.Context, vector []float32, limit int) ([]core.SearchResult, error) {
	if len(vector) != i.schema.Dimensions() {
		return nil, fmt.Errorf("%w: %w: got %d, want %d", vectorindex.ErrDataError,
			core.ErrDimensionMismatch, len(vector), i.schema.Dimensions())
	}

	rows, err := i.db.QueryContext(ctx, i.search, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.SearchResult
	for rows.Next() {
		var (
			r        core.IndexRecord
			emb      pgvector.Vector
			distance float64
		)
		dest := append(scanTargets(i.schema, &r, &emb), &distance)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r.Embedding = emb.Slice()
		out = append(out, core.SearchResult{Record: r, Score: float32(1 - distance)})
	}
	return out, rows.Err()
}

// Close is a no-op; the shared handle is closed by its owner.
func (i *Index) Close() error {
	return nil
}

// rowArgs returns the statement arguments for a record in schema field order.
func rowArgs(s vectorindex.Schema, r core.IndexRecord) []any {
	args := make([]any, len(s.Fields))
	for n, f := range s.Fields {
		if f.Type == vectorindex.FieldVector {
			args[n] = pgvector.NewVector(r.Embedding)
			continue
		}
		v, _ := vectorindex.FieldValue(r, f.Name)
		args[n] = v
	}
	return args
}

func scanTargets(s vectorindex.Schema, r *core.IndexRecord, emb *pgvector.Vector) []any {
	dest := make([]any, len(s.Fields))
	for n, f := range s.Fields {
		switch f.Name {
		case vectorindex.KeyField:
			dest[n] = &r.KeyID
		case "id":
			dest[n] = &r.ID
		case "by":
			dest[n] = &r.By
		case "time":
			dest[n] = &r.Time
		case "type":
			dest[n] = &r.Type
		case "text":
			dest[n] = &r.Text
		case vectorindex.EmbeddingField:
			dest[n] = emb
		case "title":
			dest[n] = &r.Title
		case "url":
			dest[n] = &r.URL
		case "score":
			dest[n] = &r.Score
		case "descendants":
			dest[n] = &r.Descendants
		case "parent":
			dest[n] = &r.Parent
		case "root_id":
			dest[n] = &r.RootID
		default:
			dest[n] = new(any)
		}
	}
	return dest
}
