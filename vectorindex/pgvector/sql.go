package pgvector

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/hnstream/vectorindex"
)

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS vector`

const existsSQL = `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_schema = current_schema() AND table_name = $1
		)`

// columnDimsSQL reads the declared dimension of a vector column. pgvector
// stores it as the column typmod, -1 when undeclared.
const columnDimsSQL = `
		SELECT a.atttypmod FROM pg_attribute a
		WHERE a.attrelid = to_regclass($1::text) AND a.attname = $2 AND NOT a.attisdropped`

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func columnType(f vectorindex.Field) string {
	switch f.Type {
	case vectorindex.FieldTag:
		if f.Name == vectorindex.KeyField {
			return "TEXT PRIMARY KEY"
		}
		return "TEXT NOT NULL DEFAULT ''"
	case vectorindex.FieldText:
		return "TEXT NOT NULL DEFAULT ''"
	case vectorindex.FieldNumeric:
		return "BIGINT NOT NULL DEFAULT 0"
	case vectorindex.FieldVector:
		return fmt.Sprintf("vector(%d) NOT NULL", f.Vector.Dims)
	default:
		return "TEXT"
	}
}

func dropTableSQL(s vectorindex.Schema) string {
	return "DROP TABLE IF EXISTS " + ident(s.Name)
}

func createTableSQL(s vectorindex.Schema) string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = ident(f.Name) + " " + columnType(f)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", ident(s.Name), strings.Join(cols, ",\n\t"))
}

// createIndexSQL returns the ANN index statement, or "" for flat (exact) search.
func createIndexSQL(s vectorindex.Schema) string {
	f, ok := s.VectorField()
	if !ok || f.Vector.Algorithm != vectorindex.AlgorithmHNSW {
		return ""
	}
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (%s vector_cosine_ops)",
		ident(s.Name+"_"+f.Name+"_idx"), ident(s.Name), ident(f.Name))
}

func upsertSQL(s vectorindex.Schema) string {
	cols := make([]string, len(s.Fields))
	params := make([]string, len(s.Fields))
	updates := make([]string, 0, len(s.Fields)-1)
	for i, f := range s.Fields {
		cols[i] = ident(f.Name)
		params[i] = fmt.Sprintf("$%d", i+1)
		if f.Name != vectorindex.KeyField {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", ident(f.Name), ident(f.Name)))
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		ident(s.Name), strings.Join(cols, ", "), strings.Join(params, ", "),
		ident(vectorindex.KeyField), strings.Join(updates, ", "))
}

func searchSQL(s vectorindex.Schema) string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = ident(f.Name)
	}
	emb := ident(vectorindex.EmbeddingField)
	return fmt.Sprintf("SELECT %s, %s <=> $1 AS distance FROM %s ORDER BY %s <=> $1 LIMIT $2",
		strings.Join(cols, ", "), emb, ident(s.Name), emb)
}

// pruneSQL deletes the chunk rows of one item that a reload did not rewrite.
func pruneSQL(s vectorindex.Schema) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s <> ALL($2)",
		ident(s.Name), ident("id"), ident(vectorindex.KeyField))
}

func checkDimensions(s vectorindex.Schema, typmod int) error {
	if want := s.Dimensions(); typmod != want {
		return fmt.Errorf("%w: %s.%s is vector(%d), want vector(%d)", vectorindex.ErrSchemaMismatch,
			s.Name, vectorindex.EmbeddingField, typmod, want)
	}
	return nil
}
