package pgvector

import "errors"

var (
	// ErrDatabaseRequired is returned when no database handle is supplied.
	ErrDatabaseRequired = errors.New("database handle required")

	// ErrDSNRequired is returned when connecting without a data source name.
	ErrDSNRequired = errors.New("dsn required")
)
