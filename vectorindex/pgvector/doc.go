// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package pgvector stores vector index collections in Postgres using the
// pgvector extension.
//
// Each collection maps to one table whose columns follow the collection
// schema. Tag and text fields become TEXT columns, numeric fields become
// BIGINT and the embedding becomes a vector(n) column. The key_id column is
// the primary key, so loads are idempotent upserts.
//
// The package talks to Postgres through database/sql with the pgx driver.
//
// # Usage
//
//	db, err := pgvector.Connect(ctx, "postgres://localhost:5432/hn")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	stories, err := pgvector.NewIndex(db, vectorindex.StorySchema(384))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = vectorindex.Open(ctx, stories, false)
package pgvector
