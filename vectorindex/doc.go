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


// Package vectorindex defines the write and query boundary to the vector
// index that holds enriched Hacker News items.
//
// Each item kind is written to its own collection described by a Schema.
// A collection stores one row per text chunk; rows are keyed by
// core.RecordKey so that replays after a restart upsert the same rows.
//
// # Writing
//
// Every branch worker owns a Batcher that buffers the records produced for
// each upstream item. When the buffer reaches its configured size, or when
// the worker is flushed at the end of a wake, the Batcher hands the buffered
// batch-of-batches to a Sink. The Sink flattens it and performs one Load on
// the Index. A Load failure is logged and the batch is discarded; it never
// stops the worker.
//
// # Implementations
//
//   - vectorindex/pgvector: Postgres with the pgvector extension
//   - MemoryIndex: in-process index used by tests and local dry runs
package vectorindex
