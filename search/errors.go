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


package search

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when no collection is provided.
	ErrIndexRequired = errors.New("at least one index required")

	// ErrEmptyQuery is returned when nothing is left of the query after cleaning.
	ErrEmptyQuery = errors.New("empty query")

	// ErrUnknownCollection is returned when searching a kind with no collection.
	ErrUnknownCollection = errors.New("no collection for kind")
)
