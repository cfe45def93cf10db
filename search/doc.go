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


// Package search runs semantic queries against the story and comment
// collections written by the stream.
//
// A query is cleaned the same way comment text is cleaned before embedding,
// embedded with the same model, and matched against one collection by
// cosine distance. Each hit is scored 1 - distance. An optional verbatim
// boost promotes hits whose text contains every non-stop-word of the query.
package search
