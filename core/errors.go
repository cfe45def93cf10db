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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidRecord indicates an IndexRecord failed validation.
	ErrInvalidRecord = errors.New("invalid index record")

	// ErrMissingID indicates the item id is not positive.
	ErrMissingID = errors.New("id must be positive")

	// ErrMissingKey indicates an index record has no key.
	ErrMissingKey = errors.New("key cannot be empty")

	// ErrDimensionMismatch indicates a vector does not have the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrSelfParent indicates an item lists itself as its parent.
	ErrSelfParent = errors.New("item cannot be its own parent")
)
