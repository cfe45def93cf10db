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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/hnstream/core"
)

// MarshalCheckpoint serializes the cursor and update time of a checkpoint.
// The partition is not encoded; it is part of the storage key.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	updated := checkpoint.UpdatedAt.UnixMicro()
	buf := make([]byte, varint.Int64.Size(checkpoint.Cursor)+varint.Int64.Size(updated))
	n := varint.Int64.Marshal(checkpoint.Cursor, buf)
	varint.Int64.Marshal(updated, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a checkpoint for the given partition.
func UnmarshalCheckpoint(partition string, data []byte) (*core.Checkpoint, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, ErrTruncatedData)
	}
	cursor, n, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: cursor: %w", ErrSerializationFailed, err)
	}
	if n >= len(data) {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, ErrTruncatedData)
	}
	updated, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: updated at: %w", ErrSerializationFailed, err)
	}
	return &core.Checkpoint{
		Partition: partition,
		Cursor:    cursor,
		UpdatedAt: time.UnixMicro(updated).UTC(),
	}, nil
}
