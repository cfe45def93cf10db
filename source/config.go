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


package source

import (
	"fmt"
	"time"
)

// Config holds the polling schedule and start position.
type Config struct {
	// Interval is the time between wakes.
	// Default: 15s
	Interval time.Duration

	// AlignTo, when set, places wakes on interval boundaries counted from it.
	AlignTo time.Time

	// InitID is the first id to emit when no checkpoint exists. Zero means
	// start from the upstream max id at startup.
	InitID int64

	// MaxBatch caps the ids emitted per wake. Zero means unlimited.
	MaxBatch int64

	// StartupAttempts bounds the initial max id query.
	// Default: 5
	StartupAttempts int

	// StartupDelay is the base delay for exponential backoff of the initial query.
	// Default: 1s
	StartupDelay time.Duration
}

// DefaultConfig returns a Config polling every 15 seconds from the current max id.
func DefaultConfig() Config {
	return Config{
		Interval:        15 * time.Second,
		StartupAttempts: 5,
		StartupDelay:    time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.InitID < 0 {
		return fmt.Errorf("%w: init id %d", ErrInvalidConfig, c.InitID)
	}
	if c.MaxBatch < 0 {
		return fmt.Errorf("%w: max batch %d", ErrInvalidConfig, c.MaxBatch)
	}
	if c.StartupAttempts < 1 {
		return fmt.Errorf("%w: startup attempts must be positive", ErrInvalidConfig)
	}
	return nil
}
