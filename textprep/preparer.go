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


package textprep

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize approximates a 256-token model window in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 100
)

// Preparer normalizes and chunks story and comment text into model-sized segments.
// It is safe for concurrent use.
type Preparer struct {
	extractor    Extractor
	splitter     textsplitter.TextSplitter
	chunkSize    int
	chunkOverlap int
}

// Option configures a Preparer.
type Option func(*Preparer)

// WithExtractor replaces the HTML extractor.
func WithExtractor(e Extractor) Option {
	return func(p *Preparer) {
		if e != nil {
			p.extractor = e
		}
	}
}

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Preparer) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithChunkOverlap sets the overlap between adjacent chunks in characters.
func WithChunkOverlap(overlap int) Option {
	return func(p *Preparer) {
		if overlap >= 0 {
			p.chunkOverlap = overlap
		}
	}
}

// NewPreparer creates a text preparer. The default extractor is docconv
// with readability enabled.
func NewPreparer(opts ...Option) *Preparer {
	p := &Preparer{
		extractor:    NewDocconvExtractor(true),
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.chunkOverlap >= p.chunkSize {
		p.chunkOverlap = p.chunkSize / 4
	}

	p.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
	return p
}

// PrepareStory extracts, cleans and chunks a story's HTML content.
func (p *Preparer) PrepareStory(ctx context.Context, content []byte) ([]string, error) {
	if len(content) == 0 {
		return nil, ErrNoContent
	}
	text, err := p.extractor.ExtractText(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return p.Chunk(Clean(text))
}

// PrepareComment cleans and chunks a comment's own text.
func (p *Preparer) PrepareComment(text string) ([]string, error) {
	return p.Chunk(Clean(StripMarkup(text)))
}

// Chunk splits already-cleaned text into segments no longer than the chunk size.
func (p *Preparer) Chunk(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	out := chunks[:0]
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoText
	}
	return out, nil
}
