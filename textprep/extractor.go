package textprep

import (
	"bytes"
	"context"
	"strings"

	"code.sajari.com/docconv"
)

// Extractor converts raw webpage content into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, content []byte) (string, error)
}

// DocconvExtractor extracts text from HTML using docconv.
type DocconvExtractor struct {
	useReadability bool
}

var _ Extractor = (*DocconvExtractor)(nil)

// NewDocconvExtractor creates an HTML extractor. With readability enabled,
// boilerplate such as navigation and footers is removed before conversion.
// Conversion runs in process and never shells out to tidy.
func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText converts HTML content to plain text. When readability keeps
// nothing, the whole document is converted instead.
func (e *DocconvExtractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrNoContent
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if e.useReadability {
		if readable := docconv.HTMLReadability(bytes.NewReader(content)); len(bytes.TrimSpace(readable)) > 0 {
			if text := docconv.HTMLToText(bytes.NewReader(readable)); strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
	}
	return docconv.HTMLToText(bytes.NewReader(content)), nil
}
