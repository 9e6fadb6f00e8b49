package storage

import (
	"context"
	"fmt"
)

// InlineSource serves a payload given literally in the reference.
type InlineSource struct {
	content []byte
}

// NewInlineSource wraps literal content, typically 0x-prefixed hex text.
func NewInlineSource(content string) *InlineSource {
	return &InlineSource{content: []byte(content)}
}

// Fetch returns a copy of the literal content.
func (s *InlineSource) Fetch(ctx context.Context) ([]byte, error) {
	return append([]byte(nil), s.content...), nil
}

// Available always reports true.
func (s *InlineSource) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this source.
func (s *InlineSource) Name() string {
	return fmt.Sprintf("inline-%d", len(s.content))
}

// LocationURI returns the literal content, shortened for logs.
func (s *InlineSource) LocationURI() string {
	if len(s.content) > 18 {
		return string(s.content[:18]) + "..."
	}
	return string(s.content)
}
