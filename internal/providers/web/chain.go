package web

import (
	"context"
	"errors"
	"strings"

	"github.com/sandevgo/tuskqa/internal/core"
)

// Chain asks each source in turn and returns the first non-empty summary.
// Errors are collected and only returned when no source produced text.
type Chain []core.WebKnowledge

func (c Chain) Summarize(ctx context.Context, topic string) (string, error) {
	var errs []error
	for _, src := range c {
		if src == nil {
			continue
		}
		text, err := src.Summarize(ctx, topic)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", errors.Join(errs...)
}
