package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/spotdown/internal/media"
)

// Resolver looks up metadata for a source URL.
type Resolver struct {
	backend Backend
	log     *zap.SugaredLogger
}

func NewResolver(b Backend) *Resolver {
	return &Resolver{backend: b, log: zap.S().Named("resolver")}
}

// Resolve returns the normalized metadata for sourceURL. Every failure is a *ResolutionError; the URL format is left
// for the backend to judge.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (media.ResolvedItem, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return media.ResolvedItem{}, &ResolutionError{URL: sourceURL, Err: ErrEmptyURL}
	}
	resp, err := r.backend.Info(ctx, sourceURL)
	if err != nil {
		r.log.Debugw("lookup failed", "url", sourceURL, "error", err)
		return media.ResolvedItem{}, &ResolutionError{URL: sourceURL, Err: err}
	}
	item, err := media.Normalize(resp)
	if err != nil {
		r.log.Debugw("lookup returned unusable data", "url", sourceURL, "error", err)
		return media.ResolvedItem{}, &ResolutionError{URL: sourceURL, Err: err}
	}
	r.log.Debugw("resolved", "url", sourceURL, "item", item.String())
	return item, nil
}
