package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/spotdown/internal/backend"
	"github.com/alanbriolat/spotdown/internal/media"
	"github.com/alanbriolat/spotdown/internal/preference"
)

// EffectiveURL picks the URL to submit for download: the payload's direct URL, then its original URL, then the
// nested platform link, then whatever the user originally looked up. Returns "" if all are empty.
func EffectiveURL(item media.ResolvedItem, originalQuery string) string {
	for _, candidate := range []string{
		item.Sources.Direct,
		item.Sources.Original,
		item.Sources.Platform,
		originalQuery,
	} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return ""
}

// Initiator submits download jobs.
type Initiator struct {
	backend Backend
	prefs   preference.Store
	log     *zap.SugaredLogger
}

// NewInitiator creates an Initiator. prefs may be nil, in which case the default quality is always used.
func NewInitiator(b Backend, prefs preference.Store) *Initiator {
	return &Initiator{backend: b, prefs: prefs, log: zap.S().Named("initiator")}
}

// Initiate asks the backend to start downloading item. Every failure is an *InitiationError.
func (i *Initiator) Initiate(ctx context.Context, item media.ResolvedItem, originalQuery string) (TaskHandle, error) {
	sourceURL := EffectiveURL(item, originalQuery)
	if sourceURL == "" {
		return TaskHandle{}, &InitiationError{Reason: ReasonNoURL}
	}

	quality, err := preference.ReadQuality(i.prefs)
	if err != nil {
		i.log.Warnf("using %s quality: %v", quality, err)
	}

	resp, err := i.backend.Download(ctx, backend.DownloadRequest{SourceURL: sourceURL, Quality: quality.String()})
	if err != nil {
		return TaskHandle{}, &InitiationError{Reason: ReasonRequestFailed, Err: err}
	}
	id := strings.TrimSpace(resp.TaskID)
	if id == "" {
		return TaskHandle{}, &InitiationError{Reason: ReasonMissingID}
	}
	i.log.Infow("download started", "task_id", id, "url", sourceURL, "quality", quality)
	return TaskHandle{ID: TaskID(id), SourceURL: sourceURL, Quality: quality}, nil
}
