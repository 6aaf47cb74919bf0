package session

import (
	"context"

	"github.com/alanbriolat/spotdown/internal/backend"
)

// Backend is the part of the job processor API the session drives. *backend.Client implements it.
type Backend interface {
	Info(ctx context.Context, sourceURL string) (*backend.InfoResponse, error)
	Download(ctx context.Context, req backend.DownloadRequest) (*backend.DownloadResponse, error)
	Progress(ctx context.Context, taskID string) (*backend.Progress, error)
}

var _ Backend = (*backend.Client)(nil)
