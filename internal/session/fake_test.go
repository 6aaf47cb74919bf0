package session

import (
	"context"
	"errors"
	"sync"

	"github.com/alanbriolat/spotdown/internal/backend"
)

var errTransport = errors.New("connection refused")

// fakeBackend records every call and answers from the configured functions.
type fakeBackend struct {
	mu            sync.Mutex
	infoFn        func(ctx context.Context, url string) (*backend.InfoResponse, error)
	downloadFn    func(ctx context.Context, req backend.DownloadRequest) (*backend.DownloadResponse, error)
	progressFn    func(ctx context.Context, taskID string) (*backend.Progress, error)
	infoCalls     []string
	downloadCalls []backend.DownloadRequest
	progressCalls map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		infoFn: func(context.Context, string) (*backend.InfoResponse, error) {
			return trackInfo(), nil
		},
		downloadFn: func(context.Context, backend.DownloadRequest) (*backend.DownloadResponse, error) {
			return &backend.DownloadResponse{TaskID: "task-1"}, nil
		},
		progressFn: func(context.Context, string) (*backend.Progress, error) {
			return &backend.Progress{Status: backend.StatusStarting}, nil
		},
		progressCalls: make(map[string]int),
	}
}

func (f *fakeBackend) Info(ctx context.Context, url string) (*backend.InfoResponse, error) {
	f.mu.Lock()
	f.infoCalls = append(f.infoCalls, url)
	fn := f.infoFn
	f.mu.Unlock()
	return fn(ctx, url)
}

func (f *fakeBackend) Download(ctx context.Context, req backend.DownloadRequest) (*backend.DownloadResponse, error) {
	f.mu.Lock()
	f.downloadCalls = append(f.downloadCalls, req)
	fn := f.downloadFn
	f.mu.Unlock()
	return fn(ctx, req)
}

func (f *fakeBackend) Progress(ctx context.Context, taskID string) (*backend.Progress, error) {
	f.mu.Lock()
	f.progressCalls[taskID]++
	fn := f.progressFn
	f.mu.Unlock()
	return fn(ctx, taskID)
}

func (f *fakeBackend) setProgress(fn func(ctx context.Context, taskID string) (*backend.Progress, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progressFn = fn
}

func (f *fakeBackend) progressCount(taskID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progressCalls[taskID]
}

func (f *fakeBackend) downloads() []backend.DownloadRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.DownloadRequest(nil), f.downloadCalls...)
}

// script returns each step once, in order, then repeats the last one forever.
func script(steps ...*backend.Progress) func(context.Context, string) (*backend.Progress, error) {
	var mu sync.Mutex
	i := 0
	return func(context.Context, string) (*backend.Progress, error) {
		mu.Lock()
		defer mu.Unlock()
		step := steps[i]
		if i < len(steps)-1 {
			i++
		}
		if step == nil {
			return nil, errTransport
		}
		copied := *step
		return &copied, nil
	}
}

func trackInfo() *backend.InfoResponse {
	return &backend.InfoResponse{
		Type: backend.TypeTrack,
		Data: []byte(`{"title":"Song A","artist":"Artist X","url":"https://src/1"}`),
	}
}

func progress(status string) *backend.Progress {
	return &backend.Progress{Status: status}
}

func downloading(percent float64) *backend.Progress {
	return &backend.Progress{Status: backend.StatusDownloading, Percent: &percent}
}

func intPtr(v int) *int { return &v }
