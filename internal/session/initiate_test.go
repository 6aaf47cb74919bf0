package session

import (
	"context"
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"

	"github.com/alanbriolat/spotdown/internal/backend"
	"github.com/alanbriolat/spotdown/internal/media"
	"github.com/alanbriolat/spotdown/internal/preference"
)

func TestEffectiveURL(t *testing.T) {
	assert := assert_.New(t)

	item := media.ResolvedItem{Sources: media.Sources{Direct: "https://a", Original: "https://b", Platform: "https://c"}}
	assert.Equal("https://a", EffectiveURL(item, "https://q"))

	item.Sources.Direct = ""
	assert.Equal("https://b", EffectiveURL(item, "https://q"))

	item.Sources.Original = "  "
	assert.Equal("https://c", EffectiveURL(item, "https://q"))

	item.Sources.Platform = ""
	assert.Equal("https://q", EffectiveURL(item, "https://q"))

	assert.Equal("", EffectiveURL(item, ""))
}

func TestInitiator_NoURL(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()

	_, err := NewInitiator(b, nil).Initiate(context.Background(), media.ResolvedItem{}, "")
	var initErr *InitiationError
	if assert.ErrorAs(err, &initErr) {
		assert.Equal(ReasonNoURL, initErr.Reason)
	}
	assert.Empty(b.downloads())
}

func TestInitiator_DefaultQuality(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()

	handle, err := NewInitiator(b, preference.NewMemoryStore()).Initiate(context.Background(), media.ResolvedItem{}, "https://q")
	assert.NoError(err)
	assert.Equal(TaskHandle{ID: "task-1", SourceURL: "https://q", Quality: preference.Quality320}, handle)
	assert.Equal([]backend.DownloadRequest{{SourceURL: "https://q", Quality: "320K"}}, b.downloads())
}

func TestInitiator_StoredQuality(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	prefs := preference.NewMemoryStore()
	assert.NoError(preference.WriteQuality(prefs, preference.Quality128))

	item := media.ResolvedItem{Sources: media.Sources{Original: "https://orig"}}
	handle, err := NewInitiator(b, prefs).Initiate(context.Background(), item, "https://q")
	assert.NoError(err)
	assert.Equal(preference.Quality128, handle.Quality)
	assert.Equal([]backend.DownloadRequest{{SourceURL: "https://orig", Quality: "128K"}}, b.downloads())
}

func TestInitiator_InvalidStoredQuality(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	prefs := preference.NewMemoryStore()
	assert.NoError(prefs.Set(preference.KeyQuality, "999K"))

	handle, err := NewInitiator(b, prefs).Initiate(context.Background(), media.ResolvedItem{}, "https://q")
	assert.NoError(err)
	assert.Equal(preference.DefaultQuality, handle.Quality)
}

func TestInitiator_MissingID(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	b.downloadFn = func(context.Context, backend.DownloadRequest) (*backend.DownloadResponse, error) {
		return &backend.DownloadResponse{Status: "started"}, nil
	}

	_, err := NewInitiator(b, nil).Initiate(context.Background(), media.ResolvedItem{}, "https://q")
	var initErr *InitiationError
	if assert.ErrorAs(err, &initErr) {
		assert.Equal(ReasonMissingID, initErr.Reason)
	}
}

func TestInitiator_RequestFailed(t *testing.T) {
	assert := assert_.New(t)
	b := newFakeBackend()
	b.downloadFn = func(context.Context, backend.DownloadRequest) (*backend.DownloadResponse, error) {
		return nil, &backend.StatusError{Op: "download", StatusCode: 500, Detail: "boom"}
	}

	_, err := NewInitiator(b, nil).Initiate(context.Background(), media.ResolvedItem{}, "https://q")
	var initErr *InitiationError
	if assert.ErrorAs(err, &initErr) {
		assert.Equal(ReasonRequestFailed, initErr.Reason)
	}
	var statusErr *backend.StatusError
	assert.True(errors.As(err, &statusErr))
	assert.Equal(500, statusErr.StatusCode)
}
