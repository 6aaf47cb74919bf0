package media

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alanbriolat/spotdown/generic"
	"github.com/alanbriolat/spotdown/internal/backend"
)

var (
	ErrMalformedPayload = errors.New("malformed resolver payload")
)

// collectionTypes are the declared resolver types that describe more than one item.
var collectionTypes = generic.NewSet(backend.TypePlaylist, backend.TypeAlbum)

// Field names tried in order of precedence.
var (
	titleFields = []string{"title", "name"}
	coverFields = []string{"cover_url", "cover_art"}
)

// syntheticTitle is used for collections whose payload has no usable title.
func syntheticTitle(declaredType string) string {
	if strings.EqualFold(declaredType, backend.TypeAlbum) {
		return "Album"
	}
	return "Playlist"
}

// Normalize converts a resolver response into a ResolvedItem. Only a payload that is neither a JSON object nor a
// JSON array fails; missing or oddly-typed fields fall back to placeholders.
func Normalize(resp *backend.InfoResponse) (ResolvedItem, error) {
	if resp == nil {
		return ResolvedItem{}, fmt.Errorf("%w: no response", ErrMalformedPayload)
	}
	data := bytes.TrimSpace(resp.Data)
	if len(data) == 0 {
		return ResolvedItem{}, fmt.Errorf("%w: no data", ErrMalformedPayload)
	}
	switch data[0] {
	case '[':
		var list []interface{}
		if err := json.Unmarshal(data, &list); err != nil {
			return ResolvedItem{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return normalizeSequence(resp, list), nil
	case '{':
		var record map[string]interface{}
		if err := json.Unmarshal(data, &record); err != nil {
			return ResolvedItem{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if collectionTypes.Contains(strings.ToLower(resp.Type)) {
			return normalizeCollectionRecord(resp, record), nil
		}
		return normalizeSingle(record), nil
	default:
		return ResolvedItem{}, fmt.Errorf("%w: data is neither an object nor a list", ErrMalformedPayload)
	}
}

func normalizeSequence(resp *backend.InfoResponse, list []interface{}) ResolvedItem {
	count := len(list)
	if resp.Count != nil && *resp.Count >= 0 {
		count = *resp.Count
	}
	var cover string
	if len(list) > 0 {
		if first, ok := list[0].(map[string]interface{}); ok {
			cover = firstString(first, coverFields...)
		}
	}
	return ResolvedItem{
		Kind: KindCollection,
		Collection: &CollectionItem{
			Title:     syntheticTitle(resp.Type),
			Subtitle:  itemsLabel(count),
			ItemCount: count,
			CoverURL:  cover,
		},
	}
}

func normalizeCollectionRecord(resp *backend.InfoResponse, record map[string]interface{}) ResolvedItem {
	tracks, _ := record["tracks"].([]interface{})
	count := len(tracks)
	if resp.Count != nil && *resp.Count >= 0 {
		count = *resp.Count
	}
	title := firstString(record, titleFields...)
	if title == "" {
		title = syntheticTitle(resp.Type)
	}
	cover := firstString(record, coverFields...)
	if cover == "" && len(tracks) > 0 {
		if first, ok := tracks[0].(map[string]interface{}); ok {
			cover = firstString(first, coverFields...)
		}
	}
	return ResolvedItem{
		Kind: KindCollection,
		Collection: &CollectionItem{
			Title:     title,
			Subtitle:  itemsLabel(count),
			ItemCount: count,
			CoverURL:  cover,
		},
		Sources: sources(record),
	}
}

func normalizeSingle(record map[string]interface{}) ResolvedItem {
	title := firstString(record, titleFields...)
	if title == "" {
		title = UnknownTitle
	}
	subtitle := firstString(record, "artist")
	if subtitle == "" {
		subtitle = nestedString(record, "owner", "display_name")
	}
	if subtitle == "" {
		subtitle = UnknownArtist
	}
	return ResolvedItem{
		Kind: KindSingle,
		Single: &SingleItem{
			Title:    title,
			Subtitle: subtitle,
			Album:    firstString(record, "album"),
			CoverURL: firstString(record, coverFields...),
		},
		Sources: sources(record),
	}
}

func sources(record map[string]interface{}) Sources {
	return Sources{
		Direct:   firstString(record, "url"),
		Original: firstString(record, "original_url"),
		Platform: nestedString(record, "external_urls", "spotify"),
	}
}

// firstString returns the first of keys whose value is a non-empty string.
func firstString(record map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func nestedString(record map[string]interface{}, outer, inner string) string {
	nested, ok := record[outer].(map[string]interface{})
	if !ok {
		return ""
	}
	return firstString(nested, inner)
}
