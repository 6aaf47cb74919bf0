// Package media turns the resolver's loosely-shaped metadata into a single canonical ResolvedItem.
package media

import "fmt"

// PlaceholderGlyph is shown in place of a missing cover image.
const PlaceholderGlyph = "♪"

const (
	UnknownTitle  = "Unknown title"
	UnknownArtist = "Unknown artist"
)

type Kind int

const (
	KindSingle Kind = iota
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindCollection:
		return "collection"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type SingleItem struct {
	Title    string
	Subtitle string
	Album    string
	CoverURL string
}

type CollectionItem struct {
	Title     string
	Subtitle  string
	ItemCount int
	CoverURL  string
}

// Sources holds every URL candidate found in the resolver payload, for the download flow to choose from.
type Sources struct {
	// Direct is the payload's own `url` field.
	Direct string
	// Original is the `original_url` field.
	Original string
	// Platform is the platform link nested under `external_urls`.
	Platform string
}

// ResolvedItem is exactly one of a single item or a collection, selected by Kind.
type ResolvedItem struct {
	Kind       Kind
	Single     *SingleItem
	Collection *CollectionItem
	Sources    Sources
}

// Display is the presentation view of a ResolvedItem. Title and Subtitle are never empty.
type Display struct {
	Title    string
	Subtitle string
	CoverURL string
}

// Cover returns the cover URL, or PlaceholderGlyph if there is none.
func (d Display) Cover() string {
	if d.CoverURL == "" {
		return PlaceholderGlyph
	}
	return d.CoverURL
}

func (r ResolvedItem) Display() Display {
	var d Display
	switch {
	case r.Kind == KindCollection && r.Collection != nil:
		d = Display{Title: r.Collection.Title, Subtitle: r.Collection.Subtitle, CoverURL: r.Collection.CoverURL}
	case r.Kind == KindSingle && r.Single != nil:
		d = Display{Title: r.Single.Title, Subtitle: r.Single.Subtitle, CoverURL: r.Single.CoverURL}
	}
	if d.Title == "" {
		d.Title = UnknownTitle
	}
	if d.Subtitle == "" {
		d.Subtitle = UnknownArtist
	}
	return d
}

func (r ResolvedItem) String() string {
	d := r.Display()
	return fmt.Sprintf("%s{%q, %q}", r.Kind, d.Title, d.Subtitle)
}

// itemsLabel is the subtitle used for collections.
func itemsLabel(count int) string {
	return fmt.Sprintf("%d items", count)
}
