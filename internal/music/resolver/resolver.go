// Package resolver turns a user query into a playable track. Resolution
// is a network call that may take seconds and may fail; callers are
// expected to run it off the playback scheduler and feed the result
// back in.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var (
	ErrInvalidQuery      = errors.New("query is not a valid stream URL")
	ErrUnsupportedSource = errors.New("unsupported stream source")
)

// Track is a resolved, playable audio reference. Immutable once built.
type Track struct {
	Title       string
	StreamURL   string
	RequestedBy string
}

// Resolver resolves a query into a Track.
type Resolver interface {
	Resolve(ctx context.Context, query string) (Track, error)
}

// titleFromURL derives a display title from the stream URL when the
// upstream offers no metadata.
func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	base := path.Base(u.Path)
	if base == "" || base == "/" || base == "." {
		return u.Host
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return fmt.Sprintf("%s (%s)", base, u.Host)
}
