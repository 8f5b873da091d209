package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xerobot/pkg/retrylimit"
)

var validContentTypes = []string{
	"audio/", // general catch
	"video/",
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"application/ogg",
	"application/x-scpls",
	"application/xspf+xml",
	"application/octet-stream", // risky but often used for streams
}

var playlistExtensions = []string{".m3u", ".m3u8", ".pls", ".xspf"}

// StreamResolver validates direct streaming links by checking headers
// and content-type heuristics. Requests are rate limited and retried so
// a flaky upstream neither fails fast nor gets hammered.
type StreamResolver struct {
	Client  *http.Client
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig
}

func NewStreamResolver() *StreamResolver {
	return &StreamResolver{
		Client: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		retry:   retrylimit.DefaultRetryConfig(),
	}
}

// Resolve validates the query as a streamable URL and returns a Track.
// The RequestedBy field is left for the caller to fill in.
func (r *StreamResolver) Resolve(ctx context.Context, query string) (Track, error) {
	query = strings.TrimSpace(query)
	u, err := url.Parse(query)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Track{}, ErrInvalidQuery
	}

	var contentType, finalURL string
	err = retrylimit.WithRetry(ctx, func() error {
		var ferr error
		contentType, finalURL, ferr = r.fetchContentType(ctx, query)
		return ferr
	}, r.limiter, r.retry)
	if err != nil {
		return Track{}, fmt.Errorf("failed to probe stream: %w", err)
	}

	if !r.isAllowedType(contentType) && !r.isLikelyPlaylist(finalURL) {
		return Track{}, fmt.Errorf("%w: content-type %q at %s", ErrUnsupportedSource, contentType, finalURL)
	}

	return Track{
		Title:     titleFromURL(finalURL),
		StreamURL: finalURL,
	}, nil
}

// fetchContentType issues a HEAD request, falling back to GET for hosts
// that reject HEAD.
func (r *StreamResolver) fetchContentType(ctx context.Context, rawURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.Client.Do(req)
	if err != nil || resp.StatusCode >= 400 {
		if err == nil {
			resp.Body.Close()
		}
		req, gerr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if gerr != nil {
			return "", "", gerr
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")
		resp, err = r.Client.Do(req)
		if err != nil {
			return "", "", fmt.Errorf("GET fallback failed: %w", err)
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	contentType := resp.Header.Get("Content-Type")
	finalURL := resp.Request.URL.String() // actual URL after redirects
	return contentType, finalURL, nil
}

func (r *StreamResolver) isAllowedType(contentType string) bool {
	// Strip params like "audio/mpeg; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	contentType = strings.TrimSpace(strings.ToLower(contentType))

	for _, allowed := range validContentTypes {
		if strings.HasPrefix(contentType, allowed) {
			return true
		}
	}
	return false
}

func (r *StreamResolver) isLikelyPlaylist(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lower := strings.ToLower(u.Path)
	for _, ext := range playlistExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
