package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	youtube "github.com/kkdai/youtube/v2"
	"golang.org/x/net/proxy"
)

// YouTubeResolver resolves YouTube watch links into direct audio stream
// URLs via the innertube API.
type YouTubeResolver struct {
	client *youtube.Client
}

// NewYouTubeResolver builds a resolver. proxyStr may be empty for a
// direct connection, or an http(s):// or socks5:// proxy URL.
func NewYouTubeResolver(proxyStr string) *YouTubeResolver {
	return &YouTubeResolver{client: newYouTubeClient(proxyStr)}
}

func (r *YouTubeResolver) Resolve(ctx context.Context, query string) (Track, error) {
	videoID, err := extractYouTubeID(query)
	if err != nil {
		return Track{}, fmt.Errorf("%w: %s", ErrInvalidQuery, err)
	}

	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return Track{}, fmt.Errorf("youtube lookup failed: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return Track{}, fmt.Errorf("%w: no audio formats for video", ErrUnsupportedSource)
	}

	link, err := r.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return Track{}, fmt.Errorf("failed to get stream URL: %w", err)
	}

	return Track{
		Title:     video.Title,
		StreamURL: link,
	}, nil
}

// newYouTubeClient builds the innertube client, optionally routed
// through a proxy. An unusable proxy falls back to a direct client.
func newYouTubeClient(proxyStr string) *youtube.Client {
	if proxyStr == "" {
		return &youtube.Client{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
		}
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		log.Printf("[WARN] Invalid YouTube proxy %q, going direct: %v", proxyStr, err)
		return &youtube.Client{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
		}
	}

	var transport *http.Transport
	switch proxyURL.Scheme {
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	case "socks5":
		auth := &proxy.Auth{}
		if proxyURL.User != nil {
			auth.User = proxyURL.User.Username()
			if pass, ok := proxyURL.User.Password(); ok {
				auth.Password = pass
			}
		}
		dialer, derr := proxy.SOCKS5("tcp", proxyURL.Host, auth, &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 10 * time.Second,
		})
		if derr != nil {
			log.Printf("[WARN] SOCKS5 dialer error, going direct: %v", derr)
			break
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	default:
		log.Printf("[WARN] Unsupported YouTube proxy scheme %q, going direct", proxyURL.Scheme)
	}

	if transport == nil {
		return &youtube.Client{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
		}
	}
	return &youtube.Client{
		HTTPClient: &http.Client{Timeout: 15 * time.Second, Transport: transport},
	}
}

// isYouTubeLink reports whether the query points at YouTube.
func isYouTubeLink(raw string) bool {
	return strings.Contains(raw, "youtu.be/") ||
		strings.Contains(raw, "youtube.com/watch")
}

// extractYouTubeID pulls the video ID out of the two supported link
// shapes.
func extractYouTubeID(rawURL string) (string, error) {
	switch {
	case strings.Contains(rawURL, "youtu.be/"):
		parts := strings.Split(rawURL, "youtu.be/")
		if len(parts) != 2 || parts[1] == "" {
			return "", errors.New("invalid YouTube URL format")
		}
		return strings.Split(parts[1], "?")[0], nil

	case strings.Contains(rawURL, "youtube.com/watch?v="):
		parts := strings.Split(rawURL, "v=")
		if len(parts) != 2 || parts[1] == "" {
			return "", errors.New("invalid YouTube URL format")
		}
		return strings.Split(parts[1], "&")[0], nil

	default:
		return "", errors.New("unsupported URL format")
	}
}
