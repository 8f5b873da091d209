package resolver

import "context"

// SourceResolver routes a query to the backend that can handle it:
// YouTube links go through the innertube client, everything else
// through the direct stream probe.
type SourceResolver struct {
	youtube Resolver
	stream  Resolver
}

func NewSourceResolver(youtubeProxy string) *SourceResolver {
	return &SourceResolver{
		youtube: NewYouTubeResolver(youtubeProxy),
		stream:  NewStreamResolver(),
	}
}

func (r *SourceResolver) Resolve(ctx context.Context, query string) (Track, error) {
	if isYouTubeLink(query) {
		return r.youtube.Resolve(ctx, query)
	}
	return r.stream.Resolve(ctx, query)
}
