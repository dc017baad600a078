package scraper

import "errors"

// Error taxonomy for a multi-source search. Source-level errors
// (ErrInvalidLocation, ErrFetch, ErrTimeout) are caught at the dispatcher
// boundary and recorded in the per-source error map; only ErrAggregation and
// invalid top-level arguments abort a SearchAll call. Parse problems never
// surface as errors — a source changing its markup degrades to zero results.
var (
	ErrInvalidLocation = errors.New("invalid location")
	ErrFetch           = errors.New("fetch failed")
	ErrTimeout         = errors.New("search timed out")
	ErrAggregation     = errors.New("aggregation fault")
)
