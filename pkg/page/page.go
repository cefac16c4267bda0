// Package page provides cursor-driven pagination over remote APIs.
//
// Both source domains paginate with opaque continuation cursors: the
// YouTube Data API returns a nextPageToken query parameter, the GitHub
// GraphQL API returns pageInfo.hasNextPage/endCursor. Page and Paginator
// abstract over both so the rest of the engine never sees the difference.
package page

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Page is one batch of items plus the continuation state of the stream.
type Page[T any] struct {
	Items   []T
	Cursor  string
	HasMore bool
}

// New builds a Page and normalizes the continuation invariant: a page
// without a cursor can never claim to have more.
func New[T any](items []T, cursor string, hasMore bool) Page[T] {
	if cursor == "" {
		hasMore = false
	}
	return Page[T]{Items: items, Cursor: cursor, HasMore: hasMore}
}

// FetchFunc fetches a single page. An empty cursor requests the first page.
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Paginator drives a single paginated query to exhaustion. It is finite
// and non-restartable: create a new Paginator per stream.
type Paginator[T any] struct {
	fetch  FetchFunc[T]
	stream string
}

// NewPaginator creates a paginator for one logical stream. The stream name
// is only used for logging.
func NewPaginator[T any](stream string, fetch FetchFunc[T]) *Paginator[T] {
	return &Paginator[T]{fetch: fetch, stream: stream}
}

// All walks the stream to completion and returns the concatenation of all
// page items in page order.
//
// On a mid-stream failure All returns the items accumulated so far
// together with the error: partial results from a failed container scan
// are still useful and must not be dropped. Callers decide whether the
// error is fatal; the paginator itself only logs a warning.
func (p *Paginator[T]) All(ctx context.Context) ([]T, error) {
	var items []T
	cursor := ""
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return items, fmt.Errorf("pagination cancelled after %d pages: %w", pages, err)
		}

		pg, err := p.fetch(ctx, cursor)
		if err != nil {
			log.Warn().
				Err(err).
				Str("stream", p.stream).
				Int("pages", pages).
				Int("items", len(items)).
				Msg("Pagination stopped early, keeping partial results")
			return items, fmt.Errorf("fetch page %d of %s: %w", pages+1, p.stream, err)
		}
		pages++

		items = append(items, pg.Items...)

		// A page may legally be empty while still advertising more pages;
		// only the continuation state decides termination.
		if !pg.HasMore || pg.Cursor == "" {
			break
		}
		cursor = pg.Cursor
	}

	log.Debug().
		Str("stream", p.stream).
		Int("pages", pages).
		Int("items", len(items)).
		Msg("Pagination complete")

	return items, nil
}
