package resume

import (
	"context"
	"fmt"

	"hiredesk/internal/logging"

	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves one user's document for a template slug.
type Fetcher interface {
	GetTemplate(ctx context.Context, slug, username string) (*Document, error)
}

// FetchAll fetches documents for every username concurrently, at most limit
// at a time. Results keep the order of usernames; the first error cancels the
// remaining fetches.
func FetchAll(ctx context.Context, f Fetcher, slug string, usernames []string, limit int) ([]*Document, error) {
	if limit <= 0 {
		limit = 4
	}

	docs := make([]*Document, len(usernames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, username := range usernames {
		g.Go(func() error {
			doc, err := f.GetTemplate(gctx, slug, username)
			if err != nil {
				return fmt.Errorf("fetch %s/%s: %w", slug, username, err)
			}
			docs[i] = doc
			logging.ResumeDebug("fetched %s/%s", slug, username)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
