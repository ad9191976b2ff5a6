package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clerkconnect/cache"
	"clerkconnect/clerk"
	"clerkconnect/record"
)

// TabPool hands out browser tabs, *browser.Pool in production
type TabPool interface {
	Acquire(ctx context.Context) (context.Context, func(), error)
	InUse() int
	Size() int
}

// Crawler drives the site in a tab, *clerk.Client in production
type Crawler interface {
	Search(ctx context.Context, word string) error
	AllResults(ctx context.Context, maxPages, maxResults int) ([]clerk.Row, error)
	RecordByNumber(ctx context.Context, fileNumber string) (*record.Record, error)
	Crawl(ctx context.Context, word string, opts clerk.CrawlOptions, fn clerk.RecordFunc) (clerk.Stats, error)
}

// BrowserService runs every request in its own tab taken from a pool.
// A request is bounded by the request timeout, single pages and records by
// the page timeout the Crawler applies itself.
type BrowserService struct {
	pool    TabPool
	client  Crawler
	cache   *cache.Cache
	ttl     time.Duration
	timeout time.Duration
}

// NewBrowserService serves requests with client on tabs of pool, c may be nil
func NewBrowserService(pool TabPool, client Crawler, c *cache.Cache, ttl, requestTimeout time.Duration) *BrowserService {
	return &BrowserService{pool: pool, client: client, cache: c, ttl: ttl, timeout: requestTimeout}
}

// tab acquires a tab that is cancelled with ctx or after the request timeout
func (s *BrowserService) tab(ctx context.Context) (context.Context, func(), error) {
	tab, release, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	var (
		tctx   context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		tctx, cancel = context.WithTimeout(tab, s.timeout)
	} else {
		tctx, cancel = context.WithCancel(tab)
	}
	stop := context.AfterFunc(ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
		release()
	}, nil
}

// Search returns the listing rows of query, at most limit when limit > 0
func (s *BrowserService) Search(ctx context.Context, query string, limit int) ([]clerk.Row, error) {
	key := fmt.Sprintf("%s:%d", cache.ResultsKey(query), limit)
	return cache.Memoize(ctx, s.cache, key, s.ttl, func() ([]clerk.Row, error) {
		tab, done, err := s.tab(ctx)
		if err != nil {
			return nil, err
		}
		defer done()

		if err := s.client.Search(tab, query); err != nil {
			return nil, err
		}
		return s.client.AllResults(tab, 0, limit)
	})
}

// Record extracts one council file by number
func (s *BrowserService) Record(ctx context.Context, fileNumber string) (*record.Record, error) {
	tab, done, err := s.tab(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return s.client.RecordByNumber(tab, fileNumber)
}

// Crawl searches query and extracts up to limit records. When the request
// timeout hits after some records were extracted, those are returned marked partial.
func (s *BrowserService) Crawl(ctx context.Context, query string, limit int) (*CrawlResponse, error) {
	tab, done, err := s.tab(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	res := &CrawlResponse{Query: query, Records: []*record.Record{}}
	res.Stats, err = s.client.Crawl(tab, query, clerk.CrawlOptions{MaxResults: limit}, func(rec *record.Record) error {
		res.Records = append(res.Records, rec)
		return nil
	})
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil && len(res.Records) > 0:
		slog.Warn("crawl timed out, returning partial results", "query", query, "records", len(res.Records))
		res.Partial = true
		res.Error = err.Error()
		return res, nil
	default:
		return nil, err
	}
}

// Status reports tab usage of the pool
func (s *BrowserService) Status() Status {
	return Status{
		Status:    "ok",
		TabsInUse: s.pool.InUse(),
		TabsTotal: s.pool.Size(),
		Cache:     s.cache.Enabled(),
	}
}
