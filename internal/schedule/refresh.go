package schedule

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"coursegrid/internal/ics"
	"coursegrid/internal/importer"
	appLog "coursegrid/internal/log"
)

// Fetcher is satisfied by *ics.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (ics.FetchResult, error)
}

// Refresher re-imports a subscribed ICS feed. Unchanged bodies are skipped
// so a cached fallback does not churn the stored course list.
type Refresher struct {
	svc     *Service
	fetcher Fetcher
	url     string

	mu       sync.Mutex
	lastBody []byte
}

func NewRefresher(svc *Service, fetcher Fetcher, url string) *Refresher {
	return &Refresher{svc: svc, fetcher: fetcher, url: url}
}

// Run performs one refresh. A failed fetch or import keeps the current
// course list.
func (r *Refresher) Run(ctx context.Context) (err error) {
	defer func() { r.svc.metrics.ObserveRefresh(err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.fetcher.Fetch(ctx, r.url)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if r.lastBody != nil && bytes.Equal(res.Body, r.lastBody) {
		appLog.Debug("refresh: subscription unchanged", "from_cache", res.FromCache)
		return nil
	}

	courses, err := r.svc.Import(ctx, importer.FormatICS, res.Body)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	r.lastBody = res.Body
	appLog.Info("refresh: subscription applied", "course_count", len(courses), "from_cache", res.FromCache)
	return nil
}

// refreshTimeout bounds one scheduled run.
const refreshTimeout = 2 * time.Minute

// Schedule returns a stopped cron runner that calls Run on spec, a
// standard 5-field expression. Overlapping runs are skipped.
func (r *Refresher) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := r.Run(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	return c, nil
}
