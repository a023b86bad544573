package validator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/yokitheyo/imagelinker/internal/config"
	"github.com/yokitheyo/imagelinker/internal/domain"
)

// Observer receives one call per finished check.
type Observer interface {
	ObserveValidation(status domain.ValidationStatus)
}

// Checker probes image URLs with HEAD requests. It is safe for concurrent use.
type Checker struct {
	client   *http.Client
	cfg      config.ValidationConfig
	observer Observer
}

// New builds a Checker. rt may be nil to use http.DefaultTransport.
func New(cfg config.ValidationConfig, rt http.RoundTripper) *Checker {
	d := config.DefaultValidation()
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = d.TimeoutSec
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = d.Concurrency
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = d.MaxRedirects
	}
	if rt == nil {
		rt = http.DefaultTransport
	}

	return &Checker{
		cfg: cfg,
		client: &http.Client{
			Transport:     rt,
			CheckRedirect: LimitRedirects(cfg.MaxRedirects),
		},
	}
}

// WithObserver attaches an observer and returns c.
func (c *Checker) WithObserver(o Observer) *Checker {
	c.observer = o
	return c
}

// LimitRedirects stops a client after max hops.
func LimitRedirects(max int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return nil
	}
}

// CheckOne never fails: every problem with the URL is reported as broken.
func (c *Checker) CheckOne(ctx context.Context, url string) domain.ValidationStatus {
	status := c.check(ctx, url)
	if c.observer != nil {
		c.observer.ObserveValidation(status)
	}
	return status
}

func (c *Checker) check(ctx context.Context, url string) domain.ValidationStatus {
	url = strings.TrimSpace(url)
	if url == "" {
		return domain.StatusBroken
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		zlog.Logger.Debug().Err(err).Str("url", url).Msg("malformed image url")
		return domain.StatusBroken
	}

	resp, err := c.client.Do(req)
	if err != nil {
		zlog.Logger.Debug().Err(err).Str("url", url).Msg("image url unreachable")
		return domain.StatusBroken
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zlog.Logger.Debug().Int("status", resp.StatusCode).Str("url", url).Msg("image url returned non-success status")
		return domain.StatusBroken
	}
	return domain.StatusOK
}

// CheckBatch checks every distinct URL with a fixed pool of workers. When
// ctx is cancelled, URLs no worker has picked up yet are reported unknown
// and checks already running are allowed to finish.
func (c *Checker) CheckBatch(ctx context.Context, urls []string) map[string]domain.ValidationStatus {
	distinct := make([]string, 0, len(urls))
	results := make(map[string]domain.ValidationStatus, len(urls))
	for _, u := range urls {
		if _, seen := results[u]; seen {
			continue
		}
		results[u] = domain.StatusUnknown
		distinct = append(distinct, u)
	}
	if len(distinct) == 0 {
		return results
	}

	workers := min(c.cfg.Concurrency, len(distinct))
	type outcome struct {
		url    string
		status domain.ValidationStatus
	}
	jobs := make(chan string)
	done := make(chan outcome, len(distinct))

	// In-flight checks get a context that outlives the caller's cancellation.
	checkCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for u := range jobs {
				done <- outcome{url: u, status: c.CheckOne(checkCtx, u)}
			}
			return nil
		})
	}

	dispatched := 0
feed:
	for _, u := range distinct {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- u:
			dispatched++
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	_ = g.Wait()
	close(done)

	for o := range done {
		results[o.url] = o.status
	}

	if dispatched < len(distinct) {
		zlog.Logger.Warn().
			Err(ctx.Err()).
			Int("checked", dispatched).
			Int("total", len(distinct)).
			Msg("validation batch abandoned, remaining urls marked unknown")
	}

	return results
}
