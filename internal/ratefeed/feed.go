// Package ratefeed fetches the RSD exchange rates from the agency's rate
// service. Any currency that cannot be fetched keeps its fallback rate.
package ratefeed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"dossier-engine/internal/logger"
	"dossier-engine/internal/model"
)

const defaultTimeout = 2 * time.Second

type Feed struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
	log     *logger.Logger
	cache   sync.Map
}

func New(baseURL string, timeout time.Duration, log *logger.Logger) *Feed {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Feed{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: timeout,
		log:     log.With("component", "ratefeed"),
		http: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 90 * time.Second,
		},
	}
}

type rateResponse struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// Rates returns a table covering every currency in fallback. Cached rates are
// reused; the rest are fetched concurrently.
func (f *Feed) Rates(ctx context.Context, fallback map[model.Currency]float64) map[model.Currency]float64 {
	result := make(map[model.Currency]float64, len(fallback))
	var toFetch []model.Currency
	for c, def := range fallback {
		if c == model.CurrencyRSD {
			result[c] = 1
			continue
		}
		if rate, ok := f.cache.Load(c); ok {
			result[c] = rate.(float64)
			continue
		}
		result[c] = def
		toFetch = append(toFetch, c)
	}
	if f.baseURL == "" || len(toFetch) == 0 {
		return result
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, c := range toFetch {
		c := c
		g.Go(func() error {
			rate, err := f.fetch(ctx, c)
			if err != nil {
				f.log.Warn("rate fetch failed, keeping fallback", "currency", c, "error", err)
				return nil
			}
			f.cache.Store(c, rate)
			mu.Lock()
			result[c] = rate
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func (f *Feed) fetch(ctx context.Context, c model.Currency) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(f.baseURL + "/rates/" + string(c))
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline := time.Now().Add(f.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := f.http.DoDeadline(req, resp, deadline); err != nil {
		return 0, err
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", code)
	}
	var rr rateResponse
	if err := json.Unmarshal(resp.Body(), &rr); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if rr.Rate <= 0 {
		return 0, fmt.Errorf("non-positive rate %v", rr.Rate)
	}
	return rr.Rate, nil
}
