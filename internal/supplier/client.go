// Package supplier talks to the reconciliation partner's reservation API.
package supplier

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"dossier-engine/internal/reconcile"
)

const defaultTimeout = 2 * time.Second

var ErrNotConfigured = errors.New("supplier: base url not configured")

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   cfg.Token,
		timeout: timeout,
		http: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 90 * time.Second,
		},
	}
}

type reservationResponse struct {
	Status string `json:"Status"`
	ID     string `json:"ID"`
}

// Lookup fetches GET {base}/reservations/{ref}. A 404 or a body without an
// ID is a successful "not found"; every other failure is an error.
func (c *Client) Lookup(ctx context.Context, supplierRef string) (reconcile.Result, error) {
	if c.baseURL == "" {
		return reconcile.Result{}, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return reconcile.Result{}, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/reservations/" + url.PathEscape(strings.TrimSpace(supplierRef)))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return reconcile.Result{}, fmt.Errorf("supplier lookup %s: %w", supplierRef, err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusNotFound:
		return reconcile.Result{}, nil
	case code != fasthttp.StatusOK:
		return reconcile.Result{}, fmt.Errorf("supplier lookup %s: unexpected status %d", supplierRef, code)
	}

	var rr reservationResponse
	if err := json.Unmarshal(resp.Body(), &rr); err != nil {
		return reconcile.Result{}, fmt.Errorf("supplier lookup %s: decode: %w", supplierRef, err)
	}
	if strings.TrimSpace(rr.ID) == "" {
		return reconcile.Result{}, nil
	}
	return reconcile.Result{Found: true, Status: rr.Status, ID: rr.ID}, nil
}

var _ reconcile.Lookup = (*Client)(nil)
