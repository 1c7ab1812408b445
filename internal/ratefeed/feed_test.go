package ratefeed

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"dossier-engine/internal/model"
)

func newTestFeed(t *testing.T, handler fasthttp.RequestHandler) *Feed {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	f := New("http://rates.test/", time.Second, nil)
	f.http.Dial = func(string) (net.Conn, error) { return ln.Dial() }
	return f
}

var fallback = map[model.Currency]float64{
	model.CurrencyEUR: 117,
	model.CurrencyUSD: 108,
	model.CurrencyRSD: 1,
}

func TestRatesFetchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	f := newTestFeed(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		switch string(ctx.Path()) {
		case "/rates/EUR":
			ctx.SetBodyString(`{"currency":"EUR","rate":117.25}`)
		default:
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		}
	})

	got := f.Rates(context.Background(), fallback)

	assert.Equal(t, 117.25, got[model.CurrencyEUR])
	assert.Equal(t, 108.0, got[model.CurrencyUSD])
	assert.Equal(t, 1.0, got[model.CurrencyRSD])
	assert.Equal(t, int32(2), calls.Load())

	f.Rates(context.Background(), fallback)
	assert.Equal(t, int32(3), calls.Load(), "only the failed currency is fetched again")
}

func TestRatesWithoutURL(t *testing.T) {
	got := New("", 0, nil).Rates(context.Background(), fallback)
	assert.Equal(t, fallback, got)
}

func TestRatesRejectsNonPositive(t *testing.T) {
	f := newTestFeed(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"rate":0}`)
	})
	got := f.Rates(context.Background(), map[model.Currency]float64{model.CurrencyUSD: 108})
	assert.Equal(t, 108.0, got[model.CurrencyUSD])
}
