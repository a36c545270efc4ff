package universalis

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftcheck/internal/config"
	"craftcheck/internal/model"
)

const nqBody = `{"items":{
	"100":{"nqSaleVelocity":4.5,"listings":[
		{"pricePerUnit":700,"worldName":"Anima"},
		{"pricePerUnit":650,"onMannequin":true,"worldName":"Ixion"}
	]},
	"201":{"nqSaleVelocity":120,"listings":[{"pricePerUnit":40}]}
}}`

const hqBody = `{"items":{
	"100":{"hqSaleVelocity":2,"listings":[{"pricePerUnit":1000,"worldName":"Titan"}]},
	"201":{"hqSaleVelocity":30,"listings":[]}
}}`

type recordedRequest struct {
	path  string
	query map[string]string
	at    time.Time
}

type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (rec *recorder) requests() []recordedRequest {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]recordedRequest(nil), rec.reqs...)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, recordedRequest{
			path: r.URL.Path,
			query: map[string]string{
				"hq":       r.URL.Query().Get("hq"),
				"listings": r.URL.Query().Get("listings"),
				"fields":   r.URL.Query().Get("fields"),
			},
			at: time.Now(),
		})
		rec.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func testClient(baseURL string, maxRetries int) *Client {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewClient(logger, config.MarketConfig{
		Provider:               "universalis",
		BaseURL:                baseURL,
		ListingsPerRequest:     100,
		TimeoutSeconds:         5,
		MaxRetries:             maxRetries,
		RetryInitialIntervalMS: 1,
	})
}

func TestClient_FetchMarket(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hq") == "true" {
			_, _ = io.WriteString(w, hqBody)
			return
		}
		_, _ = io.WriteString(w, nqBody)
	})
	client := testClient(srv.URL, 0)

	data, err := client.FetchMarket(context.Background(), "Mana", []int{100, 201, 999})
	require.NoError(t, err)

	reqs := rec.requests()
	require.Len(t, reqs, 2)
	first, second := reqs[0], reqs[1]
	assert.Equal(t, "/api/v2/Mana/100,201,999", first.path)
	assert.Equal(t, "false", first.query["hq"])
	assert.Equal(t, "true", second.query["hq"])
	assert.Equal(t, "100", first.query["listings"])
	assert.Contains(t, first.query["fields"], "items.listings.onMannequin")
	assert.GreaterOrEqual(t, second.at.Sub(first.at), RateLimitDelay)

	assert.Equal(t, "Mana", data.Region)
	assert.NotContains(t, data.Items, 999, "missing items have no data")

	result := data.Items[100]
	require.Len(t, result.Listings, 3)
	assert.False(t, result.Listings[0].HQ)
	assert.Equal(t, "Anima", result.Listings[0].WorldName)
	require.NotNil(t, result.Listings[1].OnMannequin)
	assert.True(t, *result.Listings[1].OnMannequin)
	assert.True(t, result.Listings[2].HQ)
	assert.Equal(t, 4.5, *result.Velocity.NQ)
	assert.Equal(t, 2.0, *result.Velocity.HQ)

	ingot := data.Items[201]
	require.Len(t, ingot.Listings, 1)
	assert.Equal(t, "Mana", ingot.Listings[0].WorldName, "world defaults to the region")
	assert.Equal(t, 30.0, *ingot.Velocity.HQ)
}

func TestClient_FetchMarket_SingleItem(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hq") == "true" {
			_, _ = io.WriteString(w, `{"hqSaleVelocity":1,"listings":[{"pricePerUnit":90,"worldName":"Gilgamesh"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"nqSaleVelocity":3,"listings":[{"pricePerUnit":60,"worldName":"Gilgamesh"}]}`)
	})
	client := testClient(srv.URL, 0)

	data, err := client.FetchMarket(context.Background(), "Gilgamesh", []int{5})
	require.NoError(t, err)
	reqs := rec.requests()
	require.Len(t, reqs, 2)
	assert.NotContains(t, reqs[0].query["fields"], "items.")

	require.Contains(t, data.Items, 5)
	assert.Len(t, data.Items[5].Listings, 2)
}

func TestClient_FetchMarket_SingleItemNotFound(t *testing.T) {
	srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := testClient(srv.URL, 3)

	data, err := client.FetchMarket(context.Background(), "Ixion", []int{999})
	require.NoError(t, err)
	assert.Equal(t, "Ixion", data.Region)
	assert.Empty(t, data.Items, "an untraded item has no data")
	assert.Len(t, rec.requests(), 2, "404 is not retried")
}

func TestClient_FetchMarket_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, nqBody)
	})
	client := testClient(srv.URL, 2)

	data, err := client.FetchMarket(context.Background(), "Mana", []int{100, 201})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, data.Items, 100)
}

func TestClient_FetchMarket_Failures(t *testing.T) {
	t.Run("client error is not retried", func(t *testing.T) {
		srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})
		client := testClient(srv.URL, 3)

		data, err := client.FetchMarket(context.Background(), "Mana", []int{100, 201})
		assert.ErrorIs(t, err, ErrServiceUnavailable)
		assert.Nil(t, data)
		assert.Len(t, rec.requests(), 1)
	})

	t.Run("server error exhausts retries", func(t *testing.T) {
		srv, rec := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		client := testClient(srv.URL, 2)

		_, err := client.FetchMarket(context.Background(), "Mana", []int{100, 201})
		assert.ErrorIs(t, err, ErrServiceUnavailable)
		assert.Len(t, rec.requests(), 3)
	})

	t.Run("hq failure aborts the lookup", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("hq") == "true" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = io.WriteString(w, nqBody)
		})
		client := testClient(srv.URL, 0)

		data, err := client.FetchMarket(context.Background(), "Mana", []int{100, 201})
		assert.ErrorIs(t, err, ErrServiceUnavailable)
		assert.Nil(t, data)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"items":`)
		})
		client := testClient(srv.URL, 0)

		_, err := client.FetchMarket(context.Background(), "Mana", []int{100, 201})
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, nqBody)
		})
		client := testClient(srv.URL, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.FetchMarket(ctx, "Mana", []int{100, 201})
		assert.Error(t, err)
	})
}

func TestClient_FetchMarket_NoItems(t *testing.T) {
	client := testClient("http://127.0.0.1:0", 0)
	data, err := client.FetchMarket(context.Background(), "Mana", nil)
	require.NoError(t, err)
	assert.Empty(t, data.Items)
}

func TestMerge_QualityFlagFallsBackToRequest(t *testing.T) {
	data := &MarketData{Region: "Mana", Items: map[int]ItemListings{}}
	hq := true
	merge(data, map[int]itemPayload{
		1: {Listings: []listingPayload{{PricePerUnit: 10}, {PricePerUnit: 20, HQ: &hq}}},
	}, false)

	listings := data.Items[1].Listings
	require.Len(t, listings, 2)
	assert.Equal(t, model.NQ, listings[0].Quality())
	assert.Equal(t, model.HQ, listings[1].Quality())
}
