package universalis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"craftcheck/internal/config"
	"craftcheck/internal/metrics"
	"craftcheck/internal/model"
)

// RateLimitDelay separates the NQ and HQ requests of one lookup. The
// service enforces it; it is not a tuning knob.
const RateLimitDelay = 500 * time.Millisecond

const (
	listingFields = "listings.pricePerUnit,listings.onMannequin,listings.worldName,listings.hq"
	velocityField = "nqSaleVelocity,hqSaleVelocity"
)

// errItemNotFound is the 404 a single-item request gets for an item the
// market does not trade.
var errItemNotFound = errors.New("item not found")

type listingPayload struct {
	PricePerUnit int64  `json:"pricePerUnit"`
	OnMannequin  *bool  `json:"onMannequin"`
	WorldName    string `json:"worldName"`
	HQ           *bool  `json:"hq"`
}

type itemPayload struct {
	NQSaleVelocity *float64         `json:"nqSaleVelocity"`
	HQSaleVelocity *float64         `json:"hqSaleVelocity"`
	Listings       []listingPayload `json:"listings"`
}

type multiItemPayload struct {
	Items map[string]itemPayload `json:"items"`
}

// Client implements the PriceClient interface for Universalis.
type Client struct {
	logger       *slog.Logger
	httpClient   *http.Client
	baseURL      string
	listings     int
	maxRetries   uint64
	initialRetry time.Duration
}

// NewClient creates a new Client.
func NewClient(logger *slog.Logger, cfg config.MarketConfig) *Client {
	return &Client{
		logger:       logger,
		httpClient:   &http.Client{Timeout: cfg.Timeout()},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		listings:     cfg.ListingsPerRequest,
		maxRetries:   uint64(cfg.MaxRetries),
		initialRetry: cfg.RetryInitialInterval(),
	}
}

func (c *Client) GetName() string {
	return "universalis"
}

// FetchMarket requests NQ and HQ listings for itemIDs in region. The two
// requests are issued in sequence, RateLimitDelay apart. Any failure aborts
// the whole lookup.
func (c *Client) FetchMarket(ctx context.Context, region string, itemIDs []int) (*MarketData, error) {
	if len(itemIDs) == 0 {
		return &MarketData{Region: region, Items: map[int]ItemListings{}}, nil
	}

	data := &MarketData{Region: region, Items: make(map[int]ItemListings, len(itemIDs))}
	for i, hq := range []bool{false, true} {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(RateLimitDelay):
			}
		}

		items, err := c.fetchQuality(ctx, region, itemIDs, hq)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		merge(data, items, hq)
	}
	return data, nil
}

func merge(data *MarketData, items map[int]itemPayload, hq bool) {
	for id, item := range items {
		entry := data.Items[id]
		if hq {
			entry.Velocity.HQ = item.HQSaleVelocity
		} else {
			entry.Velocity.NQ = item.NQSaleVelocity
		}
		for _, l := range item.Listings {
			listing := model.Listing{
				PricePerUnit: l.PricePerUnit,
				HQ:           hq,
				OnMannequin:  l.OnMannequin,
				WorldName:    l.WorldName,
			}
			if l.HQ != nil {
				listing.HQ = *l.HQ
			}
			if listing.WorldName == "" {
				listing.WorldName = data.Region
			}
			entry.Listings = append(entry.Listings, listing)
		}
		data.Items[id] = entry
	}
}

func (c *Client) fetchQuality(ctx context.Context, region string, itemIDs []int, hq bool) (map[int]itemPayload, error) {
	endpoint := c.endpoint(region, itemIDs, hq)
	quality := string(model.NQ)
	if hq {
		quality = string(model.HQ)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialRetry
	b := backoff.WithContext(backoff.WithMaxRetries(eb, c.maxRetries), ctx)

	body, err := backoff.RetryNotifyWithData(func() ([]byte, error) {
		return c.get(ctx, endpoint)
	}, b, func(err error, wait time.Duration) {
		c.logger.Warn("Universalis: request failed, retrying", "quality", quality, "error", err, "backoff", wait)
	})
	if len(itemIDs) == 1 && errors.Is(err, errItemNotFound) {
		// Multi-item requests omit untraded items; a single-item request 404s.
		metrics.PriceRequests.WithLabelValues(quality, metrics.OutcomeSuccess).Inc()
		c.logger.Debug("Universalis: item has no market data", "itemID", itemIDs[0], "region", region)
		return map[int]itemPayload{}, nil
	}
	if err != nil {
		metrics.PriceRequests.WithLabelValues(quality, metrics.OutcomeError).Inc()
		c.logger.Error("Universalis: request failed", "quality", quality, "region", region, "error", err)
		return nil, err
	}
	metrics.PriceRequests.WithLabelValues(quality, metrics.OutcomeSuccess).Inc()

	return decode(body, itemIDs)
}

func (c *Client) endpoint(region string, itemIDs []int, hq bool) string {
	ids := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = strconv.Itoa(id)
	}

	fields := listingFields + "," + velocityField
	if len(itemIDs) > 1 {
		// Multi-item responses nest every item under "items".
		parts := strings.Split(fields, ",")
		for i, p := range parts {
			parts[i] = "items." + p
		}
		fields = strings.Join(parts, ",")
	}

	params := url.Values{}
	params.Set("hq", strconv.FormatBool(hq))
	params.Set("listings", strconv.Itoa(c.listings))
	params.Set("fields", fields)

	return fmt.Sprintf("%s/api/v2/%s/%s?%s",
		c.baseURL, url.PathEscape(region), strings.Join(ids, ","), params.Encode())
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Universalis: fetching market data", "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("%w: unexpected status %d", errItemNotFound, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	default:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

func decode(body []byte, itemIDs []int) (map[int]itemPayload, error) {
	if len(itemIDs) == 1 {
		var item itemPayload
		if err := json.Unmarshal(body, &item); err != nil {
			return nil, fmt.Errorf("decode item payload: %w", err)
		}
		return map[int]itemPayload{itemIDs[0]: item}, nil
	}

	var payload multiItemPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode items payload: %w", err)
	}
	items := make(map[int]itemPayload, len(payload.Items))
	for key, item := range payload.Items {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		items[id] = item
	}
	return items, nil
}
