package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"signal-replay-lab/internal/domain"
	"signal-replay-lab/internal/timeutil"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://fapi.binance.com"
	DefaultKlinesPath = "/fapi/v1/klines"
	DefaultTimeout    = 15 * time.Second
	DefaultPageLimit  = 1500
)

// klineFields is the minimum width of one kline record:
// [openTime, open, high, low, close, volume, closeTime, ...].
const klineFields = 7

// decoder keeps numbers as json.Number so millisecond timestamps survive exactly.
var decoder = sonic.Config{UseNumber: true}.Froze()

// HTTPClient implements Provider against a klines REST endpoint.
type HTTPClient struct {
	baseURL    string
	klinesPath string
	client     *http.Client
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithKlinesPath overrides the klines endpoint path.
func WithKlinesPath(path string) ClientOption {
	return func(c *HTTPClient) {
		c.klinesPath = path
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a klines client rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:    baseURL,
		klinesPath: DefaultKlinesPath,
		client:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBars requests one page of klines. A 2xx response with an empty array
// yields an empty slice and no error.
func (c *HTTPClient) FetchBars(ctx context.Context, req BarsRequest) ([]domain.Bar, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("interval", req.Interval)
	q.Set("startTime", strconv.FormatInt(timeutil.ToMillis(req.Start), 10))
	q.Set("endTime", strconv.FormatInt(timeutil.ToMillis(req.End), 10))
	q.Set("limit", strconv.Itoa(limit))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.klinesPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w %d: %s", ErrBadStatus, resp.StatusCode, truncate(body, 256))
	}

	return decodeKlines(body)
}

// decodeKlines parses the array-of-arrays klines payload.
func decodeKlines(body []byte) ([]domain.Bar, error) {
	var rows [][]interface{}
	if err := decoder.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	bars := make([]domain.Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < klineFields {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrMalformed, i, len(row))
		}

		var vals [klineFields]float64
		for j := 0; j < klineFields; j++ {
			v, err := number(row[j])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d field %d: %v", ErrMalformed, i, j, err)
			}
			vals[j] = v
		}

		bars = append(bars, domain.Bar{
			OpenTime:  timeutil.FromMillis(int64(vals[0])),
			Open:      vals[1],
			High:      vals[2],
			Low:       vals[3],
			Close:     vals[4],
			Volume:    vals[5],
			CloseTime: timeutil.FromMillis(int64(vals[6])),
		})
	}
	return bars, nil
}

// number accepts the mixed string/number encoding used by kline rows.
func number(v interface{}) (float64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseFloat(x, 64)
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case fmt.Stringer:
		// json.Number
		return strconv.ParseFloat(x.String(), 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Ensure HTTPClient implements Provider
var _ Provider = (*HTTPClient)(nil)
