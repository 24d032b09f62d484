package realprice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"complex-tracker/internal/config"
	"complex-tracker/internal/models"
	"complex-tracker/internal/pricecache"
)

// API paths per cache kind
const (
	pathSale = "/RTMSDataSvcAptTradeDev/getRTMSDataSvcAptTradeDev"
	pathRent = "/RTMSDataSvcAptRent/getRTMSDataSvcAptRent"
)

// Result is one month of transaction prices for a district
type Result struct {
	Kind       string          `json:"kind"`
	LawdCd     string          `json:"lawd_cd"`
	DealYmd    string          `json:"deal_ymd"`
	TotalCount int             `json:"total_count"`
	Items      json.RawMessage `json:"items"`
	Cached     bool            `json:"cached"`
}

// Fetcher retrieves one month of transaction data from the upstream API
type Fetcher interface {
	Fetch(ctx context.Context, kind, lawdCd, dealYmd string) (items json.RawMessage, totalCount int, err error)
}

// Client is the read-through transaction price lookup: cache first,
// upstream API on miss, best-effort cache write-back.
type Client struct {
	store   *pricecache.Store
	fetcher Fetcher
}

func NewClient(store *pricecache.Store, fetcher Fetcher) *Client {
	return &Client{store: store, fetcher: fetcher}
}

// Get returns the transaction prices for a district and month. Cache
// failures degrade to an upstream fetch; only an upstream failure on a
// cache miss is an error.
func (c *Client) Get(ctx context.Context, kind, lawdCd, dealYmd string) (*Result, error) {
	if kind != models.CacheKindRealPrice && kind != models.CacheKindRentPrice {
		return nil, fmt.Errorf("unknown price kind %q", kind)
	}

	if data, totalCount, ok := c.store.Get(kind, lawdCd, dealYmd); ok {
		return &Result{
			Kind:       kind,
			LawdCd:     lawdCd,
			DealYmd:    dealYmd,
			TotalCount: totalCount,
			Items:      data,
			Cached:     true,
		}, nil
	}

	items, totalCount, err := c.fetcher.Fetch(ctx, kind, lawdCd, dealYmd)
	if err != nil {
		return nil, fmt.Errorf("fetch %s prices for %s/%s: %w", kind, lawdCd, dealYmd, err)
	}

	c.store.Set(kind, lawdCd, dealYmd, items, totalCount)

	return &Result{
		Kind:       kind,
		LawdCd:     lawdCd,
		DealYmd:    dealYmd,
		TotalCount: totalCount,
		Items:      items,
	}, nil
}

// APIFetcher calls the MOLIT open data endpoints
type APIFetcher struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewAPIFetcher(cfg *config.RealPriceConfig) *APIFetcher {
	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &APIFetcher{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// apiResponse is the JSON envelope of the open data API
type apiResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items struct {
				Item json.RawMessage `json:"item"`
			} `json:"items"`
			TotalCount int `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

func (f *APIFetcher) Fetch(ctx context.Context, kind, lawdCd, dealYmd string) (json.RawMessage, int, error) {
	path := pathSale
	if kind == models.CacheKindRentPrice {
		path = pathRent
	}

	params := url.Values{}
	params.Set("serviceKey", f.apiKey)
	params.Set("LAWD_CD", lawdCd)
	params.Set("DEAL_YMD", dealYmd)
	params.Set("numOfRows", "1000")
	params.Set("_type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		f.endpoint+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, err
	}
	if code := body.Response.Header.ResultCode; code != "" && code != "00" && code != "000" {
		return nil, 0, fmt.Errorf("price API error %s: %s", code, body.Response.Header.ResultMsg)
	}

	items := body.Response.Body.Items.Item
	if len(items) == 0 {
		items = json.RawMessage("[]")
	}
	return items, body.Response.Body.TotalCount, nil
}
