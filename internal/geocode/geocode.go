package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"complex-tracker/internal/config"
)

const defaultBaseURL = "https://dapi.kakao.com"

// Result holds the administrative divisions for a coordinate
type Result struct {
	Beopjungdong   string
	Haengjeongdong string
	LawdCd         string
}

// Resolver converts coordinates into administrative divisions
type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64) (*Result, error)
}

// KakaoClient resolves coordinates via the Kakao local API
type KakaoClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewKakaoClient(cfg *config.GeocodeConfig) *KakaoClient {
	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KakaoClient{
		apiKey:     cfg.APIKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewKakaoClientWithBaseURL is used by tests to point at a fake server
func NewKakaoClientWithBaseURL(apiKey, baseURL string) *KakaoClient {
	return &KakaoClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type regionDocument struct {
	RegionType  string `json:"region_type"`
	AddressName string `json:"address_name"`
	Code        string `json:"code"`
}

type regionResponse struct {
	Documents []regionDocument `json:"documents"`
}

// Resolve looks up the legal and administrative divisions for the
// given coordinate. The first five digits of the legal division code
// form the district code used for transaction price lookups.
func (c *KakaoClient) Resolve(ctx context.Context, lat, lng float64) (*Result, error) {
	endpoint := fmt.Sprintf("%s/v2/local/geo/coord2regioncode.json?x=%s&y=%s",
		c.baseURL,
		url.QueryEscape(fmt.Sprintf("%f", lng)),
		url.QueryEscape(fmt.Sprintf("%f", lat)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request failed with status %d", resp.StatusCode)
	}

	var body regionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, doc := range body.Documents {
		switch doc.RegionType {
		case "B":
			result.Beopjungdong = doc.AddressName
			if len(doc.Code) >= 5 {
				result.LawdCd = doc.Code[:5]
			}
		case "H":
			result.Haengjeongdong = doc.AddressName
		}
	}

	if result.Beopjungdong == "" && result.Haengjeongdong == "" {
		return nil, fmt.Errorf("no region documents for %.6f,%.6f", lat, lng)
	}
	return result, nil
}
