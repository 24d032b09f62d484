package realprice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"complex-tracker/internal/config"
	"complex-tracker/internal/models"
	"complex-tracker/internal/pricecache"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeFetcher struct {
	calls int
	items json.RawMessage
	count int
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, kind, lawdCd, dealYmd string) (json.RawMessage, int, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.items, f.count, nil
}

func newTestClient(t *testing.T, fetcher Fetcher) *Client {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cache.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&models.PriceCache{}); err != nil {
		t.Fatal(err)
	}
	store := pricecache.NewStore(db, &config.CacheConfig{TTLDays: 30})
	return NewClient(store, fetcher)
}

func TestGetReadThrough(t *testing.T) {
	fetcher := &fakeFetcher{items: json.RawMessage(`[{"dealAmount":"3억 5,000"}]`), count: 1}
	client := newTestClient(t, fetcher)

	// miss: hits the upstream and caches
	result, err := client.Get(context.Background(), models.CacheKindRealPrice, "11680", "202608")
	if err != nil {
		t.Fatal(err)
	}
	if result.Cached {
		t.Error("first read should not be cached")
	}
	if result.TotalCount != 1 || string(result.Items) != string(fetcher.items) {
		t.Errorf("result = %+v", result)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher calls = %d, want 1", fetcher.calls)
	}

	// hit: served from cache, no second upstream call
	result, err = client.Get(context.Background(), models.CacheKindRealPrice, "11680", "202608")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Cached {
		t.Error("second read should be cached")
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want still 1", fetcher.calls)
	}

	// a different month misses again
	if _, err := client.Get(context.Background(), models.CacheKindRealPrice, "11680", "202607"); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher calls = %d, want 2", fetcher.calls)
	}
}

func TestGetUpstreamFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("upstream down")}
	client := newTestClient(t, fetcher)

	if _, err := client.Get(context.Background(), models.CacheKindRealPrice, "11680", "202608"); err == nil {
		t.Fatal("expected error when cache misses and upstream fails")
	}
}

func TestGetUnknownKind(t *testing.T) {
	client := newTestClient(t, &fakeFetcher{})
	if _, err := client.Get(context.Background(), "weeklyPrice", "11680", "202608"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestAPIFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("LAWD_CD") != "11680" || q.Get("DEAL_YMD") != "202608" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if q.Get("serviceKey") != "test-key" {
			t.Errorf("serviceKey = %q", q.Get("serviceKey"))
		}
		w.Write([]byte(`{"response": {
			"header": {"resultCode": "00", "resultMsg": "OK"},
			"body": {"items": {"item": [{"dealAmount": "35,000"}]}, "totalCount": 1}
		}}`))
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(&config.RealPriceConfig{
		Endpoint:       server.URL,
		APIKey:         "test-key",
		TimeoutSeconds: 5,
	})

	items, totalCount, err := fetcher.Fetch(context.Background(), models.CacheKindRealPrice, "11680", "202608")
	if err != nil {
		t.Fatal(err)
	}
	if totalCount != 1 {
		t.Errorf("totalCount = %d", totalCount)
	}
	var parsed []map[string]string
	if err := json.Unmarshal(items, &parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 1 || parsed[0]["dealAmount"] != "35,000" {
		t.Errorf("items = %s", items)
	}
}

func TestAPIFetcherErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"header": {"resultCode": "30", "resultMsg": "SERVICE KEY IS NOT REGISTERED"}}}`))
	}))
	defer server.Close()

	fetcher := NewAPIFetcher(&config.RealPriceConfig{Endpoint: server.URL, APIKey: "bad", TimeoutSeconds: 5})
	if _, _, err := fetcher.Fetch(context.Background(), models.CacheKindRealPrice, "11680", "202608"); err == nil {
		t.Fatal("expected error for non-00 result code")
	}
}
