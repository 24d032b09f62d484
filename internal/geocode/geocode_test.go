package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "KakaoAK test-key" {
			t.Errorf("authorization = %q", got)
		}
		if r.URL.Path != "/v2/local/geo/coord2regioncode.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents": [
			{"region_type": "B", "address_name": "서울특별시 강남구 역삼동", "code": "1168010100"},
			{"region_type": "H", "address_name": "서울특별시 강남구 역삼1동", "code": "1168064000"}
		]}`))
	}))
	defer server.Close()

	client := NewKakaoClientWithBaseURL("test-key", server.URL)
	result, err := client.Resolve(context.Background(), 37.5, 127.03)
	if err != nil {
		t.Fatal(err)
	}

	if result.Beopjungdong != "서울특별시 강남구 역삼동" {
		t.Errorf("beopjungdong = %q", result.Beopjungdong)
	}
	if result.Haengjeongdong != "서울특별시 강남구 역삼1동" {
		t.Errorf("haengjeongdong = %q", result.Haengjeongdong)
	}
	if result.LawdCd != "11680" {
		t.Errorf("lawdCd = %q", result.LawdCd)
	}
}

func TestResolveNoDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"documents": []}`))
	}))
	defer server.Close()

	client := NewKakaoClientWithBaseURL("test-key", server.URL)
	if _, err := client.Resolve(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error for empty documents")
	}
}

func TestResolveHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewKakaoClientWithBaseURL("bad-key", server.URL)
	if _, err := client.Resolve(context.Background(), 37.5, 127.03); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
