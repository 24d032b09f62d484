package search

import (
	"encoding/json"

	"complex-tracker/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

// ComplexDocument is the denormalized complex summary kept in the
// search index
type ComplexDocument struct {
	ID             string  `json:"id"`
	ComplexNo      string  `json:"complex_no"`
	ComplexName    string  `json:"complex_name"`
	Address        string  `json:"address"`
	RoadAddress    string  `json:"road_address"`
	Beopjungdong   string  `json:"beopjungdong"`
	LawdCd         string  `json:"lawd_cd"`
	TotalHousehold int     `json:"total_household"`
	ListingCount   int     `json:"listing_count"`
	MinDealWon     *int64  `json:"min_deal_won,omitempty"`
	MaxDealWon     *int64  `json:"max_deal_won,omitempty"`
	Latitude       float64 `json:"latitude,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "complexes",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"complex_name",
		"address",
		"road_address",
		"beopjungdong",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"complex_no",
		"lawd_cd",
		"total_household",
		"listing_count",
		"min_deal_won",
		"max_deal_won",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"listing_count",
		"min_deal_won",
		"total_household",
	})
	return err
}

// BuildDocument summarizes a complex and its current listings into an
// index document
func BuildDocument(cx *models.Complex, listings []models.Listing) ComplexDocument {
	doc := ComplexDocument{
		ID:           cx.ID,
		ComplexNo:    cx.ComplexNo,
		ComplexName:  cx.ComplexName,
		Address:      cx.Address,
		RoadAddress:  cx.RoadAddress,
		Beopjungdong: cx.Beopjungdong,
		LawdCd:       cx.LawdCd,
		ListingCount: len(listings),
	}
	if cx.TotalHousehold != nil {
		doc.TotalHousehold = *cx.TotalHousehold
	}
	if cx.Latitude != nil {
		doc.Latitude = *cx.Latitude
	}
	if cx.Longitude != nil {
		doc.Longitude = *cx.Longitude
	}

	for _, l := range listings {
		if l.DealPriceWon == nil {
			continue
		}
		won := *l.DealPriceWon
		if doc.MinDealWon == nil || won < *doc.MinDealWon {
			w := won
			doc.MinDealWon = &w
		}
		if doc.MaxDealWon == nil || won > *doc.MaxDealWon {
			w := won
			doc.MaxDealWon = &w
		}
	}
	return doc
}

// IndexComplex indexes a single complex summary
func (s *SearchClient) IndexComplex(doc ComplexDocument) error {
	_, err := s.client.Index(s.index).AddDocuments([]ComplexDocument{doc})
	return err
}

// IndexComplexes indexes multiple complex summaries
func (s *SearchClient) IndexComplexes(docs []ComplexDocument) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// Search searches complexes by name or address
func (s *SearchClient) Search(query string, limit int64) ([]ComplexDocument, error) {
	if limit <= 0 {
		limit = 20
	}
	result, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]ComplexDocument, 0, len(result.Hits))
	for _, hit := range result.Hits {
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc ComplexDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteComplex removes a complex from the index
func (s *SearchClient) DeleteComplex(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}
