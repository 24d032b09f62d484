package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"complex-tracker/internal/models"
)

// Overview is the complex-level block of a collector result record
type Overview struct {
	ComplexNo      string          `json:"complexNo"`
	ComplexName    string          `json:"complexName"`
	TotalHousehold *int            `json:"totalHouseholdCount"`
	TotalDong      *int            `json:"totalDongCount"`
	Latitude       *float64        `json:"latitude"`
	Longitude      *float64        `json:"longitude"`
	Address        string          `json:"address"`
	RoadAddress    string          `json:"roadAddress"`
	JibunAddress   string          `json:"jibunAddress"`
	Beopjungdong   string          `json:"beopjungdong"`
	Haengjeongdong string          `json:"haengjeongdong"`
	LawdCd         string          `json:"lawdCd"`
	Pyeongs        []models.Pyeong `json:"pyeongs"`
}

// Article is a single listing as emitted by the collector
type Article struct {
	ArticleNo          string   `json:"articleNo"`
	TradeTypeName      string   `json:"tradeTypeName"`
	DealOrWarrantPrc   string   `json:"dealOrWarrantPrc"`
	RentPrc            string   `json:"rentPrc"`
	Area1              float64  `json:"area1"`
	Area2              *float64 `json:"area2"`
	FloorInfo          string   `json:"floorInfo"`
	BuildingName       string   `json:"buildingName"`
	Direction          string   `json:"direction"`
	ArticleConfirmYmd  string   `json:"articleConfirmYmd"`
	RealtorName        string   `json:"realtorName"`
	ArticleFeatureDesc string   `json:"articleFeatureDesc"`
	SameAddrCnt        *int     `json:"sameAddrCnt"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
}

// rawRecord is the collector's wire shape for one complex
type rawRecord struct {
	Overview     *Overview     `json:"overview"`
	CrawlingInfo *crawlingInfo `json:"crawlingInfo"`
	Listings     *listingBlock `json:"listings"`
}

type crawlingInfo struct {
	ComplexNo string `json:"complexNo"`
}

type listingBlock struct {
	List []Article `json:"list"`
}

// Record is one complex's worth of collector output, normalized
type Record struct {
	ComplexNo string
	Overview  *Overview
	Articles  []Article
}

// InvalidRecord reports a record that was skipped during loading
type InvalidRecord struct {
	Index  int
	Reason string
}

// LoadResult holds the parsed artifact and any skipped records
type LoadResult struct {
	Path    string
	Records []Record
	Invalid []InvalidRecord
}

// Load reads the result artifact for a job. The job-specific file is
// preferred; if the collector wrote under a different name the newest
// complexes_*.json in the directory is used instead.
func Load(dataDir, jobID string) (*LoadResult, error) {
	path := filepath.Join(dataDir, fmt.Sprintf("complexes_%s.json", jobID))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		latest, err := latestArtifact(dataDir)
		if err != nil {
			return nil, err
		}
		path = latest
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	records, err := parseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", filepath.Base(path), err)
	}

	result := &LoadResult{Path: path}
	for i, raw := range records {
		// Section presence decides validity, not list length: a
		// listings block with an empty list is how a complex whose
		// listings all disappeared arrives, and must still flow
		// through replacement so removals get detected.
		if raw.Overview == nil && raw.Listings == nil {
			result.Invalid = append(result.Invalid, InvalidRecord{Index: i, Reason: "no overview and no listings"})
			continue
		}
		rec := normalize(raw)
		if rec.ComplexNo == "" {
			result.Invalid = append(result.Invalid, InvalidRecord{Index: i, Reason: "missing complexNo"})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// normalize flattens a wire record. The complex number comes from the
// overview, falling back to the crawling info block.
func normalize(raw rawRecord) Record {
	rec := Record{Overview: raw.Overview}
	if raw.Listings != nil {
		rec.Articles = raw.Listings.List
	}
	if raw.Overview != nil {
		rec.ComplexNo = raw.Overview.ComplexNo
	}
	if rec.ComplexNo == "" && raw.CrawlingInfo != nil {
		rec.ComplexNo = raw.CrawlingInfo.ComplexNo
	}
	return rec
}

// parseRecords accepts either a single record object or an array
func parseRecords(data []byte) ([]rawRecord, error) {
	var records []rawRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var single rawRecord
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []rawRecord{single}, nil
}

// latestArtifact finds the most recently modified complexes_*.json
func latestArtifact(dataDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dataDir, "complexes_*.json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no result artifact found in %s", dataDir)
	}

	var newest string
	var newestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = m
			newestMod = mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no readable result artifact in %s", dataDir)
	}
	return newest, nil
}
