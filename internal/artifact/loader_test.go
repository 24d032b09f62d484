package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadArray(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "complexes_job-1.json", `[
		{"overview": {"complexNo": "1001", "complexName": "한강타워"}},
		{"crawlingInfo": {"complexNo": "1002"}, "listings": {"list": [
			{"articleNo": "a1", "tradeTypeName": "매매", "dealOrWarrantPrc": "3억 5,000", "area1": 84.9}
		]}}
	]`)

	result, err := Load(dir, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(result.Records))
	}
	if len(result.Invalid) != 0 {
		t.Errorf("invalid = %d, want 0", len(result.Invalid))
	}
	if result.Records[0].ComplexNo != "1001" || result.Records[0].Overview.ComplexName != "한강타워" {
		t.Errorf("record[0] = %+v", result.Records[0])
	}
	if result.Records[1].ComplexNo != "1002" {
		t.Errorf("complexNo = %q, want 1002 from crawlingInfo", result.Records[1].ComplexNo)
	}
	if result.Records[1].Articles[0].DealOrWarrantPrc != "3억 5,000" {
		t.Errorf("price = %q", result.Records[1].Articles[0].DealOrWarrantPrc)
	}
}

func TestLoadSingleObject(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "complexes_job-2.json",
		`{"overview": {"complexNo": "1001", "complexName": "한강타워"}}`)

	result, err := Load(dir, "job-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	if result.Records[0].ComplexNo != "1001" {
		t.Errorf("complexNo = %q", result.Records[0].ComplexNo)
	}
}

func TestLoadInvalidRecords(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "complexes_job-3.json", `[
		{"crawlingInfo": {"complexNo": "1001"}},
		{"overview": {"complexName": "이름만"}},
		{"overview": {"complexNo": "1002"}, "listings": {"list": [{"articleNo": "a1"}]}}
	]`)

	result, err := Load(dir, "job-3")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	if result.Records[0].ComplexNo != "1002" {
		t.Errorf("kept record = %q, want 1002", result.Records[0].ComplexNo)
	}
	if len(result.Invalid) != 2 {
		t.Fatalf("invalid = %d, want 2", len(result.Invalid))
	}
	if result.Invalid[0].Index != 0 || result.Invalid[0].Reason != "no overview and no listings" {
		t.Errorf("invalid[0] = %+v", result.Invalid[0])
	}
	if result.Invalid[1].Index != 1 || result.Invalid[1].Reason != "missing complexNo" {
		t.Errorf("invalid[1] = %+v", result.Invalid[1])
	}
}

func TestLoadEmptyListingsBlockIsValid(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "complexes_job-5.json",
		`[{"crawlingInfo": {"complexNo": "1002"}, "listings": {"list": []}}]`)

	result, err := Load(dir, "job-5")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Invalid) != 0 {
		t.Fatalf("invalid = %+v, want none", result.Invalid)
	}
	if len(result.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(result.Records))
	}
	rec := result.Records[0]
	if rec.ComplexNo != "1002" {
		t.Errorf("complexNo = %q, want 1002", rec.ComplexNo)
	}
	// zero listings must survive so replacement can delete the old set
	if len(rec.Articles) != 0 {
		t.Errorf("articles = %d, want 0", len(rec.Articles))
	}
}

func TestLoadFallsBackToLatest(t *testing.T) {
	dir := t.TempDir()
	old := writeArtifact(t, dir, "complexes_old.json",
		`[{"overview": {"complexNo": "1001"}, "listings": {"list": [{"articleNo": "a1"}]}}]`)
	newer := writeArtifact(t, dir, "complexes_new.json",
		`[{"overview": {"complexNo": "2002"}, "listings": {"list": [{"articleNo": "a2"}]}}]`)

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := os.Chtimes(newer, now, now); err != nil {
		t.Fatal(err)
	}

	result, err := Load(dir, "missing-job")
	if err != nil {
		t.Fatal(err)
	}
	if result.Path != newer {
		t.Errorf("path = %s, want %s", result.Path, newer)
	}
	if result.Records[0].ComplexNo != "2002" {
		t.Errorf("complexNo = %q, want 2002", result.Records[0].ComplexNo)
	}
}

func TestLoadNoArtifact(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, "job-x"); err == nil {
		t.Fatal("expected error when no artifact exists")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "complexes_job-y.json", `{not json`)

	if _, err := Load(dir, "job-y"); err == nil {
		t.Fatal("expected parse error")
	}
}
