package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"complex-tracker/internal/config"
	"complex-tracker/internal/database"
	"complex-tracker/internal/models"
	"complex-tracker/internal/notify"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDecideStatus(t *testing.T) {
	tests := []struct {
		name         string
		successCount int
		errorCount   int
		want         models.JobStatus
	}{
		{name: "all succeeded", successCount: 3, errorCount: 0, want: models.JobStatusSuccess},
		{name: "mixed", successCount: 2, errorCount: 1, want: models.JobStatusPartial},
		{name: "all failed", successCount: 0, errorCount: 3, want: models.JobStatusFailed},
		{name: "nothing processed", successCount: 0, errorCount: 0, want: models.JobStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decideStatus(tt.successCount, tt.errorCount); got != tt.want {
				t.Errorf("decideStatus(%d, %d) = %s, want %s",
					tt.successCount, tt.errorCount, got, tt.want)
			}
		})
	}
}

func newTestDB(t *testing.T) *database.GormDB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tracker.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	gdb := database.NewGormDBFromDB(db)
	if err := gdb.InitSchema(); err != nil {
		t.Fatal(err)
	}
	return gdb
}

// writeCollector installs a stub collector that emits one complex with
// one listing. $1 is the comma-joined complex list, $2 the job ID.
func writeCollector(t *testing.T, baseDir string) {
	t.Helper()
	script := `#!/bin/sh
mkdir -p crawled_data
cat > "crawled_data/complexes_$2.json" <<'JSON'
[{"overview": {"complexNo": "1001", "complexName": "한강타워", "address": "서울"},
  "listings": {"list": [{"articleNo": "A1", "tradeTypeName": "매매", "dealOrWarrantPrc": "3억", "area1": 84.9}]}}]
JSON
`
	if err := os.WriteFile(filepath.Join(baseDir, "collect.sh"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}

// stepCapturingSender records the persisted job step and status at the
// moment each webhook delivery happens
type stepCapturingSender struct {
	db       *database.GormDB
	jobID    string
	steps    []string
	statuses []models.JobStatus
}

func (s *stepCapturingSender) Send(_ context.Context, _ string, _ notify.Payload) error {
	job, err := s.db.GetCrawlJob(s.jobID)
	if err != nil {
		return err
	}
	s.steps = append(s.steps, job.CurrentStep)
	s.statuses = append(s.statuses, job.Status)
	return nil
}

func TestExecuteNotifiesBeforeFinalizing(t *testing.T) {
	baseDir := t.TempDir()
	writeCollector(t, baseDir)
	gdb := newTestDB(t)

	cfg := &config.Config{
		Crawler: config.CrawlerConfig{
			Command:                  "sh",
			Script:                   "collect.sh",
			BaseDir:                  baseDir,
			BaseTimeoutMinutes:       1,
			PerComplexTimeoutMinutes: 1,
			MinTimeoutMinutes:        1,
			MaxTimeoutMinutes:        2,
		},
		Notify: config.NotifyConfig{BatchSize: 10},
	}

	alert := &models.Alert{
		ID:         "alert-1",
		Name:       "everything",
		UserID:     "u1",
		ComplexNos: datatypes.JSONSlice[string]{},
		WebhookURL: "https://hooks.example.com/1",
		IsActive:   true,
	}
	if err := gdb.DB().Create(alert).Error; err != nil {
		t.Fatal(err)
	}

	job := &models.CrawlJob{
		ID:          "job-notify-1",
		ComplexNos:  datatypes.JSONSlice[string]{"1001"},
		Status:      models.JobStatusPending,
		CurrentStep: StepQueued,
	}
	if err := gdb.CreateCrawlJob(job); err != nil {
		t.Fatal(err)
	}

	sender := &stepCapturingSender{db: gdb, jobID: job.ID}
	o := New(gdb, cfg, Deps{Sender: sender})

	o.execute(context.Background(), job)

	if len(sender.steps) == 0 {
		t.Fatal("no notification was delivered")
	}
	for i, step := range sender.steps {
		if step != StepNotifying {
			t.Errorf("delivery %d saw step %q, want %q", i, step, StepNotifying)
		}
		if !sender.statuses[i].IsTerminal() {
			t.Errorf("delivery %d saw status %q, want a terminal status", i, sender.statuses[i])
		}
	}

	final, err := gdb.GetCrawlJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != models.JobStatusSuccess {
		t.Errorf("final status = %s, want %s", final.Status, models.JobStatusSuccess)
	}
	if final.CurrentStep != StepDone {
		t.Errorf("final step = %s, want %s", final.CurrentStep, StepDone)
	}
	if final.SuccessCount != 1 || final.TotalListings != 1 {
		t.Errorf("final counts = ok %d listings %d, want 1 and 1", final.SuccessCount, final.TotalListings)
	}
}
