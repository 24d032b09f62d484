package schedule

import (
	"context"
	"log"
	"sync"

	"complex-tracker/internal/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// JobRunner starts a crawl on behalf of a schedule
type JobRunner interface {
	Run(ctx context.Context, complexNos []string, userID, scheduleID string) (*models.CrawlJob, error)
}

// Scheduler fires stored schedules via cron expressions
type Scheduler struct {
	cron      *cron.Cron
	db        *gorm.DB
	runner    JobRunner
	mu        sync.Mutex
	entries   map[string]cron.EntryID
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(db *gorm.DB, runner JobRunner) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		db:      db,
		runner:  runner,
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers all enabled schedules and begins firing them
func (s *Scheduler) Start() error {
	if err := s.Reload(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with %d schedule(s)", len(s.entries))
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// Reload re-reads enabled schedules from the database and swaps the
// registered cron entries to match
func (s *Scheduler) Reload() error {
	var schedules []models.Schedule
	if err := s.db.Where("enabled = ?", true).Find(&schedules).Error; err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entryID := range s.entries {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}

	for _, sched := range schedules {
		sched := sched
		entryID, err := s.cron.AddFunc(sched.CronExpr, func() {
			s.fire(sched)
		})
		if err != nil {
			log.Printf("Warning: skipping schedule %s (%s): bad cron expression %q: %v",
				sched.ID, sched.Name, sched.CronExpr, err)
			continue
		}
		s.entries[sched.ID] = entryID
	}
	return nil
}

// fire launches a crawl for one schedule
func (s *Scheduler) fire(sched models.Schedule) {
	log.Printf("Scheduler: Firing schedule %s (%s) for %d complex(es)",
		sched.ID, sched.Name, len(sched.ComplexNos))

	job, err := s.runner.Run(context.Background(), sched.ComplexNos, sched.UserID, sched.ID)
	if err != nil {
		log.Printf("Scheduler: Schedule %s failed to start: %v", sched.ID, err)
		return
	}
	log.Printf("Scheduler: Schedule %s started job %s", sched.ID, job.ID)
}
