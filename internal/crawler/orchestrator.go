package crawler

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"complex-tracker/internal/artifact"
	"complex-tracker/internal/changes"
	"complex-tracker/internal/config"
	"complex-tracker/internal/database"
	"complex-tracker/internal/executor"
	"complex-tracker/internal/geocode"
	"complex-tracker/internal/models"
	"complex-tracker/internal/notify"
	"complex-tracker/internal/pricecache"
	"complex-tracker/internal/reconcile"
	"complex-tracker/internal/schedule"
	"complex-tracker/internal/search"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// pipeline steps persisted on the job row
const (
	StepQueued      = "queued"
	StepCollecting  = "collecting"
	StepLoading     = "loading"
	StepReconciling = "reconciling"
	StepNotifying   = "notifying"
	StepDone        = "done"
)

// Deps bundles the optional collaborators of the orchestrator. Nil
// fields disable the corresponding side effect.
type Deps struct {
	Geocoder geocode.Resolver
	Search   *search.SearchClient
	Sender   notify.Sender
	Recorder schedule.RunRecorder
}

// Orchestrator drives a crawl job through collection, reconciliation
// and the terminal side effects
type Orchestrator struct {
	db         *database.GormDB
	cfg        *config.Config
	exec       *executor.Executor
	reconciler *reconcile.ComplexReconciler
	listings   *reconcile.ListingStore
	leases     *reconcile.LeaseManager
	dispatcher *notify.Dispatcher
	cache      *pricecache.Store
	search     *search.SearchClient
	recorder   schedule.RunRecorder
}

func New(db *database.GormDB, cfg *config.Config, deps Deps) *Orchestrator {
	o := &Orchestrator{
		db:         db,
		cfg:        cfg,
		exec:       executor.New(&cfg.Crawler),
		reconciler: reconcile.NewComplexReconciler(db.DB(), deps.Geocoder),
		listings:   reconcile.NewListingStore(db.DB(), cfg.Crawler.ListingChunkSize),
		leases:     reconcile.NewLeaseManager(db.DB()),
		cache:      pricecache.NewStore(db.DB(), &cfg.Cache),
		search:     deps.Search,
		recorder:   deps.Recorder,
	}
	if deps.Sender != nil {
		o.dispatcher = notify.NewDispatcher(db.DB(), deps.Sender, &cfg.Notify)
	}
	return o
}

// Run creates a crawl job and starts the pipeline in the background.
// The returned job is in the pending state.
func (o *Orchestrator) Run(ctx context.Context, complexNos []string, userID, scheduleID string) (*models.CrawlJob, error) {
	if len(complexNos) == 0 {
		return nil, errors.New("no complexes requested")
	}

	job := &models.CrawlJob{
		ID:          uuid.NewString(),
		ComplexNos:  complexNos,
		UserID:      userID,
		Status:      models.JobStatusPending,
		CurrentStep: StepQueued,
	}
	if scheduleID != "" {
		job.ScheduleID = &scheduleID
	}

	if err := o.db.CreateCrawlJob(job); err != nil {
		return nil, errors.Wrap(err, "create crawl job")
	}

	go o.execute(context.WithoutCancel(ctx), job)
	return job, nil
}

// execute runs the pipeline for one job and always leaves the job in
// a terminal state
func (o *Orchestrator) execute(ctx context.Context, job *models.CrawlJob) {
	started := time.Now()
	log.Printf("Orchestrator: Job %s started for %d complex(es)", job.ID, len(job.ComplexNos))

	changeSets, err := o.runPipeline(ctx, job)

	job.Duration = int(time.Since(started).Seconds())
	if err != nil {
		job.Status = models.JobStatusFailed
		job.ErrorMessage = err.Error()
	} else {
		job.Status = decideStatus(job.SuccessCount, job.ErrorCount)
	}

	// notify before finalizing; the done step is written last
	o.notifyChanges(ctx, job, changeSets)

	job.CurrentStep = StepDone
	if err := o.db.FinalizeJob(job); err != nil {
		log.Printf("Orchestrator: Failed to finalize job %s: %v", job.ID, err)
	}
	log.Printf("Orchestrator: Job %s finished: %s (ok=%d err=%d listings=%d, %ds)",
		job.ID, job.Status, job.SuccessCount, job.ErrorCount, job.TotalListings, job.Duration)

	o.recordScheduleRun(job)
}

// runPipeline performs collection, loading and reconciliation,
// mutating the job's counters as it goes
func (o *Orchestrator) runPipeline(ctx context.Context, job *models.CrawlJob) ([]*changes.ChangeSet, error) {
	// collect
	o.step(job, models.JobStatusCrawling, StepCollecting)

	limit, window := executor.HistoryParams()
	samples, err := o.db.RecentJobSamples(limit, window)
	if err != nil {
		log.Printf("Warning: job history unavailable, using fallback timeout: %v", err)
		samples = nil
	}
	timeout := executor.ComputeTimeout(samples, len(job.ComplexNos), &o.cfg.Crawler)
	log.Printf("Orchestrator: Job %s collector timeout %s", job.ID, timeout)

	result := o.exec.Run(ctx, job.ID, job.ComplexNos, timeout)
	if !result.Success {
		// Fatal: no reconciliation is attempted on a collector that
		// timed out or exited non-zero.
		return nil, errors.Wrap(result.Err, "collector failed")
	}

	// load
	o.step(job, models.JobStatusSaving, StepLoading)

	dataDir := filepath.Join(o.cfg.Crawler.BaseDir, "crawled_data")
	loaded, err := artifact.Load(dataDir, job.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load artifact")
	}
	for _, inv := range loaded.Invalid {
		log.Printf("Warning: job %s: skipping record %d: %s", job.ID, inv.Index, inv.Reason)
		job.ErrorCount++
	}

	// reconcile
	o.step(job, models.JobStatusSaving, StepReconciling)

	var changeSets []*changes.ChangeSet
	for _, rec := range loaded.Records {
		cs, listingCount, err := o.reconcileRecord(ctx, job.ID, rec, job.UserID)
		if err != nil {
			log.Printf("Warning: job %s: complex %s failed: %v", job.ID, rec.ComplexNo, err)
			job.ErrorCount++
			continue
		}
		job.SuccessCount++
		job.TotalListings += listingCount
		if cs != nil && !cs.Empty() {
			changeSets = append(changeSets, cs)
		}
	}

	if job.SuccessCount == 0 && job.ErrorCount > 0 {
		return changeSets, fmt.Errorf("all %d record(s) failed to reconcile", job.ErrorCount)
	}
	return changeSets, nil
}

// reconcileRecord processes one complex under its lease: snapshot the
// old listings, upsert the complex, replace the listings, and diff.
func (o *Orchestrator) reconcileRecord(ctx context.Context, jobID string, rec artifact.Record, userID string) (*changes.ChangeSet, int, error) {
	if err := o.leases.Acquire(rec.ComplexNo, jobID); err != nil {
		return nil, 0, errors.Wrap(err, "acquire lease")
	}
	defer func() {
		if err := o.leases.Release(rec.ComplexNo, jobID); err != nil {
			log.Printf("Warning: failed to release lease for complex %s: %v", rec.ComplexNo, err)
		}
	}()

	cx, err := o.reconciler.Reconcile(ctx, rec, userID)
	if err != nil {
		return nil, 0, errors.Wrap(err, "reconcile complex")
	}

	// The diff needs the pre-replacement listings.
	previous, err := o.listings.Snapshot(cx.ID)
	if err != nil {
		return nil, 0, errors.Wrap(err, "snapshot listings")
	}

	next := reconcile.PrepareListings(cx.ID, rec.Articles)
	if dropped := len(rec.Articles) - len(next); dropped > 0 {
		log.Printf("Orchestrator: complex %s: dropped %d duplicate or unnumbered listing(s)", rec.ComplexNo, dropped)
	}
	if err := o.listings.Replace(cx.ID, next); err != nil {
		return nil, 0, errors.Wrap(err, "replace listings")
	}

	cs := changes.Detect(cx, previous, next)

	o.invalidateCache(cx)
	o.reindex(cx, next)

	return cs, len(next), nil
}

// step persists a status transition
func (o *Orchestrator) step(job *models.CrawlJob, status models.JobStatus, stepName string) {
	job.Status = status
	job.CurrentStep = stepName
	if err := o.db.UpdateJobStep(job.ID, status, stepName); err != nil {
		log.Printf("Warning: failed to persist step %s for job %s: %v", stepName, job.ID, err)
	}
}

// decideStatus maps reconciliation counters onto a terminal status
func decideStatus(successCount, errorCount int) models.JobStatus {
	switch {
	case successCount > 0 && errorCount == 0:
		return models.JobStatusSuccess
	case successCount > 0:
		return models.JobStatusPartial
	default:
		return models.JobStatusFailed
	}
}

// invalidateCache drops cached transaction prices for the complex's
// district, since fresh listings may shift the comparison baseline
func (o *Orchestrator) invalidateCache(cx *models.Complex) {
	if cx.LawdCd == "" {
		return
	}
	if _, err := o.cache.Invalidate(cx.LawdCd); err != nil {
		log.Printf("Warning: failed to invalidate price cache for %s: %v", cx.LawdCd, err)
	}
}

// reindex refreshes the complex's search document, best effort
func (o *Orchestrator) reindex(cx *models.Complex, listings []models.Listing) {
	if o.search == nil {
		return
	}
	doc := search.BuildDocument(cx, listings)
	if err := o.search.IndexComplex(doc); err != nil {
		log.Printf("Warning: failed to index complex %s: %v", cx.ComplexNo, err)
	}
}

// recordScheduleRun writes the schedule log for scheduled jobs
func (o *Orchestrator) recordScheduleRun(job *models.CrawlJob) {
	if o.recorder == nil || job.ScheduleID == nil {
		return
	}

	status := models.ScheduleRunSuccess
	if job.Status == models.JobStatusFailed {
		status = models.ScheduleRunFailed
	}
	err := o.recorder.RecordRun(*job.ScheduleID, status, job.Duration, job.TotalListings, job.ErrorMessage)
	if err != nil {
		log.Printf("Warning: failed to record schedule run for %s: %v", *job.ScheduleID, err)
	}
}

// notifyChanges dispatches alert notifications for each changed complex
func (o *Orchestrator) notifyChanges(ctx context.Context, job *models.CrawlJob, changeSets []*changes.ChangeSet) {
	if o.dispatcher == nil || len(changeSets) == 0 {
		return
	}
	o.step(job, job.Status, StepNotifying)
	for _, cs := range changeSets {
		o.dispatcher.Dispatch(ctx, cs)
	}
}
