package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"complex-tracker/internal/changes"
	"complex-tracker/internal/config"
	"complex-tracker/internal/models"

	"gorm.io/gorm"
)

// LogRecorder persists the outcome of a delivery attempt
type LogRecorder interface {
	Record(logRow *models.NotificationLog) error
}

type gormLogRecorder struct {
	db *gorm.DB
}

func (r gormLogRecorder) Record(logRow *models.NotificationLog) error {
	return r.db.Create(logRow).Error
}

// Dispatcher matches listing changes against stored alerts and
// delivers batched notifications
type Dispatcher struct {
	db        *gorm.DB
	sender    Sender
	logs      LogRecorder
	batchSize int
	pause     time.Duration
	username  string
	sleep     func(time.Duration)
}

func NewDispatcher(db *gorm.DB, sender Sender, cfg *config.NotifyConfig) *Dispatcher {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Dispatcher{
		db:        db,
		sender:    sender,
		logs:      gormLogRecorder{db: db},
		batchSize: batchSize,
		pause:     cfg.GetBatchPause(),
		username:  cfg.Username,
		sleep:     time.Sleep,
	}
}

// Dispatch fans a change set out to every matching active alert.
// Delivery failures are logged per alert and never fail the crawl.
func (d *Dispatcher) Dispatch(ctx context.Context, cs *changes.ChangeSet) {
	if cs.Empty() {
		return
	}

	var alerts []models.Alert
	if err := d.db.Where("is_active = ?", true).Find(&alerts).Error; err != nil {
		log.Printf("Warning: failed to load alerts: %v", err)
		return
	}

	for i := range alerts {
		alert := &alerts[i]
		if !alertWatches(alert, cs.ComplexNo) {
			continue
		}
		embeds := d.renderForAlert(alert, cs)
		if len(embeds) == 0 {
			continue
		}
		d.deliver(ctx, alert, cs, embeds)
	}
}

// renderForAlert applies the alert's filters and renders matching
// changes, closed out by a trailing summary card
func (d *Dispatcher) renderForAlert(alert *models.Alert, cs *changes.ChangeSet) []Embed {
	var added, removed, priced []Embed
	for _, l := range cs.Added {
		if alertMatchesListing(alert, l) {
			added = append(added, addedEmbed(l))
		}
	}
	for _, l := range cs.Removed {
		if alertMatchesListing(alert, l) {
			removed = append(removed, removedEmbed(l))
		}
	}
	for _, pc := range cs.PriceChanged {
		if alertMatchesListing(alert, pc.New) {
			priced = append(priced, priceEmbed(pc))
		}
	}

	total := len(added) + len(removed) + len(priced)
	if total == 0 {
		return nil
	}

	embeds := make([]Embed, 0, total+1)
	embeds = append(embeds, added...)
	embeds = append(embeds, removed...)
	embeds = append(embeds, priced...)
	embeds = append(embeds, summaryEmbed(cs, len(added), len(removed), len(priced)))
	return embeds
}

// deliver sends the embeds in batches, pausing between batches, and
// records one notification log row per batch
func (d *Dispatcher) deliver(ctx context.Context, alert *models.Alert, cs *changes.ChangeSet, embeds []Embed) {
	batches := (len(embeds) + d.batchSize - 1) / d.batchSize

	for i := 0; i < len(embeds); i += d.batchSize {
		if i > 0 {
			d.sleep(d.pause)
		}

		end := i + d.batchSize
		if end > len(embeds) {
			end = len(embeds)
		}
		batch := embeds[i:end]
		batchNo := i/d.batchSize + 1

		err := d.sender.Send(ctx, alert.WebhookURL, Payload{
			Username: d.username,
			Embeds:   batch,
		})

		logRow := models.NotificationLog{
			AlertID: alert.ID,
			Channel: models.NotifyChannelWebhook,
			Message: fmt.Sprintf("%s batch %d/%d (%d cards)", cs.ComplexNo, batchNo, batches, len(batch)),
		}
		if err != nil {
			log.Printf("Warning: webhook delivery failed for alert %s: %v", alert.ID, err)
			logRow.Status = models.NotifyStatusFailed
		} else {
			logRow.Status = models.NotifyStatusSent
		}
		if dbErr := d.logs.Record(&logRow); dbErr != nil {
			log.Printf("Warning: failed to record notification log: %v", dbErr)
		}
	}
}

// alertWatches reports whether the alert covers the complex. An empty
// complex list watches everything.
func alertWatches(alert *models.Alert, complexNo string) bool {
	if len(alert.ComplexNos) == 0 {
		return true
	}
	for _, no := range alert.ComplexNos {
		if no == complexNo {
			return true
		}
	}
	return false
}

// alertMatchesListing applies the alert's trade-type, price and area
// filters to a single listing
func alertMatchesListing(alert *models.Alert, l models.Listing) bool {
	if len(alert.TradeTypes) > 0 {
		found := false
		for _, tt := range alert.TradeTypes {
			if tt == l.TradeTypeName {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if alert.MinPrice != nil || alert.MaxPrice != nil {
		if l.DealPriceWon == nil {
			return false
		}
		if alert.MinPrice != nil && *l.DealPriceWon < *alert.MinPrice {
			return false
		}
		if alert.MaxPrice != nil && *l.DealPriceWon > *alert.MaxPrice {
			return false
		}
	}

	if alert.MinArea != nil && l.Area1 < *alert.MinArea {
		return false
	}
	if alert.MaxArea != nil && l.Area1 > *alert.MaxArea {
		return false
	}
	return true
}
