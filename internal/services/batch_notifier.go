package services

import (
	"context"
	"sort"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/concoro/notifier/internal/entities"
	"github.com/concoro/notifier/internal/events"
	"github.com/concoro/notifier/internal/logger"
	"github.com/concoro/notifier/internal/metrics"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type savedItemsRepository interface {
	GetAll(ctx context.Context) ([]entities.SavedItem, error)
}

type notificationRepository interface {
	Exists(ctx context.Context, userID string, concorsoID string, daysLeft int) (bool, error)
	Add(ctx context.Context, notification entities.Notification) error
}

type digestSender interface {
	SendDigest(ctx context.Context, userID string) (bool, error)
}

// BatchResult aggregates the counts of one daily run.
type BatchResult struct {
	UsersProcessed       int
	NotificationsCreated int
	EmailsSent           int
}

// SaveResult is the structured outcome of the on-save path. A missing
// concorso is reported here rather than raised.
type SaveResult struct {
	Success bool
	Created int
	Reason  string
}

// BatchNotifier fans the deadline check out over every saved item, grouped
// by user, and triggers the per-user digest. It also reacts to ItemSaved
// events by running the same check for the single new item (without email).
type BatchNotifier struct {
	items         savedItemsRepository
	concorsi      concorsoReader
	notifications notificationRepository
	mailer        digestSender
}

func NewBatchNotifier(bus EventBus.Bus, items savedItemsRepository, concorsi concorsoReader,
	notifications notificationRepository, mailer digestSender) (*BatchNotifier, error) {

	b := &BatchNotifier{
		items:         items,
		concorsi:      concorsi,
		notifications: notifications,
		mailer:        mailer,
	}

	if bus != nil {
		if err := bus.Subscribe(events.ItemSavedTopic, b.onItemSavedEvent); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// RunDailyBatch processes every saved item of every user. Only a failure of
// the initial bulk read aborts the run; everything below that scope is
// logged and skipped.
func (b *BatchNotifier) RunDailyBatch(ctx context.Context) (BatchResult, error) {

	startTime := time.Now()
	log.Infof("running daily notification batch at %v", startTime)

	items, err := b.items.GetAll(ctx)
	if err != nil {
		return BatchResult{}, errors.Wrap(err, "failed to load saved items")
	}

	byUser := lo.GroupBy(items, func(item entities.SavedItem) string { return item.UserID })
	userIDs := lo.Keys(byUser)
	sort.Strings(userIDs) // reproducible runs; users are independent either way

	var result BatchResult
	today := time.Now()

	for _, userID := range userIDs {
		for _, item := range byUser[userID] {
			created, err := b.checkSavedItem(ctx, item, today)
			if err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
					Errorf("failed to check saved item %v of user %v: %v", item.ConcorsoID, userID, err)
				continue
			}
			result.NotificationsCreated += created
		}

		// The digest covers all outstanding actionable notifications, not
		// just the ones created this run, so it is attempted for every user
		// with saved items.
		sent, err := b.mailer.SendDigest(ctx, userID)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeEmailApi).
				Errorf("failed to send digest to user %v: %v", userID, err)
		} else if sent {
			result.EmailsSent++
		}

		result.UsersProcessed++
	}

	metrics.BatchDuration.Observe(time.Since(startTime).Seconds())
	log.Infof("daily batch ended after %v: %v users, %v notifications created, %v emails sent",
		time.Since(startTime), result.UsersProcessed, result.NotificationsCreated, result.EmailsSent)
	return result, nil
}

// ProcessSavedItem is the on-save entry point: one deadline check for one
// freshly saved item, no email send.
func (b *BatchNotifier) ProcessSavedItem(ctx context.Context, item entities.SavedItem) SaveResult {

	concorso, err := b.concorsi.GetByID(ctx, item.ConcorsoID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to load concorso %v: %v", item.ConcorsoID, err)
		return SaveResult{Success: false, Reason: "failed to load concorso"}
	}
	if concorso == nil {
		log.Warnf("concorso %v not found for saved item of user %v", item.ConcorsoID, item.UserID)
		return SaveResult{Success: false, Reason: "Concorso not found"}
	}

	created, err := b.storeNotifications(ctx, *concorso, item, time.Now())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to store notifications for user %v: %v", item.UserID, err)
		return SaveResult{Success: false, Created: created, Reason: "failed to store notification"}
	}

	return SaveResult{Success: true, Created: created}
}

func (b *BatchNotifier) checkSavedItem(ctx context.Context, item entities.SavedItem, today time.Time) (int, error) {

	concorso, err := b.concorsi.GetByID(ctx, item.ConcorsoID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load concorso")
	}
	if concorso == nil {
		log.Warnf("concorso %v not found for saved item of user %v, skipping", item.ConcorsoID, item.UserID)
		return 0, nil
	}

	return b.storeNotifications(ctx, *concorso, item, today)
}

func (b *BatchNotifier) storeNotifications(ctx context.Context, concorso entities.Concorso,
	item entities.SavedItem, today time.Time) (int, error) {

	created := 0
	for _, notification := range EvaluateDeadline(concorso, item, today) {
		exists, err := b.notifications.Exists(ctx, notification.UserID, notification.ConcorsoID, notification.DaysLeft)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		if err = b.notifications.Add(ctx, notification); err != nil {
			return created, err
		}
		metrics.NotificationsCreatedCounter.Inc()
		created++
	}
	return created, nil
}

func (b *BatchNotifier) onItemSavedEvent(event events.ItemSaved) {
	result := b.ProcessSavedItem(context.Background(), event.Item)
	if !result.Success {
		log.Warnf("on-save check for user %v failed: %v", event.Item.UserID, result.Reason)
	}
}
