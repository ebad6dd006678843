package services

import (
	"context"
	"time"

	"github.com/concoro/notifier/internal/logger"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type batchRunner interface {
	RunDailyBatch(ctx context.Context) (BatchResult, error)
}

// DailyScheduler triggers the notification batch once per day at a fixed
// wall-clock time in the configured timezone.
type DailyScheduler struct {
	runner batchRunner
	cron   *cron.Cron
}

func NewDailyScheduler(runner batchRunner, schedule string, timezone string) (*DailyScheduler, error) {

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timezone %q", timezone)
	}

	s := &DailyScheduler{
		runner: runner,
		cron:   cron.New(cron.WithLocation(location)),
	}

	_, err = s.cron.AddFunc(schedule, s.runBatch)
	if err != nil {
		return nil, err
	}

	s.cron.Start()
	log.Infof("daily notification batch scheduled at %q (%s)", schedule, timezone)
	return s, nil
}

func (s *DailyScheduler) Stop() {
	s.cron.Stop()
}

func (s *DailyScheduler) runBatch() {
	result, err := s.runner.RunDailyBatch(context.Background())
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("daily batch aborted: %v", err)
		return
	}
	log.Infof("daily batch result: %v users processed, %v notifications created, %v emails sent",
		result.UsersProcessed, result.NotificationsCreated, result.EmailsSent)
}
