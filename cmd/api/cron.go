package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
)

// newRolloverCron schedules the yearly rollover. spec uses the standard five-field format and
// is evaluated in loc.
func newRolloverCron(spec string, loc *time.Location, enqueue func(ctx context.Context) (string, error), logger *zap.Logger) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{logger: logger}))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		jobID, err := enqueue(ctx)
		switch {
		case appErrors.Is(err, appErrors.ErrConflict):
			logger.Info("scheduled rollover skipped", zap.Error(err))
		case err != nil:
			logger.Error("scheduled rollover failed to enqueue", zap.Error(err))
		default:
			logger.Info("scheduled rollover enqueued", zap.String("job_id", jobID))
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
