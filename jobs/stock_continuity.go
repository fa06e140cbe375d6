package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/grainledger/grainledger/internal/dailystock"
	jobmetrics "github.com/grainledger/grainledger/internal/jobs"
)

// StockContinuityJob runs the daily stock report over a trailing window and
// checks that every key's closing stock reappears as the next day's opening.
type StockContinuityJob struct {
	Service *dailystock.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewStockContinuityJob initialises the continuity verification handler.
func NewStockContinuityJob(service *dailystock.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockContinuityJob {
	return &StockContinuityJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one continuity verification run.
func (j *StockContinuityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("stock continuity: handler not configured")
	}
	var payload StockContinuityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = 14
	}

	start := j.now()
	tracker := j.metrics().Track(TaskStockContinuity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	to := start
	from := to.AddDate(0, 0, -payload.WindowDays)
	logger := j.logger().With(slog.Int("window_days", payload.WindowDays))
	logger.Info("starting continuity verification")

	violations, err := j.Service.Verify(ctx, from, to)
	if err != nil {
		resultErr = err
		logger.Error("continuity verification failed", slog.Any("error", err))
		return resultErr
	}

	for _, v := range violations {
		logger.Warn("continuity break detected",
			slog.String("key", v.Key),
			slog.Time("date", v.Date),
			slog.Int("closing_bags", v.Closing.Bags),
			slog.Int("opening_bags", v.Opening.Bags),
		)
	}
	j.metrics().AddFindings(TaskStockContinuity, "continuity_break", len(violations))

	logger.Info("completed continuity verification",
		slog.Int("violations", len(violations)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *StockContinuityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *StockContinuityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *StockContinuityJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
